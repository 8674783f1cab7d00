package model

import (
	"regexp"
	"strings"
	"time"
)

// Feed is a podcast feed (RSS/Atom source).
type Feed struct {
	// Key uniquely identifies the feed; it is the feed URL.
	Key         string
	Title       string
	Description string
	Link        string

	// LastBuildDate is zero when the feed did not report one.
	LastBuildDate time.Time

	Copyright string
}

// Episode is a single podcast episode.
type Episode struct {
	// ID is the database row id, 0 before the episode is stored.
	ID      int64
	FeedKey string
	Title   string

	Description string
	Link        string

	// Enclosure is the media file URL; episodes without one are not
	// tracked.
	Enclosure string

	// PubDate is zero when the feed did not report one.
	PubDate time.Time

	Copyright string

	Played bool

	// ProgressMS is the playback position in milliseconds.
	ProgressMS int64

	// DownloadedPath is the local file, empty until a download
	// completes.
	DownloadedPath string
}

// IsDownloaded reports whether the episode has a local file.
func (e Episode) IsDownloaded() bool {
	return e.DownloadedPath != ""
}

// ProgressSeconds returns playback progress in seconds.
func (e Episode) ProgressSeconds() float64 {
	return float64(e.ProgressMS) / 1000.0
}

// QueueItem is an entry in the playback queue.
type QueueItem struct {
	// Position in the queue, 1-indexed.
	Position  int
	EpisodeID int64
}

var (
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots     = regexp.MustCompile(`\.+$`)
	multiSpace       = regexp.MustCompile(`\s+`)
)

// SanitizeFileName replaces characters that are invalid in file names
// on common platforms, trims trailing dots (a Windows restriction) and
// collapses repeated whitespace.
func SanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = trailingDots.ReplaceAllString(name, "")
	name = multiSpace.ReplaceAllString(name, " ")
	return strings.TrimRight(name, " ")
}
