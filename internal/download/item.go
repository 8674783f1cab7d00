package download

import "math"

// Status is the lifecycle state of a download.
//
// Transitions are strictly forward: Pending -> Downloading -> one of
// {Completed, Failed, Cancelled}. The three right-hand states are
// terminal; retrying a failed or cancelled download means adding a
// brand-new item.
type Status int

const (
	StatusPending Status = iota
	StatusDownloading
	StatusCompleted
	StatusFailed
	StatusCancelled
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDownloading:
		return "downloading"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Item represents one download in the queue.
//
// The URL doubles as the key of the active-worker map while the
// transfer runs; ID distinguishes two items that were added for the
// same URL. Item values handed to callers (via Items, Item or the
// progress callback) are snapshots and never mutated afterwards.
type Item struct {
	// ID uniquely identifies the item within the queue.
	ID string

	// URL is the source of the transfer.
	URL string

	// Destination is the target file path. The parent directory is
	// created when the queue is constructed.
	Destination string

	Status Status

	// Progress is in [0, 1]. It stays 0 while TotalBytes is unknown
	// and is exactly 1 on completion.
	Progress float64

	BytesDownloaded int64

	// TotalBytes is the Content-Length of the response, or 0 when the
	// server did not report one.
	TotalBytes int64

	// Err holds the failure message. Set only when Status is
	// StatusFailed.
	Err string

	// EpisodeID is an opaque correlation key for the caller. The
	// queue never interprets it; 0 means "not set".
	EpisodeID int64
}

// ProgressPercent returns the progress as a percentage in [0, 100].
func (it Item) ProgressPercent() int {
	return int(math.Round(it.Progress * 100))
}
