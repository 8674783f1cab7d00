package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/feedback-podcast/feedback/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS feed (
    key TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT DEFAULT '',
    link TEXT DEFAULT '',
    last_build_date TEXT,
    copyright TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS episode (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    feed_key TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT DEFAULT '',
    link TEXT DEFAULT '',
    enclosure TEXT NOT NULL,
    pubdate TEXT,
    copyright TEXT DEFAULT '',
    played INTEGER DEFAULT 0,
    progress_ms INTEGER DEFAULT 0,
    downloaded_path TEXT DEFAULT '',
    FOREIGN KEY (feed_key) REFERENCES feed(key) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS queue (
    position INTEGER PRIMARY KEY,
    episode_id INTEGER NOT NULL,
    FOREIGN KEY (episode_id) REFERENCES episode(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS playback_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    episode_id INTEGER NOT NULL,
    played_at TEXT NOT NULL,
    duration_listened_ms INTEGER DEFAULT 0,
    FOREIGN KEY (episode_id) REFERENCES episode(id) ON DELETE CASCADE
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_episode_identity ON episode(feed_key, enclosure);
CREATE INDEX IF NOT EXISTS idx_episode_played ON episode(played);
CREATE INDEX IF NOT EXISTS idx_history_played_at ON playback_history(played_at);
`

// Store is the SQLite persistence layer for feeds, episodes, the
// playback queue and listening history. In-flight download state is
// deliberately not persisted; only completed downloads get their path
// recorded.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite handles one writer; a single connection avoids busy
	// errors under concurrent use.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetFeeds returns all feeds ordered by title.
func (s *Store) GetFeeds() ([]model.Feed, error) {
	rows, err := s.db.Query(
		`SELECT key, title, description, link, last_build_date, copyright
		 FROM feed ORDER BY title`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feeds []model.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, rows.Err()
}

// GetFeed returns the feed with the given key, or ErrNotFound.
func (s *Store) GetFeed(key string) (model.Feed, error) {
	row := s.db.QueryRow(
		`SELECT key, title, description, link, last_build_date, copyright
		 FROM feed WHERE key = ?`, key)
	f, err := scanFeed(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Feed{}, ErrNotFound
	}
	return f, err
}

// UpsertFeed inserts or replaces a feed record.
func (s *Store) UpsertFeed(f model.Feed) error {
	_, err := s.db.Exec(
		`INSERT INTO feed (key, title, description, link, last_build_date, copyright)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
		     title = excluded.title,
		     description = excluded.description,
		     link = excluded.link,
		     last_build_date = excluded.last_build_date,
		     copyright = excluded.copyright`,
		f.Key, f.Title, f.Description, f.Link, timeToText(f.LastBuildDate), f.Copyright)
	return err
}

// DeleteFeed removes a feed; episodes cascade.
func (s *Store) DeleteFeed(key string) error {
	_, err := s.db.Exec(`DELETE FROM feed WHERE key = ?`, key)
	return err
}

// GetEpisodes returns a feed's episodes, newest first.
func (s *Store) GetEpisodes(feedKey string) ([]model.Episode, error) {
	rows, err := s.db.Query(
		`SELECT id, feed_key, title, description, link, enclosure, pubdate,
		        copyright, played, progress_ms, downloaded_path
		 FROM episode WHERE feed_key = ?
		 ORDER BY pubdate DESC, id DESC`, feedKey)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var episodes []model.Episode
	for rows.Next() {
		ep, err := scanEpisode(rows)
		if err != nil {
			return nil, err
		}
		episodes = append(episodes, ep)
	}
	return episodes, rows.Err()
}

// GetEpisode returns the episode with the given id, or ErrNotFound.
func (s *Store) GetEpisode(id int64) (model.Episode, error) {
	row := s.db.QueryRow(
		`SELECT id, feed_key, title, description, link, enclosure, pubdate,
		        copyright, played, progress_ms, downloaded_path
		 FROM episode WHERE id = ?`, id)
	ep, err := scanEpisode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Episode{}, ErrNotFound
	}
	return ep, err
}

// UpsertEpisodes stores a batch of episodes. An episode is identified
// by (feed_key, enclosure): re-importing a feed refreshes the metadata
// of known episodes without losing played state, progress or the
// downloaded path.
func (s *Store) UpsertEpisodes(episodes []model.Episode) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO episode (feed_key, title, description, link, enclosure,
		                      pubdate, copyright, played, progress_ms, downloaded_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(feed_key, enclosure) DO UPDATE SET
		     title = excluded.title,
		     description = excluded.description,
		     link = excluded.link,
		     pubdate = excluded.pubdate,
		     copyright = excluded.copyright`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, ep := range episodes {
		_, err := stmt.Exec(ep.FeedKey, ep.Title, ep.Description, ep.Link,
			ep.Enclosure, timeToText(ep.PubDate), ep.Copyright,
			boolToInt(ep.Played), ep.ProgressMS, ep.DownloadedPath)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// UpdateProgress records the playback position of an episode.
func (s *Store) UpdateProgress(episodeID, progressMS int64) error {
	_, err := s.db.Exec(
		`UPDATE episode SET progress_ms = ? WHERE id = ?`, progressMS, episodeID)
	return err
}

// MarkPlayed flips the played flag, resetting progress when played.
func (s *Store) MarkPlayed(episodeID int64, played bool) error {
	progress := `progress_ms`
	if played {
		progress = `0`
	}
	_, err := s.db.Exec(
		`UPDATE episode SET played = ?, progress_ms = `+progress+` WHERE id = ?`,
		boolToInt(played), episodeID)
	return err
}

// SetDownloadedPath records where a completed download landed. An
// empty path marks the episode as not downloaded again (file deleted).
func (s *Store) SetDownloadedPath(episodeID int64, path string) error {
	_, err := s.db.Exec(
		`UPDATE episode SET downloaded_path = ? WHERE id = ?`, path, episodeID)
	return err
}

// GetQueue returns the playback queue in position order.
func (s *Store) GetQueue() ([]model.QueueItem, error) {
	rows, err := s.db.Query(
		`SELECT position, episode_id FROM queue ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.QueueItem
	for rows.Next() {
		var it model.QueueItem
		if err := rows.Scan(&it.Position, &it.EpisodeID); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveQueue replaces the stored playback queue.
func (s *Store) SaveQueue(items []model.QueueItem) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM queue`); err != nil {
		return err
	}
	for _, it := range items {
		if _, err := tx.Exec(
			`INSERT INTO queue (position, episode_id) VALUES (?, ?)`,
			it.Position, it.EpisodeID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ClearQueue empties the playback queue.
func (s *Store) ClearQueue() error {
	_, err := s.db.Exec(`DELETE FROM queue`)
	return err
}

// HistoryEntry is one listening-history row joined with its episode.
type HistoryEntry struct {
	Episode            model.Episode
	PlayedAt           time.Time
	DurationListenedMS int64
}

// AddToHistory appends a listening record.
func (s *Store) AddToHistory(episodeID, durationListenedMS int64) error {
	_, err := s.db.Exec(
		`INSERT INTO playback_history (episode_id, played_at, duration_listened_ms)
		 VALUES (?, ?, ?)`,
		episodeID, time.Now().UTC().Format(time.RFC3339), durationListenedMS)
	return err
}

// GetHistory returns the most recent listening records, newest first.
func (s *Store) GetHistory(limit int) ([]HistoryEntry, error) {
	rows, err := s.db.Query(
		`SELECT e.id, e.feed_key, e.title, e.description, e.link, e.enclosure,
		        e.pubdate, e.copyright, e.played, e.progress_ms, e.downloaded_path,
		        h.played_at, h.duration_listened_ms
		 FROM playback_history h
		 JOIN episode e ON e.id = h.episode_id
		 ORDER BY h.played_at DESC, h.id DESC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var (
			ep       model.Episode
			pubdate  sql.NullString
			playedAt string
			played   int
			entry    HistoryEntry
		)
		err := rows.Scan(&ep.ID, &ep.FeedKey, &ep.Title, &ep.Description,
			&ep.Link, &ep.Enclosure, &pubdate, &ep.Copyright, &played,
			&ep.ProgressMS, &ep.DownloadedPath,
			&playedAt, &entry.DurationListenedMS)
		if err != nil {
			return nil, err
		}
		ep.Played = played != 0
		ep.PubDate = textToTime(pubdate)
		entry.Episode = ep
		entry.PlayedAt = textToTime(sql.NullString{String: playedAt, Valid: true})
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// ClearHistory removes all listening records, returning how many were
// deleted.
func (s *Store) ClearHistory() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM playback_history`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFeed(row scanner) (model.Feed, error) {
	var (
		f         model.Feed
		buildDate sql.NullString
	)
	err := row.Scan(&f.Key, &f.Title, &f.Description, &f.Link, &buildDate, &f.Copyright)
	if err != nil {
		return model.Feed{}, err
	}
	f.LastBuildDate = textToTime(buildDate)
	return f, nil
}

func scanEpisode(row scanner) (model.Episode, error) {
	var (
		ep      model.Episode
		pubdate sql.NullString
		played  int
	)
	err := row.Scan(&ep.ID, &ep.FeedKey, &ep.Title, &ep.Description, &ep.Link,
		&ep.Enclosure, &pubdate, &ep.Copyright, &played, &ep.ProgressMS,
		&ep.DownloadedPath)
	if err != nil {
		return model.Episode{}, err
	}
	ep.Played = played != 0
	ep.PubDate = textToTime(pubdate)
	return ep, nil
}

func timeToText(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func textToTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
