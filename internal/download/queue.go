package download

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/feedback-podcast/feedback/internal/httpx"
)

// Defaults applied by New when the corresponding Options field is zero.
const (
	DefaultMaxConcurrent  = 3
	DefaultTimeout        = 5 * time.Minute
	DefaultConnectTimeout = 30 * time.Second
	DefaultChunkSize      = 64 * 1024
	DefaultUserAgent      = "feedback/0.1.0"
)

// Request describes one entry for AddBatch.
type Request struct {
	URL string

	// Filename overrides the name derived from the URL. Empty means
	// "derive it".
	Filename string

	// EpisodeID is carried through to the created Item.
	EpisodeID int64
}

// ProgressFunc receives a snapshot of an item. It is called at least
// once per chunk while the item downloads and exactly once more on
// every terminal transition. Treat the snapshot as "latest known
// state", not as a delta.
type ProgressFunc func(Item)

// Options configures a Queue. Zero values fall back to the package
// defaults.
type Options struct {
	MaxConcurrent  int
	Timeout        time.Duration
	ConnectTimeout time.Duration
	ChunkSize      int
	UserAgent      string
	Logger         *log.Logger
}

// Queue manages concurrent downloads of podcast episodes.
//
// Admission is self-triggering: every Add/AddBatch runs one admission
// pass, and every finished worker runs another to backfill the slot it
// freed. There is no dispatcher goroutine. A single mutex guards the
// item list and the active-worker map together; it is never held
// across network or disk I/O.
type Queue struct {
	dir       string
	max       int
	chunkSize int
	client    *httpx.Client
	logger    *log.Logger

	mu         sync.Mutex
	cond       *sync.Cond
	items      []*Item
	active     map[string]context.CancelFunc
	onProgress ProgressFunc
}

// New creates a download queue writing into dir, creating the
// directory if it does not exist.
func New(dir string, opts Options) (*Queue, error) {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	q := &Queue{
		dir:       dir,
		max:       opts.MaxConcurrent,
		chunkSize: opts.ChunkSize,
		client:    httpx.New(opts.UserAgent, opts.Timeout, opts.ConnectTimeout),
		logger:    opts.Logger,
		active:    make(map[string]context.CancelFunc),
	}
	q.cond = sync.NewCond(&q.mu)
	return q, nil
}

// SetProgressFunc installs or removes (nil) the progress notifier.
func (q *Queue) SetProgressFunc(fn ProgressFunc) {
	q.mu.Lock()
	q.onProgress = fn
	q.mu.Unlock()
}

// Add appends a new pending download and immediately tries to start
// it. filename may be empty to derive one from the URL; episodeID of 0
// means "no correlation". Add returns the created item's snapshot
// without waiting for the transfer.
func (q *Queue) Add(url, filename string, episodeID int64) Item {
	q.mu.Lock()
	it := q.appendLocked(url, filename, episodeID)
	snapshot := *it
	q.processQueueLocked()
	q.mu.Unlock()
	return snapshot
}

// AddBatch appends all requests under one lock acquisition before
// running a single admission pass, so a batch fills the available
// slots in its own order instead of racing entry by entry.
func (q *Queue) AddBatch(reqs []Request) []Item {
	q.mu.Lock()
	snapshots := make([]Item, 0, len(reqs))
	for _, r := range reqs {
		it := q.appendLocked(r.URL, r.Filename, r.EpisodeID)
		snapshots = append(snapshots, *it)
	}
	q.processQueueLocked()
	q.mu.Unlock()
	return snapshots
}

// appendLocked creates the item. Caller holds q.mu.
func (q *Queue) appendLocked(url, filename string, episodeID int64) *Item {
	if filename == "" {
		filename = deriveFilename(url, len(q.items))
	}
	it := &Item{
		ID:          uuid.NewString(),
		URL:         url,
		Destination: filepath.Join(q.dir, filename),
		Status:      StatusPending,
		EpisodeID:   episodeID,
	}
	q.items = append(q.items, it)
	return it
}

// deriveFilename takes the last path segment of the URL, stripped of
// any query string, falling back to a synthetic name when the URL ends
// in a slash.
func deriveFilename(url string, position int) string {
	segments := strings.Split(url, "/")
	name := segments[len(segments)-1]
	if i := strings.IndexByte(name, '?'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		name = fmt.Sprintf("download_%d", position)
	}
	return name
}

// Cancel cancels the download for url. An active worker receives a
// cooperative cancellation signal and flips the item itself once it
// observes it; a pending item is flipped directly. Cancel reports
// whether anything was cancelled; unknown URLs and already-terminal
// items return false.
func (q *Queue) Cancel(url string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if cancel, ok := q.active[url]; ok {
		cancel()
		delete(q.active, url)
		return true
	}

	for _, it := range q.items {
		if it.URL == url && it.Status == StatusPending {
			it.Status = StatusCancelled
			q.cond.Broadcast()
			return true
		}
	}
	return false
}

// CancelAll cancels every active worker and flips every remaining
// pending item to cancelled, returning the total affected count.
func (q *Queue) CancelAll() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	cancelled := 0
	for url, cancel := range q.active {
		cancel()
		delete(q.active, url)
		cancelled++
	}
	for _, it := range q.items {
		if it.Status == StatusPending {
			it.Status = StatusCancelled
			cancelled++
		}
	}
	q.cond.Broadcast()
	return cancelled
}

// ClearCompleted removes terminal items (completed, failed and
// cancelled) from the queue, preserving the relative order of the
// rest. It returns the number of removed items.
func (q *Queue) ClearCompleted() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.items[:0]
	removed := 0
	for _, it := range q.items {
		if it.Status.Terminal() {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	q.items = kept
	return removed
}

// Items returns a snapshot copy of every item in the queue.
func (q *Queue) Items() []Item {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Item, len(q.items))
	for i, it := range q.items {
		out[i] = *it
	}
	return out
}

// Item returns a snapshot of the first item matching url.
func (q *Queue) Item(url string) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, it := range q.items {
		if it.URL == url {
			return *it, true
		}
	}
	return Item{}, false
}

// PendingCount returns the number of pending items.
func (q *Queue) PendingCount() int { return q.countStatus(StatusPending) }

// CompletedCount returns the number of completed items.
func (q *Queue) CompletedCount() int { return q.countStatus(StatusCompleted) }

// FailedCount returns the number of failed items.
func (q *Queue) FailedCount() int { return q.countStatus(StatusFailed) }

// ActiveCount returns the number of running workers.
func (q *Queue) ActiveCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.active)
}

func (q *Queue) countStatus(s Status) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, it := range q.items {
		if it.Status == s {
			n++
		}
	}
	return n
}

// WaitAll blocks until no worker is active and no item is pending.
// Adds that arrive while waiting extend the wait; it is not a one-shot
// join.
func (q *Queue) WaitAll() {
	q.mu.Lock()
	for len(q.active) > 0 || q.pendingLocked() > 0 {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

func (q *Queue) pendingLocked() int {
	n := 0
	for _, it := range q.items {
		if it.Status == StatusPending {
			n++
		}
	}
	return n
}

// processQueueLocked admits pending items in insertion order until the
// concurrency cap is reached. Caller holds q.mu. The method is invoked
// after every Add/AddBatch and by every worker's cleanup, which is
// what keeps the pipeline full without a dispatcher.
func (q *Queue) processQueueLocked() {
	for _, it := range q.items {
		if len(q.active) >= q.max {
			break
		}
		if it.Status != StatusPending {
			continue
		}
		if _, busy := q.active[it.URL]; busy {
			// One worker per URL at a time; a duplicate waits
			// for the first to finish.
			continue
		}
		it.Status = StatusDownloading
		ctx, cancel := context.WithCancel(context.Background())
		q.active[it.URL] = cancel
		go q.transfer(ctx, cancel, it)
	}
}

// notify invokes the progress callback with a snapshot taken under the
// lock. Never call it while holding q.mu.
func (q *Queue) notify(snapshot Item) {
	q.mu.Lock()
	fn := q.onProgress
	q.mu.Unlock()
	if fn != nil {
		fn(snapshot)
	}
}

// setFailed records a failure. The worker owns the item, so only it
// calls this.
func (q *Queue) setFailed(it *Item, msg string) {
	q.mu.Lock()
	it.Status = StatusFailed
	it.Err = msg
	q.mu.Unlock()
	q.logger.Warn("download failed", "url", it.URL, "error", msg)
}

// transfer moves one item from downloading to a terminal state. It is
// the only goroutine that mutates the item while it runs. cancel
// releases the context resources once the transfer settles.
func (q *Queue) transfer(ctx context.Context, cancel context.CancelFunc, it *Item) {
	defer cancel()
	defer q.finish(it)

	req, err := q.client.NewRequest(ctx, http.MethodGet, it.URL)
	if err != nil {
		q.setFailed(it, err.Error())
		return
	}

	resp, err := q.client.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			q.markCancelled(it)
		} else {
			q.setFailed(it, err.Error())
		}
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		q.setFailed(it, fmt.Sprintf("HTTP %d", resp.StatusCode))
		return
	}

	if resp.ContentLength > 0 {
		q.mu.Lock()
		it.TotalBytes = resp.ContentLength
		q.mu.Unlock()
	}

	file, err := os.Create(it.Destination)
	if err != nil {
		q.setFailed(it, "IO error: "+err.Error())
		return
	}

	buf := make([]byte, q.chunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := file.Write(buf[:n]); writeErr != nil {
				file.Close()
				q.setFailed(it, "IO error: "+writeErr.Error())
				return
			}
			q.mu.Lock()
			it.BytesDownloaded += int64(n)
			if it.TotalBytes > 0 {
				it.Progress = float64(it.BytesDownloaded) / float64(it.TotalBytes)
			}
			snapshot := *it
			q.mu.Unlock()
			q.notify(snapshot)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			file.Close()
			if ctx.Err() == context.Canceled {
				q.cleanupPartial(it)
				q.markCancelled(it)
			} else {
				q.setFailed(it, readErr.Error())
			}
			return
		}
	}

	if err := file.Close(); err != nil {
		q.setFailed(it, "IO error: "+err.Error())
		return
	}

	q.mu.Lock()
	it.Status = StatusCompleted
	it.Progress = 1.0
	q.mu.Unlock()
	q.logger.Debug("download completed", "url", it.URL, "dest", it.Destination)
}

// markCancelled flips the item after the worker observed the
// cancellation signal.
func (q *Queue) markCancelled(it *Item) {
	q.mu.Lock()
	it.Status = StatusCancelled
	q.mu.Unlock()
	q.logger.Debug("download cancelled", "url", it.URL)
}

// cleanupPartial removes the partly written destination file.
// Cancellation guarantees no file is left behind; failures may leave a
// partial file.
func (q *Queue) cleanupPartial(it *Item) {
	if err := os.Remove(it.Destination); err != nil && !os.IsNotExist(err) {
		q.logger.Warn("remove partial file", "path", it.Destination, "error", err)
	}
}

// finish is the worker's cleanup step, run regardless of outcome: free
// the slot, emit the final snapshot, backfill.
func (q *Queue) finish(it *Item) {
	q.mu.Lock()
	delete(q.active, it.URL)
	snapshot := *it
	q.processQueueLocked()
	q.cond.Broadcast()
	q.mu.Unlock()

	q.notify(snapshot)
}
