// Package download implements the concurrent download queue for
// podcast episode enclosures.
//
// # Queue
//
// A Queue owns an ordered list of Items and a bounded set of active
// transfer workers. Adding an item runs one admission pass; every
// worker runs another when it finishes, so the pipeline stays full
// without a dispatcher goroutine:
//
//	q, err := download.New(dir, download.Options{MaxConcurrent: 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	q.SetProgressFunc(func(it download.Item) {
//	    fmt.Printf("%s %d%%\n", it.URL, it.ProgressPercent())
//	})
//	q.Add("https://example.com/episode.mp3", "", 42)
//	q.WaitAll()
//
// # Cancellation
//
// Cancellation is cooperative. Cancel signals the worker's context;
// the worker observes it at the next chunk boundary, deletes the
// partial file and flips the item to cancelled. Cancelling an item
// that has not started yet flips it synchronously.
//
// # Errors
//
// Transfer errors never reach the caller of Add or AddBatch. They are
// recorded on the item (status failed, Err message) and observable via
// Items, Item or the progress callback. Failed and cancelled items are
// terminal; there is no automatic retry.
package download
