// Package feeds retrieves podcast subscriptions: fetching and parsing
// RSS/Atom feeds into model records, and importing/exporting OPML
// subscription lists.
package feeds
