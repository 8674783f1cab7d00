package feeds

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/feedback-podcast/feedback/internal/httpx"
	"github.com/feedback-podcast/feedback/internal/model"
)

// refreshLimit bounds how many feeds RefreshAll fetches at once.
const refreshLimit = 5

// Fetcher retrieves and parses RSS/Atom feeds into model records.
type Fetcher struct {
	client *httpx.Client
	parser *gofeed.Parser

	// maxEpisodes limits how many episodes are kept per feed,
	// newest first; -1 keeps everything.
	maxEpisodes int

	logger *log.Logger
}

// NewFetcher creates a Fetcher. maxEpisodes of -1 keeps every episode.
func NewFetcher(client *httpx.Client, maxEpisodes int) *Fetcher {
	return &Fetcher{
		client:      client,
		parser:      gofeed.NewParser(),
		maxEpisodes: maxEpisodes,
		logger:      log.Default(),
	}
}

// Fetch downloads and parses one feed. Items without an enclosure are
// skipped: feedback only tracks episodes it could download.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*model.Feed, []model.Episode, error) {
	body, err := f.client.GetString(ctx, url)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	parsed, err := f.parser.ParseString(body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", url, err)
	}

	feed := &model.Feed{
		Key:         url,
		Title:       parsed.Title,
		Description: parsed.Description,
		Link:        parsed.Link,
		Copyright:   parsed.Copyright,
	}
	if parsed.UpdatedParsed != nil {
		feed.LastBuildDate = *parsed.UpdatedParsed
	} else if parsed.PublishedParsed != nil {
		feed.LastBuildDate = *parsed.PublishedParsed
	}

	episodes := make([]model.Episode, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if len(item.Enclosures) == 0 || item.Enclosures[0].URL == "" {
			continue
		}
		ep := model.Episode{
			FeedKey:     url,
			Title:       item.Title,
			Description: item.Description,
			Link:        item.Link,
			Enclosure:   item.Enclosures[0].URL,
		}
		if item.PublishedParsed != nil {
			ep.PubDate = *item.PublishedParsed
		}
		episodes = append(episodes, ep)
	}

	// Newest first, so a maxEpisodes cut keeps the recent ones.
	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].PubDate.After(episodes[j].PubDate)
	})
	if f.maxEpisodes >= 0 && len(episodes) > f.maxEpisodes {
		episodes = episodes[:f.maxEpisodes]
	}

	return feed, episodes, nil
}

// Result is the outcome of one feed refresh.
type Result struct {
	URL      string
	Feed     *model.Feed
	Episodes []model.Episode
	Err      error
}

// RefreshAll fetches every URL with bounded concurrency. A failing
// feed yields a Result with Err set; it never aborts the others.
// Results come back in the order of urls.
func (f *Fetcher) RefreshAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(refreshLimit)

	for i, url := range urls {
		i, url := i, url
		g.Go(func() error {
			feed, episodes, err := f.Fetch(ctx, url)
			if err != nil {
				f.logger.Warn("feed refresh failed", "url", url, "error", err)
			}
			mu.Lock()
			results[i] = Result{URL: url, Feed: feed, Episodes: episodes, Err: err}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return results
}
