package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/feedback-podcast/feedback/internal/audio"
	"github.com/feedback-podcast/feedback/internal/config"
	"github.com/feedback-podcast/feedback/internal/download"
	"github.com/feedback-podcast/feedback/internal/feeds"
	"github.com/feedback-podcast/feedback/internal/httpx"
	"github.com/feedback-podcast/feedback/internal/model"
)

func main() {
	// Command line flags
	var (
		urlsFlag       = flag.String("url", "", "Episode URL(s) to download (comma- or newline-separated)")
		feedFlag       = flag.String("feed", "", "RSS/Atom feed URL to download episodes from")
		opmlFlag       = flag.String("opml", "", "OPML file of feeds to download episodes from")
		latestFlag     = flag.Int("latest", 1, "How many recent episodes to take per feed")
		outputFlag     = flag.String("output", "", "Output directory (overrides config)")
		configFlag     = flag.String("config", "", "Path to config file")
		concurrentFlag = flag.Int("concurrent", 0, "Maximum simultaneous downloads (overrides config)")
		tagFlag        = flag.Bool("tag", false, "Write ID3 tags on downloaded episodes")
		verboseFlag    = flag.Bool("verbose", false, "Show verbose output")
	)

	flag.Parse()

	if *urlsFlag == "" && *feedFlag == "" && *opmlFlag == "" && flag.NArg() == 0 {
		fmt.Println("feedback-dl - Download podcast episodes")
		fmt.Println()
		fmt.Println("Usage:")
		fmt.Println("  feedback-dl -url <URL> [options]")
		fmt.Println("  feedback-dl -feed <FEED_URL> -latest <N> [options]")
		fmt.Println("  feedback-dl -opml <FILE> -latest <N> [options]")
		fmt.Println()
		fmt.Println("For interactive mode, use: feedback")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Load config
	settings := config.DefaultSettings()
	if *configFlag != "" {
		var err error
		settings, err = config.Load(*configFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Apply flags
	if *outputFlag != "" {
		settings.Download.Directory = *outputFlag
	}
	if *concurrentFlag > 0 {
		settings.Download.Concurrent = *concurrentFlag
	}
	if *tagFlag {
		settings.Tags.ModifyTags = true
	}

	logger := log.New(os.Stderr)
	if *verboseFlag {
		logger.SetLevel(log.DebugLevel)
	}

	queue, err := download.New(settings.DownloadDir(), download.Options{
		MaxConcurrent: settings.Download.Concurrent,
		Timeout:       time.Duration(settings.Download.TimeoutSeconds) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	queue.SetProgressFunc(func(it download.Item) {
		switch it.Status {
		case download.StatusCompleted:
			fmt.Printf("done  %s\n", it.Destination)
		case download.StatusFailed:
			fmt.Fprintf(os.Stderr, "fail  %s: %s\n", it.URL, it.Err)
		case download.StatusCancelled:
			fmt.Printf("stop  %s\n", it.URL)
		}
	})

	// Handle interrupts
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("\nInterrupted, cancelling...")
		queue.CancelAll()
	}()

	urls, err := collectURLs(settings, *urlsFlag, *feedFlag, *opmlFlag, *latestFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "Nothing to download.")
		os.Exit(1)
	}

	reqs := make([]download.Request, len(urls))
	for i, u := range urls {
		reqs[i] = download.Request{URL: u}
	}
	queue.AddBatch(reqs)
	queue.WaitAll()

	if settings.Tags.ModifyTags {
		tagCompleted(queue, logger)
	}

	fmt.Printf("Downloaded %d/%d file(s)\n", queue.CompletedCount(), len(urls))
	if queue.FailedCount() > 0 {
		os.Exit(1)
	}
}

// collectURLs resolves the url/feed/opml flags into a flat list of
// episode enclosure URLs.
func collectURLs(settings *config.Settings, rawURLs, feedURL, opmlPath string, latest int) ([]string, error) {
	var urls []string

	if rawURLs == "" && flag.NArg() > 0 {
		rawURLs = flag.Arg(0)
	}
	for _, u := range strings.FieldsFunc(rawURLs, func(r rune) bool {
		return r == ',' || r == '\n'
	}) {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}

	feedURLs := make([]string, 0)
	if feedURL != "" {
		feedURLs = append(feedURLs, feedURL)
	}
	if opmlPath != "" {
		content, err := os.ReadFile(opmlPath)
		if err != nil {
			return nil, err
		}
		outlines, err := feeds.ParseOPML(content)
		if err != nil {
			return nil, err
		}
		for _, o := range outlines {
			feedURLs = append(feedURLs, o.XMLURL)
		}
	}
	if len(feedURLs) == 0 {
		return urls, nil
	}

	client := httpx.New(download.DefaultUserAgent,
		time.Duration(settings.Network.TimeoutSeconds)*time.Second,
		download.DefaultConnectTimeout)
	fetcher := feeds.NewFetcher(client, latest)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, res := range fetcher.RefreshAll(ctx, feedURLs) {
		if res.Err != nil {
			fmt.Fprintf(os.Stderr, "skip  %s: %v\n", res.URL, res.Err)
			continue
		}
		for _, ep := range res.Episodes {
			urls = append(urls, ep.Enclosure)
		}
	}
	return urls, nil
}

// itemEpisode builds a minimal episode record for tagging a file that
// was downloaded by bare URL, without feed metadata.
func itemEpisode(it download.Item) model.Episode {
	name := filepath.Base(it.Destination)
	return model.Episode{
		Title: strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

func tagCompleted(queue *download.Queue, logger *log.Logger) {
	tagger := audio.NewTagger()
	for _, it := range queue.Items() {
		if it.Status != download.StatusCompleted || !audio.Taggable(it.Destination) {
			continue
		}
		ep := itemEpisode(it)
		if err := tagger.Tag(it.Destination, ep, ""); err != nil {
			logger.Warn("tagging", "file", it.Destination, "error", err)
		}
	}
}
