package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/feedback-podcast/feedback/internal/config"
	"github.com/feedback-podcast/feedback/internal/download"
	"github.com/feedback-podcast/feedback/internal/feeds"
	"github.com/feedback-podcast/feedback/internal/httpx"
	"github.com/feedback-podcast/feedback/internal/logging"
	"github.com/feedback-podcast/feedback/internal/store"
	"github.com/feedback-podcast/feedback/internal/tui"
)

func main() {
	var (
		configFlag  = flag.String("config", "", "Path to config file")
		verboseFlag = flag.Bool("verbose", false, "Show verbose output")
	)
	flag.Parse()

	configPath := *configFlag
	if configPath == "" {
		configPath = config.ConfigPath()
	}

	settings, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
	}

	level := log.InfoLevel
	if *verboseFlag {
		level = log.DebugLevel
	}
	logger, closer, err := logging.Setup(logging.Options{
		Level:   level,
		LogFile: filepath.Join(config.DataPath(), "feedback.log"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closer.Close()

	db, err := store.Open(filepath.Join(config.DataPath(), "feedback.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if settings.Network.ReloadOnStart {
		refreshFeeds(db, settings, logger)
	}

	queue, err := download.New(settings.DownloadDir(), download.Options{
		MaxConcurrent: settings.Download.Concurrent,
		Timeout:       time.Duration(settings.Download.TimeoutSeconds) * time.Second,
		Logger:        logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating download queue: %v\n", err)
		os.Exit(1)
	}

	// Record finished downloads so the library survives restarts.
	persist := func(it download.Item) {
		if it.Status == download.StatusCompleted && it.EpisodeID != 0 {
			if err := db.SetDownloadedPath(it.EpisodeID, it.Destination); err != nil {
				logger.Error("recording download", "episode", it.EpisodeID, "error", err)
			}
		}
	}

	if err := tui.Run(queue, persist); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	queue.CancelAll()
	queue.WaitAll()
}

func refreshFeeds(db *store.Store, settings *config.Settings, logger *log.Logger) {
	known, err := db.GetFeeds()
	if err != nil {
		logger.Error("loading feeds", "error", err)
		return
	}
	if len(known) == 0 {
		return
	}

	urls := make([]string, len(known))
	for i, f := range known {
		urls[i] = f.Key
	}

	client := httpx.New(download.DefaultUserAgent,
		time.Duration(settings.Network.TimeoutSeconds)*time.Second,
		download.DefaultConnectTimeout)
	fetcher := feeds.NewFetcher(client, settings.Network.MaxEpisodes)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	for _, res := range fetcher.RefreshAll(ctx, urls) {
		if res.Err != nil {
			logger.Warn("refreshing feed", "url", res.URL, "error", res.Err)
			continue
		}
		if err := db.UpsertFeed(*res.Feed); err != nil {
			logger.Error("saving feed", "url", res.URL, "error", err)
			continue
		}
		if err := db.UpsertEpisodes(res.Episodes); err != nil {
			logger.Error("saving episodes", "url", res.URL, "error", err)
		}
	}
}
