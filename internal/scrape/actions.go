package scrape

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/pkg/caching"
	"github.com/dtnitsch/site-indexer/pkg/fetcher"
	"github.com/dtnitsch/site-indexer/pkg/language"
	"github.com/dtnitsch/site-indexer/pkg/mapreduce"
)

func ScrapeAction(c *cli.Context) error {
	startTime := time.Now()

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()
	logger := ws.Logger

	var maxAge time.Duration
	if !c.Bool("force-fetch") {
		maxAge, err = time.ParseDuration(c.String("max-age"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid max-age duration: %v", err), 2)
		}
	}

	urls := c.StringSlice("url")
	if len(urls) == 0 {
		urls, err = ws.Store.ReadURLs()
		if err != nil {
			return cli.Exit(fmt.Sprintf("%v (run crawl first or pass --url)", err), 1)
		}
	}

	urls, invalid := common.SanitizeAndValidateURLs(urls)
	if len(invalid) > 0 {
		fmt.Fprintf(os.Stderr, "Error: %d URL(s) are malformed (even after cleanup):\n", len(invalid))
		for _, bad := range invalid {
			fmt.Fprintf(os.Stderr, "  - %s\n", bad)
		}
		return cli.Exit("", 1)
	}

	var skipped []common.ResultOutput
	pending := make([]string, 0, len(urls))
	for _, u := range urls {
		if ws.Site.Skipped(u) {
			logger.Info("Skipping page listed in site skip list", "url", u)
			skipped = append(skipped, common.ResultOutput{URL: u, Status: common.StatusSkipped})
			continue
		}
		pending = append(pending, u)
	}

	cache, err := caching.NewCache(ws.Store.CacheDir(), maxAge)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to open cache: %v", err), 2)
	}
	browser := fetcher.NewRenderer(c.String("wait-for"), 0)
	defer browser.Close()

	s := &Scraper{
		Site:       ws.Site,
		Store:      ws.Store,
		DB:         ws.DB,
		HTTP:       fetcher.NewFetcher(),
		Browser:    browser,
		Cache:      cache,
		ForceFetch: c.Bool("force-fetch"),
		Detector:   language.NewDetector(),
		Logger:     logger,
	}
	results, wordCounts := s.Run(c.Context, pending)

	outputs := make([]common.ResultOutput, 0, len(results)+len(skipped))
	for _, r := range results {
		outputs = append(outputs, r.output())
	}
	outputs = append(outputs, skipped...)

	out := common.NewFinalOutput(outputs, common.Stats{
		TotalTimeSeconds: time.Since(startTime).Seconds(),
		TopKeywords:      mapreduce.TopKeywords(wordCounts, 25),
	})
	if err := out.Print(os.Stdout, c.String("format")); err != nil {
		return err
	}

	if stats, err := ws.DB.AccessStats(ws.Site.Name); err == nil {
		logger.Info("Ledger totals", "succeeded", stats.Succeeded, "failed", stats.Failed, "rendered", stats.Rendered)
	}
	if out.Stats.Failed > 0 {
		logger.Warn("Some pages failed", "failed", out.Stats.Failed)
	}
	return out.ExitStatus()
}
