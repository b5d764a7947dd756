package crawl

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/pkg/crawler"
)

// CrawlAction discovers the site's pages and writes them to the URL list
// that the scrape stage reads.
func CrawlAction(c *cli.Context) error {
	startTime := time.Now()

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()
	logger := ws.Logger

	cr, err := crawler.New(ws.Site, logger)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	if c.IsSet("parallelism") || c.IsSet("delay") {
		cr.SetPace(c.Int("parallelism"), c.Duration("delay"))
	}

	logger.Info("Starting crawl", "start_url", ws.Site.StartURL, "max_depth", ws.Site.Crawl.MaxDepth)
	urls, err := cr.Crawl(c.Context, ws.Site.StartURL)
	if err != nil {
		return cli.Exit(fmt.Sprintf("crawl failed: %v", err), 1)
	}
	if !slices.Contains(urls, ws.Site.StartURL) {
		urls = append([]string{ws.Site.StartURL}, urls...)
	}

	if err := ws.Store.WriteURLs(urls); err != nil {
		return cli.Exit(err.Error(), 2)
	}

	results := make([]common.ResultOutput, 0, len(urls))
	for _, u := range urls {
		if _, err := ws.DB.InsertURL(ws.Site.Name, u, ws.Site.FileName(u)); err != nil {
			logger.Warn("Failed to insert URL to DB", "url", u, "error", err)
		}
		results = append(results, common.ResultOutput{URL: u, Status: common.StatusSuccess})
	}
	logger.Info("Crawl finished", "url_count", len(urls), "file", ws.Store.URLsFile())

	out := common.NewFinalOutput(results, common.Stats{TotalTimeSeconds: time.Since(startTime).Seconds()})
	return out.Print(os.Stdout, c.String("format"))
}
