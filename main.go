package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/analyze"
	"github.com/dtnitsch/site-indexer/internal/crawl"
	"github.com/dtnitsch/site-indexer/internal/db"
	"github.com/dtnitsch/site-indexer/internal/generate"
	"github.com/dtnitsch/site-indexer/internal/normalize"
	"github.com/dtnitsch/site-indexer/internal/remove"
	"github.com/dtnitsch/site-indexer/internal/scrape"
	"github.com/dtnitsch/site-indexer/internal/upload"
	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/help"
)

func main() {
	app := &cli.App{
		Name:  "site-indexer",
		Usage: "Scrape brand websites into clean content, navigation guides and search records",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: models.DefaultConfigPath, Usage: "Path to sites.yaml"},
			&cli.StringFlag{Name: "site", Aliases: []string{"s"}, Usage: "Site name or brand from the config", EnvVars: []string{"SITE_INDEXER_SITE"}},
			&cli.StringFlag{Name: "env", Value: models.EnvDev, Usage: "Deployment environment: dev or prod"},
			&cli.StringFlag{Name: "env-dir", Value: ".", Usage: "Directory holding .env.dev and .env.prod"},
			&cli.StringFlag{Name: "output-dir", Value: "websites", Usage: "Root directory for site artifacts and the ledger"},
			&cli.IntFlag{Name: "workers", Usage: "Override the site's worker count"},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "Report format: json or yaml"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "Only log errors"},
			&cli.BoolFlag{Name: "verbose", Usage: "Log debug details"},
		},
		Commands: []*cli.Command{
			{
				Name:   "crawl",
				Usage:  "Discover the site's page URLs",
				Action: crawl.CrawlAction,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "parallelism", Usage: "Concurrent crawl requests"},
					&cli.DurationFlag{Name: "delay", Usage: "Delay between crawl requests"},
				},
			},
			{
				Name:   "scrape",
				Usage:  "Fetch and normalize pages into scraped_html",
				Action: scrape.ScrapeAction,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "url", Usage: "Scrape only these URLs (repeatable)"},
					&cli.StringFlag{Name: "max-age", Value: "24h", Usage: "Reuse cached raw HTML younger than this (0 keeps it forever)"},
					&cli.BoolFlag{Name: "force-fetch", Usage: "Ignore cached raw HTML"},
					&cli.StringFlag{Name: "wait-for", Usage: "CSS selector a rendered page must show before capture"},
				},
			},
			{
				Name:   "generate",
				Usage:  "Write navigation guides for scraped pages",
				Action: generate.GenerateAction,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "file", Usage: "Only these scraped_html files (repeatable)"},
					&cli.IntFlag{Name: "concurrency", Value: generate.DefaultConcurrency, Usage: "Concurrent chat requests"},
				},
			},
			{
				Name:   "upload",
				Usage:  "Index one search record per guide",
				Action: upload.UploadAction,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "file", Usage: "Only these guide files (repeatable)"},
					&cli.IntFlag{Name: "concurrency", Value: upload.DefaultConcurrency, Usage: "Concurrent uploads"},
					&cli.BoolFlag{Name: "dry-run", Usage: "Write the JSON records without embedding or indexing"},
				},
			},
			{
				Name:   "delete",
				Usage:  "Remove records from the search index",
				Action: remove.DeleteAction,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Delete every stored record for --env"},
					&cli.StringSliceFlag{Name: "id", Usage: "Article id to delete (repeatable)"},
				},
			},
			{
				Name:   "normalize",
				Usage:  "Print the normalized content root of one page",
				Action: normalize.NormalizeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "Raw HTML file"},
					&cli.StringFlag{Name: "url", Usage: "Page URL to fetch, also used to pick the root selector"},
					&cli.StringFlag{Name: "selector", Usage: "Override the content root selector"},
					&cli.StringFlag{Name: "wait-for", Usage: "CSS selector a rendered page must show before capture"},
					&cli.BoolFlag{Name: "compact", Usage: "Print token-reduced markup instead of the pretty tree"},
				},
			},
			{
				Name:   "reduce",
				Usage:  "Print the prompt view and token count of a stored page",
				Action: normalize.ReduceAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Usage: "Stored page, by path or scraped_html file name"},
				},
			},
			{
				Name:   "keywords",
				Usage:  "Report the most frequent keywords",
				Action: analyze.KeywordsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "source", Value: analyze.SourceHTML, Usage: "html or guides"},
					&cli.StringSliceFlag{Name: "file", Usage: "Only these files (repeatable)"},
					&cli.IntFlag{Name: "top", Value: 25, Usage: "Number of keywords"},
					&cli.IntFlag{Name: "min-length", Usage: "Ignore shorter words"},
					&cli.BoolFlag{Name: "list", Usage: "Print a numbered list instead of a report"},
				},
			},
			{
				Name:  "ledger",
				Usage: "Inspect the pages and documents recorded for a site",
				Subcommands: []*cli.Command{
					{Name: "pages", Usage: "List scraped pages", Action: db.PagesAction},
					{Name: "page", Usage: "Show one page by URL or file name", ArgsUsage: "<url|file>", Action: db.PageAction},
					{
						Name:   "documents",
						Usage:  "List uploaded documents for --env",
						Action: db.DocumentsAction,
						Flags:  []cli.Flag{&cli.BoolFlag{Name: "deleted", Usage: "Include deleted documents"}},
					},
					{Name: "stats", Usage: "Fetch and upload totals", Action: db.StatsAction},
				},
			},
			{
				Name:  "coldstart",
				Usage: "Print a quick start guide",
				Action: func(c *cli.Context) error {
					fmt.Fprint(c.App.Writer, help.ColdstartYAML)
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
