package db

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
)

const timeLayout = "2006-01-02 15:04:05"

// PagesAction lists the pages scraped for a site.
func PagesAction(c *cli.Context) error {
	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	pages, err := ws.DB.Pages(ws.Site.Name)
	if err != nil {
		return err
	}
	if len(pages) == 0 {
		fmt.Println("No pages found")
		return nil
	}

	fmt.Printf("%-20s %-10s %-9s %-10s %-40s %s\n", "Scraped", "Language", "Rendered", "Size", "File", "Title")
	fmt.Println(strings.Repeat("-", 120))
	for _, p := range pages {
		fmt.Printf("%-20s %-10s %-9t %-10d %-40s %s\n",
			p.ScrapedAt.Format(timeLayout),
			p.Language,
			p.Rendered,
			p.SizeBytes,
			shorten(p.FileName, 40),
			p.Title,
		)
	}

	fmt.Printf("\nTotal: %d pages\n", len(pages))
	fmt.Printf("\nTip: Use 'site-indexer ledger page <url|file>' to see one page\n")
	return nil
}

// PageAction shows one page by URL or file name.
func PageAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("pass a page URL or file name")
	}

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	page, err := ResolvePage(ws.DB, ws.Site.Name, c.Args().First())
	if err != nil {
		return err
	}

	fmt.Printf("Page %s\n", page.URL)
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("File:      %s\n", page.FileName)
	fmt.Printf("Title:     %s\n", page.Title)
	fmt.Printf("Language:  %s\n", page.Language)
	fmt.Printf("Size:      %d bytes\n", page.SizeBytes)
	fmt.Printf("Rendered:  %t\n", page.Rendered)
	fmt.Printf("Scraped:   %s\n", page.ScrapedAt.Format(timeLayout))
	if page.Excerpt != "" {
		fmt.Printf("\n%s\n", page.Excerpt)
	}

	docs, err := ws.DB.Documents(ws.Site.Name, c.String("env"), true)
	if err != nil {
		return err
	}
	for _, d := range docs {
		if d.URL != page.URL {
			continue
		}
		state := "live"
		if !d.DeletedAt.IsZero() {
			state = "deleted " + d.DeletedAt.Format(timeLayout)
		}
		fmt.Printf("\nDocument:  %s (%s, %s)\n", d.ArticleID, d.Env, state)
	}
	return nil
}

// DocumentsAction lists the search records uploaded for --env.
func DocumentsAction(c *cli.Context) error {
	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	env := c.String("env")
	docs, err := ws.DB.Documents(ws.Site.Name, env, c.Bool("deleted"))
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Printf("No documents found for %s\n", env)
		return nil
	}

	fmt.Printf("%-38s %-20s %-8s %-40s %s\n", "Article ID", "Uploaded", "State", "Source", "Title")
	fmt.Println(strings.Repeat("-", 130))
	for _, d := range docs {
		state := "live"
		if !d.DeletedAt.IsZero() {
			state = "deleted"
		}
		fmt.Printf("%-38s %-20s %-8s %-40s %s\n",
			d.ArticleID,
			d.UploadedAt.Format(timeLayout),
			state,
			shorten(d.URL, 40),
			d.Title,
		)
	}

	fmt.Printf("\nTotal: %d documents\n", len(docs))
	fmt.Printf("\nTip: Use 'site-indexer delete --id <article id>' to remove one\n")
	return nil
}

// StatsAction prints fetch and upload totals for a site.
func StatsAction(c *cli.Context) error {
	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return err
	}
	defer ws.Close()

	access, err := ws.DB.AccessStats(ws.Site.Name)
	if err != nil {
		return err
	}
	pages, err := ws.DB.Pages(ws.Site.Name)
	if err != nil {
		return err
	}
	env := c.String("env")
	docs, err := ws.DB.Documents(ws.Site.Name, env, false)
	if err != nil {
		return err
	}

	stats := LedgerStats{
		Site:            ws.Site.Name,
		Env:             env,
		Pages:           len(pages),
		Documents:       len(docs),
		FetchSucceeded:  access.Succeeded,
		FetchFailed:     access.Failed,
		FetchesRendered: access.Rendered,
		Languages:       map[string]int{},
	}
	for _, p := range pages {
		stats.Languages[p.Language]++
	}
	return common.PrintValue(c.App.Writer, c.String("format"), stats)
}

// LedgerStats is the summary printed by StatsAction.
type LedgerStats struct {
	Site            string         `json:"site" yaml:"site"`
	Env             string         `json:"env" yaml:"env"`
	Pages           int            `json:"pages" yaml:"pages"`
	Documents       int            `json:"documents" yaml:"documents"`
	FetchSucceeded  int            `json:"fetch_succeeded" yaml:"fetch_succeeded"`
	FetchFailed     int            `json:"fetch_failed" yaml:"fetch_failed"`
	FetchesRendered int            `json:"fetches_rendered" yaml:"fetches_rendered"`
	Languages       map[string]int `json:"languages,omitempty" yaml:"languages,omitempty"`
}
