package db

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dtnitsch/site-indexer/models"
	dbpkg "github.com/dtnitsch/site-indexer/pkg/db"
)

// ResolvePage finds a page by URL, or by its file stem when arg is not a URL.
// A trailing .html is accepted so stored file names can be pasted directly.
func ResolvePage(database *dbpkg.DB, site, arg string) (*models.Page, error) {
	arg = strings.TrimSpace(arg)
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		page, err := database.PageByURL(site, arg)
		if errors.Is(err, dbpkg.ErrNotFound) {
			return nil, fmt.Errorf("no scraped page for %s. Run 'site-indexer scrape --url %s' first", arg, arg)
		}
		return page, err
	}

	name := strings.TrimSuffix(strings.TrimSuffix(arg, ".html"), ".txt")
	page, err := database.PageByFile(site, name)
	if errors.Is(err, dbpkg.ErrNotFound) {
		return nil, fmt.Errorf("no scraped page stored as %s", name)
	}
	return page, err
}

func shorten(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
