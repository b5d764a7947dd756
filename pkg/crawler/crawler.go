// Package crawler discovers the page URLs of a site by following its links.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/fetcher"
)

const (
	DefaultParallelism = 4
	DefaultDelay       = 200 * time.Millisecond
)

// binaryExt are link targets that are never HTML pages.
var binaryExt = map[string]bool{
	".pdf": true, ".zip": true, ".dmg": true, ".exe": true, ".msi": true,
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".svg": true,
	".mp4": true, ".mov": true,
}

// Crawler walks same-site links breadth-first from a start page.
type Crawler struct {
	base        string
	host        string
	exclude     []string
	patterns    []*regexp.Regexp
	skip        map[string]bool
	maxDepth    int
	parallelism int
	delay       time.Duration
	logger      *slog.Logger
}

// New builds a crawler from a site's crawl settings.
func New(site *models.Site, logger *slog.Logger) (*Crawler, error) {
	u, err := url.Parse(site.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", site.BaseURL)
	}

	c := &Crawler{
		base:        strings.TrimRight(site.BaseURL, "/"),
		host:        u.Hostname(),
		exclude:     site.Crawl.Exclude,
		skip:        make(map[string]bool),
		maxDepth:    site.Crawl.MaxDepth,
		parallelism: DefaultParallelism,
		delay:       DefaultDelay,
		logger:      logger,
	}
	for _, p := range site.Crawl.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}
	for _, s := range site.Crawl.Skip {
		c.skip[strings.TrimSpace(s)] = true
	}
	return c, nil
}

// SetPace overrides the request parallelism and per-request delay.
func (c *Crawler) SetPace(parallelism int, delay time.Duration) {
	if parallelism > 0 {
		c.parallelism = parallelism
	}
	if delay >= 0 {
		c.delay = delay
	}
}

// Accept returns the absolute URL for href when it should be crawled.
// Only absolute same-site links and root-relative links qualify; fragments,
// excluded substrings, excluded patterns and skipped pages do not.
func (c *Crawler) Accept(href string) (string, bool) {
	href = strings.TrimSpace(href)
	switch {
	case c.sameSite(href):
	case strings.HasPrefix(href, "/") && !strings.HasPrefix(href, "//"):
		href = c.base + href
	default:
		return "", false
	}

	if strings.Contains(href, "#") {
		return "", false
	}
	for _, ex := range c.exclude {
		if ex != "" && strings.Contains(href, ex) {
			return "", false
		}
	}
	for _, re := range c.patterns {
		if re.MatchString(href) {
			return "", false
		}
	}
	if c.skip[href] {
		return "", false
	}
	if u, err := url.Parse(href); err != nil || binaryExt[strings.ToLower(path.Ext(u.Path))] {
		return "", false
	}
	return href, true
}

// sameSite reports whether an absolute href starts with the base URL and
// continues with a path, query or nothing, so lookalike hosts such as
// base.evil.net do not match.
func (c *Crawler) sameSite(href string) bool {
	rest, ok := strings.CutPrefix(href, c.base)
	if !ok {
		return false
	}
	return rest == "" || rest[0] == '/' || rest[0] == '?' || rest[0] == '#'
}

// Crawl visits start and every accepted link reachable from it. The
// discovered URLs are returned sorted; start itself is only included when
// some page links to it.
func (c *Crawler) Crawl(ctx context.Context, start string) ([]string, error) {
	col := colly.NewCollector(
		colly.AllowedDomains(c.host),
		colly.MaxDepth(c.maxDepth),
		colly.Async(true),
		colly.UserAgent(fetcher.DefaultUserAgent),
	)
	if err := col.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: c.parallelism,
		Delay:       c.delay,
	}); err != nil {
		return nil, fmt.Errorf("failed to set crawl limits: %w", err)
	}

	var (
		mu       sync.Mutex
		found    = make(map[string]struct{})
		startErr error
	)

	col.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	col.OnHTML("a[href]", func(e *colly.HTMLElement) {
		link, ok := c.Accept(e.Attr("href"))
		if !ok {
			return
		}

		mu.Lock()
		_, seen := found[link]
		found[link] = struct{}{}
		mu.Unlock()

		if !seen {
			c.logger.Debug("Discovered URL", "url", link, "from", e.Request.URL.String())
			// Already-visited and out-of-depth errors are expected here.
			_ = e.Request.Visit(link)
		}
	})

	col.OnError(func(r *colly.Response, err error) {
		if r == nil || r.Request == nil {
			c.logger.Warn("Crawl request failed", "error", err)
			return
		}
		failed := r.Request.URL.String()
		if failed == start {
			mu.Lock()
			startErr = &fetcher.FetchError{Status: r.StatusCode, Err: err}
			mu.Unlock()
		}
		c.logger.Warn("Crawl request failed", "url", failed, "status", r.StatusCode, "error", err)
	})

	if err := col.Visit(start); err != nil {
		return nil, fmt.Errorf("failed to start crawl at %s: %w", start, err)
	}
	col.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if startErr != nil {
		return nil, fmt.Errorf("failed to crawl %s: %w", start, startErr)
	}

	urls := make([]string, 0, len(found))
	for u := range found {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls, nil
}
