package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/analytics"
	"github.com/dtnitsch/site-indexer/pkg/caching"
	"github.com/dtnitsch/site-indexer/pkg/db"
	"github.com/dtnitsch/site-indexer/pkg/fetcher"
	"github.com/dtnitsch/site-indexer/pkg/language"
	"github.com/dtnitsch/site-indexer/pkg/mapreduce"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
	"github.com/dtnitsch/site-indexer/pkg/parser"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

// Scraper holds what the workers share for one site.
type Scraper struct {
	Site  *models.Site
	Store *storage.Storage
	DB    *db.DB

	// HTTP fetches plain pages; Browser fetches pages listed under render.
	HTTP    fetcher.Source
	Browser fetcher.Source
	// Cache is optional. ForceFetch bypasses reads but still refreshes it.
	Cache      *caching.Cache
	ForceFetch bool
	// Detector is optional.
	Detector *language.Detector

	Logger *slog.Logger

	norm      *normalizer.Normalizer
	parser    *parser.Parser
	analytics *analytics.Analytics
}

// Run scrapes urls with the site's worker count and returns every result
// plus the word counts reduced across all pages.
func (s *Scraper) Run(ctx context.Context, urls []string) ([]Result, map[string]int) {
	s.norm = normalizer.New(s.Site.Rules())
	s.parser = &parser.Parser{}
	s.analytics = &analytics.Analytics{}

	workerCount := s.Site.Workers
	if workerCount <= 0 {
		workerCount = models.DefaultWorkerCount
	}

	s.Logger.Info("Starting concurrent scrape phase", "url_count", len(urls), "workers", workerCount, "force_fetch", s.ForceFetch)
	var wg sync.WaitGroup
	jobs := make(chan Job, len(urls))
	results := make(chan Result, len(urls))

	for w := 1; w <= workerCount; w++ {
		wg.Add(1)
		go s.worker(ctx, w, &wg, jobs, results)
	}

	for _, u := range urls {
		jobs <- Job{URL: u}
	}
	close(jobs)

	wg.Wait()
	close(results)
	s.Logger.Info("All scrape workers finished")

	allResults := make([]Result, 0, len(urls))
	var counts []map[string]int
	for r := range results {
		allResults = append(allResults, r)
		if r.WordCounts != nil {
			counts = append(counts, r.WordCounts)
		}
	}
	return allResults, mapreduce.Reduce(counts)
}

func (s *Scraper) worker(ctx context.Context, id int, wg *sync.WaitGroup, jobs <-chan Job, results chan<- Result) {
	defer wg.Done()
	for job := range jobs {
		if ctx.Err() != nil {
			results <- Result{URL: job.URL, Error: ctx.Err(), ErrorType: errFetch}
			continue
		}
		s.Logger.Debug("Worker started job", "worker_id", id, "url", job.URL)
		results <- s.scrape(ctx, id, job.URL)
	}
}

func (s *Scraper) scrape(ctx context.Context, id int, pageURL string) Result {
	logger := s.Logger.With("worker_id", id, "url", pageURL)
	result := Result{URL: pageURL, FileName: s.Site.FileName(pageURL)}
	rendered := s.Site.NeedsRender(pageURL)

	urlID, err := s.DB.InsertURL(s.Site.Name, pageURL, result.FileName)
	if err != nil {
		logger.Warn("Failed to insert URL to DB", "error", err)
	}

	rawHTML, cached, err := s.load(ctx, pageURL, rendered)
	if err != nil {
		logger.Error("Error fetching HTML", "rendered", rendered, "error", err)
		result.Error = err
		result.ErrorType = errFetch
		s.recordAccess(logger, urlID, statusOf(err), errFetch, rendered, false)
		return result
	}
	result.Cached = cached
	s.recordAccess(logger, urlID, 200, "", rendered, true)

	selector := s.Site.RootSelectorFor(pageURL)
	norm, err := s.norm.Normalize(string(rawHTML), selector)
	if err != nil {
		result.Error = err
		if errors.Is(err, normalizer.ErrNoContent) {
			result.ErrorType = errNoContent
			logger.Warn("No content root, skipping page", "selector", selector)
			return result
		}
		result.ErrorType = errNormalize
		logger.Error("Error normalizing HTML", "selector", selector, "error", err)
		return result
	}

	pretty := norm.Pretty()
	result.FilePath, err = s.Store.SaveScrapedHTML(result.FileName, pretty)
	if err != nil {
		logger.Error("Error saving scraped HTML", "file", result.FileName, "error", err)
		result.Error = err
		result.ErrorType = errSave
		return result
	}

	page := &models.Page{
		URL:       pageURL,
		FileName:  result.FileName,
		SizeBytes: int64(len(pretty)),
		Rendered:  rendered,
		ScrapedAt: time.Now().UTC(),
	}
	plain := normalizer.PlainText(norm.HTML())
	text := plain
	if meta, err := s.parser.Parse(pageURL, string(rawHTML)); err != nil {
		logger.Warn("Failed to extract page metadata", "error", err)
	} else {
		page.Title = meta.Title
		page.Excerpt = meta.Excerpt
		if meta.Text != "" {
			text = meta.Text
		}
	}
	page.Language = s.detectLanguage(logger, text)
	result.Page = page
	result.WordCounts = mapreduce.Map(plain, s.analytics)

	if err := s.DB.UpsertPage(s.Site.Name, *page, common.ContentHash([]byte(pretty))); err != nil {
		logger.Warn("Failed to record page in DB", "error", err)
	}

	logger.Info("Worker finished processing", "file", result.FilePath, "cached", cached)
	return result
}

// load returns the raw page, from the cache when a fresh copy exists.
func (s *Scraper) load(ctx context.Context, pageURL string, rendered bool) ([]byte, bool, error) {
	if s.Cache != nil && !s.ForceFetch {
		if data, age, ok := s.Cache.Get(pageURL); ok {
			s.Logger.Debug("Raw HTML found in cache", "url", pageURL, "age", age)
			return data, true, nil
		}
	}

	src := s.HTTP
	if rendered {
		if s.Browser == nil {
			return nil, false, fmt.Errorf("page %s needs a browser but none is configured", pageURL)
		}
		src = s.Browser
	}
	data, err := src.Fetch(ctx, pageURL)
	if err != nil {
		return nil, false, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(pageURL, data); err != nil {
			s.Logger.Warn("Failed to cache raw HTML", "url", pageURL, "error", err)
		}
	}
	return data, false, nil
}

func (s *Scraper) detectLanguage(logger *slog.Logger, text string) string {
	if s.Detector == nil {
		return s.Site.Language
	}
	lang, ok := s.Detector.Detect(text)
	if !ok {
		return s.Site.Language
	}
	if lang == "Chinese" && s.Site.Language == "Taiwanese" {
		return s.Site.Language
	}
	if lang != s.Site.Language {
		logger.Warn("Page language differs from site language", "detected", lang, "site_language", s.Site.Language)
	}
	return lang
}

func (s *Scraper) recordAccess(logger *slog.Logger, urlID int64, status int, errType string, rendered, ok bool) {
	if urlID <= 0 {
		return
	}
	if err := s.DB.RecordAccess(urlID, status, errType, rendered, ok); err != nil {
		logger.Warn("Failed to record access to DB", "error", err)
	}
}

func statusOf(err error) int {
	var fe *fetcher.FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}
