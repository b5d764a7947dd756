// Package generate turns stored pages into navigation guides.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/db"
	"github.com/dtnitsch/site-indexer/pkg/llm"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
	"github.com/dtnitsch/site-indexer/pkg/outline"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

// DefaultConcurrency matches the request quota of a typical chat deployment.
const DefaultConcurrency = 3

const (
	errRead      = "read_error"
	errTooLong   = "prompt_too_long"
	errNavigate  = "llm_error"
	errOutline   = "outline_error"
	errSaveGuide = "save_error"
	errCanceled  = "canceled"
)

// Navigator writes navigation instructions for one page.
type Navigator interface {
	Navigate(ctx context.Context, content, pageURL string) (string, error)
}

// Generator holds what every guide job shares.
type Generator struct {
	Site    *models.Site
	Store   *storage.Storage
	DB      *db.DB
	LLM     Navigator
	Outline *outline.Builder
	Logger  *slog.Logger
	// Concurrency bounds in-flight LLM calls; zero uses DefaultConcurrency.
	Concurrency int
}

type Result struct {
	FileName  string
	URL       string
	FilePath  string
	Error     error
	ErrorType string
}

// Run generates a guide for every stored page file. Failures are reported
// per file and never stop the other jobs. Results keep the order of files.
func (g *Generator) Run(ctx context.Context, files []string) []Result {
	limit := g.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	results := make([]Result, len(files))
	var eg errgroup.Group
	eg.SetLimit(limit)

	g.Logger.Info("Starting guide generation", "file_count", len(files), "concurrency", limit, "outline", g.Outline.Format())
	for i, file := range files {
		eg.Go(func() error {
			results[i] = g.generate(ctx, file)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (g *Generator) generate(ctx context.Context, file string) Result {
	name := strings.TrimSuffix(file, ".html")
	result := Result{FileName: name, URL: g.pageURL(name)}
	logger := g.Logger.With("file", file, "url", result.URL)

	if err := ctx.Err(); err != nil {
		result.Error, result.ErrorType = err, errCanceled
		return result
	}

	raw, err := g.Store.ReadFile(filepath.Join(g.Store.ScrapedHTMLDir(), file))
	if err != nil {
		result.Error, result.ErrorType = err, errRead
		logger.Error("Failed to read scraped HTML", "error", err)
		return result
	}
	content := normalizer.ReduceTokens(string(raw))

	guide, err := g.LLM.Navigate(ctx, content, result.URL)
	if err != nil {
		result.Error, result.ErrorType = err, errNavigate
		if errors.Is(err, llm.ErrPromptTooLong) {
			result.ErrorType = errTooLong
			logger.Warn("Page too large for prompt, skipping", "error", err)
		} else {
			logger.Error("Failed to generate guide", "error", err)
		}
		return result
	}

	body, err := g.Outline.Build(content, result.URL)
	if err != nil {
		result.Error, result.ErrorType = err, errOutline
		logger.Error("Failed to build outline", "error", err)
		return result
	}

	result.FilePath, err = g.Store.SaveGuide(name, outline.Guide(guide, body))
	if err != nil {
		result.Error, result.ErrorType = fmt.Errorf("failed to save guide: %w", err), errSaveGuide
		logger.Error("Failed to save guide", "error", err)
		return result
	}
	logger.Info("Guide written", "path", result.FilePath)
	return result
}

// pageURL prefers the URL recorded at scrape time; file names alone lose
// underscores that were part of the path.
func (g *Generator) pageURL(name string) string {
	if g.DB != nil {
		if page, err := g.DB.PageByFile(g.Site.Name, name); err == nil {
			return page.URL
		}
	}
	return g.Site.URLForFile(name)
}
