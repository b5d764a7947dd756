// Package upload turns generated guides into search records and indexes them.
package upload

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/analytics"
	"github.com/dtnitsch/site-indexer/pkg/db"
	"github.com/dtnitsch/site-indexer/pkg/language"
	"github.com/dtnitsch/site-indexer/pkg/mapreduce"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
	"github.com/dtnitsch/site-indexer/pkg/search"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

const (
	DefaultConcurrency = 5
	// LabelCount is the number of top keywords stored as document labels.
	LabelCount = 10
)

const (
	errRead     = "read_error"
	errEmbed    = "embedding_error"
	errSave     = "save_error"
	errIndex    = "index_error"
	errCanceled = "canceled"
)

// Model is the part of the LLM client the upload stage uses.
type Model interface {
	Title(ctx context.Context, content string) (string, error)
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index accepts document batches.
type Index interface {
	Upload(ctx context.Context, docs []models.SearchDocument) ([]search.Result, error)
}

type Uploader struct {
	Site   *models.Site
	Store  *storage.Storage
	DB     *db.DB
	LLM    Model
	Index  Index
	Env    string
	Logger *slog.Logger

	Concurrency int
	// Now stamps the documents folder; nil uses time.Now.
	Now func() time.Time
	// DryRun writes the JSON records without embedding or indexing them.
	DryRun bool
}

type Result struct {
	FileName   string
	URL        string
	ArticleID  string
	Title      string
	JSONPath   string
	Error      error
	ErrorType  string
	WordCounts map[string]int
}

// ArticleID derives a stable record id from the page URL, so re-uploading a
// page replaces its record instead of adding a second one.
func ArticleID(source string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source)).String()
}

// Run uploads one record per guide file and returns the results in input
// order along with the keyword counts reduced over every uploaded record.
func (u *Uploader) Run(ctx context.Context, files []string) ([]Result, map[string]int) {
	limit := u.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	now := time.Now
	if u.Now != nil {
		now = u.Now
	}
	day := now()

	results := make([]Result, len(files))
	var eg errgroup.Group
	eg.SetLimit(limit)

	u.Logger.Info("Starting upload", "file_count", len(files), "env", u.Env, "concurrency", limit, "dry_run", u.DryRun)
	for i, file := range files {
		eg.Go(func() error {
			results[i] = u.upload(ctx, day, file)
			return nil
		})
	}
	_ = eg.Wait()

	var counts []map[string]int
	for _, r := range results {
		if r.Error == nil && r.WordCounts != nil {
			counts = append(counts, r.WordCounts)
		}
	}
	return results, mapreduce.Reduce(counts)
}

func (u *Uploader) upload(ctx context.Context, day time.Time, file string) Result {
	name := strings.TrimSuffix(file, ".txt")
	page := u.page(name)
	result := Result{FileName: name, URL: page.URL, ArticleID: ArticleID(page.URL)}
	logger := u.Logger.With("file", file, "url", page.URL)

	if err := ctx.Err(); err != nil {
		result.Error, result.ErrorType = err, errCanceled
		return result
	}

	raw, err := u.Store.ReadFile(filepath.Join(u.Store.GuidesDir(), file))
	if err != nil {
		result.Error, result.ErrorType = err, errRead
		logger.Error("Failed to read guide", "error", err)
		return result
	}
	guide := string(raw)

	result.Title = u.title(ctx, logger, guide, page)
	content := strings.Join(strings.Fields(guide), " ")
	result.WordCounts = mapreduce.Map(content, &analytics.Analytics{})

	doc := models.SearchDocument{
		Action:       models.ActionMergeOrUpload,
		ArticleId:    result.ArticleID,
		Title:        result.Title,
		Content:      content,
		Source:       page.URL,
		Labels:       mapreduce.Labels(result.WordCounts, LabelCount),
		YoutubeLinks: u.youtubeLinks(name),
		Language:     language.Locale(page.Language),
	}

	// The stored record has no vectors; delete runs only need the id.
	result.JSONPath, err = u.Store.SaveDocument(u.Env, day, name, doc)
	if err != nil {
		result.Error, result.ErrorType = err, errSave
		logger.Error("Failed to save document", "error", err)
		return result
	}
	if u.DryRun {
		logger.Info("Document written", "path", result.JSONPath)
		return result
	}

	if doc.TitleVector, err = u.LLM.Embed(ctx, doc.Title); err != nil {
		result.Error, result.ErrorType = fmt.Errorf("title embedding: %w", err), errEmbed
		logger.Error("Failed to embed title", "error", err)
		return result
	}
	if doc.ContentVector, err = u.LLM.Embed(ctx, guide); err != nil {
		result.Error, result.ErrorType = fmt.Errorf("content embedding: %w", err), errEmbed
		logger.Error("Failed to embed content", "error", err)
		return result
	}

	if _, err := u.Index.Upload(ctx, []models.SearchDocument{doc}); err != nil {
		result.Error, result.ErrorType = err, errIndex
		logger.Error("Failed to upload document", "error", err)
		return result
	}

	if u.DB != nil {
		rec := db.DocumentRecord{
			ArticleID:  result.ArticleID,
			Env:        u.Env,
			URL:        page.URL,
			FileName:   name,
			Title:      result.Title,
			JSONPath:   result.JSONPath,
			UploadedAt: time.Now(),
		}
		if err := u.DB.RecordDocument(u.Site.Name, rec); err != nil {
			logger.Warn("Failed to record document in DB", "error", err)
		}
	}
	logger.Info("Document uploaded", "article_id", result.ArticleID, "title", result.Title)
	return result
}

// page returns the ledger record for a file, or a minimal one built from
// the file name when the page was never recorded.
func (u *Uploader) page(name string) *models.Page {
	if u.DB != nil {
		if p, err := u.DB.PageByFile(u.Site.Name, name); err == nil {
			if p.Language == "" {
				p.Language = u.Site.Language
			}
			return p
		}
	}
	return &models.Page{URL: u.Site.URLForFile(name), FileName: name, Language: u.Site.Language}
}

// title asks the model first, then falls back to the title found at scrape
// time, then to the file name.
func (u *Uploader) title(ctx context.Context, logger *slog.Logger, guide string, page *models.Page) string {
	title, err := u.LLM.Title(ctx, guide)
	if err != nil {
		logger.Warn("Failed to generate title, using page title", "error", err)
	}
	if title != "" {
		return title
	}
	if page.Title != "" {
		return page.Title
	}
	return page.FileName
}

func (u *Uploader) youtubeLinks(name string) []string {
	data, err := u.Store.ReadFile(filepath.Join(u.Store.ScrapedHTMLDir(), name+".html"))
	if err != nil {
		return nil
	}
	return normalizer.YoutubeLinks(string(data))
}
