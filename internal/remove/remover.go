// Package remove takes uploaded records back out of the search index.
package remove

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/db"
	"github.com/dtnitsch/site-indexer/pkg/search"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

// Index accepts document batches.
type Index interface {
	Upload(ctx context.Context, docs []models.SearchDocument) ([]search.Result, error)
}

type Remover struct {
	Store  *storage.Storage
	DB     *db.DB
	Index  Index
	Env    string
	Logger *slog.Logger
}

// Result is the outcome for one article id.
type Result struct {
	ArticleID string
	Source    string
	Error     error
}

// ByID deletes the given articles.
func (r *Remover) ByID(ctx context.Context, ids ...string) []Result {
	docs := make([]models.SearchDocument, len(ids))
	for i, id := range ids {
		docs[i] = models.DeletionOf(id)
	}
	return r.send(ctx, docs)
}

// All re-sends every stored record for the environment as a delete. Records
// uploaded on several days collapse to one request per article.
func (r *Remover) All(ctx context.Context) ([]Result, error) {
	paths, err := r.Store.ListDocuments(r.Env)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var docs []models.SearchDocument
	for _, p := range paths {
		doc, err := r.readDocument(p)
		if err != nil {
			r.Logger.Warn("Skipping unreadable record", "path", p, "error", err)
			continue
		}
		if seen[doc.ArticleId] {
			continue
		}
		seen[doc.ArticleId] = true
		docs = append(docs, models.SearchDocument{Action: models.ActionDelete, ArticleId: doc.ArticleId, Source: doc.Source})
	}
	r.Logger.Info("Deleting stored records", "env", r.Env, "files", len(paths), "articles", len(docs))
	return r.send(ctx, docs), nil
}

func (r *Remover) readDocument(path string) (*models.SearchDocument, error) {
	data, err := r.Store.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc models.SearchDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if doc.ArticleId == "" {
		return nil, fmt.Errorf("record %s has no ArticleId", path)
	}
	return &doc, nil
}

func (r *Remover) send(ctx context.Context, docs []models.SearchDocument) []Result {
	results := make([]Result, len(docs))
	for i, d := range docs {
		results[i] = Result{ArticleID: d.ArticleId, Source: d.Source}
	}
	if len(docs) == 0 {
		return results
	}

	// Only the action and key matter to the index for a delete.
	batch := make([]models.SearchDocument, len(docs))
	for i, d := range docs {
		batch[i] = models.DeletionOf(d.ArticleId)
	}

	failed := map[string]error{}
	if _, err := r.Index.Upload(ctx, batch); err != nil {
		var be *search.BatchError
		if !errors.As(err, &be) {
			for i := range results {
				results[i].Error = err
			}
			r.Logger.Error("Delete request failed", "error", err)
			return results
		}
		for _, f := range be.Failed {
			failed[f.Key] = fmt.Errorf("%s (status %d)", f.ErrorMessage, f.StatusCode)
		}
	}

	for i := range results {
		res := &results[i]
		if err, ok := failed[res.ArticleID]; ok {
			res.Error = err
			r.Logger.Warn("Index refused delete", "article_id", res.ArticleID, "error", err)
			continue
		}
		r.Logger.Info("Deleted", "article_id", res.ArticleID, "source", res.Source)
		if r.DB == nil {
			continue
		}
		if err := r.DB.MarkDeleted(r.Env, res.ArticleID); err != nil && !errors.Is(err, db.ErrNotFound) {
			r.Logger.Warn("Failed to mark document deleted in DB", "article_id", res.ArticleID, "error", err)
		}
	}
	return results
}
