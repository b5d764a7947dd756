package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/db"
	"github.com/dtnitsch/site-indexer/pkg/search"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

type fakeModel struct {
	title    string
	titleErr error
	embedErr error
}

func (m *fakeModel) Title(ctx context.Context, content string) (string, error) {
	return m.title, m.titleErr
}

func (m *fakeModel) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return []float32{float32(len(text)), 1}, nil
}

type fakeIndex struct {
	mu   sync.Mutex
	docs []models.SearchDocument
	err  error
}

func (f *fakeIndex) Upload(ctx context.Context, docs []models.SearchDocument) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.docs = append(f.docs, docs...)
	return nil, nil
}

var runDay = time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)

func setup(t *testing.T, model *fakeModel) (*Uploader, *fakeIndex) {
	t.Helper()
	dir := t.TempDir()
	site := &models.Site{Name: "test", BaseURL: "https://example.com", Language: "English"}

	store, err := storage.New(dir, site.Name)
	if err != nil {
		t.Fatal(err)
	}
	database, err := db.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	index := &fakeIndex{}
	return &Uploader{
		Site:   site,
		Store:  store,
		DB:     database,
		LLM:    model,
		Index:  index,
		Env:    models.EnvDev,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return runDay },
	}, index
}

func writeGuide(t *testing.T, u *Uploader, name, text string) string {
	t.Helper()
	if _, err := u.Store.SaveGuide(name, text); err != nil {
		t.Fatal(err)
	}
	return name + ".txt"
}

func TestArticleIDIsStable(t *testing.T) {
	a := ArticleID("https://example.com/en/pricing")
	if a != ArticleID("https://example.com/en/pricing") {
		t.Error("ArticleID() differs for the same source")
	}
	if a == ArticleID("https://example.com/en/about") {
		t.Error("ArticleID() collides for different sources")
	}
}

func TestUpload(t *testing.T) {
	u, index := setup(t, &fakeModel{title: "Pricing Plans"})

	page := models.Page{URL: "https://example.com/en/pricing", FileName: "en_pricing", Title: "Pricing | Example", Language: "Japanese"}
	if err := u.DB.UpsertPage("test", page, "h"); err != nil {
		t.Fatal(err)
	}
	if _, err := u.Store.SaveScrapedHTML("en_pricing", `<iframe src="https://www.youtube.com/embed/abc123?rel=0"></iframe>`); err != nil {
		t.Fatal(err)
	}
	file := writeGuide(t, u, "en_pricing", "Compare   plans\n\nPricing pricing plans")

	results, counts := u.Run(context.Background(), []string{file})
	r := results[0]
	if r.Error != nil {
		t.Fatalf("Run() error = %v", r.Error)
	}
	if counts["pricing"] != 2 || counts["plans"] != 2 {
		t.Errorf("counts = %v", counts)
	}

	if len(index.docs) != 1 {
		t.Fatalf("indexed %d docs, want 1", len(index.docs))
	}
	doc := index.docs[0]
	if doc.Action != models.ActionMergeOrUpload || doc.ArticleId != ArticleID(page.URL) {
		t.Errorf("doc action/id = %s/%s", doc.Action, doc.ArticleId)
	}
	if doc.Title != "Pricing Plans" || doc.Source != page.URL || doc.Language != "ja" {
		t.Errorf("doc = %+v", doc)
	}
	if doc.Content != "Compare plans Pricing pricing plans" {
		t.Errorf("Content = %q", doc.Content)
	}
	if len(doc.YoutubeLinks) != 1 || doc.YoutubeLinks[0] != "https://www.youtube.com/watch?v=abc123" {
		t.Errorf("YoutubeLinks = %v", doc.YoutubeLinks)
	}
	if len(doc.Labels) == 0 || doc.Labels[0] != "plans" {
		t.Errorf("Labels = %v", doc.Labels)
	}
	if len(doc.TitleVector) == 0 || len(doc.ContentVector) == 0 {
		t.Error("vectors missing from indexed doc")
	}

	data, err := os.ReadFile(r.JSONPath)
	if err != nil {
		t.Fatal(err)
	}
	var stored map[string]any
	if err := json.Unmarshal(data, &stored); err != nil {
		t.Fatal(err)
	}
	if _, ok := stored["TitleVector"]; ok {
		t.Error("stored record carries vectors")
	}
	if stored["@search.action"] != models.ActionMergeOrUpload {
		t.Errorf("stored action = %v", stored["@search.action"])
	}
	if r.JSONPath != filepath.Join(u.Store.DocumentsDir(models.EnvDev, runDay), "en_pricing.json") {
		t.Errorf("JSONPath = %s", r.JSONPath)
	}

	docs, err := u.DB.Documents("test", models.EnvDev, false)
	if err != nil || len(docs) != 1 || docs[0].ArticleID != doc.ArticleId {
		t.Errorf("Documents() = %+v, %v", docs, err)
	}
}

func TestUploadTitleFallback(t *testing.T) {
	tests := []struct {
		name  string
		model *fakeModel
		page  *models.Page
		want  string
	}{
		{name: "model title", model: &fakeModel{title: "From Model"}, want: "From Model"},
		{name: "model error uses page title", model: &fakeModel{titleErr: errors.New("boom")}, page: &models.Page{Title: "Scraped Title"}, want: "Scraped Title"},
		{name: "empty title uses page title", model: &fakeModel{}, page: &models.Page{Title: "Scraped Title"}, want: "Scraped Title"},
		{name: "no titles uses file name", model: &fakeModel{titleErr: errors.New("boom")}, want: "en_about"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, index := setup(t, tt.model)
			if tt.page != nil {
				tt.page.URL = "https://example.com/en/about"
				tt.page.FileName = "en_about"
				if err := u.DB.UpsertPage("test", *tt.page, "h"); err != nil {
					t.Fatal(err)
				}
			}
			file := writeGuide(t, u, "en_about", "About us")

			results, _ := u.Run(context.Background(), []string{file})
			if results[0].Error != nil {
				t.Fatal(results[0].Error)
			}
			if index.docs[0].Title != tt.want {
				t.Errorf("Title = %q, want %q", index.docs[0].Title, tt.want)
			}
		})
	}
}

func TestUploadFailures(t *testing.T) {
	t.Run("embedding", func(t *testing.T) {
		u, index := setup(t, &fakeModel{title: "T", embedErr: errors.New("throttled")})
		results, counts := u.Run(context.Background(), []string{writeGuide(t, u, "a", "alpha")})
		if results[0].ErrorType != errEmbed || len(index.docs) != 0 {
			t.Errorf("result = %+v, indexed %d", results[0], len(index.docs))
		}
		if len(counts) != 0 {
			t.Errorf("failed uploads counted: %v", counts)
		}
	})

	t.Run("index", func(t *testing.T) {
		u, index := setup(t, &fakeModel{title: "T"})
		index.err = errors.New("status 403")
		results, _ := u.Run(context.Background(), []string{writeGuide(t, u, "a", "alpha")})
		if results[0].ErrorType != errIndex {
			t.Errorf("ErrorType = %q", results[0].ErrorType)
		}
		docs, _ := u.DB.Documents("test", models.EnvDev, true)
		if len(docs) != 0 {
			t.Errorf("ledger recorded a failed upload: %+v", docs)
		}
	})

	t.Run("missing guide", func(t *testing.T) {
		u, _ := setup(t, &fakeModel{title: "T"})
		results, _ := u.Run(context.Background(), []string{"nope.txt"})
		if results[0].ErrorType != errRead {
			t.Errorf("ErrorType = %q", results[0].ErrorType)
		}
	})
}

func TestUploadDryRun(t *testing.T) {
	u, index := setup(t, &fakeModel{title: "T", embedErr: errors.New("must not embed")})
	u.DryRun = true

	results, _ := u.Run(context.Background(), []string{writeGuide(t, u, "a", "alpha")})
	if results[0].Error != nil || len(index.docs) != 0 {
		t.Errorf("result = %+v, indexed %d", results[0], len(index.docs))
	}
	paths, _ := u.Store.ListDocuments(models.EnvDev)
	if len(paths) != 1 {
		t.Errorf("stored documents = %v", paths)
	}
}
