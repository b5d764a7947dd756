package analyze

import (
	"io"
	"log/slog"
	"testing"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/pkg/analytics"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

func TestKeywords(t *testing.T) {
	store, err := storage.New(t.TempDir(), "test")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveScrapedHTML("a", "<p>\n  Garment fabric\n</p>"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveScrapedHTML("b", "<h1>\n  Garment\n</h1>"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.SaveGuide("a", "Open pattern editor. Pattern tools"); err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("html", func(t *testing.T) {
		files, err := listSource(store, SourceHTML)
		if err != nil {
			t.Fatal(err)
		}
		results, counts := Keywords(store, SourceHTML, append(files, "gone.html"), &analytics.Analytics{}, logger)
		if counts["garment"] != 2 || counts["fabric"] != 1 || counts["p"] != 0 {
			t.Errorf("counts = %v", counts)
		}
		if len(results) != 3 || results[2].Status != common.StatusFailed {
			t.Errorf("results = %+v", results)
		}
	})

	t.Run("guides", func(t *testing.T) {
		files, err := listSource(store, SourceGuides)
		if err != nil {
			t.Fatal(err)
		}
		_, counts := Keywords(store, SourceGuides, files, &analytics.Analytics{MinLength: 5}, logger)
		if counts["pattern"] != 2 || counts["editor"] != 1 || counts["tools"] != 1 {
			t.Errorf("counts = %v", counts)
		}
	})

	if _, err := listSource(store, "pdf"); err == nil {
		t.Error("listSource(pdf) should fail")
	}
}
