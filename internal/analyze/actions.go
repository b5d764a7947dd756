package analyze

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/pkg/analytics"
	"github.com/dtnitsch/site-indexer/pkg/mapreduce"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

// KeywordsAction reports the most frequent keywords across stored pages
// (--source html) or generated guides (--source guides).
func KeywordsAction(c *cli.Context) error {
	startTime := time.Now()

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()

	source := c.String("source")
	files, err := listSource(ws.Store, source)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if c.IsSet("file") {
		files = c.StringSlice("file")
	}

	a := &analytics.Analytics{MinLength: c.Int("min-length")}
	results, counts := Keywords(ws.Store, source, files, a, ws.Logger)

	top := c.Int("top")
	if c.Bool("list") {
		mapreduce.PrintTopKeywords(os.Stdout, counts, top)
		return nil
	}

	out := common.NewFinalOutput(results, common.Stats{
		TotalTimeSeconds: time.Since(startTime).Seconds(),
		TopKeywords:      mapreduce.TopKeywords(counts, top),
	})
	return out.Print(os.Stdout, c.String("format"))
}

const (
	SourceHTML   = "html"
	SourceGuides = "guides"
)

func listSource(store *storage.Storage, source string) ([]string, error) {
	switch source {
	case "", SourceHTML:
		return store.ListScrapedHTML()
	case SourceGuides:
		return store.ListGuides()
	}
	return nil, fmt.Errorf("unknown source %q (use %s or %s)", source, SourceHTML, SourceGuides)
}

// Keywords counts words per file and reduces them into one map. Files that
// cannot be read are reported and skipped.
func Keywords(store *storage.Storage, source string, files []string, a *analytics.Analytics, logger *slog.Logger) ([]common.ResultOutput, map[string]int) {
	dir := store.ScrapedHTMLDir()
	if source == SourceGuides {
		dir = store.GuidesDir()
	}

	results := make([]common.ResultOutput, 0, len(files))
	var intermediate []map[string]int
	for _, f := range files {
		path := filepath.Join(dir, filepath.Base(f))
		data, err := store.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to read file", "path", path, "error", err)
			results = append(results, common.ResultOutput{URL: f, FilePath: path, Status: common.StatusFailed, Error: err.Error(), ErrorType: "read_error"})
			continue
		}

		text := string(data)
		if strings.HasSuffix(path, ".html") {
			text = normalizer.PlainText(text)
		}
		intermediate = append(intermediate, mapreduce.Map(text, a))
		results = append(results, common.ResultOutput{URL: f, FilePath: path, Status: common.StatusSuccess})
	}
	return results, mapreduce.Reduce(intermediate)
}
