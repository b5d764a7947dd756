package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/caching"
	"github.com/dtnitsch/site-indexer/pkg/db"
	"github.com/dtnitsch/site-indexer/pkg/fetcher"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

type stubBrowser struct {
	body  string
	calls atomic.Int32
}

func (b *stubBrowser) Fetch(ctx context.Context, url string) ([]byte, error) {
	b.calls.Add(1)
	return []byte(b.body), nil
}

type siteServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newSiteServer(t *testing.T) *siteServer {
	t.Helper()
	pages := map[string]string{
		"/":         `<html><head><title>Home</title></head><body><div><div><p>Welcome to <a href="/en/about">CLO</a></p></div></div><script>x()</script></body></html>`,
		"/en/about": `<html><head><title>About CLO Virtual Fashion</title></head><body><nav>menu</nav><main><h1 data-v-1="x">About</h1><p>Garment simulation software.</p></main></body></html>`,
		"/en/empty": `<html><body><p>no main element</p></body></html>`,
	}
	s := &siteServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(s.Close)
	return s
}

func newScraper(t *testing.T, srv *siteServer) (*Scraper, *stubBrowser) {
	t.Helper()
	dir := t.TempDir()

	site := &models.Site{
		Name:          "test",
		BaseURL:       srv.URL,
		Language:      "English",
		RootSelector:  "main",
		RootOverrides: map[string]string{srv.URL + "/": "body"},
		Render:        []string{srv.URL + "/app"},
		Workers:       2,
	}
	store, err := storage.New(dir, site.Name)
	if err != nil {
		t.Fatal(err)
	}
	database, err := db.Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	cache, err := caching.NewCache(store.CacheDir(), 0)
	if err != nil {
		t.Fatal(err)
	}

	browser := &stubBrowser{body: `<html><body><main><p>Rendered app</p></main></body></html>`}
	return &Scraper{
		Site:    site,
		Store:   store,
		DB:      database,
		HTTP:    fetcher.NewFetcher(),
		Browser: browser,
		Cache:   cache,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, browser
}

func byURL(results []Result) map[string]Result {
	m := make(map[string]Result, len(results))
	for _, r := range results {
		m[r.URL] = r
	}
	return m
}

func TestRun(t *testing.T) {
	srv := newSiteServer(t)
	s, browser := newScraper(t, srv)

	urls := []string{srv.URL + "/", srv.URL + "/en/about", srv.URL + "/en/empty", srv.URL + "/missing", srv.URL + "/app"}
	results, counts := s.Run(context.Background(), urls)
	if len(results) != len(urls) {
		t.Fatalf("got %d results, want %d", len(results), len(urls))
	}
	got := byURL(results)

	home := got[srv.URL+"/"]
	if home.Error != nil || home.FileName != "index" {
		t.Fatalf("home result = %+v", home)
	}
	data, err := os.ReadFile(home.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	want := "<html>\n<body>\n <p>\n  Welcome to\n  <a href=\"" + srv.URL + "/en/about\">\n   CLO\n  </a>\n </p>\n</body>\n</html>"
	if string(data) != want {
		t.Errorf("home file =\n%s\nwant\n%s", data, want)
	}

	about := got[srv.URL+"/en/about"]
	if about.Error != nil || about.Page == nil {
		t.Fatalf("about result = %+v", about)
	}
	if about.Page.Title != "About CLO Virtual Fashion" || about.Page.Language != "English" {
		t.Errorf("about page = %+v", about.Page)
	}
	aboutFile, _ := os.ReadFile(about.FilePath)
	if strings.Contains(string(aboutFile), "menu") || strings.Contains(string(aboutFile), "data-v-1") {
		t.Errorf("about file not pruned to main:\n%s", aboutFile)
	}

	empty := got[srv.URL+"/en/empty"]
	if !errors.Is(empty.Error, normalizer.ErrNoContent) || empty.ErrorType != errNoContent {
		t.Errorf("empty result = %+v, want ErrNoContent", empty)
	}
	if _, err := os.Stat(s.Store.ScrapedHTMLDir() + "/en_empty.html"); !os.IsNotExist(err) {
		t.Error("file written for page without content root")
	}

	missing := got[srv.URL+"/missing"]
	if missing.ErrorType != errFetch || statusOf(missing.Error) != http.StatusNotFound {
		t.Errorf("missing result = %+v", missing)
	}

	app := got[srv.URL+"/app"]
	if app.Error != nil || browser.calls.Load() != 1 || !app.Page.Rendered {
		t.Errorf("app result = %+v, browser calls %d", app, browser.calls.Load())
	}

	if counts["garment"] != 1 || counts["rendered"] != 1 {
		t.Errorf("word counts = %v", counts)
	}

	page, err := s.DB.PageByFile("test", "en_about")
	if err != nil || page.URL != srv.URL+"/en/about" {
		t.Errorf("PageByFile() = %+v, %v", page, err)
	}
	stats, _ := s.DB.AccessStats("test")
	if stats.Succeeded != 4 || stats.Failed != 1 || stats.Rendered != 1 {
		t.Errorf("AccessStats() = %+v", stats)
	}

	files, _ := s.Store.ListScrapedHTML()
	sort.Strings(files)
	if strings.Join(files, ",") != "app.html,en_about.html,index.html" {
		t.Errorf("scraped files = %v", files)
	}
}

func TestRunSkipsPageWithoutContentRoot(t *testing.T) {
	srv := newSiteServer(t)
	s, _ := newScraper(t, srv)
	var logs bytes.Buffer
	s.Logger = slog.New(slog.NewJSONHandler(&logs, nil))

	results, _ := s.Run(context.Background(), []string{srv.URL + "/en/empty"})
	if !strings.Contains(logs.String(), `"level":"WARN","msg":"No content root, skipping page"`) {
		t.Errorf("missing skip warning in logs:\n%s", logs.String())
	}
	o := results[0].output()
	if o.Status != common.StatusSkipped || o.ErrorType != errNoContent || o.Error == "" {
		t.Errorf("output = %+v, want skipped no_content with error text", o)
	}

	out := common.NewFinalOutput([]common.ResultOutput{o}, common.Stats{})
	if out.Stats.Failed != 0 || out.Stats.Skipped != 1 || out.Status != common.StatusSuccess {
		t.Errorf("final output = %+v", out)
	}
	if err := out.ExitStatus(); err != nil {
		t.Errorf("ExitStatus() = %v, want nil", err)
	}
}

func TestResultOutput(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"success", Result{URL: "u"}, common.StatusSuccess},
		{"no content", Result{URL: "u", Error: normalizer.ErrNoContent, ErrorType: errNoContent}, common.StatusSkipped},
		{"fetch error", Result{URL: "u", Error: errors.New("boom"), ErrorType: errFetch}, common.StatusFailed},
		{"normalize error", Result{URL: "u", Error: errors.New("bad"), ErrorType: errNormalize}, common.StatusFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.output().Status; got != tt.want {
				t.Errorf("Status = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunUsesCache(t *testing.T) {
	srv := newSiteServer(t)
	s, _ := newScraper(t, srv)
	urls := []string{srv.URL + "/en/about"}

	s.Run(context.Background(), urls)
	if srv.hits.Load() != 1 {
		t.Fatalf("first run hit server %d times", srv.hits.Load())
	}

	results, _ := s.Run(context.Background(), urls)
	if srv.hits.Load() != 1 || !results[0].Cached {
		t.Errorf("second run hit server %d times, cached=%v", srv.hits.Load(), results[0].Cached)
	}

	s.ForceFetch = true
	results, _ = s.Run(context.Background(), urls)
	if srv.hits.Load() != 2 || results[0].Cached {
		t.Errorf("forced run hit server %d times, cached=%v", srv.hits.Load(), results[0].Cached)
	}
}

func TestRunCanceled(t *testing.T) {
	srv := newSiteServer(t)
	s, _ := newScraper(t, srv)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, _ := s.Run(ctx, []string{srv.URL + "/", srv.URL + "/en/about"})
	for _, r := range results {
		if !errors.Is(r.Error, context.Canceled) {
			t.Errorf("result %s error = %v, want canceled", r.URL, r.Error)
		}
	}
}
