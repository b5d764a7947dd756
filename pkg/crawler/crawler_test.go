package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/fetcher"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSite(base string) *models.Site {
	return &models.Site{
		Name:    "test",
		BaseURL: base,
		Crawl: models.CrawlConfig{
			Exclude:         []string{"legal/archives", "articles"},
			ExcludePatterns: []string{`resources/esg/\d+`},
			Skip:            []string{base + "/en/support"},
		},
	}
}

func TestAccept(t *testing.T) {
	c, err := New(testSite("https://clo3d.com"), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		href   string
		want   string
		wantOK bool
	}{
		{"/en/company", "https://clo3d.com/en/company", true},
		{"https://clo3d.com/en/plans?userType=business", "https://clo3d.com/en/plans?userType=business", true},
		{" /en/news ", "https://clo3d.com/en/news", true},
		{"/en/company#team", "", false},
		{"https://other.com/en", "", false},
		{"https://clo3d.com.evil.net/en/page", "", false},
		{"https://clo3d.comx/en", "", false},
		{"https://clo3d.com:8443/en", "", false},
		{"https://clo3d.com", "https://clo3d.com", true},
		{"//cdn.clo3d.com/x", "", false},
		{"mailto:info@clo3d.com", "", false},
		{"/en/legal/archives/2020", "", false},
		{"/en/articles/1", "", false},
		{"/en/resources/esg/42", "", false},
		{"/en/resources/esg/list", "https://clo3d.com/en/resources/esg/list", true},
		{"/en/support", "", false},
		{"/files/brochure.PDF", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			got, ok := c.Accept(tt.href)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Accept(%q) = %q, %v; want %q, %v", tt.href, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNewInvalidPattern(t *testing.T) {
	site := testSite("https://clo3d.com")
	site.Crawl.ExcludePatterns = []string{"("}
	if _, err := New(site, testLogger()); err == nil {
		t.Error("New() with invalid pattern should fail")
	}
	if _, err := New(&models.Site{BaseURL: "not a url"}, testLogger()); err == nil {
		t.Error("New() with invalid base should fail")
	}
}

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()

	var srv *httptest.Server
	pages := map[string]string{
		"/": `<a href="/en/">home</a><a href="/en/about">about</a><a href="https://other.com/x">x</a>
			<a href="/en/about#team">team</a><a href="/articles/1">a</a><a href="/resources/esg/12">esg</a>`,
		"/en/":        `<a href="/en/about">about</a><a href="/en/pricing">pricing</a><a href="/en/support">support</a>`,
		"/en/about":   `<a href="/en/">home</a><a href="%s/en/contact">contact</a>`,
		"/en/pricing": `<a href="/en/file.pdf">pdf</a>`,
		"/en/contact": `<p>no links</p>`,
	}
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.URL.Path == "/en/about" {
			body = fmt.Sprintf(body, srv.URL)
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body>%s</body></html>", body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCrawl(t *testing.T) {
	srv := newSiteServer(t)

	c, err := New(testSite(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.SetPace(2, 0)

	got, err := c.Crawl(context.Background(), srv.URL+"/")
	if err != nil {
		t.Fatalf("Crawl() error = %v", err)
	}

	want := []string{
		srv.URL + "/en/",
		srv.URL + "/en/about",
		srv.URL + "/en/contact",
		srv.URL + "/en/pricing",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Crawl() = %v, want %v", got, want)
	}
}

func TestCrawlStartFails(t *testing.T) {
	srv := newSiteServer(t)

	c, err := New(testSite(srv.URL), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c.SetPace(1, 0)

	_, err = c.Crawl(context.Background(), srv.URL+"/missing")
	var fe *fetcher.FetchError
	if !errors.As(err, &fe) || fe.Status != http.StatusNotFound {
		t.Errorf("Crawl() error = %v, want FetchError with 404", err)
	}
}
