package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	DefaultBaseDir = "websites"

	urlsFile       = "scraped_urls.txt"
	scrapedHTMLDir = "scraped_html"
	guidesDir      = "openai_html"
	documentsDir   = "ai_documents"

	// dayLayout names the per-run document folders, e.g. 2024_03_18.
	dayLayout = "2006_01_02"
)

// Storage is the on-disk workspace of one site:
//
//	<base>/<site>/scraped_urls.txt
//	<base>/<site>/scraped_html/<page>.html
//	<base>/<site>/openai_html/<page>.txt
//	<base>/<site>/ai_documents/<env>/<YYYY_MM_DD>/<page>.json
type Storage struct {
	root string
}

// FileStats holds metadata about a file without reading its contents.
type FileStats struct {
	SizeBytes int64
	ModTime   time.Time
}

// New returns the workspace for site under baseDir, creating its folders.
func New(baseDir, site string) (*Storage, error) {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	s := &Storage{root: filepath.Join(baseDir, site)}
	for _, dir := range []string{s.root, s.ScrapedHTMLDir(), s.GuidesDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return s, nil
}

func (s *Storage) Root() string           { return s.root }
func (s *Storage) URLsFile() string       { return filepath.Join(s.root, urlsFile) }
func (s *Storage) ScrapedHTMLDir() string { return filepath.Join(s.root, scrapedHTMLDir) }
func (s *Storage) GuidesDir() string      { return filepath.Join(s.root, guidesDir) }

// DocumentsDir is the folder for one environment, or for one run day when
// day is non-zero.
func (s *Storage) DocumentsDir(env string, day time.Time) string {
	dir := filepath.Join(s.root, documentsDir, env)
	if day.IsZero() {
		return dir
	}
	return filepath.Join(dir, day.Format(dayLayout))
}

// CacheDir holds raw downloads for the caching layer.
func (s *Storage) CacheDir() string { return filepath.Join(s.root, "cache") }

// WriteURLs replaces scraped_urls.txt, one URL per line.
func (s *Storage) WriteURLs(urls []string) error {
	var b bytes.Buffer
	for _, u := range urls {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	return s.SaveFile(s.URLsFile(), b.Bytes())
}

// ReadURLs returns the non-empty lines of scraped_urls.txt.
func (s *Storage) ReadURLs() ([]string, error) {
	f, err := os.Open(s.URLsFile())
	if err != nil {
		return nil, fmt.Errorf("error reading url list: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading url list: %w", err)
	}
	return urls, nil
}

// SaveScrapedHTML writes a pretty-printed content root wrapped in an html
// element and returns the file path.
func (s *Storage) SaveScrapedHTML(name, pretty string) (string, error) {
	path := filepath.Join(s.ScrapedHTMLDir(), name+".html")
	return path, s.SaveFile(path, []byte("<html>\n"+pretty+"\n</html>"))
}

// SaveGuide writes the generated guide text for a page.
func (s *Storage) SaveGuide(name, content string) (string, error) {
	path := filepath.Join(s.GuidesDir(), name+".txt")
	return path, s.SaveFile(path, []byte(content))
}

// SaveDocument writes one search record as JSON into the day's folder.
func (s *Storage) SaveDocument(env string, day time.Time, name string, doc any) (string, error) {
	dir := s.DocumentsDir(env, day)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode document %s: %w", name, err)
	}
	path := filepath.Join(dir, name+".json")
	return path, s.SaveFile(path, data)
}

// ListScrapedHTML returns the stored .html file names, sorted.
func (s *Storage) ListScrapedHTML() ([]string, error) {
	return listFiles(s.ScrapedHTMLDir(), ".html")
}

// ListGuides returns the stored .txt file names, sorted.
func (s *Storage) ListGuides() ([]string, error) {
	return listFiles(s.GuidesDir(), ".txt")
}

// ListDocuments returns every stored JSON record path for env, across all
// run days, oldest day first.
func (s *Storage) ListDocuments(env string) ([]string, error) {
	root := s.DocumentsDir(env, time.Time{})
	days, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error listing documents: %w", err)
	}

	var paths []string
	for _, day := range days {
		if !day.IsDir() {
			continue
		}
		names, err := listFiles(filepath.Join(root, day.Name()), ".json")
		if err != nil {
			return nil, err
		}
		for _, n := range names {
			paths = append(paths, filepath.Join(root, day.Name(), n))
		}
	}
	return paths, nil
}

func listFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// SaveFile writes through a temp file and renames it into place.
func (s *Storage) SaveFile(filePath string, content []byte) error {
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		return fmt.Errorf("error saving file: %w", err)
	}
	return nil
}

func (s *Storage) ReadFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	return data, nil
}

func (s *Storage) HasFile(fn string) bool {
	_, err := os.Stat(fn)
	return err == nil
}

// GetFileStats returns metadata about a file using os.Stat.
func (s *Storage) GetFileStats(filePath string) (*FileStats, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("error getting file stats: %w", err)
	}
	return &FileStats{SizeBytes: info.Size(), ModTime: info.ModTime()}, nil
}
