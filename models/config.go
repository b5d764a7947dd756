// Package models defines configuration and record types shared by the commands.
package models

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dtnitsch/site-indexer/pkg/normalizer"
)

const (
	DefaultConfigPath        = "sites.yaml"
	DefaultWorkerCount       = 5
	DefaultPromptTokenBudget = 32000 - 1500

	OutlineText     = "text"
	OutlineMarkdown = "markdown"
)

// Config is the root of sites.yaml.
type Config struct {
	Sites []Site `yaml:"sites"`
}

// CrawlConfig controls link discovery for one site.
type CrawlConfig struct {
	Exclude         []string `yaml:"exclude"`          // substrings
	ExcludePatterns []string `yaml:"exclude_patterns"` // regular expressions
	Skip            []string `yaml:"skip"`             // exact URLs never visited
	MaxDepth        int      `yaml:"max_depth"`
}

// Site describes one brand website and how its pages are normalized.
type Site struct {
	Name     string `yaml:"name"`
	Brand    string `yaml:"brand"`
	BaseURL  string `yaml:"base_url"`
	StartURL string `yaml:"start_url"`
	Language string `yaml:"language"`

	RootSelector  string            `yaml:"root_selector"`
	RootOverrides map[string]string `yaml:"root_overrides"`

	DeniedAttributes []string               `yaml:"denied_attributes"`
	DecorativeTags   []string               `yaml:"decorative_tags"`
	WrapperTags      []string               `yaml:"wrapper_tags"`
	CommentMarkers   []string               `yaml:"comment_markers"`
	Redactions       []normalizer.Redaction `yaml:"redactions"`

	Crawl CrawlConfig `yaml:"crawl"`

	// Render lists pages whose content only exists after client-side rendering.
	Render []string `yaml:"render"`
	// Skip lists pages the scrape stage never fetches.
	Skip []string `yaml:"skip"`

	Workers           int    `yaml:"workers"`
	PromptTokenBudget int    `yaml:"prompt_token_budget"`
	OutlineFormat     string `yaml:"outline_format"`
}

// LoadConfig reads and validates sites.yaml.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	for i := range cfg.Sites {
		if err := cfg.Sites[i].validate(); err != nil {
			return nil, err
		}
	}
	return &cfg, nil
}

// Site returns the site with the given name or brand.
func (c *Config) Site(name string) (*Site, error) {
	for i := range c.Sites {
		s := &c.Sites[i]
		if strings.EqualFold(s.Name, name) || strings.EqualFold(s.Brand, name) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("site %q not found in config", name)
}

func (s *Site) validate() error {
	if s.Name == "" {
		return fmt.Errorf("site without name")
	}
	if s.BaseURL == "" {
		return fmt.Errorf("site %s: base_url is required", s.Name)
	}
	s.BaseURL = strings.TrimRight(s.BaseURL, "/")
	if s.StartURL == "" {
		s.StartURL = s.BaseURL + "/"
	}
	if s.Brand == "" {
		s.Brand = s.Name
	}
	if s.Language == "" {
		s.Language = "English"
	}
	if s.Workers <= 0 {
		s.Workers = DefaultWorkerCount
	}
	if s.PromptTokenBudget <= 0 {
		s.PromptTokenBudget = DefaultPromptTokenBudget
	}
	if err := s.normalizeOverrides(); err != nil {
		return err
	}
	switch s.OutlineFormat {
	case "":
		s.OutlineFormat = OutlineText
	case OutlineText, OutlineMarkdown:
	default:
		return fmt.Errorf("site %s: unknown outline_format %q", s.Name, s.OutlineFormat)
	}
	return nil
}

// Rules returns the normalizer configuration for this site.
func (s *Site) Rules() normalizer.Rules {
	return normalizer.Rules{
		BaseURL:          s.BaseURL,
		DeniedAttributes: s.DeniedAttributes,
		DecorativeTags:   s.DecorativeTags,
		WrapperTags:      s.WrapperTags,
		Redactions:       s.Redactions,
		CommentMarkers:   s.CommentMarkers,
	}
}

// RootSelectorFor returns the content root selector for a page. Overrides
// match the URL exactly, ignoring a trailing slash.
func (s *Site) RootSelectorFor(pageURL string) string {
	want := overrideKey(pageURL)
	if sel, ok := s.RootOverrides[want]; ok {
		return sel
	}
	if sel, ok := s.RootOverrides[want+"/"]; ok {
		return sel
	}
	if s.RootSelector != "" {
		return s.RootSelector
	}
	return normalizer.DefaultRootSelector
}

func overrideKey(pageURL string) string {
	return strings.TrimRight(strings.TrimSpace(pageURL), "/")
}

// normalizeOverrides rekeys root overrides without trailing slashes. Two
// keys for the same page must agree on the selector.
func (s *Site) normalizeOverrides() error {
	if len(s.RootOverrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(s.RootOverrides))
	for u := range s.RootOverrides {
		keys = append(keys, u)
	}
	sort.Strings(keys)

	out := make(map[string]string, len(keys))
	for _, u := range keys {
		sel := s.RootOverrides[u]
		k := overrideKey(u)
		if prev, ok := out[k]; ok && prev != sel {
			return fmt.Errorf("site %s: root_overrides for %s disagree (%q, %q)", s.Name, k, prev, sel)
		}
		out[k] = sel
	}
	s.RootOverrides = out
	return nil
}

// NeedsRender reports whether the page must be loaded in a browser.
func (s *Site) NeedsRender(pageURL string) bool {
	return containsURL(s.Render, pageURL)
}

// Skipped reports whether the scrape stage ignores the page.
func (s *Site) Skipped(pageURL string) bool {
	return containsURL(s.Skip, pageURL)
}

func containsURL(list []string, pageURL string) bool {
	want := strings.TrimRight(strings.TrimSpace(pageURL), "/")
	for _, u := range list {
		if strings.TrimRight(u, "/") == want {
			return true
		}
	}
	return false
}

// homePageName is the file stem used for the site root.
const homePageName = "index"

// FileName maps a page URL to the file stem used across the pipeline stages.
// https://clo3d.com/en/company/about?userType=x -> en_company_about_userType=x
func (s *Site) FileName(pageURL string) string {
	name := strings.TrimSpace(pageURL)
	name = strings.TrimPrefix(name, s.BaseURL)
	name = strings.TrimPrefix(name, "/")
	name = strings.NewReplacer("/", "_", "?", "_", "\n", "", "\r", "").Replace(name)
	if name == "" {
		return homePageName
	}
	return name
}

// URLForFile is the best-effort inverse of FileName. Underscores that were
// part of the original path cannot be recovered, so the ledger URL is
// preferred when one exists.
func (s *Site) URLForFile(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	if name == homePageName {
		return s.BaseURL + "/"
	}
	path := strings.ReplaceAll(name, "_", "/")
	path = strings.ReplaceAll(path, "/userType", "?userType")
	return s.BaseURL + "/" + path
}
