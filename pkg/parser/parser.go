// Package parser extracts page metadata from raw HTML.
package parser

import (
	"bufio"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// MaxExcerptLength caps the excerpt in runes.
const MaxExcerptLength = 300

// Metadata is what the ledger keeps about a scraped page.
type Metadata struct {
	Title   string
	Excerpt string
	// Text is the readable body text, used for language detection.
	Text string
}

type Parser struct{}

// Parse runs readability over the raw page. When readability cannot find a
// title, the document <title>, then the first <h1>, are used instead.
func (p *Parser) Parse(rawURL, html string) (*Metadata, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url %q: %w", rawURL, err)
	}

	meta := &Metadata{}
	article, err := readability.FromReader(strings.NewReader(html), parsedURL)
	if err == nil {
		meta.Title = normalizeText(article.Title)
		meta.Excerpt = normalizeText(article.Excerpt)
		meta.Text = normalizeText(article.TextContent)
	}

	if meta.Title == "" || meta.Text == "" {
		doc, qerr := goquery.NewDocumentFromReader(strings.NewReader(html))
		if qerr != nil {
			return nil, fmt.Errorf("failed to parse html: %w", qerr)
		}
		if meta.Title == "" {
			meta.Title = normalizeText(doc.Find("title").First().Text())
		}
		if meta.Title == "" {
			meta.Title = normalizeText(doc.Find("h1").First().Text())
		}
		if meta.Text == "" {
			meta.Text = normalizeText(doc.Find("body").Text())
		}
	}

	meta.Excerpt = truncate(meta.Excerpt, MaxExcerptLength)
	return meta, nil
}

// normalizeText cleans up a string by trimming space and removing excess newlines.
func normalizeText(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	scanner := bufio.NewScanner(strings.NewReader(input))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.Join(strings.Fields(scanner.Text()), " ")
		if line != "" {
			b.WriteString(line)
			b.WriteString(" ")
		}
	}
	return strings.TrimSpace(b.String())
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
