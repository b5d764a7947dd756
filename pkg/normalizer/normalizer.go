// Package normalizer turns scraped page markup into clean, token-efficient
// content for prompts and search documents.
//
// The pipeline is Redact -> Parse -> Prune -> SelectRoot -> serialize. A
// Normalizer only reads its configuration, so one instance can be shared by
// any number of goroutines.
package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ErrNoContent is returned when the root selector matches nothing.
// Callers skip the page instead of writing an empty document.
var ErrNoContent = errors.New("no content found")

// DefaultRootSelector is used when a site does not configure one.
const DefaultRootSelector = "body"

type Normalizer struct {
	baseURL    string
	denied     map[string]struct{}
	decorative map[string]struct{}
	wrappers   map[string]struct{}
	redactions []Redaction
	markers    []string
}

// New builds a Normalizer from site rules.
func New(rules Rules) *Normalizer {
	redactions := make([]Redaction, len(rules.Redactions))
	copy(redactions, rules.Redactions)

	return &Normalizer{
		baseURL:    strings.TrimRight(strings.TrimSpace(rules.BaseURL), "/"),
		denied:     toSet(orDefault(rules.DeniedAttributes, DefaultDeniedAttributes)),
		decorative: toSet(orDefault(rules.DecorativeTags, DefaultDecorativeTags)),
		wrappers:   toSet(orDefault(rules.WrapperTags, DefaultWrapperTags)),
		redactions: redactions,
		markers:    append([]string(nil), orDefault(rules.CommentMarkers, DefaultCommentMarkers)...),
	}
}

// Result is the pruned content root of one page.
type Result struct {
	Root *html.Node
}

// HTML renders the content root without added whitespace.
func (r *Result) HTML() string {
	var b strings.Builder
	if err := html.Render(&b, r.Root); err != nil {
		return ""
	}
	return b.String()
}

// Pretty renders the content root one node per line.
func (r *Result) Pretty() string {
	return Prettify(r.Root)
}

// Normalize runs the full pipeline on one page's raw HTML.
func (n *Normalizer) Normalize(rawHTML, selector string) (*Result, error) {
	doc, err := html.Parse(strings.NewReader(n.Redact(rawHTML)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	n.Prune(doc)

	root, err := SelectRoot(doc, selector)
	if err != nil {
		return nil, err
	}
	return &Result{Root: root}, nil
}

// SelectRoot returns the first node matching the CSS selector.
// An empty selector means DefaultRootSelector; an invalid one matches nothing.
func SelectRoot(doc *html.Node, selector string) (*html.Node, error) {
	if doc == nil {
		return nil, ErrNoContent
	}
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = DefaultRootSelector
	}

	sel := goquery.NewDocumentFromNode(doc).Find(selector).First()
	if sel.Length() == 0 {
		return nil, fmt.Errorf("selector %q: %w", selector, ErrNoContent)
	}
	return sel.Get(0), nil
}
