// Package outline renders a stored page as the text appended to its guide.
package outline

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
)

// Builder produces outlines in one format. It is safe for concurrent use.
type Builder struct {
	format string
	md     *converter.Converter
}

// New returns a builder for models.OutlineText or models.OutlineMarkdown.
func New(format string) (*Builder, error) {
	switch format {
	case "", models.OutlineText:
		return &Builder{format: models.OutlineText}, nil
	case models.OutlineMarkdown:
		return &Builder{
			format: format,
			md: converter.NewConverter(
				converter.WithPlugins(
					base.NewBasePlugin(),
					commonmark.NewCommonmarkPlugin(),
					table.NewTablePlugin(),
				),
			),
		}, nil
	}
	return nil, fmt.Errorf("unknown outline format %q", format)
}

func (b *Builder) Format() string { return b.format }

// Build renders markup. Text outlines are the page text with tags removed
// and line breaks folded to spaces. Markdown outlines keep headings, lists,
// tables and links, resolved against pageURL.
func (b *Builder) Build(markup, pageURL string) (string, error) {
	if b.md == nil {
		return Text(markup), nil
	}
	md, err := b.md.ConvertString(markup, converter.WithDomain(pageURL))
	if err != nil {
		return "", fmt.Errorf("failed to convert %s to markdown: %w", pageURL, err)
	}
	return strings.TrimSpace(md), nil
}

// Text strips every tag from markup and folds newlines into spaces.
func Text(markup string) string {
	text := normalizer.PlainText(markup)
	text = strings.NewReplacer("\r\n", " ", "\n", " ").Replace(text)
	return strings.TrimSpace(text)
}

// Guide joins a navigation guide and its outline the way generated files
// are stored.
func Guide(guide, outline string) string {
	return guide + "\n\n" + outline
}
