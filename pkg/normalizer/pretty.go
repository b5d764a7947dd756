package normalizer

import (
	"strings"

	"golang.org/x/net/html"
)

// verbatim elements keep their inner whitespace, so they are rendered as-is.
var verbatim = map[string]bool{
	"pre": true, "textarea": true, "script": true, "style": true,
}

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", "\u00a0", "&nbsp;")
	attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&#34;")
)

// Prettify serializes a node with one tag or text run per line, indented one
// space per level. Text is trimmed; whitespace-only text is dropped.
func Prettify(node *html.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	prettify(&b, node, 0)
	return strings.TrimRight(b.String(), "\n")
}

func prettify(b *strings.Builder, node *html.Node, depth int) {
	indent := strings.Repeat(" ", depth)

	switch node.Type {
	case html.DocumentNode:
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			prettify(b, c, depth)
		}

	case html.DoctypeNode:
		b.WriteString("<!DOCTYPE ")
		b.WriteString(node.Data)
		b.WriteString(">\n")

	case html.TextNode:
		text := strings.TrimSpace(node.Data)
		if text == "" {
			return
		}
		b.WriteString(indent)
		b.WriteString(textEscaper.Replace(text))
		b.WriteByte('\n')

	case html.CommentNode:
		b.WriteString(indent)
		b.WriteString("<!--")
		b.WriteString(node.Data)
		b.WriteString("-->\n")

	case html.ElementNode:
		b.WriteString(indent)
		if verbatim[node.Data] {
			if err := html.Render(b, node); err != nil {
				return
			}
			b.WriteByte('\n')
			return
		}

		writeStartTag(b, node)
		b.WriteByte('\n')
		if voidElements[node.Data] {
			return
		}

		for c := node.FirstChild; c != nil; c = c.NextSibling {
			prettify(b, c, depth+1)
		}
		b.WriteString(indent)
		b.WriteString("</")
		b.WriteString(node.Data)
		b.WriteString(">\n")
	}
}

func writeStartTag(b *strings.Builder, node *html.Node) {
	b.WriteByte('<')
	b.WriteString(node.Data)
	for _, attr := range node.Attr {
		b.WriteByte(' ')
		if attr.Namespace != "" {
			b.WriteString(attr.Namespace)
			b.WriteByte(':')
		}
		b.WriteString(attr.Key)
		b.WriteString(`="`)
		b.WriteString(attrEscaper.Replace(attr.Val))
		b.WriteByte('"')
	}
	b.WriteByte('>')
}
