package normalizer

import "strings"

// reservedAttrPrefix marks framework/tracking attributes that never survive pruning.
const reservedAttrPrefix = "data-"

// Redaction replaces a literal string in raw markup before it is parsed.
type Redaction struct {
	Find    string `yaml:"find"`
	Replace string `yaml:"replace"`
}

// Rules is the per-site configuration consumed by a Normalizer.
// Nil slices fall back to the package defaults; empty non-nil slices disable the rule.
type Rules struct {
	BaseURL          string
	DeniedAttributes []string
	DecorativeTags   []string
	WrapperTags      []string
	Redactions       []Redaction
	CommentMarkers   []string
}

var (
	// DefaultDecorativeTags are removed together with their subtree.
	DefaultDecorativeTags = []string{"img", "svg", "picture", "script", "style", "noscript", "link"}

	// DefaultWrapperTags collapse when nested directly inside themselves.
	DefaultWrapperTags = []string{"div", "span"}

	// DefaultCommentMarkers are the hydration markers left behind by client-side renderers.
	DefaultCommentMarkers = []string{"<!--[-->", "<!--]-->", "<!---->"}

	// DefaultDeniedAttributes covers presentation, scripting and layout attributes.
	DefaultDeniedAttributes = []string{
		"lang", "language", "dir",
		"onmouseover", "onmouseout", "onclick", "onload", "script",
		"style", "class", "font", "face", "size", "color",
		"width", "height", "hspace", "border", "valign", "align",
		"background", "bgcolor", "text", "link", "vlink", "alink",
		"cellpadding", "cellspacing",
		"d", "xlink:href", "aria-hidden", "viewbox", "for", "modelvalue",
		"target", "tabindex", "rel",
	}
)

func orDefault(values, fallback []string) []string {
	if values == nil {
		return fallback
	}
	return values
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}
