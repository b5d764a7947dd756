package normalizer

import (
	"regexp"
	"strings"
)

// rootRelativeHref matches href="/path" but not protocol-relative href="//host".
var rootRelativeHref = regexp.MustCompile(`(\shref=["'])/([^/])`)

// Redact applies the raw-markup rewrites in order: sensitive strings,
// comment markers, then root-relative link targets.
func (n *Normalizer) Redact(raw string) string {
	out := raw
	for _, r := range n.redactions {
		if r.Find == "" {
			continue
		}
		out = strings.ReplaceAll(out, r.Find, r.Replace)
	}

	for _, marker := range n.markers {
		if marker == "" {
			continue
		}
		out = strings.ReplaceAll(out, marker, "")
	}

	if n.baseURL != "" {
		base := strings.ReplaceAll(n.baseURL, "$", "$$")
		out = rootRelativeHref.ReplaceAllString(out, "${1}"+base+"/${2}")
	}

	return out
}
