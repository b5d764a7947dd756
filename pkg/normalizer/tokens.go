package normalizer

import (
	"regexp"
	"strings"
)

var (
	interTagSpace = regexp.MustCompile(`>\s+<`)
	whitespaceRun = regexp.MustCompile(`\s{2,}`)
	markupTag     = regexp.MustCompile(`<[^>]*>`)
)

// ReduceTokens strips formatting whitespace from serialized markup without
// touching its content. The rewrites run until the string stops changing,
// so ReduceTokens(ReduceTokens(s)) == ReduceTokens(s).
func ReduceTokens(s string) string {
	for {
		next := reduceOnce(s)
		if next == s {
			return next
		}
		s = next
	}
}

func reduceOnce(s string) string {
	s = interTagSpace.ReplaceAllString(s, "><")
	s = whitespaceRun.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "< ", "<")
	s = strings.ReplaceAll(s, " >", ">")
	return s
}

// PlainText drops every tag, keeping the text between them.
func PlainText(s string) string {
	return markupTag.ReplaceAllString(s, "")
}
