package mapreduce

import (
	"fmt"
	"io"
	"strings"

	"github.com/dtnitsch/site-indexer/pkg/analytics"
)

// isValidKeyword filters tokens with unbalanced delimiters or quotes, which
// are usually fragments of code or markup that leaked into the text.
func isValidKeyword(word string) bool {
	if strings.HasSuffix(word, ":") || strings.HasSuffix(word, "=") {
		return false
	}
	for _, pair := range [][2]string{{"(", ")"}, {"[", "]"}, {"{", "}"}} {
		if strings.Contains(word, pair[0]) != strings.Contains(word, pair[1]) {
			return false
		}
	}
	return strings.Count(word, `"`)%2 == 0 && strings.Count(word, "'")%2 == 0
}

func topCounts(wordCounts map[string]int, n int) []analytics.WordCount {
	valid := make(map[string]int, len(wordCounts))
	for k, v := range wordCounts {
		if isValidKeyword(k) {
			valid[k] = v
		}
	}
	ranked := analytics.Rank(valid)
	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopKeywords returns the top n keywords as "word:count" strings,
// e.g. "garment:42".
func TopKeywords(wordCounts map[string]int, n int) []string {
	top := topCounts(wordCounts, n)
	keywords := make([]string, len(top))
	for i, c := range top {
		keywords[i] = fmt.Sprintf("%s:%d", c.Word, c.Count)
	}
	return keywords
}

// Labels returns the top n keywords without counts, for search records.
func Labels(wordCounts map[string]int, n int) []string {
	top := topCounts(wordCounts, n)
	labels := make([]string, len(top))
	for i, c := range top {
		labels[i] = c.Word
	}
	return labels
}

// PrintTopKeywords writes the top n keywords as a numbered list.
func PrintTopKeywords(w io.Writer, wordCounts map[string]int, n int) {
	for i, c := range topCounts(wordCounts, n) {
		fmt.Fprintf(w, "%d. %s: %d\n", i+1, c.Word, c.Count)
	}
}
