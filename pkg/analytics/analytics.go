// Package analytics counts keywords in page text.
package analytics

import (
	"sort"
	"strings"
	"unicode"
)

// stopwords are ignored when counting keywords.
var stopwords = toSet(`
a about above after again against all almost also although always am among an and another any
anyone anything are around as at back be because become been before being below between both
but by can cannot could did do does doing done down during each either else enough etc even ever
every few for from further get gets got had has have having he her here hers him his how however
i if in into is it its itself just keep last less let like made make many may me might more most
much must my never new next no none nor not nothing now of off often on once one only onto or
other our ours out over own per please put rather same see should since so some something still
such take than that the their them then there these they this those through to together too
toward under until up upon us use used using very via was we well were what whatever when where
whether which while who whom whose why will with within without would yet you your yours
click button link menu page pages website site home homepage search loading learn read view
more close open
`)

func toSet(words string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(words) {
		set[w] = struct{}{}
	}
	return set
}

// IsStopword reports whether word is ignored when counting keywords.
func IsStopword(word string) bool {
	_, ok := stopwords[strings.ToLower(word)]
	return ok
}

// Analytics is stateless and safe for concurrent use.
type Analytics struct {
	// MinLength drops shorter words. Zero keeps everything but one-letter
	// latin words.
	MinLength int
}

// WordFrequency counts non-stopword words in text, case-folded with
// surrounding punctuation removed. Letters of any script count as word
// characters.
func (a *Analytics) WordFrequency(text string) map[string]int {
	frequencies := make(map[string]int)

	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word == "" || IsStopword(word) {
			continue
		}
		if n := len([]rune(word)); n < a.MinLength || (n == 1 && word[0] < 0x80) {
			continue
		}
		frequencies[word]++
	}

	return frequencies
}

// WordCount is a word with its number of occurrences.
type WordCount struct {
	Word  string
	Count int
}

// Rank orders counts by count descending then word ascending, so equal
// inputs always rank the same way.
func Rank(frequencies map[string]int) []WordCount {
	counts := make([]WordCount, 0, len(frequencies))
	for k, v := range frequencies {
		counts = append(counts, WordCount{k, v})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})
	return counts
}

// TopNWords returns the n most frequent keywords of text.
func (a *Analytics) TopNWords(text string, n int) []string {
	counts := Rank(a.WordFrequency(text))
	if len(counts) > n {
		counts = counts[:n]
	}

	topN := make([]string, len(counts))
	for i, c := range counts {
		topN[i] = c.Word
	}
	return topN
}
