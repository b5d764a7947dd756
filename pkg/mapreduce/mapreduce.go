package mapreduce

import "github.com/dtnitsch/site-indexer/pkg/analytics"

// Map generates a word frequency map for a single document's content.
func Map(content string, a *analytics.Analytics) map[string]int {
	return a.WordFrequency(content)
}

// Reduce aggregates a slice of word frequency maps into a single map.
func Reduce(intermediate []map[string]int) map[string]int {
	total := make(map[string]int)
	for _, counts := range intermediate {
		for word, count := range counts {
			total[word] += count
		}
	}
	return total
}
