package llm

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/pkoukk/tiktoken-go"
)

// MaxEmbeddingInput caps embedding input in runes.
const MaxEmbeddingInput = 8000

// TokenCounter counts cl100k_base tokens. When the encoding cannot be
// loaded it estimates instead.
type TokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTokenCounter loads cl100k_base, falling back to the estimate.
func NewTokenCounter() *TokenCounter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &TokenCounter{}
	}
	return &TokenCounter{enc: enc}
}

// EstimatingCounter never loads an encoding.
func EstimatingCounter() *TokenCounter {
	return &TokenCounter{}
}

func (t *TokenCounter) Exact() bool { return t.enc != nil }

func (t *TokenCounter) Count(s string) int {
	if t.enc != nil {
		return len(t.enc.Encode(s, nil, nil))
	}
	return estimateTokens(s)
}

// estimateTokens counts four ASCII bytes or one other rune per token.
func estimateTokens(s string) int {
	ascii, other := 0, 0
	for _, r := range s {
		if r < utf8.RuneSelf {
			ascii++
		} else {
			other++
		}
	}
	return (ascii+3)/4 + other
}

var stripAll = bluemonday.StrictPolicy()

// CleanOutput drops any markup a model put in its answer. The policy escapes
// entities, so they are decoded again afterwards.
func CleanOutput(s string) string {
	return strings.TrimSpace(html.UnescapeString(stripAll.Sanitize(s)))
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
