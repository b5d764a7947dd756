package common

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	markdownLink = regexp.MustCompile(`^\[.*?\]\((https?://[^\)]+)\)$`)
	validURL     = regexp.MustCompile(`^https?://[a-zA-Z0-9][-a-zA-Z0-9.]*[a-zA-Z0-9](:\d+)?(/[^\s]*)?$`)
)

// ContentHash returns the hex SHA-256 of data.
func ContentHash(data []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(data))
}

// SanitizeURL cleans up copy-paste artifacts around a URL: whitespace,
// markdown link syntax, and stray punctuation at either end.
func SanitizeURL(rawURL string) string {
	cleaned := strings.TrimSpace(rawURL)

	if m := markdownLink.FindStringSubmatch(cleaned); len(m) > 1 {
		cleaned = m[1]
	}

	cleaned = strings.TrimRight(cleaned, `,.)}]"'>;`)
	cleaned = strings.TrimLeft(cleaned, `([<"'`)
	return strings.TrimSpace(cleaned)
}

// SanitizeAndValidateURLs sanitizes every URL and splits the result into
// usable URLs and the original form of those that are still malformed.
func SanitizeAndValidateURLs(urls []string) (valid []string, invalid []string) {
	valid = make([]string, 0, len(urls))
	for _, rawURL := range urls {
		cleaned := SanitizeURL(rawURL)
		if !isValidURL(cleaned) {
			invalid = append(invalid, rawURL)
			continue
		}
		valid = append(valid, cleaned)
	}
	return valid, invalid
}

func isValidURL(s string) bool {
	if s == "" || strings.Contains(s, " ") || !validURL.MatchString(s) {
		return false
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return false
	}
	return !strings.ContainsAny(u.Host, "{}[]<>\"'")
}
