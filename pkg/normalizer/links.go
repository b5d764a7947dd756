package normalizer

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// YoutubeLinks returns watch URLs for every embedded YouTube iframe, in document order.
func YoutubeLinks(markup string) []string {
	var links []string
	seen := make(map[string]struct{})

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			// io.EOF or a read error; either way the markup is exhausted.
			return links
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		tok := z.Token()
		if tok.Data != "iframe" {
			continue
		}
		for _, attr := range tok.Attr {
			if attr.Key != "src" {
				continue
			}
			if id := youtubeID(attr.Val); id != "" {
				link := "https://www.youtube.com/watch?v=" + id
				if _, dup := seen[link]; !dup {
					seen[link] = struct{}{}
					links = append(links, link)
				}
			}
		}
	}
}

// youtubeID extracts the video id from an embed URL such as
// https://www.youtube.com/embed/<id>?rel=0.
func youtubeID(src string) string {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "youtube.com" && host != "youtube-nocookie.com" && host != "youtu.be" {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	id := parts[len(parts)-1]
	if id == "" || id == "embed" {
		return ""
	}
	return id
}
