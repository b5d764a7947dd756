// Package language identifies the natural language of page text.
package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Site language names as they appear in sites.yaml, mapped to detector
// languages and search locales.
var siteLanguages = map[string]struct {
	lang   lingua.Language
	locale string
}{
	"English":    {lingua.English, "en-us"},
	"Espanol":    {lingua.Spanish, "es"},
	"Japanese":   {lingua.Japanese, "ja"},
	"Korean":     {lingua.Korean, "ko"},
	"Portuguese": {lingua.Portuguese, "pt-br"},
	"Chinese":    {lingua.Chinese, "zh-cn"},
	"Taiwanese":  {lingua.Chinese, "tw"},
}

// Detector is safe for concurrent use.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector restricted to the supported site languages.
// Models load lazily on first use.
func NewDetector() *Detector {
	seen := map[lingua.Language]bool{}
	var langs []lingua.Language
	for _, l := range siteLanguages {
		if !seen[l.lang] {
			seen[l.lang] = true
			langs = append(langs, l.lang)
		}
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(langs...).
			WithMinimumRelativeDistance(0.1).
			Build(),
	}
}

// Detect returns the site language name of text, e.g. "English".
func (d *Detector) Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return siteName(lang), true
}

// Matches reports whether text is written in the site's language. Text
// whose language cannot be determined matches.
func (d *Detector) Matches(text, siteLanguage string) bool {
	want, ok := siteLanguages[siteLanguage]
	if !ok {
		return true
	}
	got, ok := d.detector.DetectLanguageOf(strings.TrimSpace(text))
	if !ok {
		return true
	}
	return got == want.lang
}

// Locale returns the search locale for a site language, en-us by default.
func Locale(siteLanguage string) string {
	if l, ok := siteLanguages[siteLanguage]; ok {
		return l.locale
	}
	return "en-us"
}

func siteName(lang lingua.Language) string {
	switch lang {
	case lingua.Spanish:
		return "Espanol"
	case lingua.Chinese:
		return "Chinese"
	}
	return lang.String()
}
