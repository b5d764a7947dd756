package models

import "time"

// Page is the scrape-stage record of one normalized page.
type Page struct {
	URL       string    `json:"url"`
	FileName  string    `json:"file_name"`
	Title     string    `json:"title,omitempty"`
	Excerpt   string    `json:"excerpt,omitempty"`
	Language  string    `json:"language,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	Rendered  bool      `json:"rendered"`
	ScrapedAt time.Time `json:"scraped_at"`
}
