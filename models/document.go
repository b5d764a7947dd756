package models

const (
	ActionMergeOrUpload = "mergeOrUpload"
	ActionDelete        = "delete"
)

// SearchDocument is one record in the search index. Field names follow the
// index schema, which is why they are not idiomatic Go JSON keys.
type SearchDocument struct {
	Action        string    `json:"@search.action"`
	ArticleId     string    `json:"ArticleId"`
	Title         string    `json:"Title,omitempty"`
	Content       string    `json:"Content,omitempty"`
	Source        string    `json:"Source,omitempty"`
	Labels        []string  `json:"Labels,omitempty"`
	YoutubeLinks  []string  `json:"YoutubeLinks,omitempty"`
	Language      string    `json:"Language,omitempty"`
	TitleVector   []float32 `json:"TitleVector,omitempty"`
	ContentVector []float32 `json:"ContentVector,omitempty"`
}

// DeletionOf returns the minimal delete request for a document.
func DeletionOf(articleID string) SearchDocument {
	return SearchDocument{Action: ActionDelete, ArticleId: articleID}
}
