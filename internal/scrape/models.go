package scrape

import (
	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/models"
)

type Job struct {
	URL string
}

// Result holds the outcome of a processed job.
type Result struct {
	URL        string
	FileName   string
	FilePath   string
	Page       *models.Page
	Cached     bool
	Error      error
	ErrorType  string
	WordCounts map[string]int
}

const (
	errFetch     = "fetch_error"
	errNoContent = "no_content"
	errNormalize = "normalize_error"
	errSave      = "save_error"
)

func (r Result) output() common.ResultOutput {
	out := common.ResultOutput{URL: r.URL, FilePath: r.FilePath, Status: common.StatusSuccess}
	if r.Error != nil {
		out.Status = common.StatusFailed
		out.Error = r.Error.Error()
		out.ErrorType = r.ErrorType
	}
	// A page without a content root is skipped, not failed.
	if r.ErrorType == errNoContent {
		out.Status = common.StatusSkipped
	}
	return out
}
