package common

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// ResultOutput is the per-page line of a stage report.
type ResultOutput struct {
	URL       string `json:"url" yaml:"url"`
	FilePath  string `json:"file_path,omitempty" yaml:"file_path,omitempty"`
	ArticleID string `json:"article_id,omitempty" yaml:"article_id,omitempty"`
	Status    string `json:"status" yaml:"status"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType string `json:"error_type,omitempty" yaml:"error_type,omitempty"`
}

// Stats summarizes a stage run.
type Stats struct {
	Total            int      `json:"total" yaml:"total"`
	Successful       int      `json:"successful" yaml:"successful"`
	Failed           int      `json:"failed" yaml:"failed"`
	Skipped          int      `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	TotalTimeSeconds float64  `json:"total_time_seconds" yaml:"total_time_seconds"`
	TopKeywords      []string `json:"top_keywords,omitempty" yaml:"top_keywords,omitempty"`
}

// FinalOutput is what a stage prints on stdout.
type FinalOutput struct {
	Status  string         `json:"status" yaml:"status"`
	Results []ResultOutput `json:"results" yaml:"results"`
	Stats   Stats          `json:"stats" yaml:"stats"`
}

// NewFinalOutput derives the status from the per-page results and fills
// the success counters.
func NewFinalOutput(results []ResultOutput, stats Stats) *FinalOutput {
	stats.Total = len(results)
	stats.Successful, stats.Failed, stats.Skipped = 0, 0, 0
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			stats.Successful++
		case StatusSkipped:
			stats.Skipped++
		default:
			stats.Failed++
		}
	}

	out := &FinalOutput{Status: StatusSuccess, Results: results, Stats: stats}
	if stats.Failed > 0 {
		out.Status = "partial_failure"
	}
	return out
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Print writes the report as JSON or YAML.
func (o *FinalOutput) Print(w io.Writer, format string) error {
	return PrintValue(w, format, o)
}

// PrintValue writes v as indented JSON, or as YAML when format says so.
func PrintValue(w io.Writer, format string, v any) error {
	var data []byte
	var err error
	if strings.EqualFold(format, "yaml") {
		data, err = yaml.Marshal(v)
	} else {
		data, err = json.MarshalIndent(v, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// ExitStatus fails the command when there was work and none of it succeeded.
func (o *FinalOutput) ExitStatus() error {
	if o.Stats.Failed > 0 && o.Stats.Successful == 0 {
		return cli.Exit(fmt.Sprintf("all %d pages failed", o.Stats.Failed), 2)
	}
	return nil
}
