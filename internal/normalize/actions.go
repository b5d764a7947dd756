// Package normalize holds the operator commands for inspecting one page
// without running a whole stage.
package normalize

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/pkg/fetcher"
	"github.com/dtnitsch/site-indexer/pkg/llm"
	"github.com/dtnitsch/site-indexer/pkg/normalizer"
)

// NormalizeAction prints the pruned content root of one page, read from
// --file or fetched from --url.
func NormalizeAction(c *cli.Context) error {
	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()

	pageURL := c.String("url")
	var raw []byte
	switch {
	case c.IsSet("file"):
		raw, err = os.ReadFile(filepath.Clean(c.String("file")))
		if pageURL == "" {
			pageURL = ws.Site.StartURL
		}
	case pageURL != "":
		var src fetcher.Source = fetcher.NewFetcher()
		if ws.Site.NeedsRender(pageURL) {
			r := fetcher.NewRenderer(c.String("wait-for"), 0)
			defer r.Close()
			src = r
		}
		raw, err = src.Fetch(c.Context, pageURL)
	default:
		return cli.Exit("pass --file or --url", 1)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	selector := c.String("selector")
	if selector == "" {
		selector = ws.Site.RootSelectorFor(pageURL)
	}
	out, err := Render(normalizer.New(ws.Site.Rules()), string(raw), selector, c.Bool("compact"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Fprintln(c.App.Writer, out)
	return nil
}

// Render normalizes raw markup and serializes the root pretty-printed, or
// token-reduced when compact is set.
func Render(n *normalizer.Normalizer, raw, selector string, compact bool) (string, error) {
	res, err := n.Normalize(raw, selector)
	if err != nil {
		return "", err
	}
	if compact {
		return normalizer.ReduceTokens(res.HTML()), nil
	}
	return res.Pretty(), nil
}

// Report is what ReduceAction prints for one stored page.
type Report struct {
	File        string `json:"file" yaml:"file"`
	Reduced     string `json:"reduced" yaml:"reduced"`
	PlainText   string `json:"plain_text" yaml:"plain_text"`
	Tokens      int    `json:"tokens" yaml:"tokens"`
	TokensExact bool   `json:"tokens_exact" yaml:"tokens_exact"`
	Budget      int    `json:"budget" yaml:"budget"`
	FitsBudget  bool   `json:"fits_budget" yaml:"fits_budget"`
}

// Reduce builds the prompt view of stored markup and measures it.
func Reduce(file, markup string, counter *llm.TokenCounter, budget int) Report {
	reduced := normalizer.ReduceTokens(markup)
	tokens := counter.Count(reduced)
	return Report{
		File:        file,
		Reduced:     reduced,
		PlainText:   normalizer.ReduceTokens(normalizer.PlainText(reduced)),
		Tokens:      tokens,
		TokensExact: counter.Exact(),
		Budget:      budget,
		FitsBudget:  tokens < budget,
	}
}

// ReduceAction prints the token-reduced and plain text of a stored page
// with its prompt token count.
func ReduceAction(c *cli.Context) error {
	if !c.IsSet("file") {
		return cli.Exit("pass --file", 1)
	}

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()

	path := c.String("file")
	if !ws.Store.HasFile(path) {
		path = filepath.Join(ws.Store.ScrapedHTMLDir(), filepath.Base(path))
	}
	data, err := ws.Store.ReadFile(path)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	report := Reduce(path, string(data), llm.NewTokenCounter(), ws.Site.PromptTokenBudget)
	if err := common.PrintValue(c.App.Writer, c.String("format"), report); err != nil {
		return err
	}
	if !report.FitsBudget {
		ws.Logger.Warn("Page exceeds prompt budget", "file", path, "tokens", report.Tokens, "budget", report.Budget)
	}
	return nil
}
