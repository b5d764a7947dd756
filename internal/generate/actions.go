package generate

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/pkg/outline"
)

// GenerateAction writes a navigation guide for every scraped page.
func GenerateAction(c *cli.Context) error {
	startTime := time.Now()

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()

	env, err := common.Environment(c, ws.Site)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	client, err := common.NewLLMClient(env, ws.Site, ws.Logger)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	builder, err := outline.New(ws.Site.OutlineFormat)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	files := c.StringSlice("file")
	if len(files) == 0 {
		files, err = ws.Store.ListScrapedHTML()
		if err != nil {
			return cli.Exit(err.Error()+" (run scrape first)", 1)
		}
	}

	g := &Generator{
		Site:        ws.Site,
		Store:       ws.Store,
		DB:          ws.DB,
		LLM:         client,
		Outline:     builder,
		Logger:      ws.Logger,
		Concurrency: c.Int("concurrency"),
	}
	results := g.Run(c.Context, files)

	out := common.NewFinalOutput(outputs(results), common.Stats{TotalTimeSeconds: time.Since(startTime).Seconds()})
	if err := out.Print(os.Stdout, c.String("format")); err != nil {
		return err
	}
	return out.ExitStatus()
}

func outputs(results []Result) []common.ResultOutput {
	out := make([]common.ResultOutput, 0, len(results))
	for _, r := range results {
		o := common.ResultOutput{URL: r.URL, FilePath: r.FilePath, Status: common.StatusSuccess}
		switch {
		case r.ErrorType == errTooLong:
			o.Status = common.StatusSkipped
			o.Error = r.Error.Error()
			o.ErrorType = r.ErrorType
		case r.Error != nil:
			o.Status = common.StatusFailed
			o.Error = r.Error.Error()
			o.ErrorType = r.ErrorType
		}
		out = append(out, o)
	}
	return out
}
