package upload

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
	"github.com/dtnitsch/site-indexer/pkg/mapreduce"
)

// UploadAction indexes one search record per generated guide.
func UploadAction(c *cli.Context) error {
	startTime := time.Now()

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()
	logger := ws.Logger.With("env", c.String("env"))

	env, err := common.Environment(c, ws.Site)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	u := &Uploader{
		Site:        ws.Site,
		Store:       ws.Store,
		DB:          ws.DB,
		Env:         env.Name,
		Logger:      logger,
		Concurrency: c.Int("concurrency"),
		DryRun:      c.Bool("dry-run"),
	}
	client, err := common.NewLLMClient(env, ws.Site, logger)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	u.LLM = client
	if !u.DryRun {
		index, err := common.NewSearchClient(env)
		if err != nil {
			return cli.Exit(err.Error(), 2)
		}
		u.Index = index
	}

	files := c.StringSlice("file")
	if len(files) == 0 {
		files, err = ws.Store.ListGuides()
		if err != nil {
			return cli.Exit(fmt.Sprintf("%v (run generate first)", err), 1)
		}
	}

	results, counts := u.Run(c.Context, files)

	outputs := make([]common.ResultOutput, 0, len(results))
	for _, r := range results {
		o := common.ResultOutput{URL: r.URL, FilePath: r.JSONPath, ArticleID: r.ArticleID, Status: common.StatusSuccess}
		if r.Error != nil {
			o.Status = common.StatusFailed
			o.Error = r.Error.Error()
			o.ErrorType = r.ErrorType
		}
		outputs = append(outputs, o)
	}

	out := common.NewFinalOutput(outputs, common.Stats{
		TotalTimeSeconds: time.Since(startTime).Seconds(),
		TopKeywords:      mapreduce.TopKeywords(counts, 25),
	})
	if err := out.Print(os.Stdout, c.String("format")); err != nil {
		return err
	}
	return out.ExitStatus()
}
