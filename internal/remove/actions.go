package remove

import (
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/internal/common"
)

// DeleteAction removes one article (--id) or every stored record (--all)
// from the environment's search index.
func DeleteAction(c *cli.Context) error {
	startTime := time.Now()

	ids := c.StringSlice("id")
	if !c.Bool("all") && len(ids) == 0 {
		return cli.Exit("pass --all or at least one --id", 1)
	}

	ws, err := common.OpenWorkspace(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	defer ws.Close()

	env, err := common.Environment(c, ws.Site)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	index, err := common.NewSearchClient(env)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	r := &Remover{
		Store:  ws.Store,
		DB:     ws.DB,
		Index:  index,
		Env:    env.Name,
		Logger: ws.Logger.With("env", env.Name),
	}

	var results []Result
	if c.Bool("all") {
		results, err = r.All(c.Context)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
	} else {
		results = r.ByID(c.Context, ids...)
	}

	outputs := make([]common.ResultOutput, 0, len(results))
	for _, res := range results {
		o := common.ResultOutput{URL: res.Source, ArticleID: res.ArticleID, Status: common.StatusSuccess}
		if res.Error != nil {
			o.Status = common.StatusFailed
			o.Error = res.Error.Error()
			o.ErrorType = "index_error"
		}
		outputs = append(outputs, o)
	}

	out := common.NewFinalOutput(outputs, common.Stats{TotalTimeSeconds: time.Since(startTime).Seconds()})
	if err := out.Print(os.Stdout, c.String("format")); err != nil {
		return err
	}
	return out.ExitStatus()
}
