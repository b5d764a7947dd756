package common

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/db"
	"github.com/dtnitsch/site-indexer/pkg/storage"
)

// NewLogger builds the JSON stderr logger every command uses.
func NewLogger(c *cli.Context) *slog.Logger {
	logLevel := slog.LevelInfo
	if c.Bool("quiet") {
		logLevel = slog.LevelError
	} else if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// Workspace bundles what a pipeline stage needs for one site.
type Workspace struct {
	Site   *models.Site
	Store  *storage.Storage
	DB     *db.DB
	Logger *slog.Logger
}

// OpenWorkspace loads the --site entry from --config and opens its folders
// and the ledger under --output-dir.
func OpenWorkspace(c *cli.Context) (*Workspace, error) {
	logger := NewLogger(c).With("site", c.String("site"))

	cfg, err := models.LoadConfig(c.String("config"))
	if err != nil {
		return nil, err
	}
	site, err := cfg.Site(c.String("site"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("workers") && c.Int("workers") > 0 {
		site.Workers = c.Int("workers")
	}

	store, err := storage.New(c.String("output-dir"), site.Name)
	if err != nil {
		return nil, err
	}
	database, err := db.Open(c.String("output-dir"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Workspace{Site: site, Store: store, DB: database, Logger: logger}, nil
}

func (w *Workspace) Close() error {
	return w.DB.Close()
}

// Environment loads the --env credentials from .env files in --env-dir.
func Environment(c *cli.Context, site *models.Site) (*models.Environment, error) {
	return models.LoadEnvironment(c.String("env-dir"), c.String("env"), site.Brand)
}
