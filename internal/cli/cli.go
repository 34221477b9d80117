// Package cli implements the dealctl command line tool: it reads the deal
// sheet once and prints filtered deals, summaries and source details.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/aristath/coinvest/internal/clientdata"
	"github.com/aristath/coinvest/internal/config"
	"github.com/aristath/coinvest/internal/di"
	"github.com/aristath/coinvest/internal/modules/deals"
	"github.com/aristath/coinvest/pkg/logger"
)

var (
	version = "dev"
	commit  = "none"
)

// DealReader returns the current deal batch
type DealReader interface {
	FetchDeals(ctx context.Context) (*deals.Batch, error)
}

// Env holds what commands need. Close releases storage.
type Env struct {
	Deals     DealReader
	Presenter *deals.Presenter
	Source    di.DealSource
	Pruner    clientdata.Pruner // nil when snapshots are disabled
	Close     func()
}

// Loader builds an Env for one command invocation. Logs go to logOut so they
// never mix with command output.
type Loader func(ctx context.Context, logOut io.Writer) (*Env, error)

// SetVersionInfo sets the values printed by the version command
func SetVersionInfo(v, c string) {
	version = v
	commit = c
}

// DefaultLoader wires the application from environment configuration
func DefaultLoader(ctx context.Context, logOut io.Writer) (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: true, Out: logOut})
	if cfg.LogLevel == "info" {
		log = log.Level(zerolog.WarnLevel)
	}

	container, _, err := di.Wire(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	return &Env{
		Deals:     container.DealRepository,
		Presenter: container.Presenter,
		Source:    container.Source,
		Pruner:    container.SnapshotPruner,
		Close:     container.Close,
	}, nil
}

type app struct {
	load    Loader
	timeout time.Duration
}

// NewRootCmd creates the dealctl command tree
func NewRootCmd(load Loader) *cobra.Command {
	a := &app{load: load, timeout: time.Minute}

	root := &cobra.Command{
		Use:           "dealctl",
		Short:         "Inspect co-investment deals from the command line",
		Long:          "dealctl reads the deal spreadsheet configured for the dashboard and prints deals, summaries and source details.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(a.listCmd())
	root.AddCommand(a.summaryCmd())
	root.AddCommand(a.warningsCmd())
	root.AddCommand(a.sourceCmd())
	root.AddCommand(a.pruneCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dealctl %s (commit: %s)\n", version, commit)
		},
	})

	return root
}

// withEnv loads the environment, runs fn and releases storage
func (a *app) withEnv(cmd *cobra.Command, fn func(ctx context.Context, env *Env, out io.Writer) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	env, err := a.load(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	if env.Close != nil {
		defer env.Close()
	}
	return fn(ctx, env, cmd.OutOrStdout())
}

func (a *app) fetch(ctx context.Context, env *Env) (*deals.Batch, error) {
	batch, err := env.Deals.FetchDeals(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching deals: %w", err)
	}
	return batch, nil
}
