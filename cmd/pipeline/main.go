// Command pipeline ingests distressed-parcel signals from the West
// Seattle open-data sources, normalizes and stores them, and rescores every
// stored property.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/westseattle/distressed-pipeline/internal/config"
	"github.com/westseattle/distressed-pipeline/internal/observability"
	"github.com/westseattle/distressed-pipeline/internal/runner"
	"github.com/westseattle/distressed-pipeline/internal/store"
)

func main() {
	fs := flag.NewFlagSet("pipeline", flag.ExitOnError)
	source := fs.String("source", "", "ingest only this source (default: all sources)")
	rescoreOnly := fs.Bool("rescore-only", false, "re-score every property without ingesting")
	if len(os.Args) < 2 || os.Args[1] != "run" {
		fmt.Fprintln(os.Stderr, "usage: pipeline run [--source <name>] [--rescore-only]")
		os.Exit(2)
	}
	fs.Parse(os.Args[2:])

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctl := runner.New(cfg, db, metrics, logger)

	if *rescoreOnly {
		if err := ctl.RunRescoreOnly(ctx); err != nil {
			logger.Error("rescore failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := ctl.RunIngest(ctx, *source); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}
