// Command mergeplan runs a YAML merge plan without the web UI.
//
//	mergeplan -plan plans/monthly.yaml
//
// Configuration comes from the same environment (and .env) as the server:
// LOG_LEVEL, CLEAN_* and, for plans with an output table, DATABASE_URL.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/merger/internal/config"
	"github.com/JonMunkholm/merger/internal/core"
	"github.com/JonMunkholm/merger/internal/database"
	"github.com/JonMunkholm/merger/internal/logging"
	"github.com/JonMunkholm/merger/internal/plan"
	"github.com/viant/afs"
)

func main() {
	planPath := flag.String("plan", "", "plan location (path or URL)")
	check := flag.Bool("check", false, "validate the plan and exit")
	flag.Parse()

	if *planPath == "" && flag.NArg() == 1 {
		*planPath = flag.Arg(0)
	}
	if *planPath == "" {
		fmt.Fprintln(os.Stderr, "usage: mergeplan -plan <location> [-check]")
		os.Exit(2)
	}

	if err := run(*planPath, *check); err != nil {
		slog.Error("plan failed", "plan", *planPath, "error", err)
		fmt.Fprintln(os.Stderr, core.FormatUserError(err))
		os.Exit(1)
	}
}

func run(planPath string, check bool) error {
	if err := config.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fs := afs.New()
	p, err := plan.Load(ctx, fs, planPath)
	if err != nil {
		return err
	}
	if check {
		slog.Info("plan is valid", "sources", len(p.Sources), "steps", len(p.Steps))
		return nil
	}

	var sink *core.PostgresSink
	if p.Output.Table != "" && cfg.Database.Enabled() {
		pool, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		sink = core.NewPostgresSink(pool, cfg.Database.Schema)
	}

	res, err := plan.NewRunner(fs, sink, cfg.Clean.Columns()).Run(ctx, p)
	if err != nil {
		return err
	}

	slog.Info("plan complete",
		"steps", len(res.Steps),
		"rows", res.Rows,
		"columns", res.Columns,
		"output", res.Output,
		"exported_rows", res.Exported,
		"duration", res.Duration,
	)
	return nil
}
