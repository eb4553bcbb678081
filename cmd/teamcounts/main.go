package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"teambuilder/internal/app"
	"teambuilder/internal/config"
	"teambuilder/internal/services"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitIssues = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	dryRun := flag.Bool("dry-run", false, "compute and log counts without writing them")
	workers := flag.Int("workers", 0, "concurrent writes (default TEAM_COUNT_WORKERS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return exitFatal
	}
	if *workers > 0 {
		cfg.Team.Workers = *workers
	}

	logger, err := app.NewLogger(cfg)
	if err != nil {
		log.Printf("Failed to create logger: %v", err)
		return exitFatal
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.Team.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Team.RunTimeout)
		defer cancel()
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return exitFatal
	}
	defer a.Close()

	teamRun, runErr := a.Team.Recalculate(ctx, services.RecalculateOptions{DryRun: *dryRun})

	if err := a.Metrics.Push(context.Background(), cfg.Metrics.PushgatewayURL, cfg.Metrics.JobName); err != nil {
		logger.WithError(err).Warn("Failed to push metrics")
	}

	switch {
	case errors.Is(runErr, services.ErrRunInProgress):
		logger.Error("Another team count run holds the lock")
		return exitFatal
	case runErr != nil:
		logger.WithError(runErr).Error("Team count run aborted")
		return exitFatal
	}

	fmt.Printf("run %s: %s, %d users, %d updated, %d failed, %d skipped, %d cycles, %d orphans\n",
		teamRun.ID, teamRun.Status, teamRun.TotalUsers, teamRun.Updated, len(teamRun.Failed),
		teamRun.Skipped, len(teamRun.Cycles), len(teamRun.Orphans))
	if teamRun.ReportURL != "" {
		fmt.Printf("report: %s\n", teamRun.ReportURL)
	}

	if teamRun.HasIssues() {
		return exitIssues
	}
	return exitOK
}
