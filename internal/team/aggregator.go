package team

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/interfaces"
	"teambuilder/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// ErrSourceUnavailable is returned when the initial snapshot cannot be read.
// No counts are written in that case.
var ErrSourceUnavailable = errors.New("failed to load user snapshot")

const DefaultWorkers = 8

type Options struct {
	Workers int
	DryRun  bool
}

// Aggregator recomputes direct_sponsor_count and total_team_count for every
// user and writes them back.
type Aggregator struct {
	repo    interfaces.UserRepository
	logger  *logger.Logger
	workers int
	dryRun  bool
}

func NewAggregator(repo interfaces.UserRepository, log *logger.Logger, opts Options) *Aggregator {
	if log == nil {
		log = logger.NewNop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Aggregator{
		repo:    repo,
		logger:  log,
		workers: workers,
		dryRun:  opts.DryRun,
	}
}

// Run takes a snapshot, computes counts and writes them back. The returned
// run is never nil; err is non-nil only for fatal conditions (snapshot
// unavailable, store lost mid-run, context cancelled).
func (a *Aggregator) Run(ctx context.Context) (*models.TeamCountRun, error) {
	run := &models.TeamCountRun{
		StartedAt: time.Now().UTC(),
		DryRun:    a.dryRun,
	}

	users, err := a.repo.ListAll(ctx)
	if err != nil {
		run.Status = models.TeamCountRunAborted
		run.Error = err.Error()
		run.FinishedAt = time.Now().UTC()
		return run, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	result := BuildForest(users).Compute()
	a.recordDiagnostics(run, result)

	var fatal error
	if a.dryRun {
		for _, e := range result.Entries() {
			if e.Resolved {
				a.logger.WithUID(e.UID).WithFields(map[string]interface{}{
					"direct": e.Counts.DirectSponsorCount,
					"total":  e.Counts.TotalTeamCount,
				}).Info("Computed team counts (dry run)")
			}
		}
	} else {
		fatal = a.writeBack(ctx, result, run)
	}

	run.FinishedAt = time.Now().UTC()
	switch {
	case fatal != nil:
		run.Status = models.TeamCountRunAborted
		run.Error = fatal.Error()
	case run.HasIssues():
		run.Status = models.TeamCountRunCompletedWithIssue
	default:
		run.Status = models.TeamCountRunCompleted
	}

	return run, fatal
}

// Compute returns counts for a snapshot without touching the store.
func (a *Aggregator) Compute(ctx context.Context) (*Result, error) {
	users, err := a.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return BuildForest(users).Compute(), nil
}

func (a *Aggregator) recordDiagnostics(run *models.TeamCountRun, result *Result) {
	forest := result.Forest()
	run.TotalUsers = result.Len()
	run.Orphans = forest.Orphans()
	run.Duplicates = forest.Duplicates()
	run.Cycles = result.Cycles()
	run.Unresolved = result.Unresolved()

	for _, o := range run.Orphans {
		a.logger.WithUID(o.UID).WithField("referred_by", o.ReferredBy).
			Warn("Sponsor not found, counting user as root")
	}
	for _, uid := range run.Duplicates {
		a.logger.WithUID(uid).Warn("Duplicate user record ignored")
	}
	for _, c := range run.Cycles {
		a.logger.WithField("members", c.Members).Error("Referral cycle detected, team totals left unresolved")
	}
}

func (a *Aggregator) writeBack(ctx context.Context, result *Result, run *models.TeamCountRun) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	var mu sync.Mutex
	pending := 0

	for _, e := range result.Entries() {
		if !e.Resolved {
			continue
		}
		pending++
		if gctx.Err() != nil {
			continue
		}

		e := e
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			err := a.repo.UpdateTeamCounts(gctx, e.UID, e.Counts)

			mu.Lock()
			defer mu.Unlock()

			if err == nil {
				run.Updated++
				a.logger.WithUID(e.UID).WithFields(map[string]interface{}{
					"direct": e.Counts.DirectSponsorCount,
					"total":  e.Counts.TotalTeamCount,
				}).Debug("Updated team counts")
				return nil
			}
			if gctx.Err() != nil {
				// cancelled by another worker's fatal error; counted as skipped
				return nil
			}

			run.Failed = append(run.Failed, models.FailedUpdate{UID: e.UID, Error: err.Error()})
			a.logger.WithUID(e.UID).WithError(err).Error("Failed to update team counts")
			if isFatal(err) {
				return fmt.Errorf("failed to update team counts for %s: %w", e.UID, err)
			}
			return nil
		})
	}

	fatal := g.Wait()
	if fatal == nil {
		fatal = ctx.Err()
	}

	sort.Slice(run.Failed, func(i, j int) bool { return run.Failed[i].UID < run.Failed[j].UID })
	run.Skipped = pending - run.Updated - len(run.Failed)

	return fatal
}

func isFatal(err error) bool {
	return errors.Is(err, interfaces.ErrStoreUnavailable) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
