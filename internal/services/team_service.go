package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/interfaces"
	"teambuilder/internal/team"
	"teambuilder/pkg/cache"
	"teambuilder/pkg/logger"
	"teambuilder/pkg/metrics"
	"teambuilder/pkg/push"
	"teambuilder/pkg/storage"

	"github.com/google/uuid"
)

var (
	ErrRunInProgress  = errors.New("team count run already in progress")
	ErrNoRunRecorded  = errors.New("no team count run recorded")
	ErrReportNotFound = errors.New("report not found")
)

const (
	runLockKey    = "team-counts:lock"
	lastRunKey    = "team-counts:last-run"
	releaseWindow = 10 * time.Second
)

type TeamService interface {
	// Recalculate runs a full pass and blocks until it finishes.
	Recalculate(ctx context.Context, opts RecalculateOptions) (*models.TeamCountRun, error)
	// Start takes the run lock and runs the pass in the background. It returns
	// the id of the started run.
	Start(ctx context.Context, opts RecalculateOptions) (string, error)
	GetLastRun(ctx context.Context) (*models.TeamCountRun, error)
	ListReports(ctx context.Context) ([]*storage.FileInfo, error)
	GetReport(ctx context.Context, key string) (*models.TeamCountRun, error)
	// Wait blocks until background runs have finished.
	Wait()
}

type RecalculateOptions struct {
	DryRun bool
}

type TeamServiceConfig struct {
	Workers      int
	DryRun       bool
	LockTTL      time.Duration
	RunTimeout   time.Duration
	ReportPrefix string
	LastRunTTL   time.Duration
	NotifyTopic  string
}

type teamService struct {
	userRepo interfaces.UserRepository
	locker   interfaces.RunLocker
	cache    interfaces.CacheService
	reports  storage.StorageProvider
	metrics  *metrics.Metrics
	notifier push.PushProvider
	config   TeamServiceConfig
	logger   *logger.Logger

	mu      sync.Mutex
	lastRun *models.TeamCountRun
	wg      sync.WaitGroup
}

// NewTeamService wires the aggregator to its optional collaborators. locker,
// cache, reports, metrics and notifier may be nil.
func NewTeamService(
	userRepo interfaces.UserRepository,
	locker interfaces.RunLocker,
	cache interfaces.CacheService,
	reports storage.StorageProvider,
	m *metrics.Metrics,
	notifier push.PushProvider,
	config TeamServiceConfig,
	log *logger.Logger,
) TeamService {
	if log == nil {
		log = logger.NewNop()
	}
	if config.LockTTL <= 0 {
		config.LockTTL = 30 * time.Minute
	}
	return &teamService{
		userRepo: userRepo,
		locker:   locker,
		cache:    cache,
		reports:  reports,
		metrics:  m,
		notifier: notifier,
		config:   config,
		logger:   log,
	}
}

func (s *teamService) Recalculate(ctx context.Context, opts RecalculateOptions) (*models.TeamCountRun, error) {
	runID, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer s.release(runID)

	runCtx, stop := s.hold(ctx, runID)
	defer stop()

	return s.execute(runCtx, runID, opts)
}

func (s *teamService) Start(ctx context.Context, opts RecalculateOptions) (string, error) {
	runID, err := s.acquire(ctx)
	if err != nil {
		return "", err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.release(runID)

		runCtx := context.Background()
		if s.config.RunTimeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, s.config.RunTimeout)
			defer cancel()
		}

		runCtx, stop := s.hold(runCtx, runID)
		defer stop()

		if _, err := s.execute(runCtx, runID, opts); err != nil {
			s.logger.WithRunID(runID).WithError(err).Error("Background team count run aborted")
		}
	}()

	return runID, nil
}

func (s *teamService) Wait() {
	s.wg.Wait()
}

func (s *teamService) acquire(ctx context.Context) (string, error) {
	runID := uuid.NewString()
	if s.locker == nil {
		return runID, nil
	}

	ok, err := s.locker.Acquire(ctx, runLockKey, runID, s.config.LockTTL)
	if err != nil {
		return "", fmt.Errorf("failed to acquire run lock: %w", err)
	}
	if !ok {
		return "", ErrRunInProgress
	}
	return runID, nil
}

// hold keeps the run lock alive until stop is called. The returned context is
// cancelled if the lock is lost.
func (s *teamService) hold(ctx context.Context, runID string) (context.Context, func()) {
	if s.locker == nil {
		return ctx, func() {}
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(s.config.LockTTL / 3)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !s.extend(runID) {
					s.logger.WithRunID(runID).Error("Lost run lock, aborting run")
					cancel()
					return
				}
			}
		}
	}()

	return ctx, func() {
		close(done)
		wg.Wait()
		cancel()
	}
}

func (s *teamService) extend(runID string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), releaseWindow)
	defer cancel()

	ok, err := s.locker.Extend(ctx, runLockKey, runID, s.config.LockTTL)
	if err != nil {
		s.logger.WithRunID(runID).WithError(err).Warn("Failed to extend run lock")
		return true
	}
	return ok
}

func (s *teamService) release(runID string) {
	if s.locker == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), releaseWindow)
	defer cancel()

	if err := s.locker.Release(ctx, runLockKey, runID); err != nil {
		s.logger.WithRunID(runID).WithError(err).Warn("Failed to release run lock")
	}
}

func (s *teamService) execute(ctx context.Context, runID string, opts RecalculateOptions) (*models.TeamCountRun, error) {
	log := s.logger.WithRunID(runID)
	dryRun := opts.DryRun || s.config.DryRun

	log.WithField("dry_run", dryRun).Info("Starting team count run")

	agg := team.NewAggregator(s.userRepo, log, team.Options{
		Workers: s.config.Workers,
		DryRun:  dryRun,
	})
	run, runErr := agg.Run(ctx)
	run.ID = runID

	// Bookkeeping outlives a cancelled run context.
	bgCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if url, err := s.uploadReport(bgCtx, run); err != nil {
		log.WithError(err).Warn("Failed to upload run report")
	} else {
		run.ReportURL = url
	}

	s.recordLastRun(bgCtx, run)
	s.metrics.ObserveRun(run)
	s.notify(bgCtx, run)

	log.LogRunSummary(runID, run.TotalUsers, run.Updated, len(run.Failed), run.Skipped,
		len(run.Cycles), len(run.Orphans), run.Duration())
	if len(run.Failed) > 0 {
		log.WithField("failed_uids", run.FailedUIDs()).Warn("Some users were not updated; rerun to retry")
	}

	return run, runErr
}

func (s *teamService) reportKey(run *models.TeamCountRun) string {
	prefix := s.config.ReportPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%s%s-%s.json", prefix, run.StartedAt.Format("20060102T150405Z"), run.ID)
}

func (s *teamService) uploadReport(ctx context.Context, run *models.TeamCountRun) (string, error) {
	if s.reports == nil {
		return "", nil
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	resp, err := s.reports.Upload(ctx, &storage.UploadRequest{
		Key:         s.reportKey(run),
		Reader:      bytes.NewReader(data),
		ContentType: "application/json",
		Size:        int64(len(data)),
		Metadata: map[string]string{
			"run_id": run.ID,
			"status": string(run.Status),
		},
	})
	if err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (s *teamService) notify(ctx context.Context, run *models.TeamCountRun) {
	if s.notifier == nil || s.config.NotifyTopic == "" {
		return
	}

	priority := "normal"
	if run.HasIssues() {
		priority = "high"
	}

	_, err := s.notifier.SendNotification(ctx, &push.NotificationRequest{
		Topic: s.config.NotifyTopic,
		Title: fmt.Sprintf("Team count run %s", run.Status),
		Body: fmt.Sprintf("%d users, %d updated, %d failed, %d skipped",
			run.TotalUsers, run.Updated, len(run.Failed), run.Skipped),
		Data: map[string]string{
			"run_id":     run.ID,
			"status":     string(run.Status),
			"report_url": run.ReportURL,
		},
		Priority: priority,
	})
	if err != nil {
		s.logger.WithRunID(run.ID).WithError(err).Warn("Failed to send run notification")
	}
}

func (s *teamService) recordLastRun(ctx context.Context, run *models.TeamCountRun) {
	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, lastRunKey, run, s.config.LastRunTTL); err != nil {
		s.logger.WithRunID(run.ID).WithError(err).Warn("Failed to cache last run")
	}
}

func (s *teamService) GetLastRun(ctx context.Context) (*models.TeamCountRun, error) {
	if s.cache != nil {
		var run models.TeamCountRun
		err := s.cache.Get(ctx, lastRunKey, &run)
		if err == nil {
			return &run, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("Failed to read last run from cache")
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastRun == nil {
		return nil, ErrNoRunRecorded
	}
	return s.lastRun, nil
}

func (s *teamService) ListReports(ctx context.Context) ([]*storage.FileInfo, error) {
	if s.reports == nil {
		return nil, nil
	}
	files, err := s.reports.ListFiles(ctx, s.config.ReportPrefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return files, nil
}

func (s *teamService) GetReport(ctx context.Context, key string) (*models.TeamCountRun, error) {
	if s.reports == nil || !strings.HasPrefix(key, s.config.ReportPrefix) {
		return nil, ErrReportNotFound
	}

	resp, err := s.reports.Download(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to download report: %w", err)
	}
	defer resp.Reader.Close()

	data, err := io.ReadAll(resp.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	var run models.TeamCountRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &run, nil
}
