package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"teambuilder/internal/models"
	"teambuilder/internal/repositories/memory"
	"teambuilder/pkg/cache"
	"teambuilder/pkg/metrics"
	"teambuilder/pkg/push"
	"teambuilder/pkg/storage"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []*push.NotificationRequest
}

func (n *recordingNotifier) SendNotification(ctx context.Context, req *push.NotificationRequest) (*push.NotificationResponse, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, req)
	return &push.NotificationResponse{MessageID: "m1", Success: true, Topic: req.Topic}, nil
}

func (n *recordingNotifier) messages() []*push.NotificationRequest {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*push.NotificationRequest(nil), n.sent...)
}

type teamFixture struct {
	repo     *memory.UserRepository
	cache    *cache.MemoryCache
	reports  *storage.LocalStorage
	metrics  *metrics.Metrics
	notifier *recordingNotifier
	svc      TeamService
}

func newTeamFixture(t *testing.T, users ...*models.User) *teamFixture {
	t.Helper()

	reports, err := storage.NewLocalStorage(t.TempDir(), "")
	require.NoError(t, err)

	f := &teamFixture{
		repo:     memory.NewUserRepository(users...),
		cache:    cache.NewMemoryCache(),
		reports:  reports,
		metrics:  metrics.New(),
		notifier: &recordingNotifier{},
	}
	f.svc = NewTeamService(f.repo, f.cache, f.cache, f.reports, f.metrics, f.notifier, TeamServiceConfig{
		Workers:      4,
		LockTTL:      time.Minute,
		ReportPrefix: "team-counts/",
		LastRunTTL:   time.Hour,
		NotifyTopic:  "team-count-runs",
	}, nil)
	return f
}

func TestTeamService_Recalculate(t *testing.T) {
	f := newTeamFixture(t, newUser("A"), newUser("B", "A"), newUser("C", "B"))
	ctx := context.Background()

	run, err := f.svc.Recalculate(ctx, RecalculateOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, run.ID)
	assert.Equal(t, models.TeamCountRunCompleted, run.Status)
	assert.Equal(t, 3, run.Updated)
	assert.NotEmpty(t, run.ReportURL)

	counts, ok := f.repo.Counts("A")
	require.True(t, ok)
	assert.Equal(t, models.TeamCounts{DirectSponsorCount: 1, TotalTeamCount: 2}, counts)

	last, err := f.svc.GetLastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, run.ID, last.ID)

	reports, err := f.svc.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.True(t, strings.HasPrefix(reports[0].Key, "team-counts/"))
	assert.True(t, strings.HasSuffix(reports[0].Key, run.ID+".json"))

	report, err := f.svc.GetReport(ctx, reports[0].Key)
	require.NoError(t, err)
	assert.Equal(t, run.ID, report.ID)
	assert.Equal(t, 3, report.TotalUsers)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RunsTotal.WithLabelValues(string(models.TeamCountRunCompleted))))
	assert.Equal(t, 3.0, testutil.ToFloat64(f.metrics.UsersUpdated))

	sent := f.notifier.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "team-count-runs", sent[0].Topic)
	assert.Equal(t, run.ID, sent[0].Data["run_id"])
	assert.Equal(t, "normal", sent[0].Priority)
}

func TestTeamService_RunInProgress(t *testing.T) {
	f := newTeamFixture(t, newUser("A"))
	ctx := context.Background()

	ok, err := f.cache.Acquire(ctx, runLockKey, "someone-else", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.Recalculate(ctx, RecalculateOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = f.svc.Start(ctx, RecalculateOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)
}

func TestTeamService_ReleasesLockAfterRun(t *testing.T) {
	f := newTeamFixture(t, newUser("A"))
	ctx := context.Background()

	_, err := f.svc.Recalculate(ctx, RecalculateOptions{})
	require.NoError(t, err)

	_, err = f.svc.Recalculate(ctx, RecalculateOptions{})
	assert.NoError(t, err)
}

func TestTeamService_StartRunsInBackground(t *testing.T) {
	f := newTeamFixture(t, newUser("A"), newUser("B", "A"))

	runID, err := f.svc.Start(context.Background(), RecalculateOptions{})
	require.NoError(t, err)
	f.svc.Wait()

	last, err := f.svc.GetLastRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runID, last.ID)

	counts, ok := f.repo.Counts("A")
	require.True(t, ok)
	assert.Equal(t, int64(1), counts.TotalTeamCount)
}

func TestTeamService_DryRunWritesNothing(t *testing.T) {
	f := newTeamFixture(t, newUser("A"), newUser("B", "A"))

	run, err := f.svc.Recalculate(context.Background(), RecalculateOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, run.DryRun)
	assert.Zero(t, run.Updated)

	_, ok := f.repo.Counts("A")
	assert.False(t, ok)
}

func TestTeamService_NoRunRecorded(t *testing.T) {
	svc := NewTeamService(memory.NewUserRepository(), nil, nil, nil, nil, nil, TeamServiceConfig{Workers: 1}, nil)

	_, err := svc.GetLastRun(context.Background())
	assert.ErrorIs(t, err, ErrNoRunRecorded)

	reports, err := svc.ListReports(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reports)

	_, err = svc.GetReport(context.Background(), "team-counts/x.json")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestTeamService_GetReportOutsidePrefix(t *testing.T) {
	f := newTeamFixture(t)
	_, err := f.svc.GetReport(context.Background(), "secrets/creds.json")
	assert.ErrorIs(t, err, ErrReportNotFound)

	_, err = f.svc.GetReport(context.Background(), "team-counts/missing.json")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestTeamService_CycleReportedWithIssues(t *testing.T) {
	f := newTeamFixture(t, newUser("A", "B"), newUser("B", "A"), newUser("C"))

	run, err := f.svc.Recalculate(context.Background(), RecalculateOptions{})
	require.NoError(t, err)
	assert.Equal(t, models.TeamCountRunCompletedWithIssue, run.Status)
	require.Len(t, run.Cycles, 1)
	assert.ElementsMatch(t, []string{"A", "B"}, run.Cycles[0].Members)

	sent := f.notifier.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "high", sent[0].Priority)
	assert.Equal(t, string(models.TeamCountRunCompletedWithIssue), sent[0].Data["status"])
}

// slowListRepo delays ListAll so a run outlives short lock ttls.
type slowListRepo struct {
	*memory.UserRepository
	delay time.Duration
}

func (r *slowListRepo) ListAll(ctx context.Context) ([]*models.User, error) {
	select {
	case <-time.After(r.delay):
		return r.UserRepository.ListAll(ctx)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func newSlowTeamService(t *testing.T, delay, lockTTL time.Duration) (TeamService, *cache.MemoryCache) {
	t.Helper()
	repo := &slowListRepo{UserRepository: memory.NewUserRepository(newUser("A"), newUser("B", "A")), delay: delay}
	mc := cache.NewMemoryCache()
	svc := NewTeamService(repo, mc, mc, nil, nil, nil, TeamServiceConfig{
		Workers: 1,
		LockTTL: lockTTL,
	}, nil)
	return svc, mc
}

func TestTeamService_LockOutlivesTTL(t *testing.T) {
	svc, _ := newSlowTeamService(t, 300*time.Millisecond, 60*time.Millisecond)
	ctx := context.Background()

	first, err := svc.Start(ctx, RecalculateOptions{})
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)
	_, err = svc.Start(ctx, RecalculateOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	_, err = svc.Recalculate(ctx, RecalculateOptions{})
	assert.ErrorIs(t, err, ErrRunInProgress)

	svc.Wait()
	last, err := svc.GetLastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, last.ID)
	assert.Equal(t, models.TeamCountRunCompleted, last.Status)

	_, err = svc.Recalculate(ctx, RecalculateOptions{})
	assert.NoError(t, err)
}

func TestTeamService_LostLockAbortsRun(t *testing.T) {
	svc, mc := newSlowTeamService(t, 2*time.Second, 60*time.Millisecond)
	ctx := context.Background()

	_, err := svc.Start(ctx, RecalculateOptions{})
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, mc.Delete(ctx, runLockKey))

	svc.Wait()
	last, err := svc.GetLastRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TeamCountRunAborted, last.Status)
}
