package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"teambuilder/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "teambuilder"

// Metrics holds the team-count run collectors and the HTTP collectors for the
// API. Each instance owns its registry.
type Metrics struct {
	registry *prometheus.Registry

	RunsTotal       *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	UsersProcessed  prometheus.Gauge
	UsersUpdated    prometheus.Gauge
	UsersFailed     prometheus.Gauge
	UsersSkipped    prometheus.Gauge
	CyclesDetected  prometheus.Gauge
	OrphansDetected prometheus.Gauge
	LastRunTime     prometheus.Gauge

	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "team_count_runs_total",
			Help:      "Total number of team count runs by final status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "team_count_run_duration_seconds",
			Help:      "Wall time of a team count run",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		UsersProcessed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_count_users_total",
			Help:      "Users loaded by the last run",
		}),
		UsersUpdated: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_count_users_updated",
			Help:      "Users written by the last run",
		}),
		UsersFailed: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_count_users_failed",
			Help:      "Users whose write failed in the last run",
		}),
		UsersSkipped: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_count_users_skipped",
			Help:      "Users not attempted after the last run aborted",
		}),
		CyclesDetected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_count_cycles",
			Help:      "Referral cycles found by the last run",
		}),
		OrphansDetected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_count_orphans",
			Help:      "Users whose sponsor is missing, as of the last run",
		}),
		LastRunTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "team_count_last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_time_seconds",
			Help:      "Histogram of response times",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveRun(run *models.TeamCountRun) {
	if m == nil || run == nil {
		return
	}

	m.RunsTotal.WithLabelValues(string(run.Status)).Inc()
	m.RunDuration.Observe(run.Duration().Seconds())
	m.UsersProcessed.Set(float64(run.TotalUsers))
	m.UsersUpdated.Set(float64(run.Updated))
	m.UsersFailed.Set(float64(len(run.Failed)))
	m.UsersSkipped.Set(float64(run.Skipped))
	m.CyclesDetected.Set(float64(len(run.Cycles)))
	m.OrphansDetected.Set(float64(len(run.Orphans)))
	m.LastRunTime.Set(float64(run.FinishedAt.Unix()))
}

func (m *Metrics) ObserveRequest(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Push sends the registry to a Pushgateway. Batch runs use it since they exit
// before any scrape.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	if err := push.New(url, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics: %w", err)
	}
	return nil
}
