package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/export-dashboard/export-dashboard/internal/jobs"
)

const defaultTrendWindow = 5

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// Refresher is the part of the dashboard controller driven by background jobs.
type Refresher interface {
	FetchAvailableYears(ctx context.Context) bool
	FetchYearlyTrend(ctx context.Context, startYear, endYear int)
	RefreshData() <-chan struct{}
}

// RefreshJob runs dashboard refreshes outside of user interaction.
type RefreshJob struct {
	Dashboard   Refresher
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	TrendWindow int
	clock       func() time.Time
}

// NewRefreshJob wires dependencies for the refresh handlers.
func NewRefreshJob(dashboard Refresher, logger *slog.Logger, metrics *jobmetrics.Metrics, trendWindow int) *RefreshJob {
	return &RefreshJob{
		Dashboard:   dashboard,
		Logger:      logger,
		Metrics:     metrics,
		TrendWindow: trendWindow,
		clock:       time.Now,
	}
}

// Handlers lists the asynq handlers served by this job.
func (j *RefreshJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskAvailabilityRefresh, Handler: j.HandleAvailability},
		{Type: TaskDashboardRefresh, Handler: j.HandleDashboard},
		{Type: TaskTrendRefresh, Handler: j.HandleTrend},
	}
}

// HandleAvailability re-runs year reconciliation.
func (j *RefreshJob) HandleAvailability(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	tracker := j.metrics().Track(TaskAvailabilityRefresh)
	j.Dashboard.FetchAvailableYears(ctx)
	return tracker.End(nil)
}

// HandleDashboard reloads the current summary and waits for it to resolve.
func (j *RefreshJob) HandleDashboard(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	tracker := j.metrics().Track(TaskDashboardRefresh)
	return tracker.End(awaitDone(ctx, j.Dashboard.RefreshData()))
}

// HandleTrend reloads the trend window ending at the current year.
func (j *RefreshJob) HandleTrend(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	var payload TrendRefreshPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	window := payload.WindowYears
	if window <= 0 {
		window = j.TrendWindow
	}
	if window <= 0 {
		window = defaultTrendWindow
	}

	tracker := j.metrics().Track(TaskTrendRefresh)
	endYear := j.now().Year()
	startYear := endYear - window + 1
	j.logger().Debug("refreshing yearly trend", slog.Int("start_year", startYear), slog.Int("end_year", endYear))
	j.Dashboard.FetchYearlyTrend(ctx, startYear, endYear)
	return tracker.End(nil)
}

// Sync re-runs reconciliation and then refreshes the current summary, unless
// reconciliation already reloaded it for a new selection. It backs the data-sync
// notification listener.
func (j *RefreshJob) Sync(ctx context.Context) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard refresh: handler not configured")
	}
	j.metrics().SyncNotified()
	j.logger().Info("statistics data synced, refreshing dashboard")
	if j.Dashboard.FetchAvailableYears(ctx) {
		return nil
	}
	return awaitDone(ctx, j.Dashboard.RefreshData())
}

func awaitDone(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *RefreshJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("component", "dashboard_refresh"))
	}
	return slog.Default().With(slog.String("component", "dashboard_refresh"))
}

func (j *RefreshJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *RefreshJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
