package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/export-dashboard/export-dashboard/internal/jobs"
)

type trendCall struct {
	start, end int
}

type fakeRefresher struct {
	mu         sync.Mutex
	years      int
	refreshes  int
	trends     []trendCall
	order      []string
	holdUpdate chan struct{}
	synced     chan struct{}
	reselect   bool
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{synced: make(chan struct{}, 8)}
}

func (f *fakeRefresher) FetchAvailableYears(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.years++
	f.order = append(f.order, "years")
	return f.reselect
}

func (f *fakeRefresher) FetchYearlyTrend(ctx context.Context, startYear, endYear int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trends = append(f.trends, trendCall{start: startYear, end: endYear})
	f.order = append(f.order, "trend")
}

func (f *fakeRefresher) RefreshData() <-chan struct{} {
	f.mu.Lock()
	f.refreshes++
	f.order = append(f.order, "refresh")
	hold := f.holdUpdate
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		if hold != nil {
			<-hold
		}
		close(done)
		select {
		case f.synced <- struct{}{}:
		default:
		}
	}()
	return done
}

func (f *fakeRefresher) snapshot() (years, refreshes int, trends []trendCall, order []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.years, f.refreshes, append([]trendCall(nil), f.trends...), append([]string(nil), f.order...)
}

func newTestJob(t *testing.T, refresher Refresher) *RefreshJob {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	job := NewRefreshJob(refresher, logger, jobmetrics.NewMetrics(prometheus.NewRegistry()), 3)
	job.clock = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }
	return job
}

func TestHandlersCoverEveryTask(t *testing.T) {
	job := newTestJob(t, newFakeRefresher())
	types := make([]string, 0, 3)
	for _, h := range job.Handlers() {
		require.NotNil(t, h.Handler)
		types = append(types, h.Type)
	}
	assert.ElementsMatch(t, []string{TaskAvailabilityRefresh, TaskDashboardRefresh, TaskTrendRefresh}, types)
}

func TestHandleAvailabilityRunsReconciliation(t *testing.T) {
	refresher := newFakeRefresher()
	job := newTestJob(t, refresher)

	require.NoError(t, job.HandleAvailability(context.Background(), NewAvailabilityRefreshTask()))

	years, refreshes, _, _ := refresher.snapshot()
	assert.Equal(t, 1, years)
	assert.Zero(t, refreshes)
}

func TestHandleDashboardWaitsForRefresh(t *testing.T) {
	refresher := newFakeRefresher()
	refresher.holdUpdate = make(chan struct{})
	job := newTestJob(t, refresher)

	errCh := make(chan error, 1)
	go func() {
		errCh <- job.HandleDashboard(context.Background(), NewDashboardRefreshTask())
	}()

	select {
	case <-errCh:
		t.Fatal("handler returned before the refresh resolved")
	case <-time.After(50 * time.Millisecond):
	}

	close(refresher.holdUpdate)
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("handler did not return after the refresh resolved")
	}
}

func TestHandleDashboardHonoursCancellation(t *testing.T) {
	refresher := newFakeRefresher()
	refresher.holdUpdate = make(chan struct{})
	defer close(refresher.holdUpdate)
	job := newTestJob(t, refresher)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := job.HandleDashboard(ctx, NewDashboardRefreshTask())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHandleTrendUsesPayloadWindow(t *testing.T) {
	refresher := newFakeRefresher()
	job := newTestJob(t, refresher)

	task, err := NewTrendRefreshTask(TrendRefreshPayload{WindowYears: 2})
	require.NoError(t, err)
	require.NoError(t, job.HandleTrend(context.Background(), task))

	_, _, trends, _ := refresher.snapshot()
	assert.Equal(t, []trendCall{{start: 2023, end: 2024}}, trends)
}

func TestHandleTrendFallsBackToConfiguredWindow(t *testing.T) {
	refresher := newFakeRefresher()
	job := newTestJob(t, refresher)

	require.NoError(t, job.HandleTrend(context.Background(), asynq.NewTask(TaskTrendRefresh, nil)))

	job.TrendWindow = 0
	body, err := json.Marshal(TrendRefreshPayload{})
	require.NoError(t, err)
	require.NoError(t, job.HandleTrend(context.Background(), asynq.NewTask(TaskTrendRefresh, body)))

	_, _, trends, _ := refresher.snapshot()
	assert.Equal(t, []trendCall{{start: 2022, end: 2024}, {start: 2020, end: 2024}}, trends)
}

func TestHandleTrendRejectsMalformedPayload(t *testing.T) {
	refresher := newFakeRefresher()
	job := newTestJob(t, refresher)

	err := job.HandleTrend(context.Background(), asynq.NewTask(TaskTrendRefresh, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	_, _, trends, _ := refresher.snapshot()
	assert.Empty(t, trends)
}

func TestSyncReconcilesBeforeRefreshing(t *testing.T) {
	refresher := newFakeRefresher()
	job := newTestJob(t, refresher)

	require.NoError(t, job.Sync(context.Background()))

	_, _, _, order := refresher.snapshot()
	assert.Equal(t, []string{"years", "refresh"}, order)
}

func TestSyncSkipsRefreshAfterReselection(t *testing.T) {
	refresher := newFakeRefresher()
	refresher.reselect = true
	job := newTestJob(t, refresher)

	require.NoError(t, job.Sync(context.Background()))

	_, refreshes, _, order := refresher.snapshot()
	assert.Equal(t, []string{"years"}, order)
	assert.Zero(t, refreshes)
}

func TestUnconfiguredJobFails(t *testing.T) {
	var job *RefreshJob
	assert.Error(t, job.HandleAvailability(context.Background(), NewAvailabilityRefreshTask()))
	assert.Error(t, job.Sync(context.Background()))
}

func TestRefreshScheduleRegistersTasks(t *testing.T) {
	entries, err := RefreshSchedule("@every 15m", 5)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, TaskAvailabilityRefresh, entries[0].Task.Type())
	assert.Equal(t, TaskDashboardRefresh, entries[1].Task.Type())
	assert.Equal(t, TaskTrendRefresh, entries[2].Task.Type())

	var payload TrendRefreshPayload
	require.NoError(t, json.Unmarshal(entries[2].Task.Payload(), &payload))
	assert.Equal(t, 5, payload.WindowYears)

	entries, err = RefreshSchedule("", 5)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
