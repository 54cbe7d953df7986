package main

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/export-dashboard/export-dashboard/internal/app"
	"github.com/export-dashboard/export-dashboard/internal/dashboard"
	"github.com/export-dashboard/export-dashboard/internal/exportstats"
	_ "github.com/export-dashboard/export-dashboard/internal/testing/guard"
)

type stubGateway struct {
	mu             sync.Mutex
	years          []int
	dashboardCalls []int
	trendCalls     [][2]int
}

func (s *stubGateway) Dashboard(ctx context.Context, year int) (exportstats.DashboardSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dashboardCalls = append(s.dashboardCalls, year)
	return exportstats.DashboardSummary{Year: year, Currency: "USD"}, nil
}

func (s *stubGateway) Trend(ctx context.Context, startYear, endYear int) ([]exportstats.MonthlyTrend, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trendCalls = append(s.trendCalls, [2]int{startYear, endYear})
	return []exportstats.MonthlyTrend{{Year: endYear, TotalValue: 1}}, nil
}

func (s *stubGateway) Years(ctx context.Context) ([]int, error) {
	return s.years, nil
}

func testConfig() *app.Config {
	return &app.Config{
		DashboardLocale:   "en",
		DashboardOrdering: "last-issued",
		TrendWindowYears:  5,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMainSkipsStartupInTestMode(t *testing.T) {
	require.True(t, app.InTestMode())
	main()
}

func TestNewControllerRejectsUnknownOrdering(t *testing.T) {
	cfg := testConfig()
	cfg.DashboardOrdering = "first-wins"

	_, err := newController(context.Background(), cfg, discardLogger(), &stubGateway{}, nil)
	assert.Error(t, err)
}

func TestNewControllerAppliesStrictSelection(t *testing.T) {
	cfg := testConfig()
	cfg.DashboardStrictYears = true
	gateway := &stubGateway{years: []int{2024, 2023}}

	controller, err := newController(context.Background(), cfg, discardLogger(), gateway, nil)
	require.NoError(t, err)
	controller.FetchAvailableYears(context.Background())

	_, err = controller.SetSelectedYear(1999)
	assert.ErrorIs(t, err, dashboard.ErrYearUnavailable)
}

func TestBootstrapLoadsSelectionOnce(t *testing.T) {
	gateway := &stubGateway{years: []int{2023, 2022}}
	controller, err := newController(context.Background(), testConfig(), discardLogger(), gateway, nil)
	require.NoError(t, err)

	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bootstrap(context.Background(), controller, 5, now)

	state := controller.State()
	assert.Equal(t, 2023, state.SelectedYear)
	require.NotNil(t, state.Summary)
	assert.Equal(t, 2023, state.Summary.Year)
	assert.Len(t, state.YearlyTrend, 1)
	assert.False(t, state.Loading)

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	assert.Equal(t, []int{2023}, gateway.dashboardCalls)
	assert.Equal(t, [][2]int{{2020, 2024}}, gateway.trendCalls)
}

func TestBootstrapFetchesKeptSelection(t *testing.T) {
	year := time.Now().Year()
	gateway := &stubGateway{years: []int{year, year - 1}}
	controller, err := newController(context.Background(), testConfig(), discardLogger(), gateway, nil)
	require.NoError(t, err)

	bootstrap(context.Background(), controller, 3, time.Now())

	gateway.mu.Lock()
	defer gateway.mu.Unlock()
	assert.Equal(t, []int{year}, gateway.dashboardCalls)
}
