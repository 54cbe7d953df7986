// Package dashboard owns the state behind the export statistics dashboard: the
// selected year, the years the backend has data for, the loaded summary and the
// loading/error flags, plus the read-only views derived from them.
package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/export-dashboard/export-dashboard/internal/exportstats"
)

// ErrYearUnavailable is returned by SetSelectedYear under strict selection when
// the year is not among the available years.
var ErrYearUnavailable = errors.New("dashboard: year not available")

const (
	opDashboard = "dashboard"
	opTrend     = "trend"
	opYears     = "years"

	outcomeSuccess = "success"
	outcomeFailure = "failure"
	outcomeStale   = "stale"
)

// Gateway is the subset of the statistics API the controller depends on.
type Gateway interface {
	Dashboard(ctx context.Context, year int) (exportstats.DashboardSummary, error)
	Trend(ctx context.Context, startYear, endYear int) ([]exportstats.MonthlyTrend, error)
	Years(ctx context.Context) ([]int, error)
}

// Controller coordinates the dashboard fetches and owns the resulting state.
// All methods are safe for concurrent use.
type Controller struct {
	gateway  Gateway
	logger   *slog.Logger
	messages Messages
	recorder Recorder
	ordering Ordering
	strict   bool
	baseCtx  context.Context

	mu             sync.Mutex
	summary        *exportstats.DashboardSummary
	yearlyTrend    []exportstats.MonthlyTrend
	availableYears []int
	selectedYear   int
	inflight       int
	generation     uint64
	lastError      string
	lastErrorKind  exportstats.Kind

	dispatches sync.WaitGroup
}

// NewController builds a controller whose selection starts at the current calendar year.
func NewController(gateway Gateway, opts ...Option) *Controller {
	c := &Controller{
		gateway:      gateway,
		logger:       slog.Default(),
		messages:     NewMessages(),
		ordering:     LastIssuedWins,
		baseCtx:      context.Background(),
		selectedYear: time.Now().Year(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchDashboardData loads the summary for year and blocks until it resolves.
// Failures are absorbed into LastError; the previous summary is kept.
func (c *Controller) FetchDashboardData(ctx context.Context, year int) {
	c.fetchDashboard(ctx, year, c.beginDashboard())
}

// fetchDashboard resolves a fetch already registered by beginDashboard under gen.
func (c *Controller) fetchDashboard(ctx context.Context, year int, gen uint64) {
	start := time.Now()
	outcome := outcomeFailure
	released := false
	defer func() {
		if !released {
			c.endDashboard()
		}
		c.observe(opDashboard, outcome, time.Since(start))
	}()

	summary, err := c.gateway.Dashboard(ctx, year)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
	released = true
	if c.ordering == LastIssuedWins && gen != c.generation {
		outcome = outcomeStale
		c.logger.Debug("discard superseded dashboard response",
			slog.Int("year", year),
			slog.Bool("failed", err != nil))
		return
	}
	if err != nil {
		c.lastErrorKind = exportstats.KindOf(err)
		c.lastError = c.messages.For(c.lastErrorKind)
		c.logger.Error("failed to fetch dashboard data",
			slog.Int("year", year),
			slog.String("kind", c.lastErrorKind.String()),
			slog.Any("error", err))
		return
	}
	outcome = outcomeSuccess
	c.summary = &summary
	c.selectedYear = year
}

// FetchSelectedDashboard loads the summary for the current selection.
func (c *Controller) FetchSelectedDashboard(ctx context.Context) {
	c.FetchDashboardData(ctx, c.SelectedYear())
}

// FetchYearlyTrend loads the multi-year trend. Failures are logged only.
func (c *Controller) FetchYearlyTrend(ctx context.Context, startYear, endYear int) {
	start := time.Now()
	points, err := c.gateway.Trend(ctx, startYear, endYear)
	if err != nil {
		c.observe(opTrend, outcomeFailure, time.Since(start))
		c.logger.Error("failed to fetch yearly trend",
			slog.Int("start_year", startYear),
			slog.Int("end_year", endYear),
			slog.Any("error", err))
		return
	}
	c.observe(opTrend, outcomeSuccess, time.Since(start))

	c.mu.Lock()
	c.yearlyTrend = points
	c.mu.Unlock()
}

// FetchAvailableYears loads the years with data and repairs the selection when it
// falls outside them, awaiting the follow-up dashboard fetch. It reports whether
// that repair fetch ran. Failures are logged only.
func (c *Controller) FetchAvailableYears(ctx context.Context) bool {
	start := time.Now()
	years, err := c.gateway.Years(ctx)
	if err != nil {
		c.observe(opYears, outcomeFailure, time.Since(start))
		c.logger.Error("failed to fetch available years", slog.Any("error", err))
		return false
	}
	c.observe(opYears, outcomeSuccess, time.Since(start))

	years = sortYearsDesc(years)

	c.mu.Lock()
	c.availableYears = years
	reselect := len(years) > 0 && !slices.Contains(years, c.selectedYear)
	if reselect {
		c.logger.Info("selected year has no data, reselecting",
			slog.Int("from", c.selectedYear),
			slog.Int("to", years[0]))
		c.selectedYear = years[0]
	}
	target := c.selectedYear
	c.mu.Unlock()

	if reselect {
		c.FetchDashboardData(ctx, target)
	}
	return reselect
}

// SetSelectedYear selects year and dispatches a dashboard fetch for it without
// waiting. The returned channel closes once that fetch resolves.
func (c *Controller) SetSelectedYear(year int) (<-chan struct{}, error) {
	c.mu.Lock()
	if c.strict && len(c.availableYears) > 0 && !slices.Contains(c.availableYears, year) {
		c.mu.Unlock()
		return nil, ErrYearUnavailable
	}
	if len(c.availableYears) > 0 && !slices.Contains(c.availableYears, year) {
		c.logger.Warn("selecting year without reported data", slog.Int("year", year))
	}
	c.selectedYear = year
	gen := c.beginLocked()
	c.mu.Unlock()

	return c.dispatch(year, gen), nil
}

// RefreshData re-fetches the summary for the current selection without waiting.
// The returned channel closes once that fetch resolves.
func (c *Controller) RefreshData() <-chan struct{} {
	c.mu.Lock()
	year := c.selectedYear
	gen := c.beginLocked()
	c.mu.Unlock()

	return c.dispatch(year, gen)
}

// Wait blocks until every dispatched background fetch has resolved.
func (c *Controller) Wait() {
	c.dispatches.Wait()
}

// SelectedYear returns the current selection.
func (c *Controller) SelectedYear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectedYear
}

// Loading reports whether a dashboard fetch is outstanding.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inflight > 0
}

// LastError returns the message of the latest failed dashboard fetch, or "".
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// State returns a copy of the current state.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		SelectedYear:   c.selectedYear,
		AvailableYears: slices.Clone(c.availableYears),
		Loading:        c.inflight > 0,
		LastError:      c.lastError,
		ErrorKind:      c.lastErrorKind,
		Summary:        c.summary,
		YearlyTrend:    c.yearlyTrend,
	}
}

// CurrentSummary returns the loaded summary, or nil.
func (c *Controller) CurrentSummary() *exportstats.DashboardSummary {
	return CurrentSummary(c.State())
}

// TopCountries returns the ranked country list of the loaded summary.
func (c *Controller) TopCountries() []exportstats.CountryExport {
	return TopCountries(c.State())
}

// TopProducts returns the ranked product list of the loaded summary.
func (c *Controller) TopProducts() []exportstats.ProductExport {
	return TopProducts(c.State())
}

// MonthlyTrend returns the monthly series of the loaded summary.
func (c *Controller) MonthlyTrend() []exportstats.MonthlyTrend {
	return MonthlyTrend(c.State())
}

// dispatch runs a fetch registered under gen in the background. The caller
// registers it first so loading and ordering reflect the call, not the goroutine.
func (c *Controller) dispatch(year int, gen uint64) <-chan struct{} {
	done := make(chan struct{})
	c.dispatches.Add(1)
	go func() {
		defer c.dispatches.Done()
		defer close(done)
		c.fetchDashboard(c.baseCtx, year, gen)
	}()
	return done
}

func (c *Controller) beginDashboard() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beginLocked()
}

// beginLocked marks a dashboard fetch in flight and returns its generation.
// c.mu must be held.
func (c *Controller) beginLocked() uint64 {
	c.inflight++
	c.generation++
	c.lastError = ""
	c.lastErrorKind = exportstats.KindUnknown
	return c.generation
}

func (c *Controller) endDashboard() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight--
}

func (c *Controller) observe(op, outcome string, d time.Duration) {
	if c.recorder == nil {
		return
	}
	c.recorder.ObserveFetch(op, outcome, d)
}

func sortYearsDesc(years []int) []int {
	sorted := slices.Clone(years)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	slices.Reverse(sorted)
	if sorted == nil {
		sorted = []int{}
	}
	return sorted
}
