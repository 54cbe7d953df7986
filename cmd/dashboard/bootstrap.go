package main

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/export-dashboard/export-dashboard/internal/app"
	"github.com/export-dashboard/export-dashboard/internal/dashboard"
	"github.com/export-dashboard/export-dashboard/internal/observability"
)

func newController(ctx context.Context, cfg *app.Config, logger *slog.Logger, gateway dashboard.Gateway, metrics *observability.Metrics) (*dashboard.Controller, error) {
	ordering, err := dashboard.ParseOrdering(cfg.DashboardOrdering)
	if err != nil {
		return nil, err
	}
	opts := []dashboard.Option{
		dashboard.WithLogger(logger.With(slog.String("component", "dashboard"))),
		dashboard.WithMessages(dashboard.NewMessages(cfg.DashboardLocale)),
		dashboard.WithOrdering(ordering),
		dashboard.WithBaseContext(ctx),
	}
	if metrics != nil {
		opts = append(opts, dashboard.WithRecorder(metrics))
	}
	if cfg.DashboardStrictYears {
		opts = append(opts, dashboard.WithStrictSelection())
	}
	return dashboard.NewController(gateway, opts...), nil
}

// bootstrap performs the initial load: year reconciliation followed by the summary
// for the resulting selection, alongside the trend window ending at now.
func bootstrap(ctx context.Context, controller *dashboard.Controller, trendWindow int, now time.Time) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if controller.FetchAvailableYears(gctx) {
			return nil
		}
		if state := controller.State(); state.Summary == nil || state.Summary.Year != state.SelectedYear {
			controller.FetchSelectedDashboard(gctx)
		}
		return nil
	})
	g.Go(func() error {
		endYear := now.Year()
		controller.FetchYearlyTrend(gctx, endYear-trendWindow+1, endYear)
		return nil
	})
	_ = g.Wait()
}
