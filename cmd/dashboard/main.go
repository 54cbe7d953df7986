package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/export-dashboard/export-dashboard/internal/app"
	"github.com/export-dashboard/export-dashboard/internal/dashboard"
	dashboardhttp "github.com/export-dashboard/export-dashboard/internal/dashboard/http"
	"github.com/export-dashboard/export-dashboard/internal/exportstats"
	jobmetrics "github.com/export-dashboard/export-dashboard/internal/jobs"
	"github.com/export-dashboard/export-dashboard/internal/observability"
	"github.com/export-dashboard/export-dashboard/internal/platform/cache"
	"github.com/export-dashboard/export-dashboard/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := exportstats.NewClient(cfg.StatsAPIBaseURL, cfg.StatsAPITimeout, logger)
	controller, err := newController(ctx, cfg, logger, client, metrics)
	if err != nil {
		logger.Error("configure dashboard", slog.Any("error", err))
		os.Exit(1)
	}

	var ready atomic.Bool
	go func() {
		bootstrap(ctx, controller, cfg.TrendWindowYears, time.Now())
		ready.Store(true)
		logger.Info("dashboard loaded", slog.Int("year", controller.SelectedYear()))
	}()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis unavailable, background refresh disabled", slog.Any("error", err))
	} else {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()

		refreshJob := jobs.NewRefreshJob(controller, logger, jobmetrics.NewMetrics(metrics.Registerer()), cfg.TrendWindowYears)
		listener := jobs.NewSyncListener(redisClient, cfg.SyncChannel, refreshJob, logger)
		if err := listener.Listen(ctx); err != nil {
			logger.Warn("sync listener", slog.Any("error", err))
		}

		schedule, err := jobs.RefreshSchedule(cfg.RefreshCron, cfg.TrendWindowYears)
		if err != nil {
			logger.Error("build refresh schedule", slog.Any("error", err))
			os.Exit(1)
		}
		worker, err := jobs.NewWorker(jobs.WorkerConfig{
			RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
			Logger:    logger,
			Handlers:  refreshJob.Handlers(),
			Cron:      schedule,
		})
		if err != nil {
			logger.Error("init refresh worker", slog.Any("error", err))
			os.Exit(1)
		}
		go func() {
			if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("refresh worker", slog.Any("error", err))
			}
		}()
	}

	handler := dashboardhttp.NewHandler(logger, controller, client, dashboard.NewMessages(cfg.DashboardLocale).Locale())
	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		DashboardHandler: handler,
		Metrics:          metrics,
		Ready:            ready.Load,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
	controller.Wait()
}
