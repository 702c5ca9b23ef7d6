package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/diffsolutions/samba-exporters/internal/app"
	"github.com/diffsolutions/samba-exporters/internal/config"
	"github.com/diffsolutions/samba-exporters/internal/export"
	"github.com/diffsolutions/samba-exporters/internal/health"
	"github.com/diffsolutions/samba-exporters/internal/jobs"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireRedis(); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.Bootstrap(ctx, cfg, "worker")
	if err != nil {
		panic(err)
	}
	logger := deps.Logger
	defer func() {
		if err := deps.Close(context.Background()); err != nil {
			logger.Error().Err(err).Msg("close dependencies")
		}
	}()

	redisOpt, err := deps.AsynqRedis()
	if err != nil {
		logger.Fatal().Err(err).Msg("configure task queue")
	}

	worker := jobs.ExportWorker{
		Exporter: deps.Exporter(),
		Locker:   deps.Locker(),
		LockTTL:  cfg.LockTTL,
		ShopID:   cfg.ShopID,
		Logger:   logger,
	}
	server := jobs.NewServer(redisOpt, jobs.ServerConfig{
		Queue:           cfg.ExportQueue,
		Concurrency:     1,
		ShutdownTimeout: 30 * time.Second,
		Logger:          logger,
	})
	if err := server.Start(jobs.NewServeMux(worker)); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	scheduler := jobs.NewScheduler(redisOpt, logger)
	entryID, err := jobs.Register(scheduler, jobs.ScheduleConfig{
		Spec:    cfg.ExportSchedule,
		Queue:   cfg.ExportQueue,
		Feeds:   export.AllFeeds,
		Timeout: cfg.LockTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("register export schedule")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	logger.Info().Str("entry_id", entryID).Str("schedule", cfg.ExportSchedule).Msg("export scheduled")

	ops := &http.Server{
		Addr: cfg.OpsAddr(),
		Handler: health.NewRouter(health.RouterConfig{
			Handler:  health.Handler{Checker: health.Probes{DB: deps.DB, Redis: deps.Redis}},
			Gatherer: deps.Registry,
			Logger:   logger,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go serveOps(ops, logger)

	logger.Info().Str("queue", cfg.ExportQueue).Msg("worker starting")
	<-ctx.Done()

	health.SetReady(false)
	logger.Info().Msg("worker draining")
	scheduler.Shutdown()
	server.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ops.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown ops server")
	}
	logger.Info().Msg("worker shutdown complete")
}

func serveOps(srv *http.Server, logger zerolog.Logger) {
	logger.Info().Str("addr", srv.Addr).Msg("ops server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("ops server exited unexpectedly")
	}
}
