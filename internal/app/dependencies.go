// Package app wires the exporter's shared dependencies for the command entrypoints.
package app

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/diffsolutions/samba-exporters/internal/catalog"
	"github.com/diffsolutions/samba-exporters/internal/config"
	"github.com/diffsolutions/samba-exporters/internal/export"
	"github.com/diffsolutions/samba-exporters/internal/lock"
	"github.com/diffsolutions/samba-exporters/internal/obs"
)

// Dependencies enumerates the services shared by the exporter commands.
type Dependencies struct {
	Config   *config.Config
	Logger   zerolog.Logger
	DB       *gorm.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	Metrics  *obs.ExportMetrics
	Source   catalog.Source

	shutdown []func(context.Context) error
}

// Bootstrap opens the catalog database, optional Redis, tracing and metrics.
func Bootstrap(ctx context.Context, cfg *config.Config, component string) (*Dependencies, error) {
	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().
		Str("env", cfg.AppEnv).
		Str("component", component).
		Logger()
	d := &Dependencies{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	d.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	d.Metrics = obs.NewExportMetrics(cfg.MetricsNamespace, d.Registry)

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.TracingEnabled,
		ServiceName:   "samba-exporter-" + component,
		Endpoint:      cfg.TracingEndpoint,
		SamplingRatio: cfg.TracingSamplingRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		d.shutdown = append(d.shutdown, shutdownTracer)
	}

	d.DB, err = catalog.Open(catalog.DBConfig{
		Driver:  cfg.CatalogDriver,
		DSN:     cfg.CatalogDSN,
		Logger:  obs.NewGormLogger(logger, cfg.CatalogDriver),
		Tracing: cfg.TracingEnabled,
	})
	if err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	d.shutdown = append(d.shutdown, func(context.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	})

	store, err := catalog.NewStore(catalog.StoreConfig{DB: d.DB, Prefix: cfg.DBPrefix})
	if err != nil {
		_ = d.Close(ctx)
		return nil, err
	}
	d.Source = store

	if cfg.RedisURL != "" {
		if d.Redis, err = newRedis(ctx, cfg.RedisURL); err != nil {
			_ = d.Close(ctx)
			return nil, err
		}
		d.shutdown = append(d.shutdown, func(context.Context) error { return d.Redis.Close() })
		cache := catalog.NewCache(d.Redis, cfg.SettingsCacheTTL)
		d.Source = catalog.NewCachedSource(store, cache, cfg.DBPrefix+":"+strconv.FormatInt(cfg.ShopID, 10))
	}
	return d, nil
}

func newRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("instrument redis tracing: %w", err)
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Exporter builds an exporter over the configured catalog source.
func (d *Dependencies) Exporter() *export.Exporter {
	return export.New(d.Source, export.ConfigFrom(d.Config), d.Logger, d.Metrics)
}

// Locker returns the Redis export lock. It requires Redis.
func (d *Dependencies) Locker() lock.Locker {
	return lock.Locker{R: d.Redis, RetryBackoff: d.Config.LockRetryBackoff}
}

// AsynqRedis returns the asynq connection options for REDIS_URL.
func (d *Dependencies) AsynqRedis() (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(d.Config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url for asynq: %w", err)
	}
	return opt, nil
}

// Close releases dependencies in reverse order of acquisition.
func (d *Dependencies) Close(ctx context.Context) error {
	var errs []error
	for i := len(d.shutdown) - 1; i >= 0; i-- {
		if err := d.shutdown[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	d.shutdown = nil
	return errors.Join(errs...)
}
