package jobs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/diffsolutions/samba-exporters/internal/export"
	"github.com/diffsolutions/samba-exporters/internal/lock"
	"github.com/diffsolutions/samba-exporters/internal/pricing"
)

// Runner runs an export pass over the given feeds.
type Runner interface {
	Run(ctx context.Context, feeds ...export.Feed) ([]export.Result, error)
}

// ExportWorker handles feed:export tasks under a per-feed distributed lock.
type ExportWorker struct {
	Exporter Runner
	Locker   lock.Locker
	LockTTL  time.Duration
	ShopID   int64
	Logger   zerolog.Logger
}

// ProcessTask implements asynq.Handler. Payload and pricing configuration
// errors skip retries since a rerun cannot fix them.
func (w ExportWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if w.Exporter == nil {
		return errors.New("export worker: exporter not configured")
	}
	feeds, err := decodePayload(t.Payload())
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	ttl := w.LockTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}

	keys := make([]string, 0, len(feeds))
	for _, f := range feeds {
		keys = append(keys, lock.FeedKey(w.ShopID, string(f)))
	}
	sort.Strings(keys)

	err = w.withLocks(ctx, keys, ttl, func(ctx context.Context) error {
		results, err := w.Exporter.Run(ctx, feeds...)
		for _, res := range results {
			w.Logger.Debug().Str("feed", string(res.Feed)).Int("items", res.Items).Msg("export task feed done")
		}
		return err
	})
	if pricing.IsConfigError(err) {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}

// withLocks acquires keys in order so concurrent passes never deadlock.
func (w ExportWorker) withLocks(ctx context.Context, keys []string, ttl time.Duration, fn func(context.Context) error) error {
	if len(keys) == 0 {
		return fn(ctx)
	}
	return w.Locker.WithLock(ctx, keys[0], ttl, func(ctx context.Context) error {
		return w.withLocks(ctx, keys[1:], ttl, fn)
	})
}

// NewServeMux routes feed:export tasks to worker.
func NewServeMux(worker ExportWorker) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeFeedExport, worker)
	return mux
}

// ServerConfig groups asynq server settings.
type ServerConfig struct {
	Queue           string
	Concurrency     int
	ShutdownTimeout time.Duration
	Logger          zerolog.Logger
}

// NewServer constructs an asynq server consuming the export queue.
func NewServer(redisOpt asynq.RedisConnOpt, cfg ServerConfig) *asynq.Server {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	queue := cfg.Queue
	if queue == "" {
		queue = "default"
	}
	logger := cfg.Logger
	return asynq.NewServer(redisOpt, asynq.Config{
		Concurrency:     concurrency,
		Queues:          map[string]int{queue: 1},
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          Logger{L: logger.With().Str("component", "asynq").Logger()},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, t *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", t.Type()).Msg("task failed")
		}),
	})
}
