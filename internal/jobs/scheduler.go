package jobs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/diffsolutions/samba-exporters/internal/export"
)

// ScheduleConfig describes the periodic export entry.
type ScheduleConfig struct {
	Spec    string
	Queue   string
	Feeds   []export.Feed
	Timeout time.Duration
}

// NewScheduler constructs an asynq scheduler that logs every enqueue.
func NewScheduler(redisOpt asynq.RedisConnOpt, logger zerolog.Logger) *asynq.Scheduler {
	return asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: Logger{L: logger.With().Str("component", "scheduler").Logger()},
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil {
				logger.Error().Err(err).Msg("enqueue scheduled export")
				return
			}
			logger.Info().Str("task_id", info.ID).Str("queue", info.Queue).Msg("scheduled export enqueued")
		},
	})
}

// Register adds the periodic export entry and returns its id.
func Register(s *asynq.Scheduler, cfg ScheduleConfig) (string, error) {
	spec := strings.TrimSpace(cfg.Spec)
	if spec == "" {
		return "", errors.New("jobs: export schedule is empty")
	}
	task, err := NewExportTask(cfg.Feeds)
	if err != nil {
		return "", err
	}
	id, err := s.Register(spec, task, TaskOptions(cfg.Queue, cfg.Timeout)...)
	if err != nil {
		return "", fmt.Errorf("jobs: register schedule %q: %w", spec, err)
	}
	return id, nil
}
