package obs

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	gormlogger "gorm.io/gorm/logger"
)

// GormLogger routes gorm statements to zerolog. Query spans come from the
// otelgorm plugin; the logger only tags entries with the active trace id.
type GormLogger struct {
	Logger        zerolog.Logger
	Level         gormlogger.LogLevel
	SlowThreshold time.Duration
	System        string
}

// NewGormLogger returns a logger that reports errors and slow queries.
func NewGormLogger(logger zerolog.Logger, system string) *GormLogger {
	return &GormLogger{
		Logger:        logger.With().Str("component", "gorm").Logger(),
		Level:         gormlogger.Warn,
		SlowThreshold: 500 * time.Millisecond,
		System:        system,
	}
}

// LogMode implements gormlogger.Interface.
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.Level = level
	return &clone
}

// Info implements gormlogger.Interface.
func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.Level >= gormlogger.Info {
		l.Logger.Info().Interface("data", data).Msg(msg)
	}
}

// Warn implements gormlogger.Interface.
func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.Level >= gormlogger.Warn {
		l.Logger.Warn().Interface("data", data).Msg(msg)
	}
}

// Error implements gormlogger.Interface.
func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.Level >= gormlogger.Error {
		l.Logger.Error().Interface("data", data).Msg(msg)
	}
}

// Trace implements gormlogger.Interface.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormlogger.Silent {
		return
	}
	sql, rows := fc()
	elapsed := time.Since(begin)
	statement := truncateSQL(sql)

	evt := func(e *zerolog.Event) *zerolog.Event {
		e = e.Str("db_system", l.System).Str("sql", statement).Str("op", operation(sql)).Int64("rows", rows).
			Int64("duration_ms", elapsed.Milliseconds())
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			e = e.Str("trace_id", sc.TraceID().String())
		}
		return e
	}
	switch {
	case err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound) && l.Level >= gormlogger.Error:
		evt(l.Logger.Error().Err(err)).Msg("gorm_query")
	case l.SlowThreshold > 0 && elapsed > l.SlowThreshold && l.Level >= gormlogger.Warn:
		evt(l.Logger.Warn()).Msg("gorm_slow_query")
	case l.Level >= gormlogger.Info:
		evt(l.Logger.Debug()).Msg("gorm_query")
	}
}

func operation(sql string) string {
	fields := strings.Fields(strings.TrimSpace(sql))
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}

func truncateSQL(sql string) string {
	trimmed := strings.TrimSpace(sql)
	if len(trimmed) > 300 {
		return trimmed[:300] + "..."
	}
	return trimmed
}

var _ gormlogger.Interface = (*GormLogger)(nil)
