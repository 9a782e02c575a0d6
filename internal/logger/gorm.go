package logger

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const defaultSlowThreshold = 200 * time.Millisecond

// gormLogger routes GORM query logs into the global slog logger.
type gormLogger struct {
	slowThreshold time.Duration
}

// NewGormLogger returns a gorm logger.Interface backed by L().
// A non-positive threshold falls back to 200ms.
func NewGormLogger(slowThreshold time.Duration) gormlogger.Interface {
	if slowThreshold <= 0 {
		slowThreshold = defaultSlowThreshold
	}
	return &gormLogger{slowThreshold: slowThreshold}
}

// LogMode is a no-op: levels come from the slog handler.
func (l *gormLogger) LogMode(gormlogger.LogLevel) gormlogger.Interface { return l }

func (l *gormLogger) Info(ctx context.Context, msg string, data ...any) {
	L().InfoContext(ctx, msg, "data", data)
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...any) {
	L().WarnContext(ctx, msg, "data", data)
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...any) {
	L().ErrorContext(ctx, msg, "data", data)
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []any{"elapsed", elapsed, "rows", rows, "sql", sql}

	switch {
	case err != nil && errors.Is(err, gorm.ErrRecordNotFound):
		L().DebugContext(ctx, "db query: no rows", fields...)
	case err != nil && errors.Is(err, gorm.ErrDuplicatedKey):
		// unique races are recovered by callers
		L().DebugContext(ctx, "db query: duplicate key", fields...)
	case err != nil:
		L().ErrorContext(ctx, "db query failed", append(fields, "err", err)...)
	case elapsed > l.slowThreshold:
		L().WarnContext(ctx, "slow query", append(fields, "threshold", l.slowThreshold)...)
	default:
		L().DebugContext(ctx, "db query", fields...)
	}
}
