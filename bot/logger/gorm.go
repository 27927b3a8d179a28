package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/gorm/logger"
)

const slowQuery = 200 * time.Millisecond

// GormLogger sends binding store queries to slog.
type GormLogger struct {
	base  *slog.Logger
	level logger.LogLevel
	slow  time.Duration
}

var _ logger.Interface = (*GormLogger)(nil)

func NewGormLogger(base *slog.Logger, level logger.LogLevel) *GormLogger {
	return &GormLogger{base: base.With("component", "store"), level: level, slow: slowQuery}
}

// ParseGormLevel maps GormLogLevel to a gorm level. Unknown values mean warn.
func ParseGormLevel(level string) logger.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "silent", "off", "none":
		return logger.Silent
	case "debug", "trace", "info":
		return logger.Info
	case "error", "fatal", "panic":
		return logger.Error
	}
	return logger.Warn
}

func (l *GormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Info, slog.LevelInfo, msg, data)
}

func (l *GormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

func (l *GormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.emit(ctx, logger.Error, slog.LevelError, msg, data)
}

func (l *GormLogger) emit(ctx context.Context, min logger.LogLevel, level slog.Level, msg string, data []interface{}) {
	if l.level < min {
		return
	}
	l.base.Log(ctx, level, strings.TrimSpace(fmt.Sprintf(msg, data...)))
}

// Trace logs failed queries at error, slow ones at warn and everything at info.
// A missing record is a normal lookup miss for the binding store.
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, logger.ErrRecordNotFound)

	var (
		level slog.Level
		msg   string
	)
	switch {
	case failed && l.level >= logger.Error:
		level, msg = slog.LevelError, "store query failed"
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		level, msg = slog.LevelWarn, "store slow query"
	case l.level >= logger.Info:
		level, msg = slog.LevelInfo, "store query"
	default:
		return
	}

	sql, rows := fc()
	attrs := []any{"elapsed", elapsed, "rows", rows, "sql", sql}
	if failed {
		attrs = append(attrs, "error", err)
	}
	l.base.Log(ctx, level, msg, attrs...)
}
