// Package logger provides the slog-backed bot.Logger used across the bot.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spotelegramify/spotelegramify-go/bot"
)

// Logger implements bot.Logger on top of slog.
type Logger struct {
	slog *slog.Logger
	file *os.File // daily log file, nil when logging to stdout only
}

var _ bot.Logger = (*Logger)(nil)

// Options mirrors the LogLevel, LogFormat, LogDir and LogSource config keys.
type Options struct {
	Level     string
	Format    string
	Dir       string
	AddSource bool
}

// New logs to stdout and, when Dir is set, to Dir/<YYYY-MM-DD>.log as well.
func New(opts Options) (*Logger, error) {
	var (
		out  io.Writer = os.Stdout
		file *os.File
	)
	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		f, err := openDailyFile(dir, time.Now())
		if err != nil {
			return nil, err
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}
	l := NewWithWriter(out, opts)
	l.file = file
	return l, nil
}

func openDailyFile(dir string, day time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := filepath.Join(dir, day.Local().Format(time.DateOnly)+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}

// NewWithWriter logs to w only. Format "json" selects the JSON handler, anything else text.
func NewWithWriter(w io.Writer, opts Options) *Logger {
	handlerOpts := &slog.HandlerOptions{Level: ParseLevel(opts.Level), AddSource: opts.AddSource}
	var handler slog.Handler = slog.NewTextHandler(w, handlerOpts)
	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}
	return &Logger{slog: slog.New(handler)}
}

// Nop discards everything.
func Nop() *Logger {
	return NewWithWriter(io.Discard, Options{Level: "error"})
}

func (l *Logger) With(args ...any) bot.Logger {
	return &Logger{slog: l.slog.With(args...)}
}

func (l *Logger) Debug(msg string, args ...any) { l.slog.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.slog.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.slog.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.slog.Error(msg, args...) }

// Slog exposes the underlying logger for adapters such as the gorm logger.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// ParseLevel maps a LogLevel value to slog. Unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal", "panic":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Close closes the log file. Child loggers share it, so only the root should close.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
