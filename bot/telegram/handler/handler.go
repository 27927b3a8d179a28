package handler

import (
	"context"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
)

// Replier sends text replies to a chat. *telegram.Bot implements it.
type Replier interface {
	Reply(ctx context.Context, chatID int64, replyTo int, text string) error
}

// MessageHandler handles message-based commands.
type MessageHandler interface {
	Handle(ctx context.Context, replier Replier, update *telego.Update)
}

type loggerKey struct{}

// withLogger attaches the per-update logger to ctx.
func withLogger(ctx context.Context, logger botpkg.Logger) context.Context {
	if logger == nil {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// loggerFrom returns the per-update logger, or fallback when there is none.
func loggerFrom(ctx context.Context, fallback botpkg.Logger) botpkg.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(botpkg.Logger); ok && logger != nil {
			return logger
		}
	}
	if fallback != nil {
		return fallback
	}
	return nopLogger{}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (n nopLogger) With(...any) botpkg.Logger {
	return n
}
