package bot

import "context"

// Logger is the minimal logging abstraction used across modules.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

// Config provides typed access to configuration values.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetIntSlice(key string) []int
}

// BindingRepository persists the chat to playlist mapping, one playlist per catalog.
type BindingRepository interface {
	GetBinding(ctx context.Context, chatID, catalog string) (string, bool, error)
	SetBinding(ctx context.Context, chatID, chatName, catalog, playlistID string) error
	GetChat(ctx context.Context, chatID string) (*ChatBinding, error)
	EnsureChat(ctx context.Context, chatID, chatName string) error
	CountChats(ctx context.Context) (int64, error)
}

// StatRepository stores aggregated counters.
type StatRepository interface {
	IncrementStat(ctx context.Context, key string) error
	GetStat(ctx context.Context, key string) (int64, error)
}

// WorkerPool limits concurrency for background tasks.
type WorkerPool interface {
	Submit(task func()) error
	SubmitWait(task func() error) error
	Shutdown(ctx context.Context) error
	Size() int
}
