package telegram

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"golang.org/x/time/rate"
)

// maxSendAttempts bounds how often a reply is retried after Telegram asks to slow down.
const maxSendAttempts = 3

// ErrRetriesExhausted is returned when Telegram kept answering "retry after".
var ErrRetriesExhausted = errors.New("telegram: still rate limited after retries")

var retryAfterPattern = regexp.MustCompile(`(?i)retry\s+after[:\s]+(\d+)`)

// RateLimiter keeps one token bucket per chat so one busy group cannot starve replies to others.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[int64]*rate.Limiter
	limit   rate.Limit
	burst   int
	logger  botpkg.Logger
}

// NewRateLimiter creates a per-chat limiter. Non-positive values fall back to 1 msg/s, burst 1.
func NewRateLimiter(msgPerSec float64, burst int) *RateLimiter {
	if msgPerSec <= 0 {
		msgPerSec = 1
	}
	return &RateLimiter{
		buckets: make(map[int64]*rate.Limiter),
		limit:   rate.Limit(msgPerSec),
		burst:   max(burst, 1),
	}
}

func (rl *RateLimiter) SetLogger(logger botpkg.Logger) {
	rl.logger = logger
}

func (rl *RateLimiter) bucket(chatID int64) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	limiter, ok := rl.buckets[chatID]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.buckets[chatID] = limiter
	}
	return limiter
}

// Wait blocks until chatID may receive another message.
func (rl *RateLimiter) Wait(ctx context.Context, chatID int64) error {
	return rl.bucket(chatID).Wait(ctx)
}

// RetryAfterError carries the back-off Telegram asked for.
type RetryAfterError struct {
	Seconds int
	Err     error
}

func (e *RetryAfterError) Error() string {
	return "telegram: retry after " + strconv.Itoa(e.Seconds) + "s: " + e.Err.Error()
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

// retryAfter extracts the back-off in seconds from a Telegram 429 error.
func retryAfter(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}
	var typed *RetryAfterError
	if errors.As(err, &typed) {
		return time.Duration(max(typed.Seconds, 0)) * time.Second, true
	}
	m := retryAfterPattern.FindStringSubmatch(err.Error())
	if len(m) != 2 {
		return 0, false
	}
	seconds, convErr := strconv.Atoi(m[1])
	if convErr != nil || seconds <= 0 {
		return 0, false
	}
	return time.Duration(seconds) * time.Second, true
}

// WithRetry waits for the chat's bucket before every attempt and retries fn while
// Telegram answers "retry after". Other errors are returned at once.
func WithRetry(ctx context.Context, rl *RateLimiter, chatID int64, fn func() error) error {
	if fn == nil {
		return nil
	}
	if rl == nil {
		return fn()
	}
	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		if err := rl.Wait(ctx, chatID); err != nil {
			return err
		}
		lastErr = fn()
		backoff, limited := retryAfter(lastErr)
		if !limited {
			return lastErr
		}
		if rl.logger != nil {
			rl.logger.Warn("telegram rate limit hit", "chat_id", chatID, "retry_after", backoff, "attempt", attempt)
		}
		if attempt == maxSendAttempts {
			break
		}
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return errors.Join(ErrRetriesExhausted, lastErr)
}

// SendMessageWithRetry sends a message through the chat's bucket.
func SendMessageWithRetry(ctx context.Context, rl *RateLimiter, b *telego.Bot, params *telego.SendMessageParams) (*telego.Message, error) {
	chatID := params.ChatID.ID
	var sent *telego.Message
	err := WithRetry(ctx, rl, chatID, func() error {
		msg, err := b.SendMessage(ctx, params)
		if err != nil {
			if backoff, limited := retryAfter(err); limited {
				return &RetryAfterError{Seconds: int(backoff / time.Second), Err: err}
			}
			return err
		}
		sent = msg
		return nil
	})
	if err != nil && rl != nil && rl.logger != nil {
		rl.logger.Error("send message failed", "chat_id", chatID, "error", err)
	}
	return sent, err
}
