package telegram

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/config"
)

// Bot wraps telego with application configuration.
type Bot struct {
	client      *telego.Bot
	limiter     *RateLimiter
	config      *config.Config
	logger      botpkg.Logger
	pollTimeout int
}

// New creates a new Telegram bot client.
func New(cfg *config.Config, logger botpkg.Logger) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	token := cfg.FirstString("KEY", "BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("bot token required (KEY)")
	}

	pollTimeout := cfg.GetInt("PollTimeoutSec")
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	pollTransport := &http.Transport{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	pollClient := &http.Client{
		// Long polling holds the request open for pollTimeout seconds.
		Timeout:   time.Duration(pollTimeout)*time.Second + 30*time.Second,
		Transport: pollTransport,
	}

	options := []telego.BotOption{
		telego.WithHTTPClient(pollClient),
		telego.WithLogger(telegoLogger{logger: logger}),
	}
	if cfg.GetString("BotAPI") != "" {
		options = append(options, telego.WithAPIServer(cfg.GetString("BotAPI")))
	}
	if cfg.GetBool("BotDebug") {
		options = append(options, telego.WithDebugMode())
	}

	client, err := telego.NewBot(token, options...)
	if err != nil {
		return nil, err
	}

	limiter := NewRateLimiter(cfg.GetFloat64("RateLimitPerSecond"), cfg.GetInt("RateLimitBurst"))
	limiter.SetLogger(logger)

	return &Bot{
		client:      client,
		limiter:     limiter,
		config:      cfg,
		logger:      logger,
		pollTimeout: pollTimeout,
	}, nil
}

// GetMe retrieves bot info.
func (b *Bot) GetMe(ctx context.Context) (*telego.User, error) {
	return b.client.GetMe(ctx)
}

// Updates starts long polling. The channel closes when ctx is done.
func (b *Bot) Updates(ctx context.Context) (<-chan telego.Update, error) {
	return b.client.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout:        b.pollTimeout,
		AllowedUpdates: []string{"message"},
	})
}

// Reply sends a plain text message, quoting replyTo when it is set.
func (b *Bot) Reply(ctx context.Context, chatID int64, replyTo int, text string) error {
	params := &telego.SendMessageParams{
		ChatID:             telego.ChatID{ID: chatID},
		Text:               text,
		LinkPreviewOptions: &telego.LinkPreviewOptions{IsDisabled: true},
	}
	if replyTo > 0 {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: replyTo, AllowSendingWithoutReply: true}
	}
	_, err := SendMessageWithRetry(ctx, b.limiter, b.client, params)
	return err
}

// SetCommands registers the command menu shown by Telegram clients.
func (b *Bot) SetCommands(ctx context.Context, commands []telego.BotCommand) error {
	return b.client.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
}

type telegoLogger struct {
	logger botpkg.Logger
}

func (l telegoLogger) Debugf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l telegoLogger) Errorf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Error(fmt.Sprintf(format, args...))
}
