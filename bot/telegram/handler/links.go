package handler

import (
	"context"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
	"github.com/spotelegramify/spotelegramify-go/bot/playlist"
)

// Processor runs the append protocol for one message.
type Processor interface {
	Process(ctx context.Context, chatID, text string) (*playlist.Report, error)
}

// LinkHandler feeds ordinary messages to the playlist service and replies with the summary.
type LinkHandler struct {
	Processor Processor
	Manager   platform.Manager
	Logger    botpkg.Logger
}

func (h *LinkHandler) Handle(ctx context.Context, replier Replier, update *telego.Update) {
	if update == nil || update.Message == nil || h.Processor == nil {
		return
	}
	message := update.Message
	text := messageText(message)
	if text == "" {
		return
	}
	logger := loggerFrom(ctx, h.Logger)

	report, err := h.Processor.Process(ctx, chatKey(message.Chat.ID), text)
	if err != nil {
		logger.Error("failed to process message", "error", err)
		return
	}
	if report == nil || len(report.Links) == 0 {
		return
	}
	if !report.Bound {
		logger.Warn("no playlist configured, cannot add tracks")
	}

	summary := playlist.Summary(report, h.Manager)
	if summary == "" {
		logger.Info("nothing added", "links", len(report.Links), "results", len(report.Results))
		return
	}
	reply(ctx, replier, message, summary)
}
