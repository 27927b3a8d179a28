package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// StatusHandler handles /status command.
type StatusHandler struct {
	Repo    botpkg.BindingRepository
	Stats   botpkg.StatRepository
	Manager platform.Manager
	Logger  botpkg.Logger
}

func (h *StatusHandler) Handle(ctx context.Context, replier Replier, update *telego.Update) {
	if update == nil || update.Message == nil || h.Repo == nil {
		return
	}
	message := update.Message
	logger := loggerFrom(ctx, h.Logger)

	chats, err := h.Repo.CountChats(ctx)
	if err != nil {
		logger.Warn("failed to count chats", "error", err)
	}
	var appended, duplicates int64
	if h.Stats != nil {
		if appended, err = h.Stats.GetStat(ctx, botpkg.StatAppendCount); err != nil {
			logger.Warn("failed to read stat", "key", botpkg.StatAppendCount, "error", err)
		}
		if duplicates, err = h.Stats.GetStat(ctx, botpkg.StatDuplicateCount); err != nil {
			logger.Warn("failed to read stat", "key", botpkg.StatDuplicateCount, "error", err)
		}
	}

	var labels []string
	if h.Manager != nil {
		for _, meta := range h.Manager.ListMeta() {
			labels = append(labels, meta.Label())
		}
	}
	catalogs := strings.Join(labels, ", ")
	if catalogs == "" {
		catalogs = "none"
	}
	reply(ctx, replier, message, fmt.Sprintf(statusText, chats, appended, duplicates, catalogs))
}
