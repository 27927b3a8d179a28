package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// HelpHandler handles /help and /start. It also registers the chat.
type HelpHandler struct {
	Manager platform.Manager
	Repo    botpkg.BindingRepository
	Logger  botpkg.Logger
}

func (h *HelpHandler) Handle(ctx context.Context, replier Replier, update *telego.Update) {
	if update == nil || update.Message == nil {
		return
	}
	message := update.Message
	if h.Repo != nil {
		if err := h.Repo.EnsureChat(ctx, chatKey(message.Chat.ID), chatName(message)); err != nil {
			loggerFrom(ctx, h.Logger).Warn("failed to register chat", "error", err)
		}
	}
	reply(ctx, replier, message, buildHelpText(h.Manager))
}

func buildHelpText(manager platform.Manager) string {
	var names []string
	var setLines strings.Builder
	if manager != nil {
		for _, meta := range manager.ListMeta() {
			display := meta.DisplayName
			if display == "" {
				display = meta.Name
			}
			names = append(names, display)
			fmt.Fprintf(&setLines, catalogSetHelpLine, meta.Name, display)
		}
	}
	return fmt.Sprintf(helpText, joinOr(names), setLines.String())
}

// joinOr renders "a", "a or b", "a, b or c".
func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return "music"
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
	}
}
