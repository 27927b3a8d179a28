package handler

import (
	"context"
	"fmt"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// ChatInitHandler creates the chat row when the bot joins a group.
type ChatInitHandler struct {
	Manager platform.Manager
	Repo    botpkg.BindingRepository
	Logger  botpkg.Logger
}

func (h *ChatInitHandler) Handle(ctx context.Context, replier Replier, update *telego.Update) {
	if update == nil || update.Message == nil || h.Repo == nil {
		return
	}
	message := update.Message
	logger := loggerFrom(ctx, h.Logger)

	if err := h.Repo.EnsureChat(ctx, chatKey(message.Chat.ID), chatName(message)); err != nil {
		logger.Error("failed to register chat", "error", err)
		return
	}
	logger.Info("chat registered", "chat_name", chatName(message))

	var names []string
	if h.Manager != nil {
		for _, meta := range h.Manager.ListMeta() {
			names = append(names, meta.DisplayName)
		}
	}
	reply(ctx, replier, message, fmt.Sprintf(chatInitText, joinOr(names)))
}

// isChatInit reports whether message announces the bot joining a chat.
func isChatInit(message *telego.Message, botID int64) bool {
	if message == nil {
		return false
	}
	if message.GroupChatCreated || message.SupergroupChatCreated {
		return true
	}
	if botID == 0 {
		return false
	}
	for _, member := range message.NewChatMembers {
		if member.ID == botID {
			return true
		}
	}
	return false
}
