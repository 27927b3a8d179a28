package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// PlaylistHandler handles /playlist: it lists the playlists bound to the chat.
type PlaylistHandler struct {
	Manager platform.Manager
	Repo    botpkg.BindingRepository
	Logger  botpkg.Logger
}

func (h *PlaylistHandler) Handle(ctx context.Context, replier Replier, update *telego.Update) {
	if update == nil || update.Message == nil || h.Repo == nil {
		return
	}
	message := update.Message
	logger := loggerFrom(ctx, h.Logger)

	chat, err := h.Repo.GetChat(ctx, chatKey(message.Chat.ID))
	if err != nil {
		logger.Error("failed to read chat bindings", "error", err)
		return
	}
	if !chat.HasAny() {
		reply(ctx, replier, message, noBindingsText)
		return
	}

	lines := []string{bindingsHeader}
	for _, name := range h.Manager.List() {
		id, ok := chat.PlaylistFor(name)
		if !ok {
			continue
		}
		label := platform.DisplayName(h.Manager, name)
		if meta, ok := h.Manager.Meta(name); ok {
			label = meta.Label()
		}
		lines = append(lines, h.describe(ctx, logger, name, label, id))
	}
	reply(ctx, replier, message, strings.Join(lines, "\n"))
}

// describe renders one binding. A failed lookup falls back to the stored id.
func (h *PlaylistHandler) describe(ctx context.Context, logger botpkg.Logger, name, label, id string) string {
	catalog := h.Manager.Get(name)
	if catalog == nil {
		return fmt.Sprintf(bindingLine, label, id)
	}
	playlist, err := catalog.LookupPlaylist(ctx, id)
	if err != nil || playlist == nil {
		logger.Info("bound playlist lookup failed", "catalog", name, "playlist_id", id, "error", err)
		return fmt.Sprintf(bindingLine, label, id)
	}
	converted := catalog.ConvertPlaylist(playlist)
	title := converted.Name
	if title == "" {
		title = id
	}
	if converted.Link == "" {
		return fmt.Sprintf(bindingLine, label, title)
	}
	return fmt.Sprintf(bindingLineWithLink, label, title, converted.Link)
}
