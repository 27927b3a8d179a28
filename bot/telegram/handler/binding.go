package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

const setPlaylistCommand = "set_playlist"

// BindingHandler handles set_playlist and the set_<catalog>_playlist variants.
// Only admins may bind; the playlist is checked against its catalog before it is stored.
type BindingHandler struct {
	BotName  string
	AdminIDs map[int64]struct{}
	Manager  platform.Manager
	Repo     botpkg.BindingRepository
	Logger   botpkg.Logger
}

// Matches reports whether name is a binding command.
func (h *BindingHandler) Matches(name string) bool {
	if name == setPlaylistCommand {
		return true
	}
	_, ok := h.catalogFromCommand(name)
	return ok
}

// catalogFromCommand resolves set_<alias>_playlist to a catalog name.
func (h *BindingHandler) catalogFromCommand(name string) (string, bool) {
	if h == nil || h.Manager == nil {
		return "", false
	}
	if !strings.HasPrefix(name, "set_") || !strings.HasSuffix(name, "_playlist") {
		return "", false
	}
	token := strings.TrimSuffix(strings.TrimPrefix(name, "set_"), "_playlist")
	if token == "" {
		return "", false
	}
	return h.Manager.ResolveAlias(token)
}

func (h *BindingHandler) Handle(ctx context.Context, replier Replier, update *telego.Update) {
	if update == nil || update.Message == nil {
		return
	}
	message := update.Message
	logger := loggerFrom(ctx, h.Logger)

	name, args, _ := parseCommand(messageText(message), h.BotName)
	if !h.Matches(name) {
		return
	}
	if !isBotAdmin(h.AdminIDs, senderID(message)) {
		logger.Warn("non-admin tried to bind a playlist", "user_id", senderID(message))
		reply(ctx, replier, message, notAdminText)
		return
	}

	catalogName, ref, usage := h.parseArgs(name, args)
	if usage != "" {
		reply(ctx, replier, message, usage)
		return
	}

	playlistID := ref
	if linked, id, ok := h.Manager.MatchPlaylist(ref); ok {
		if linked != catalogName {
			reply(ctx, replier, message, fmt.Sprintf(catalogMismatchText,
				platform.DisplayName(h.Manager, linked), platform.DisplayName(h.Manager, catalogName)))
			return
		}
		playlistID = id
	}

	catalog := h.Manager.Get(catalogName)
	if catalog == nil {
		reply(ctx, replier, message, fmt.Sprintf(unknownCatalogText, catalogName, h.catalogList()))
		return
	}
	display := platform.DisplayName(h.Manager, catalogName)
	log := logger.With("catalog", catalogName, "playlist_id", playlistID)

	playlist, err := catalog.LookupPlaylist(ctx, playlistID)
	if err != nil || playlist == nil {
		if err == nil || platform.IsNotFound(err) {
			log.Info("playlist not found")
			reply(ctx, replier, message, fmt.Sprintf(playlistNotFoundText, display, playlistID))
			return
		}
		log.Warn("playlist lookup failed", "error", err)
		reply(ctx, replier, message, fmt.Sprintf(catalogUnavailableText, display))
		return
	}
	if playlist.ID != "" {
		playlistID = playlist.ID
	}

	if err := h.Repo.SetBinding(ctx, chatKey(message.Chat.ID), chatName(message), catalogName, playlistID); err != nil {
		log.Error("failed to store binding", "error", err)
		reply(ctx, replier, message, bindingFailedText)
		return
	}
	log.Info("playlist bound", "playlist", playlist.Title)

	text := fmt.Sprintf(playlistSetText, display, playlistTitle(playlist, playlistID))
	if playlist.URL != "" {
		text += "\n" + playlist.URL
	}
	reply(ctx, replier, message, text)
}

// parseArgs returns the catalog and playlist reference, or a usage text.
func (h *BindingHandler) parseArgs(name, args string) (catalogName, ref, usage string) {
	fields := strings.Fields(args)

	if name != setPlaylistCommand {
		catalogName, _ = h.catalogFromCommand(name)
		if len(fields) != 1 {
			return "", "", fmt.Sprintf(setCatalogPlaylistUsage, name)
		}
		return catalogName, fields[0], ""
	}

	switch len(fields) {
	case 2:
		resolved, ok := h.Manager.ResolveAlias(fields[0])
		if !ok {
			return "", "", fmt.Sprintf(unknownCatalogText, fields[0], h.catalogList())
		}
		return resolved, fields[1], ""
	case 1:
		// A bare playlist link names its own catalog.
		if linked, _, ok := h.Manager.MatchPlaylist(fields[0]); ok {
			return linked, fields[0], ""
		}
	}
	return "", "", fmt.Sprintf(setPlaylistUsage, h.catalogList())
}

func (h *BindingHandler) catalogList() string {
	return catalogList(h.Manager)
}

func catalogList(manager platform.Manager) string {
	if manager == nil {
		return ""
	}
	return strings.Join(manager.List(), ", ")
}

func playlistTitle(playlist *platform.Playlist, fallback string) string {
	if playlist != nil && strings.TrimSpace(playlist.Title) != "" {
		return playlist.Title
	}
	return fallback
}
