package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
	"github.com/spotelegramify/spotelegramify-go/bot/admincmd"
	"github.com/spotelegramify/spotelegramify-go/bot/platform"
)

// AdminCommandHandler runs admin-only slash commands. Non-admins are ignored.
type AdminCommandHandler struct {
	BotName  string
	AdminIDs map[int64]struct{}
	Commands []admincmd.Command
	Logger   botpkg.Logger
}

// Has reports whether name is one of the admin commands.
func (h *AdminCommandHandler) Has(name string) bool {
	if h == nil {
		return false
	}
	_, ok := h.commandByName(name)
	return ok
}

func (h *AdminCommandHandler) Handle(ctx context.Context, replier Replier, update *telego.Update) {
	if update == nil || update.Message == nil || update.Message.From == nil {
		return
	}
	message := update.Message
	cmd := commandName(message.Text, h.BotName)
	if cmd == "" {
		return
	}
	command, ok := h.commandByName(cmd)
	if !ok {
		return
	}
	logger := loggerFrom(ctx, h.Logger)
	if !isBotAdmin(h.AdminIDs, message.From.ID) {
		logger.Warn("non-admin tried an admin command", "command", cmd, "user_id", message.From.ID)
		return
	}
	if command.Handler == nil {
		reply(ctx, replier, message, commandUnavailableText)
		return
	}
	args := commandArguments(message.Text)
	result, err := command.Handler(ctx, args)
	if err != nil {
		logger.Warn("admin command failed", "command", cmd, "error", err)
		reply(ctx, replier, message, fmt.Sprintf(commandFailedText, err))
		return
	}
	result = strings.TrimSpace(result)
	if result == "" {
		result = commandDoneText
	}
	reply(ctx, replier, message, result)
}

func (h *AdminCommandHandler) commandByName(name string) (admincmd.Command, bool) {
	return admincmd.Find(h.Commands, name)
}

// BuildRefreshAuthCommand forces a credential refresh: /refresh_auth [catalog].
func BuildRefreshAuthCommand(manager platform.Manager) admincmd.Command {
	return admincmd.Command{
		Name:        "refresh_auth",
		Description: "Refresh catalog credentials (/refresh_auth <catalog>, empty for all)",
		Handler: func(ctx context.Context, args string) (string, error) {
			return refreshAuth(ctx, manager, args)
		},
	}
}

func refreshAuth(ctx context.Context, manager platform.Manager, args string) (string, error) {
	if manager == nil {
		return "No catalogs configured", nil
	}
	names := manager.List()
	if args = strings.TrimSpace(args); args != "" {
		name, ok := manager.ResolveAlias(args)
		if !ok {
			return fmt.Sprintf(unknownCatalogText, args, catalogList(manager)), nil
		}
		names = []string{name}
	}
	if len(names) == 0 {
		return "No catalogs configured", nil
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		catalog := manager.Get(name)
		if catalog == nil {
			continue
		}
		display := platform.DisplayName(manager, name)
		if err := catalog.RefreshAuth(ctx); err != nil {
			lines = append(lines, fmt.Sprintf("%s: failed (%v)", display, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: ok", display))
	}
	return strings.Join(lines, "\n"), nil
}

// BuildWhitelistCommands exposes whitelist_add, whitelist_del and whitelist_list.
// Changes are written back to the config file.
func BuildWhitelistCommands(whitelist *Whitelist) []admincmd.Command {
	return []admincmd.Command{
		{
			Name:        "whitelist_add",
			Description: "Allow a chat (/whitelist_add <chat id>)",
			Handler: func(_ context.Context, args string) (string, error) {
				id, err := parseChatID(args)
				if err != nil {
					return "", err
				}
				if !whitelist.Add(id) {
					return fmt.Sprintf("Chat %d is already whitelisted", id), nil
				}
				if err := whitelist.Persist(); err != nil {
					return "", fmt.Errorf("persist whitelist: %w", err)
				}
				return fmt.Sprintf("Chat %d whitelisted", id), nil
			},
		},
		{
			Name:        "whitelist_del",
			Description: "Remove a chat from the whitelist (/whitelist_del <chat id>)",
			Handler: func(_ context.Context, args string) (string, error) {
				id, err := parseChatID(args)
				if err != nil {
					return "", err
				}
				if !whitelist.Remove(id) {
					return fmt.Sprintf("Chat %d is not whitelisted", id), nil
				}
				if err := whitelist.Persist(); err != nil {
					return "", fmt.Errorf("persist whitelist: %w", err)
				}
				return fmt.Sprintf("Chat %d removed", id), nil
			},
		},
		{
			Name:        "whitelist_list",
			Description: "List whitelisted chats",
			Handler: func(context.Context, string) (string, error) {
				ids := whitelist.List()
				if len(ids) == 0 {
					return "Whitelist is empty", nil
				}
				values := make([]string, 0, len(ids))
				for _, id := range ids {
					values = append(values, strconv.FormatInt(id, 10))
				}
				return "Whitelisted chats:\n" + strings.Join(values, "\n"), nil
			},
		},
	}
}

func parseChatID(args string) (int64, error) {
	fields := strings.Fields(args)
	if len(fields) != 1 {
		return 0, fmt.Errorf("expected one chat id")
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chat id %q", fields[0])
	}
	return id, nil
}
