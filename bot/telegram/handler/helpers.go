package handler

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/mymmrac/telego"
)

func commandArguments(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	parts := strings.SplitN(text, " ", 2)
	if len(parts) < 2 {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func commandName(text, botName string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}
	parts := strings.SplitN(text, " ", 2)
	command := strings.TrimPrefix(parts[0], "/")
	if command == "" {
		return ""
	}
	if strings.Contains(command, "@") {
		seg := strings.SplitN(command, "@", 2)
		command = seg[0]
		if botName != "" && len(seg) > 1 && seg[1] != "" && !strings.EqualFold(seg[1], botName) {
			return ""
		}
	}
	return strings.ToLower(command)
}

// parseCommand splits text into a command name and its arguments.
// slash reports whether the command was written with a leading "/".
// Text without a slash yields its first word lowercased, so callers decide
// which commands may be sent bare.
func parseCommand(text, botName string) (name, args string, slash bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", "", false
	}
	if strings.HasPrefix(text, "/") {
		return commandName(text, botName), commandArguments(text), true
	}
	parts := strings.SplitN(text, " ", 2)
	name = strings.ToLower(parts[0])
	if len(parts) > 1 {
		args = strings.TrimSpace(parts[1])
	}
	return name, args, false
}

var urlMatcher = regexp.MustCompile(`https?://[^\s]+`)

func extractFirstURL(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	match := urlMatcher.FindString(text)
	match = strings.TrimRight(match, ".,!?)]}>")
	return strings.TrimSpace(match)
}

// messageText returns the text of a message, or the caption of a media message.
func messageText(message *telego.Message) string {
	if message == nil {
		return ""
	}
	if message.Text != "" {
		return message.Text
	}
	return message.Caption
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

// chatName is the group title, or the sender's handle in private chats.
func chatName(message *telego.Message) string {
	if message == nil {
		return ""
	}
	if title := strings.TrimSpace(message.Chat.Title); title != "" {
		return title
	}
	if message.Chat.Username != "" {
		return message.Chat.Username
	}
	if message.From != nil {
		if message.From.Username != "" {
			return message.From.Username
		}
		return strings.TrimSpace(message.From.FirstName + " " + message.From.LastName)
	}
	return ""
}

func senderID(message *telego.Message) int64 {
	if message == nil || message.From == nil {
		return 0
	}
	return message.From.ID
}

// reply sends text quoting message and logs a failed send.
func reply(ctx context.Context, replier Replier, message *telego.Message, text string) {
	if replier == nil || message == nil || strings.TrimSpace(text) == "" {
		return
	}
	if err := replier.Reply(ctx, message.Chat.ID, message.MessageID, text); err != nil {
		loggerFrom(ctx, nil).Warn("failed to send reply", "error", err)
	}
}
