package handler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/mymmrac/telego"
	botpkg "github.com/spotelegramify/spotelegramify-go/bot"
)

// Submitter queues update handling.
type Submitter interface {
	Submit(task func()) error
}

// Router dispatches incoming updates to feature handlers.
type Router struct {
	BotName   string
	BotID     int64
	Pool      Submitter
	Replier   Replier
	Logger    botpkg.Logger
	Whitelist *Whitelist

	Links    MessageHandler
	Binding  *BindingHandler
	Playlist MessageHandler
	Help     MessageHandler
	Status   MessageHandler
	ChatInit MessageHandler
	Admin    *AdminCommandHandler
}

// Run dispatches updates until the channel closes or ctx is done.
func (r *Router) Run(ctx context.Context, updates <-chan telego.Update) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			r.Dispatch(ctx, update)
		}
	}
}

// Dispatch queues one update on the pool, or handles it inline without a pool.
func (r *Router) Dispatch(ctx context.Context, update telego.Update) {
	if r.Pool == nil {
		r.Handle(ctx, &update)
		return
	}
	if err := r.Pool.Submit(func() { r.Handle(ctx, &update) }); err != nil {
		r.logger().Warn("failed to queue update", "update_id", update.UpdateID, "error", err)
	}
}

// Handle routes a single update.
func (r *Router) Handle(ctx context.Context, update *telego.Update) {
	if update == nil || update.Message == nil {
		return
	}
	message := update.Message
	logger := r.logger().With(
		"update_id", update.UpdateID,
		"chat_id", message.Chat.ID,
		"trace_id", uuid.NewString(),
	)
	ctx = withLogger(ctx, logger)
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("handler panic", "panic", fmt.Sprint(rec))
		}
	}()

	if isChatInit(message, r.BotID) {
		r.call(ctx, r.ChatInit, update)
		return
	}
	if !r.Whitelist.IsAllowed(message.Chat.ID, senderID(message)) {
		logger.Debug("chat not whitelisted")
		return
	}

	name, _, slash := parseCommand(messageText(message), r.BotName)
	if handler := r.commandHandler(name, slash); handler != nil {
		logger.Debug("command", "command", name, "user_id", senderID(message))
		handler.Handle(ctx, r.Replier, update)
		return
	}
	r.call(ctx, r.Links, update)
}

// commandHandler picks the handler for a command. Binding commands may be
// sent without the leading slash; every other command needs it.
func (r *Router) commandHandler(name string, slash bool) MessageHandler {
	if name == "" {
		return nil
	}
	if r.Binding != nil && r.Binding.Matches(name) {
		return r.Binding
	}
	if !slash {
		return nil
	}
	switch name {
	case "playlist":
		return r.Playlist
	case "help", "start":
		return r.Help
	case "status":
		return r.Status
	}
	if r.Admin.Has(name) {
		return r.Admin
	}
	return nil
}

func (r *Router) call(ctx context.Context, handler MessageHandler, update *telego.Update) {
	if handler == nil {
		return
	}
	handler.Handle(ctx, r.Replier, update)
}

func (r *Router) logger() botpkg.Logger {
	if r.Logger == nil {
		return nopLogger{}
	}
	return r.Logger
}
