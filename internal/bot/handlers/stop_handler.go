package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewStopHandler returns a handler for the /stop command, which disables
// message logging in the current chat. Privilege gating happens in the
// ChatAdminOnly middleware.
func NewStopHandler(deps HandlerDeps) bot.HandlerFunc {
	return stopHandler{deps}.Handle
}

// stopHandler processes the /stop command using injected dependencies.
type stopHandler struct {
	deps HandlerDeps
}

func (h stopHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "stop")

	if update.Message == nil || update.Message.From == nil {
		log.WarnContext(ctx, "Stop handler received update with nil message or sender", "update_id", update.ID)
		return
	}

	chatID := update.Message.Chat.ID
	log.InfoContext(ctx, "Handling /stop command", "chat_id", chatID, "user_id", update.Message.From.ID)

	if err := h.deps.Registry.DisableChat(ctx, chatID); err != nil {
		log.ErrorContext(ctx, "Failed to disable chat logging", "error", err, "chat_id", chatID)
	}
}
