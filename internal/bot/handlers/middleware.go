// Package handlers contains Telegram bot command, message, and inline-query
// handlers, along with their registration logic and middleware.
package handlers

import (
	"context"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// ChatAdminOnly creates a middleware that only lets a command through when
// the invoking user holds a privileged role (owner or administrator) in the
// current chat. Unprivileged invocations are dropped silently: replying
// would disclose why the command was ignored.
func ChatAdminOnly(deps HandlerDeps) tgbot.Middleware {
	return func(next tgbot.HandlerFunc) tgbot.HandlerFunc {
		return func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if update.Message == nil || update.Message.From == nil {
				return
			}

			chatID := update.Message.Chat.ID
			userID := update.Message.From.ID
			log := deps.Logger.With("middleware", "ChatAdminOnly")

			member, err := b.GetChatMember(ctx, &tgbot.GetChatMemberParams{
				ChatID: chatID,
				UserID: userID,
			})
			if err != nil {
				log.WarnContext(ctx, "Failed to resolve chat member, dropping command",
					"chat_id", chatID, "user_id", userID, "error", err)
				return
			}

			if !memberIsPrivileged(member) {
				log.DebugContext(ctx, "Unprivileged command ignored", "chat_id", chatID, "user_id", userID)
				return
			}

			next(ctx, b, update)
		}
	}
}

func memberIsPrivileged(member *models.ChatMember) bool {
	if member == nil {
		return false
	}
	return member.Type == models.ChatMemberTypeOwner ||
		member.Type == models.ChatMemberTypeAdministrator
}
