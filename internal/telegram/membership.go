package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// MembershipSource answers live membership queries through the Bot API's
// getChatMember call. It satisfies authcache.MembershipChecker.
type MembershipSource struct {
	bot *bot.Bot
}

// NewMembershipSource wraps a bot instance as a membership service.
func NewMembershipSource(b *bot.Bot) *MembershipSource {
	return &MembershipSource{bot: b}
}

// IsChatMember reports whether the user is currently present in the chat.
// Restricted users count as present only while they remain members.
func (s *MembershipSource) IsChatMember(ctx context.Context, chatID, userID int64) (bool, error) {
	member, err := s.bot.GetChatMember(ctx, &bot.GetChatMemberParams{
		ChatID: chatID,
		UserID: userID,
	})
	if err != nil {
		return false, err
	}
	return MemberIsPresent(member), nil
}

// MemberIsPresent reports whether a chat member record describes a user who
// is currently in the chat.
func MemberIsPresent(member *models.ChatMember) bool {
	if member == nil {
		return false
	}
	switch member.Type {
	case models.ChatMemberTypeOwner, models.ChatMemberTypeAdministrator, models.ChatMemberTypeMember:
		return true
	case models.ChatMemberTypeRestricted:
		return member.Restricted != nil && member.Restricted.IsMember
	default:
		return false
	}
}
