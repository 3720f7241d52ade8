// Package ingest normalizes raw Telegram messages into canonical form and
// writes them into the search index, either one at a time from the live
// update stream or in bounded batches from a historical export.
package ingest

import (
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/chikage/tgsearchbot/internal/model"
)

// NormalizeLive converts a live Telegram message into a canonical Message.
// It returns false for records that must not be stored: non-supergroup
// chats, messages relayed through the bot itself, bot-authored messages
// without a sender-chat identity, and messages with no extractable text.
func NormalizeLive(msg *models.Message, selfID int64) (model.Message, bool) {
	if msg == nil || msg.Chat.Type != models.ChatTypeSupergroup {
		return model.Message{}, false
	}
	if msg.ViaBot != nil && msg.ViaBot.ID == selfID {
		return model.Message{}, false
	}
	// Anonymous admin posts arrive from a service bot but carry the real
	// sender chat; any other bot-authored message is dropped.
	if msg.From != nil && msg.From.IsBot && msg.SenderChat == nil {
		return model.Message{}, false
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return model.Message{}, false
	}

	var author model.Author
	switch {
	case msg.SenderChat != nil:
		author = model.ChatAuthor(msg.SenderChat.Title)
	case msg.From != nil:
		author = model.UserAuthor(fullName(msg.From), msg.Chat.Title)
	default:
		return model.Message{}, false
	}

	return model.Message{
		Key:    model.NewKey(msg.Chat.ID, msg.ID),
		Text:   text,
		From:   author.Display(),
		ID:     msg.ID,
		ChatID: msg.Chat.ID,
		Date:   time.Unix(int64(msg.Date), 0).UTC(),
	}, true
}

// NormalizeExport converts one historical-export record into a canonical
// Message. chatID must be the reconstructed -100-prefixed supergroup id and
// chatName the export's display name. botUsername is the importing bot's
// own @username; records relayed through it are prior search responses and
// are dropped.
func NormalizeExport(rec *ExportMessage, chatID int64, chatName, botUsername string) (model.Message, bool) {
	if rec.Type != "message" {
		return model.Message{}, false
	}
	if rec.ViaBot != "" && rec.ViaBot == botUsername {
		return model.Message{}, false
	}
	if rec.FromID == "" {
		return model.Message{}, false
	}

	var text strings.Builder
	for _, entity := range rec.TextEntities {
		text.WriteString(entity.Text)
	}
	if text.Len() == 0 {
		return model.Message{}, false
	}

	var author model.Author
	if rec.From != nil {
		author = model.UserAuthor(*rec.From, chatName)
	} else {
		author = model.DeletedAuthor(rec.FromID, chatName)
	}

	unix, err := strconv.ParseInt(rec.DateUnixtime, 10, 64)
	if err != nil {
		return model.Message{}, false
	}

	return model.Message{
		Key:    model.NewKey(chatID, rec.ID),
		Text:   text.String(),
		From:   author.Display(),
		ID:     rec.ID,
		ChatID: chatID,
		Date:   time.Unix(unix, 0).UTC(),
	}, true
}

func fullName(u *models.User) string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
