// Package model defines the canonical message shape shared by the
// ingestion pipeline, the search index, and result rendering.
package model

import (
	"fmt"
	"strconv"
	"time"
)

// Chat identifies a group the bot can log. Supergroup identifiers carry
// Telegram's -100 numeric prefix.
type Chat struct {
	ID int64 `json:"id"`
}

// Message is the normalized, store-ready representation of a chat message,
// independent of whether it arrived live or through a historical export.
type Message struct {
	// Key is the deduplication identity: "{chat_id}_{message_id}".
	// Re-ingesting the same source message always produces the same key.
	Key    string    `json:"key"`
	Text   string    `json:"text"`
	From   string    `json:"from"`
	ID     int       `json:"id"`
	ChatID int64     `json:"chat_id"`
	Date   time.Time `json:"date"`
}

// NewKey builds the deduplication key for a message in a chat.
func NewKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d_%d", chatID, messageID)
}

// FormatDate renders the authorship date in the server's time zone as
// YYYY-MM-DD, the form used in result bylines.
func (m *Message) FormatDate() string {
	return m.Date.In(time.Local).Format("2006-01-02")
}

// Link reconstructs the public permalink for a supergroup message by
// stripping the 4-character "-100" prefix from the chat identifier:
// chat -1001234, message 7 links to https://t.me/c/1234/7.
func (m *Message) Link() string {
	chatID := strconv.FormatInt(m.ChatID, 10)
	if len(chatID) < 5 {
		return ""
	}
	return "https://t.me/c/" + chatID[4:] + "/" + strconv.Itoa(m.ID)
}
