package ingest_test

import (
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/chikage/tgsearchbot/internal/ingest"
	"github.com/chikage/tgsearchbot/internal/model"
)

const selfID int64 = 9000

func liveMessage() *models.Message {
	return &models.Message{
		ID:   42,
		Date: 1689699600,
		Chat: models.Chat{ID: -1001234567890, Title: "Gophers", Type: models.ChatTypeSupergroup},
		From: &models.User{ID: 7, FirstName: "Alice", LastName: "Liddell"},
		Text: "hello world",
	}
}

func TestNormalizeLive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(msg *models.Message)
		expectOK bool
	}{
		{
			name:     "plain text message",
			mutate:   func(msg *models.Message) {},
			expectOK: true,
		},
		{
			name: "private chat rejected",
			mutate: func(msg *models.Message) {
				msg.Chat.Type = models.ChatTypePrivate
			},
			expectOK: false,
		},
		{
			name: "basic group rejected",
			mutate: func(msg *models.Message) {
				msg.Chat.Type = models.ChatTypeGroup
			},
			expectOK: false,
		},
		{
			name: "relayed through this bot rejected",
			mutate: func(msg *models.Message) {
				msg.ViaBot = &models.User{ID: selfID, IsBot: true}
			},
			expectOK: false,
		},
		{
			name: "relayed through another bot kept",
			mutate: func(msg *models.Message) {
				msg.ViaBot = &models.User{ID: 1234, IsBot: true}
			},
			expectOK: true,
		},
		{
			name: "other bot author rejected",
			mutate: func(msg *models.Message) {
				msg.From = &models.User{ID: 1234, IsBot: true, FirstName: "SpamBot"}
			},
			expectOK: false,
		},
		{
			name: "anonymous channel post kept",
			mutate: func(msg *models.Message) {
				msg.From = &models.User{ID: 136817688, IsBot: true, FirstName: "Channel"}
				msg.SenderChat = &models.Chat{ID: -100555, Title: "News Channel"}
			},
			expectOK: true,
		},
		{
			name: "no text and no caption rejected",
			mutate: func(msg *models.Message) {
				msg.Text = ""
			},
			expectOK: false,
		},
		{
			name: "caption used when text empty",
			mutate: func(msg *models.Message) {
				msg.Text = ""
				msg.Caption = "a photo caption"
			},
			expectOK: true,
		},
		{
			name: "no identifiable sender rejected",
			mutate: func(msg *models.Message) {
				msg.From = nil
			},
			expectOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			msg := liveMessage()
			tt.mutate(msg)
			_, ok := ingest.NormalizeLive(msg, selfID)
			if ok != tt.expectOK {
				t.Errorf("NormalizeLive() ok = %v, want %v", ok, tt.expectOK)
			}
		})
	}
}

func TestNormalizeLiveFields(t *testing.T) {
	t.Parallel()

	got, ok := ingest.NormalizeLive(liveMessage(), selfID)
	if !ok {
		t.Fatal("NormalizeLive() rejected a valid message")
	}

	expected := model.Message{
		Key:    "-1001234567890_42",
		Text:   "hello world",
		From:   "Alice Liddell@Gophers",
		ID:     42,
		ChatID: -1001234567890,
		Date:   time.Unix(1689699600, 0).UTC(),
	}
	if got != expected {
		t.Errorf("NormalizeLive() = %+v, want %+v", got, expected)
	}
}

func TestNormalizeLiveChannelAuthor(t *testing.T) {
	t.Parallel()

	msg := liveMessage()
	msg.SenderChat = &models.Chat{ID: -100555, Title: "News Channel"}

	got, ok := ingest.NormalizeLive(msg, selfID)
	if !ok {
		t.Fatal("NormalizeLive() rejected a channel post")
	}
	if got.From != "News Channel" {
		t.Errorf("From = %q, want %q", got.From, "News Channel")
	}
}

func strPtr(s string) *string { return &s }

func exportRecord() ingest.ExportMessage {
	return ingest.ExportMessage{
		ID:           42,
		Type:         "message",
		DateUnixtime: "1689699600",
		From:         strPtr("Alice Liddell"),
		FromID:       "user7",
		TextEntities: []ingest.ExportTextEntity{{Text: "hello "}, {Text: "world"}},
	}
}

func TestNormalizeExport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(rec *ingest.ExportMessage)
		expectOK bool
	}{
		{
			name:     "plain record",
			mutate:   func(rec *ingest.ExportMessage) {},
			expectOK: true,
		},
		{
			name: "service record rejected",
			mutate: func(rec *ingest.ExportMessage) {
				rec.Type = "service"
			},
			expectOK: false,
		},
		{
			name: "own inline response rejected",
			mutate: func(rec *ingest.ExportMessage) {
				rec.ViaBot = "@search_bot"
			},
			expectOK: false,
		},
		{
			name: "other bot relay kept",
			mutate: func(rec *ingest.ExportMessage) {
				rec.ViaBot = "@gif"
			},
			expectOK: true,
		},
		{
			name: "missing sender id rejected",
			mutate: func(rec *ingest.ExportMessage) {
				rec.FromID = ""
			},
			expectOK: false,
		},
		{
			name: "empty text entities rejected",
			mutate: func(rec *ingest.ExportMessage) {
				rec.TextEntities = nil
			},
			expectOK: false,
		},
		{
			name: "unparsable date rejected",
			mutate: func(rec *ingest.ExportMessage) {
				rec.DateUnixtime = "not-a-date"
			},
			expectOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := exportRecord()
			tt.mutate(&rec)
			_, ok := ingest.NormalizeExport(&rec, -1001234567890, "Gophers", "@search_bot")
			if ok != tt.expectOK {
				t.Errorf("NormalizeExport() ok = %v, want %v", ok, tt.expectOK)
			}
		})
	}
}

func TestNormalizeExportDeletedAccount(t *testing.T) {
	t.Parallel()

	rec := exportRecord()
	rec.From = nil

	got, ok := ingest.NormalizeExport(&rec, -1001234567890, "Gophers", "@search_bot")
	if !ok {
		t.Fatal("NormalizeExport() rejected a deleted-account record")
	}
	if got.From != "已销号user7@Gophers" {
		t.Errorf("From = %q, want %q", got.From, "已销号user7@Gophers")
	}
}

// A message seen live and the same message read from an export must land on
// the same key, so re-imports never duplicate documents.
func TestLiveAndExportKeysAgree(t *testing.T) {
	t.Parallel()

	live, ok := ingest.NormalizeLive(liveMessage(), selfID)
	if !ok {
		t.Fatal("NormalizeLive() rejected a valid message")
	}

	exp := ingest.Export{Name: "Gophers", Type: "private_supergroup", ID: 1234567890}
	chatID, err := exp.ChatID()
	if err != nil {
		t.Fatalf("ChatID() error: %v", err)
	}

	rec := exportRecord()
	imported, ok := ingest.NormalizeExport(&rec, chatID, exp.Name, "@search_bot")
	if !ok {
		t.Fatal("NormalizeExport() rejected a valid record")
	}

	if live.Key != imported.Key {
		t.Errorf("live key %q != imported key %q", live.Key, imported.Key)
	}
	if live.Text != imported.Text {
		t.Errorf("live text %q != imported text %q", live.Text, imported.Text)
	}
}
