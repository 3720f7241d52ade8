package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/chikage/tgsearchbot/internal/model"
)

// Store defines the interface for the enabled-chat registry.
//
// The registry tracks which chats have opted into logging. Enablement gates
// what gets written by the live ingestion path; it performs no authorization
// logic itself and trusts its callers to have checked privilege.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// EnableChat marks a chat as a live-ingestion target. Enabling an
	// already-enabled chat is a no-op, not an error.
	EnableChat(ctx context.Context, chatID int64) error

	// DisableChat removes a chat from the registry. Disabling an
	// already-disabled chat is a no-op, not an error.
	DisableChat(ctx context.Context, chatID int64) error

	// IsChatEnabled reports whether live messages from the chat are logged.
	IsChatEnabled(ctx context.Context, chatID int64) (bool, error)

	// ListEnabledChats returns every chat currently opted into logging.
	ListEnabledChats(ctx context.Context) ([]model.Chat, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnableChat inserts the chat into the registry, ignoring duplicates.
func (s *sqlxStore) EnableChat(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enabled_chats (chat_id) VALUES (?) ON CONFLICT (chat_id) DO NOTHING`, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to enable chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to enable chat %d: %w", chatID, err)
	}
	s.logger.InfoContext(ctx, "Chat enabled for logging", "chat_id", chatID)
	return nil
}

// DisableChat deletes the chat from the registry if present.
func (s *sqlxStore) DisableChat(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM enabled_chats WHERE chat_id = ?`, chatID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to disable chat", "chat_id", chatID, "error", err)
		return fmt.Errorf("failed to disable chat %d: %w", chatID, err)
	}
	s.logger.InfoContext(ctx, "Chat disabled for logging", "chat_id", chatID)
	return nil
}

// IsChatEnabled reports whether the chat is in the registry.
func (s *sqlxStore) IsChatEnabled(ctx context.Context, chatID int64) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM enabled_chats WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, fmt.Errorf("failed to check chat %d: %w", chatID, err)
	}
	return count > 0, nil
}

// ListEnabledChats returns all registered chats.
func (s *sqlxStore) ListEnabledChats(ctx context.Context) ([]model.Chat, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		`SELECT chat_id FROM enabled_chats ORDER BY chat_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled chats: %w", err)
	}

	chats := make([]model.Chat, 0, len(ids))
	for _, id := range ids {
		chats = append(chats, model.Chat{ID: id})
	}
	return chats, nil
}

// RunSQLMaintenance performs VACUUM and ANALYZE on the registry database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `ANALYZE`); err != nil {
		return fmt.Errorf("failed to run ANALYZE: %w", err)
	}
	s.logger.InfoContext(ctx, "Database maintenance completed")
	return nil
}
