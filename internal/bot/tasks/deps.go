// Package tasks implements scheduled maintenance tasks for the bot.
package tasks

import (
	"log/slog"

	"github.com/chikage/tgsearchbot/internal/database"
	"github.com/chikage/tgsearchbot/internal/index"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Index  *index.Index
}
