package handlers

import (
	"log/slog"

	"github.com/chikage/tgsearchbot/internal/authcache"
	"github.com/chikage/tgsearchbot/internal/config"
	"github.com/chikage/tgsearchbot/internal/database"
	"github.com/chikage/tgsearchbot/internal/ingest"
	"github.com/chikage/tgsearchbot/internal/search"
)

// HandlerDeps provides dependencies for Telegram command and query handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Registry  database.Store
	Pipeline  *ingest.Pipeline
	AuthCache *authcache.Cache
	Searcher  *search.Executor
}
