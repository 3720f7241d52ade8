// Package main contains the entrypoint for the Telegram search bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/chikage/tgsearchbot/internal/authcache"
	"github.com/chikage/tgsearchbot/internal/bot"
	"github.com/chikage/tgsearchbot/internal/bot/handlers"
	"github.com/chikage/tgsearchbot/internal/bot/tasks"
	"github.com/chikage/tgsearchbot/internal/config"
	"github.com/chikage/tgsearchbot/internal/database"
	"github.com/chikage/tgsearchbot/internal/index"
	"github.com/chikage/tgsearchbot/internal/ingest"
	"github.com/chikage/tgsearchbot/internal/logger"
	"github.com/chikage/tgsearchbot/internal/search"
	"github.com/chikage/tgsearchbot/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// registry, index, bot, scheduler), handles graceful shutdown, and returns
// an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db) // Ensure DB is closed on function exit
	store := database.NewStore(db, log)

	idx, err := index.Open(cfg.Index.Path)
	if err != nil {
		log.Error("Failed to open search index", "path", cfg.Index.Path, "error", err)
		return 1
	}
	defer func() {
		if closeErr := idx.Close(); closeErr != nil {
			log.Error("Failed to close search index", "error", closeErr)
		}
	}()

	// The default handler is wired after bot construction because the
	// authorization cache needs the bot instance for membership checks.
	var defaultHandler tgbot.HandlerFunc
	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			if defaultHandler != nil {
				defaultHandler(ctx, b, update)
			}
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	// Retrieve bot info and store it in the config for runtime use
	cfg.Telegram.BotInfo, err = tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", cfg.Telegram.BotInfo.ID, "bot_username", cfg.Telegram.BotInfo.Username)

	membership := telegram.NewMembershipSource(tg)
	authCache := authcache.New(log, store, membership, cfg.Auth.CacheTTL)
	pipeline := ingest.NewPipeline(log, store, idx)
	searcher := search.NewExecutor(log, idx, cfg.Search.MaxHits)

	hDeps := handlers.HandlerDeps{
		Logger:    log,
		Config:    cfg,
		Registry:  store,
		Pipeline:  pipeline,
		AuthCache: authCache,
		Searcher:  searcher,
	}
	defaultHandler = handlers.NewUpdateHandler(hDeps)

	cmdHandlers := handlers.RegisterAllCommands(hDeps)
	if err := telegram.RegisterHandlers(tg, log, cmdHandlers); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Index:  idx,
	}
	sched := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	app := bot.NewBot(log, cfg, db, store, idx, tg, sched)

	log.Info("Starting bot...")
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Bot run loop finished. Initiating shutdown...")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
