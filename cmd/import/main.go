// Package main imports a Telegram chat history export into the search index.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/chikage/tgsearchbot/internal/config"
	"github.com/chikage/tgsearchbot/internal/index"
	"github.com/chikage/tgsearchbot/internal/ingest"
	"github.com/chikage/tgsearchbot/internal/logger"
	"github.com/chikage/tgsearchbot/internal/telegram"
)

const defaultExportPath = "./history/result.json"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	exportPath := defaultExportPath
	if flag.NArg() > 0 {
		exportPath = flag.Arg(0)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)

	// The bot client is only needed to learn our own @username, so that
	// the bot's prior search responses in the export are not re-indexed.
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}
	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}

	// The index directory is locked by whichever process has it open; stop
	// the bot before importing into the same index.
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

	importer := ingest.NewImporter(log, idx, "@"+me.Username)

	log.Info("Importing chat history export", "file", exportPath)
	count, err := importer.ImportFile(ctx, exportPath)
	if err != nil {
		log.Error("Import failed", "file", exportPath, "messages", count, "error", err)
		return 1
	}

	log.Info("Import completed", "messages", count)
	return 0
}
