package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/chikage/tgsearchbot/internal/model"
)

// ImportBatchLimit bounds how many normalized messages one bulk-import
// upsert carries.
const ImportBatchLimit = 2000

// Upserter writes canonical messages into the search store. Upsert is
// idempotent by message key.
type Upserter interface {
	Upsert(ctx context.Context, messages []model.Message) error
}

// ChatRegistry gates the live ingestion path.
type ChatRegistry interface {
	IsChatEnabled(ctx context.Context, chatID int64) (bool, error)
}

// Pipeline is the live ingestion path: registry gate, normalizer, single
// upsert.
type Pipeline struct {
	logger   *slog.Logger
	registry ChatRegistry
	store    Upserter
}

// NewPipeline creates the live ingestion pipeline.
func NewPipeline(logger *slog.Logger, registry ChatRegistry, store Upserter) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{
		logger:   logger.With("component", "ingest"),
		registry: registry,
		store:    store,
	}
}

// HandleLive ingests a single live message. Messages from chats that have
// not opted into logging are dropped silently, as are messages the
// normalizer rejects.
func (p *Pipeline) HandleLive(ctx context.Context, msg *models.Message, selfID int64) error {
	if msg == nil {
		return nil
	}

	enabled, err := p.registry.IsChatEnabled(ctx, msg.Chat.ID)
	if err != nil {
		return fmt.Errorf("failed to check chat enablement: %w", err)
	}
	if !enabled {
		p.logger.DebugContext(ctx, "Chat not enabled for logging, dropping message", "chat_id", msg.Chat.ID)
		return nil
	}

	normalized, ok := NormalizeLive(msg, selfID)
	if !ok {
		p.logger.DebugContext(ctx, "Message rejected by normalizer", "chat_id", msg.Chat.ID, "message_id", msg.ID)
		return nil
	}

	if err := p.store.Upsert(ctx, []model.Message{normalized}); err != nil {
		return fmt.Errorf("failed to store message %s: %w", normalized.Key, err)
	}
	p.logger.DebugContext(ctx, "Stored live message", "key", normalized.Key)
	return nil
}

// Importer is the bulk-import path: it normalizes a full historical export
// and dispatches bounded upsert batches concurrently.
type Importer struct {
	logger      *slog.Logger
	store       Upserter
	botUsername string
}

// NewImporter creates a bulk importer. botUsername is the importing bot's
// own @username, used to drop its prior search responses from the export.
func NewImporter(logger *slog.Logger, store Upserter, botUsername string) *Importer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Importer{
		logger:      logger.With("component", "importer"),
		store:       store,
		botUsername: botUsername,
	}
}

// ImportFile imports a chat history export from disk. It returns the number
// of messages normalized and dispatched.
func (im *Importer) ImportFile(ctx context.Context, path string) (int, error) {
	exp, err := ReadExportFile(path)
	if err != nil {
		return 0, err
	}
	im.logger.InfoContext(ctx, "Export parsed", "chat", exp.Name, "records", len(exp.Messages))
	return im.Import(ctx, exp)
}

// Import normalizes every record of the export and upserts the results in
// batches of at most ImportBatchLimit messages. Batches run concurrently
// and independently: a failing batch is logged and reported, but does not
// abort its siblings. Import waits for every dispatched batch before
// returning.
func (im *Importer) Import(ctx context.Context, exp *Export) (int, error) {
	chatID, err := exp.ChatID()
	if err != nil {
		return 0, err
	}

	var g errgroup.Group
	dispatch := func(batch []model.Message) {
		g.Go(func() error {
			if err := im.store.Upsert(ctx, batch); err != nil {
				im.logger.ErrorContext(ctx, "Batch upsert failed", "size", len(batch), "error", err)
				return fmt.Errorf("batch of %d messages failed: %w", len(batch), err)
			}
			im.logger.DebugContext(ctx, "Batch upsert completed", "size", len(batch))
			return nil
		})
	}

	count := 0
	batch := make([]model.Message, 0, ImportBatchLimit)
	for n := range exp.Messages {
		msg, ok := NormalizeExport(&exp.Messages[n], chatID, exp.Name, im.botUsername)
		if !ok {
			continue
		}
		batch = append(batch, msg)
		count++
		if len(batch) >= ImportBatchLimit {
			dispatch(batch)
			batch = make([]model.Message, 0, ImportBatchLimit)
		}
	}
	if len(batch) > 0 {
		dispatch(batch)
	}

	im.logger.InfoContext(ctx, "All batches dispatched, waiting for completion", "messages", count)
	if err := g.Wait(); err != nil {
		return count, err
	}
	return count, nil
}
