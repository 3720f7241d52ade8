package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// NewUpdateHandler returns the default handler for updates no command
// handler matched: inline queries run an authorized search, plain messages
// go through the live ingestion pipeline.
func NewUpdateHandler(deps HandlerDeps) bot.HandlerFunc {
	h := updateHandler{deps}
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		switch {
		case update.InlineQuery != nil:
			h.handleInlineQuery(ctx, b, update.InlineQuery)
		case update.Message != nil:
			h.handleMessage(ctx, update.Message)
		}
	}
}

type updateHandler struct {
	deps HandlerDeps
}

// handleMessage feeds a live group message into the ingestion pipeline.
// The pipeline drops it silently unless its chat opted into logging.
func (h updateHandler) handleMessage(ctx context.Context, msg *models.Message) {
	log := h.deps.Logger.With("handler", "message")

	var selfID int64
	if h.deps.Config.Telegram.BotInfo != nil {
		selfID = h.deps.Config.Telegram.BotInfo.ID
	}

	if err := h.deps.Pipeline.HandleLive(ctx, msg, selfID); err != nil {
		// The event is still considered handled; there is no retry.
		log.ErrorContext(ctx, "Failed to ingest live message",
			"chat_id", msg.Chat.ID, "message_id", msg.ID, "error", err)
	}
}

// handleInlineQuery answers an inline query with search results scoped to
// the chats the querying user is a member of.
func (h updateHandler) handleInlineQuery(ctx context.Context, b *bot.Bot, q *models.InlineQuery) {
	log := h.deps.Logger.With("handler", "inline_query")

	allowed, err := h.deps.AuthCache.AuthorizedChats(ctx, q.From.ID)
	if err != nil {
		log.ErrorContext(ctx, "Failed to resolve authorized chats", "user_id", q.From.ID, "error", err)
		return
	}

	results, err := h.deps.Searcher.Search(ctx, q.Query, allowed)
	if err != nil {
		log.ErrorContext(ctx, "Search failed", "user_id", q.From.ID, "error", err)
		return
	}

	articles := make([]models.InlineQueryResult, 0, len(results))
	for _, r := range results {
		articles = append(articles, &models.InlineQueryResultArticle{
			ID:          r.Key,
			Title:       r.Title,
			Description: r.Byline,
			InputMessageContent: &models.InputTextMessageContent{
				MessageText: r.HTML,
				ParseMode:   models.ParseModeHTML,
			},
		})
	}

	_, err = b.AnswerInlineQuery(ctx, &bot.AnswerInlineQueryParams{
		InlineQueryID: q.ID,
		Results:       articles,
		CacheTime:     h.deps.Config.Search.CacheTime,
		IsPersonal:    true,
	})
	if err != nil {
		log.ErrorContext(ctx, "Failed to answer inline query", "inline_query_id", q.ID, "error", err)
		return
	}

	log.InfoContext(ctx, "Answered inline query", "user_id", q.From.ID, "results", len(articles))
}
