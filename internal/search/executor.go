// Package search executes authorized full-text queries and shapes hits
// into presentation units.
package search

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"

	"github.com/chikage/tgsearchbot/internal/index"
	"github.com/chikage/tgsearchbot/internal/model"
)

// Store is the search side of the message index.
type Store interface {
	Search(ctx context.Context, input string, allowed []int64, limit int) ([]index.Hit, error)
}

// Result is one rendered hit, ready to be answered to an inline query.
type Result struct {
	// Key is the message's deduplication key, reused as the result id.
	Key string
	// Title is the engine-highlighted fragment, or the plain text when the
	// engine produced no fragment.
	Title string
	// Byline is "{from}@{YYYY-MM-DD}".
	Byline string
	// HTML is the message content sent when the user picks the result:
	// the quoted text with a deep link to the original message.
	HTML string
}

// Executor runs filtered searches. Ranking, tokenization, and matching are
// entirely the store's concern; the executor only supplies the authorized
// chat set as a hard filter and renders the hits.
type Executor struct {
	logger *slog.Logger
	store  Store
	limit  int
}

// NewExecutor creates a search executor returning at most limit hits per
// query.
func NewExecutor(logger *slog.Logger, store Store, limit int) *Executor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Executor{
		logger: logger.With("component", "search"),
		store:  store,
		limit:  limit,
	}
}

// Search queries the store restricted to the allowed chats and renders the
// hits. An empty allowed set still executes and yields no results; it never
// widens into an unfiltered search.
func (e *Executor) Search(ctx context.Context, query string, allowed []model.Chat) ([]Result, error) {
	chatIDs := make([]int64, 0, len(allowed))
	for _, chat := range allowed {
		chatIDs = append(chatIDs, chat.ID)
	}

	hits, err := e.store.Search(ctx, query, chatIDs, e.limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		results = append(results, render(hit))
	}

	e.logger.DebugContext(ctx, "Search executed",
		"query", query, "allowed_chats", len(allowed), "hits", len(results))
	return results, nil
}

func render(hit index.Hit) Result {
	msg := hit.Message

	title := hit.Fragment
	if title == "" {
		title = msg.Text
	}

	return Result{
		Key:    msg.Key,
		Title:  title,
		Byline: msg.From + "@" + msg.FormatDate(),
		HTML: fmt.Sprintf(`「 %s 」 from <a href="%s">%s</a>`,
			html.EscapeString(msg.Text), msg.Link(), html.EscapeString(msg.From)),
	}
}
