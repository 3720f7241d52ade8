// Package index implements the full-text message store on top of Bleve.
//
// Messages are indexed by their deduplication key, so re-indexing an
// existing key replaces the stored document instead of duplicating it.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/lang/cjk"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/chikage/tgsearchbot/internal/model"
)

// Hit is a search result pairing a canonical message with the
// engine-rendered highlighted fragment for presentation.
type Hit struct {
	Message  model.Message
	Fragment string
	Score    float64
}

// Index wraps a Bleve index holding canonical messages.
type Index struct {
	idx  bleve.Index
	path string
}

// Open opens an existing index at the given path or creates a new one with
// the default mapping.
func Open(path string) (*Index, error) {
	parent := filepath.Dir(path)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create index parent dir: %w", err)
	}

	var (
		idx bleve.Index
		err error
	)
	if _, statErr := os.Stat(path); statErr == nil {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open bleve index: %w", err)
		}
	} else if errors.Is(statErr, os.ErrNotExist) {
		idx, err = bleve.New(path, buildMapping())
		if err != nil {
			return nil, fmt.Errorf("create bleve index: %w", err)
		}
	} else {
		return nil, fmt.Errorf("stat index: %w", statErr)
	}

	return &Index{idx: idx, path: path}, nil
}

// Close closes the underlying Bleve index.
func (i *Index) Close() error {
	if i == nil || i.idx == nil {
		return nil
	}
	return i.idx.Close()
}

// DocCount returns the number of indexed messages.
func (i *Index) DocCount() (uint64, error) {
	return i.idx.DocCount()
}

// Upsert indexes a batch of messages. Existing keys are overwritten, so the
// operation is idempotent and safe to retry or re-import.
func (i *Index) Upsert(ctx context.Context, messages []model.Message) error {
	if len(messages) == 0 {
		return nil
	}

	batch := i.idx.NewBatch()
	const flushSize = 250
	for n, msg := range messages {
		if err := ctx.Err(); err != nil {
			return err
		}
		doc, err := newDocument(&msg)
		if err != nil {
			return err
		}
		if err := batch.Index(doc.Key, doc); err != nil {
			return fmt.Errorf("batch index: %w", err)
		}
		if (n+1)%flushSize == 0 {
			if err := i.idx.Batch(batch); err != nil {
				return fmt.Errorf("flush batch: %w", err)
			}
			batch = i.idx.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := i.idx.Batch(batch); err != nil {
			return fmt.Errorf("flush final batch: %w", err)
		}
	}

	return nil
}

// Search runs a full-text query restricted to the allowed chat ids and
// returns ranked hits with HTML-highlighted fragments.
//
// An empty allowed set still executes the query with a match-none filter,
// so it yields no hits rather than falling back to an unfiltered search.
func (i *Index) Search(ctx context.Context, input string, allowed []int64, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(input, allowed), limit, 0, false)
	searchRequest.Highlight = bleve.NewHighlightWithStyle("html")
	searchRequest.Fields = []string{"message_json"}

	result, err := i.idx.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("bleve search: %w", err)
	}

	hits := make([]Hit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		messageJSON, ok := hit.Fields["message_json"].(string)
		if !ok || messageJSON == "" {
			continue
		}
		var msg model.Message
		if err := json.Unmarshal([]byte(messageJSON), &msg); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}

		fragment := ""
		if frags, ok := hit.Fragments["text"]; ok && len(frags) > 0 {
			fragment = strings.Join(frags, " … ")
		}

		hits = append(hits, Hit{
			Message:  msg,
			Fragment: fragment,
			Score:    hit.Score,
		})
	}

	return hits, nil
}

// document is the representation stored inside Bleve.
type document struct {
	Key         string `json:"key"`
	Text        string `json:"text"`
	From        string `json:"from"`
	ChatID      string `json:"chat_id"`
	Unix        int64  `json:"unix"`
	MessageJSON string `json:"message_json"`
}

func newDocument(msg *model.Message) (*document, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	messageJSON, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return &document{
		Key:         msg.Key,
		Text:        msg.Text,
		From:        msg.From,
		ChatID:      strconv.FormatInt(msg.ChatID, 10),
		Unix:        msg.Date.Unix(),
		MessageJSON: string(messageJSON),
	}, nil
}

func buildMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = cjk.AnalyzerName

	docMapping := mapping.NewDocumentMapping()

	textField := mapping.NewTextFieldMapping()
	textField.Analyzer = cjk.AnalyzerName
	textField.Store = true
	textField.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("text", textField)

	fromField := mapping.NewTextFieldMapping()
	fromField.Analyzer = "keyword"
	fromField.Store = true
	fromField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("from", fromField)

	chatField := mapping.NewTextFieldMapping()
	chatField.Analyzer = "keyword"
	chatField.Store = true
	chatField.IncludeInAll = false
	docMapping.AddFieldMappingsAt("chat_id", chatField)

	unixField := mapping.NewNumericFieldMapping()
	unixField.Store = true
	docMapping.AddFieldMappingsAt("unix", unixField)

	messageField := mapping.NewTextFieldMapping()
	messageField.Analyzer = "keyword"
	messageField.Store = true
	messageField.Index = false
	docMapping.AddFieldMappingsAt("message_json", messageField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// buildQuery combines the text match with a hard filter on the allowed chat
// ids. The filter is a term disjunction; with no allowed chats it degrades
// to match-none so results can never leak across groups.
func buildQuery(input string, allowed []int64) query.Query {
	matchQuery := bleve.NewMatchQuery(input)
	matchQuery.SetField("text")

	var filter query.Query
	if len(allowed) == 0 {
		filter = bleve.NewMatchNoneQuery()
	} else {
		terms := make([]query.Query, 0, len(allowed))
		for _, chatID := range allowed {
			term := bleve.NewTermQuery(strconv.FormatInt(chatID, 10))
			term.SetField("chat_id")
			terms = append(terms, term)
		}
		filter = bleve.NewDisjunctionQuery(terms...)
	}

	return bleve.NewConjunctionQuery(matchQuery, filter)
}
