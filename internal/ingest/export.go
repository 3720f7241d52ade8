package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Export is the top-level document of a Telegram chat history export
// ("result.json"). Only supergroup exports are importable.
type Export struct {
	Name     string          `json:"name"`
	Type     string          `json:"type"`
	ID       int64           `json:"id"`
	Messages []ExportMessage `json:"messages"`
}

// ExportMessage is one raw record of a chat history export. From is a
// pointer because a deleted account exports as null while the from_id
// remains.
type ExportMessage struct {
	ID           int                `json:"id"`
	Type         string             `json:"type"`
	DateUnixtime string             `json:"date_unixtime"`
	From         *string            `json:"from"`
	FromID       string             `json:"from_id"`
	ViaBot       string             `json:"via_bot"`
	TextEntities []ExportTextEntity `json:"text_entities"`
}

// ExportTextEntity is a single text-bearing fragment of an export record.
type ExportTextEntity struct {
	Text string `json:"text"`
}

// ParseExport decodes and validates an export document. A document that
// does not parse or does not declare a supergroup type is rejected before
// any message is considered.
func ParseExport(data []byte) (*Export, error) {
	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return nil, fmt.Errorf("failed to parse export: %w", err)
	}
	if !strings.Contains(exp.Type, "supergroup") {
		return nil, fmt.Errorf("export type %q is not a supergroup export", exp.Type)
	}
	return &exp, nil
}

// ReadExportFile loads and validates an export document from disk.
func ReadExportFile(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	return ParseExport(data)
}

// ChatID reconstructs the live supergroup chat identifier from the export's
// bare numeric id by applying the -100 prefix convention. The result is
// bit-exact with the chat id seen on the live path, so an imported message
// and its live-ingested copy share the same key.
func (e *Export) ChatID() (int64, error) {
	id, err := strconv.ParseInt("-100"+strconv.FormatInt(e.ID, 10), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to reconstruct supergroup chat id from %d: %w", e.ID, err)
	}
	return id, nil
}
