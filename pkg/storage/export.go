package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Conversation groups the stored tweets of one thread for export
type Conversation struct {
	ConversationID string            `json:"conversationId"`
	Tweets         []json.RawMessage `json:"tweets"`
}

// ExportConversations writes the whole store, grouped by conversation, as an
// indented JSON file. Tweets without a conversation id are grouped under
// their own id. Returns the number of conversations written.
func (s *Store) ExportConversations(ctx context.Context, path string) (int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, json
		FROM tweets
		ORDER BY conversation_id, created_at, id
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to query tweets for export: %w", err)
	}
	defer rows.Close()

	var (
		conversations []Conversation
		current       *Conversation
	)
	for rows.Next() {
		var id, convID, raw string
		if err := rows.Scan(&id, &convID, &raw); err != nil {
			return 0, fmt.Errorf("failed to scan tweet row: %w", err)
		}
		if convID == "" {
			convID = id
		}

		if current == nil || current.ConversationID != convID {
			conversations = append(conversations, Conversation{ConversationID: convID})
			current = &conversations[len(conversations)-1]
		}
		current.Tweets = append(current.Tweets, json.RawMessage(raw))
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to iterate tweet rows: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("failed to create export directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create export file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(conversations); err != nil {
		return 0, fmt.Errorf("failed to encode export: %w", err)
	}

	s.logger.InfoWithFields("Store exported", map[string]interface{}{
		"path":          path,
		"conversations": len(conversations),
	})

	return len(conversations), nil
}
