package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"tweetharvest/pkg/errors"
	"tweetharvest/pkg/logger"
	"tweetharvest/pkg/models"
)

// schema is applied on every open. Statements are all IF NOT EXISTS: the
// store is opened in place and existing rows always survive a new run. Store
// has no drop or truncate operation.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tweets (
		id TEXT PRIMARY KEY,
		conversation_id TEXT,
		author_username TEXT,
		created_at TEXT,
		is_reply INTEGER,
		json TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tweets_conversation ON tweets(conversation_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tweets_author ON tweets(author_username)`,
}

// Store is the durable tweet store backed by a local SQLite file
type Store struct {
	db        *sql.DB
	path      string
	batchSize int
	logger    logger.Logger
}

// Open opens (or creates) the store at the given path and ensures the schema
func Open(path string, batchSize int) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single sequential writer
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode=WAL`,
		`PRAGMA synchronous=NORMAL`,
		`PRAGMA foreign_keys=ON`,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %s: %w", pragma, err)
		}
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to ensure schema: %w", err)
		}
	}

	if batchSize <= 0 {
		batchSize = 500
	}

	return &Store{
		db:        db,
		path:      path,
		batchSize: batchSize,
		logger:    logger.GetLogger(),
	}, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location
func (s *Store) Path() string {
	return s.path
}

// UpsertResult summarizes one persistence batch
type UpsertResult struct {
	Upserted int
	Skipped  int
}

// UpsertTweets writes a batch of tweets keyed by id. Calling it again with
// the same ids updates the rows in place; a repeated identical batch leaves
// the store unchanged. Records that fail individually are logged and skipped
// so one bad row never aborts the page.
func (s *Store) UpsertTweets(ctx context.Context, tweets []models.Tweet) (UpsertResult, error) {
	var result UpsertResult

	for start := 0; start < len(tweets); start += s.batchSize {
		end := start + s.batchSize
		if end > len(tweets) {
			end = len(tweets)
		}

		batch, err := s.upsertBatch(ctx, tweets[start:end])
		result.Upserted += batch.Upserted
		result.Skipped += batch.Skipped
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func (s *Store) upsertBatch(ctx context.Context, tweets []models.Tweet) (UpsertResult, error) {
	var result UpsertResult

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, &errors.Error{
			Type:    errors.ErrorTypePersistence,
			Message: fmt.Sprintf("failed to begin transaction: %v", err),
		}
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tweets (id, conversation_id, author_username, created_at, is_reply, json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			author_username = excluded.author_username,
			created_at      = excluded.created_at,
			is_reply        = excluded.is_reply,
			json            = excluded.json
	`)
	if err != nil {
		return result, &errors.Error{
			Type:    errors.ErrorTypePersistence,
			Message: fmt.Sprintf("failed to prepare upsert: %v", err),
		}
	}
	defer stmt.Close()

	for i := range tweets {
		t := &tweets[i]
		if t.ID == "" {
			result.Skipped++
			continue
		}

		raw := t.Raw
		if len(raw) == 0 {
			// Tweets constructed in code rather than decoded from the API
			encoded, err := encodeTweet(t)
			if err != nil {
				s.logger.WithError(err).WithField("tweet_id", t.ID).Warn("Skipping tweet that cannot be encoded")
				result.Skipped++
				continue
			}
			raw = encoded
		}

		isReply := 0
		if t.IsReply {
			isReply = 1
		}

		if _, err := stmt.ExecContext(ctx, t.ID, t.ConversationID, t.AuthorUsername(), t.CreatedAt, isReply, string(raw)); err != nil {
			// Constraint violations and similar row-level failures are
			// logged and skipped; the run continues.
			s.logger.WithError(err).WithField("tweet_id", t.ID).Error("Failed to upsert tweet, skipping record")
			result.Skipped++
			continue
		}
		result.Upserted++
	}

	if err := tx.Commit(); err != nil {
		return rollbackResult(result), &errors.Error{
			Type:    errors.ErrorTypePersistence,
			Message: fmt.Sprintf("failed to commit upsert batch: %v", err),
		}
	}

	return result, nil
}

// rollbackResult is the tally for a batch whose transaction did not
// commit. Row-level skips stand; rows that executed rolled back with the
// transaction, so none count as upserted.
func rollbackResult(r UpsertResult) UpsertResult {
	r.Upserted = 0
	return r
}

// ExistingIDs returns which of the given ids are already present in the
// store. Lookups go through the primary key index; the table is never
// scanned or loaded into memory.
func (s *Store) ExistingIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})

	for start := 0; start < len(ids); start += s.batchSize {
		end := start + s.batchSize
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		placeholders := strings.Repeat("?,", len(chunk))
		placeholders = placeholders[:len(placeholders)-1]

		args := make([]interface{}, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}

		rows, err := s.db.QueryContext(ctx,
			fmt.Sprintf(`SELECT id FROM tweets WHERE id IN (%s)`, placeholders), args...)
		if err != nil {
			return nil, &errors.Error{
				Type:    errors.ErrorTypePersistence,
				Message: fmt.Sprintf("failed to look up existing ids: %v", err),
			}
		}

		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, fmt.Errorf("failed to scan id: %w", err)
			}
			existing[id] = struct{}{}
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to iterate ids: %w", err)
		}
		rows.Close()
	}

	return existing, nil
}

// encodeTweet serializes a tweet that carries no raw API payload
func encodeTweet(t *models.Tweet) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tweet: %w", err)
	}
	return data, nil
}

// CountTweets returns the number of stored rows
func (s *Store) CountTweets(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tweets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count tweets: %w", err)
	}
	return count, nil
}

// CountConversations returns the number of distinct conversations stored
func (s *Store) CountConversations(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT conversation_id) FROM tweets WHERE conversation_id != ''`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count conversations: %w", err)
	}
	return count, nil
}
