package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/omnireplyhq/omnireply/internal/db"
)

const getSQL = `
SELECT last_intent, message_count, context_data, updated_at
FROM conversation_memories
WHERE tenant_id = $1 AND user_id = $2 AND channel = $3`

// touchSQL is a single atomic upsert-and-increment. The previous
// read-then-write sequence could lose counts under concurrent messages
// from the same user; the conditional increment cannot.
const touchSQL = `
INSERT INTO conversation_memories (tenant_id, user_id, channel, last_intent, message_count)
VALUES ($1, $2, $3, $4, 1)
ON CONFLICT (tenant_id, user_id, channel) DO UPDATE
SET last_intent = EXCLUDED.last_intent,
    message_count = conversation_memories.message_count + 1,
    updated_at = now()`

// Store reads and writes conversation memory rows.
type Store struct {
	conn   db.DBTX
	logger *slog.Logger
}

func NewStore(log *slog.Logger, conn db.DBTX) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		conn:   conn,
		logger: log.With(slog.String("service", "memory")),
	}
}

// Get returns the memory row for the tuple, or nil when the user has
// no prior conversation on this channel.
func (s *Store) Get(ctx context.Context, tenantID int64, userID, channel string) (*Memory, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("memory store not configured")
	}
	m := Memory{TenantID: tenantID, UserID: userID, Channel: channel}
	var lastIntent *string
	var rawContext []byte
	err := s.conn.QueryRow(ctx, getSQL, tenantID, userID, channel).
		Scan(&lastIntent, &m.MessageCount, &rawContext, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if lastIntent != nil {
		m.LastIntent = *lastIntent
	}
	if len(rawContext) > 0 {
		// Context data is reporting metadata; a malformed payload must
		// not fail the read.
		if err := json.Unmarshal(rawContext, &m.ContextData); err != nil {
			s.logger.Warn("context data unreadable",
				slog.Int64("tenant_id", tenantID),
				slog.String("user_id", userID),
				slog.Any("error", err),
			)
			m.ContextData = nil
		}
	}
	return &m, nil
}

// Touch records the latest detected intent and increments the message
// count, creating the row with count 1 on first contact.
func (s *Store) Touch(ctx context.Context, tenantID int64, userID, channel, intent string) error {
	if s.conn == nil {
		return fmt.Errorf("memory store not configured")
	}
	if _, err := s.conn.Exec(ctx, touchSQL, tenantID, userID, channel, intent); err != nil {
		return fmt.Errorf("touch conversation memory: %w", err)
	}
	return nil
}
