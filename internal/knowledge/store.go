package knowledge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/omnireplyhq/omnireply/internal/db"
)

const listRecentActiveSQL = `
SELECT id, tenant_id, question, answer, keywords, COALESCE(intent, ''), is_active, updated_at
FROM knowledge_entries
WHERE tenant_id = $1 AND is_active = TRUE
ORDER BY updated_at DESC
LIMIT $2`

// Store reads knowledge entries from Postgres.
type Store struct {
	conn db.DBTX
}

func NewStore(conn db.DBTX) *Store {
	return &Store{conn: conn}
}

// ListRecentActive returns the most recently updated active entries
// for the tenant, bounded by limit. The bound keeps retrieval latency
// flat as a tenant's knowledge base grows.
func (s *Store) ListRecentActive(ctx context.Context, tenantID int64, limit int) ([]Entry, error) {
	if s.conn == nil {
		return nil, fmt.Errorf("knowledge store not configured")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.conn.Query(ctx, listRecentActiveSQL, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var rawKeywords []byte
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Question, &e.Answer, &rawKeywords, &e.Intent, &e.Active, &e.UpdatedAt); err != nil {
			return nil, err
		}
		// A malformed keywords payload disables keyword matching for
		// that entry only; the question-substring signal still applies.
		if len(rawKeywords) > 0 {
			if err := json.Unmarshal(rawKeywords, &e.Keywords); err != nil {
				e.Keywords = nil
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
