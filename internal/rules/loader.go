package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omnireplyhq/omnireply/internal/db"
)

const defaultRuleLimit = 10

// Lower priority value means higher precedence; recency breaks ties.
const listActiveSQL = `
SELECT description
FROM ai_rules
WHERE tenant_id = $1 AND is_active = TRUE
ORDER BY priority ASC, created_at DESC
LIMIT $2`

// Loader fetches active rule descriptions for prompt assembly.
type Loader struct {
	conn   db.DBTX
	limit  int
	logger *slog.Logger
}

func NewLoader(log *slog.Logger, conn db.DBTX, limit int) *Loader {
	if log == nil {
		log = slog.Default()
	}
	if limit <= 0 {
		limit = defaultRuleLimit
	}
	return &Loader{
		conn:   conn,
		limit:  limit,
		logger: log.With(slog.String("service", "rules")),
	}
}

// Load returns up to limit active rule descriptions for the tenant,
// highest precedence first. Failures degrade to an empty list.
func (l *Loader) Load(ctx context.Context, tenantID int64) []string {
	descriptions, err := l.list(ctx, tenantID)
	if err != nil {
		l.logger.Warn("rule lookup degraded",
			slog.Int64("tenant_id", tenantID),
			slog.Any("error", err),
		)
		return nil
	}
	return descriptions
}

func (l *Loader) list(ctx context.Context, tenantID int64) ([]string, error) {
	if l.conn == nil {
		return nil, fmt.Errorf("rules loader not configured")
	}
	rows, err := l.conn.Query(ctx, listActiveSQL, tenantID, l.limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var descriptions []string
	for rows.Next() {
		var description string
		if err := rows.Scan(&description); err != nil {
			return nil, err
		}
		if strings.TrimSpace(description) == "" {
			continue
		}
		descriptions = append(descriptions, description)
	}
	return descriptions, rows.Err()
}
