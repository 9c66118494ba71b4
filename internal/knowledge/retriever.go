package knowledge

import (
	"context"
	"log/slog"
	"strings"
)

const (
	defaultScanLimit  = 50
	defaultMatchLimit = 5
)

// EntrySource lists candidate entries for a tenant. *Store satisfies
// it; tests substitute fakes.
type EntrySource interface {
	ListRecentActive(ctx context.Context, tenantID int64, limit int) ([]Entry, error)
}

// Retriever matches inbound message text against stored entries.
// Matching is lower-cased substring comparison in scan order; the
// first-match ordering is the deliberate, reproducible tie-break.
type Retriever struct {
	source     EntrySource
	scanLimit  int
	matchLimit int
	logger     *slog.Logger
}

func NewRetriever(log *slog.Logger, source EntrySource, scanLimit, matchLimit int) *Retriever {
	if log == nil {
		log = slog.Default()
	}
	if scanLimit <= 0 {
		scanLimit = defaultScanLimit
	}
	if matchLimit <= 0 {
		matchLimit = defaultMatchLimit
	}
	return &Retriever{
		source:     source,
		scanLimit:  scanLimit,
		matchLimit: matchLimit,
		logger:     log.With(slog.String("service", "knowledge")),
	}
}

// Retrieve returns up to matchLimit Q/A pairs relevant to messageText
// for the tenant. Retrieval is best-effort enrichment: any store
// failure degrades to an empty result.
func (r *Retriever) Retrieve(ctx context.Context, tenantID int64, messageText string) []QA {
	entries, err := r.source.ListRecentActive(ctx, tenantID, r.scanLimit)
	if err != nil {
		r.logger.Warn("knowledge lookup degraded",
			slog.Int64("tenant_id", tenantID),
			slog.Any("error", err),
		)
		return nil
	}
	return matchEntries(entries, messageText, r.matchLimit)
}

// matchEntries applies the keyword and question-substring signals over
// entries in scan order, deduplicating by question text.
func matchEntries(entries []Entry, messageText string, limit int) []QA {
	messageLower := strings.ToLower(strings.TrimSpace(messageText))
	if messageLower == "" {
		return nil
	}

	var matched []QA
	seen := make(map[string]struct{})
	add := func(e Entry) bool {
		if _, ok := seen[e.Question]; ok {
			return len(matched) >= limit
		}
		seen[e.Question] = struct{}{}
		matched = append(matched, QA{Question: e.Question, Answer: e.Answer})
		return len(matched) >= limit
	}

	for _, e := range entries {
		for _, kw := range e.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if strings.Contains(messageLower, kw) {
				if add(e) {
					return matched
				}
				break
			}
		}

		if q := strings.ToLower(e.Question); q != "" && strings.Contains(messageLower, q) {
			if add(e) {
				return matched
			}
		}
	}
	return matched
}
