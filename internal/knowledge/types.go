// Package knowledge provides tenant-scoped retrieval of stored Q/A
// pairs for prompt enrichment. Retrieval is literal keyword matching,
// not semantic search.
package knowledge

import "time"

// Entry is one curated Q/A pair. Entries are owned by the knowledge
// management subsystem; this package only reads them.
type Entry struct {
	ID        int64
	TenantID  int64
	Question  string
	Answer    string
	Keywords  []string
	Intent    string
	Active    bool
	UpdatedAt time.Time
}

// QA is a retrieved question/answer pair injected into the prompt.
type QA struct {
	Question string
	Answer   string
}
