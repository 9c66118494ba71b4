// Package memory persists per-conversation state keyed by
// (tenant, user, channel).
package memory

import "time"

// Memory is the running state of one conversation. Exactly one row
// exists per (tenant_id, user_id, channel) tuple; the pipeline creates
// it on first message and never deletes it.
type Memory struct {
	TenantID     int64
	UserID       string
	Channel      string
	LastIntent   string
	MessageCount int64
	ContextData  map[string]any
	UpdatedAt    time.Time
}
