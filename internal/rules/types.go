// Package rules loads business-defined AI rules as advisory prompt
// context. Rules are descriptive guidance for the model, not enforced
// branching logic.
package rules

import "time"

// Rule is one business rule row. Read-only to the pipeline.
type Rule struct {
	ID           int64
	TenantID     int64
	Intent       string
	Keywords     []string
	Description  string
	ResponseText string
	Priority     int32
	Active       bool
	CreatedAt    time.Time
}
