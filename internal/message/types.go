// Package message defines the normalized inbound message consumed by
// the response pipeline.
package message

import (
	"strings"
	"time"
)

// Channel constants. The webhook layer resolves the platform before
// the pipeline ever sees a message.
const (
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
	ChannelEmail    = "email"
	ChannelWeb      = "web"
)

// NormalizedMessage is one inbound chat message, already stripped of
// platform-specific envelopes. It is transient: created by the channel
// layer, consumed once by the pipeline, never persisted here.
type NormalizedMessage struct {
	Channel   string    `json:"channel" validate:"required,oneof=telegram whatsapp email web"`
	UserID    string    `json:"user_id" validate:"required"`
	Text      string    `json:"message_text"`
	Timestamp time.Time `json:"timestamp"`
}

// IsEmpty reports whether the message carries no usable text.
func (m NormalizedMessage) IsEmpty() bool {
	return strings.TrimSpace(m.Text) == ""
}
