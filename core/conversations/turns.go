package conversations

import (
	"encoding/json"
	"time"
)

// Role identifies the author of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Attachment describes a file sent along with a user message.
type Attachment struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Content  []byte `json:"content,omitempty"`
}

// ImageRef points at an image asset held by the marketplace backend. The
// binary is retrieved by a separate authenticated fetch.
type ImageRef struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Approval carries an approval prompt attached to a finalized turn.
type Approval struct {
	Context  string `json:"context"`
	Question string `json:"question"`
}

// Turn is one finalized entry in a conversation transcript. Turns are
// immutable once appended.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`

	Attachments []Attachment `json:"attachments,omitempty"`

	// Chart is an opaque chart specification rendered by the caller.
	Chart    json.RawMessage `json:"chart,omitempty"`
	Image    *ImageRef       `json:"image,omitempty"`
	Approval *Approval       `json:"approval,omitempty"`

	// HasDashboard reports that a dashboard artifact for this turn is
	// retrievable by a follow-up call.
	HasDashboard bool `json:"has_dashboard,omitempty"`
}
