package marketplace

import "encoding/json"

// messageRequest is the outbound body for one user message.
type messageRequest struct {
	ConversationID int64               `json:"conversation_id"`
	Message        string              `json:"message"`
	AgentID        string              `json:"agent_id"`
	Attachments    []attachmentPayload `json:"attachments,omitempty"`
}

type attachmentPayload struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Content  []byte `json:"content,omitempty"`
}

// errorEnvelope is the backend's failure body. Detail is either a plain
// string or a structured object with quota sub-flags.
type errorEnvelope struct {
	Detail json.RawMessage `json:"detail"`
}

type errorDetail struct {
	IsFallbackMode        bool    `json:"is_fallback_mode"`
	DailyQueriesRemaining *int    `json:"daily_queries_remaining"`
	FallbackAgent         *string `json:"fallback_agent"`
	Error                 string  `json:"error"`
}
