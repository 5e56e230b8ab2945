package wire

import (
	"encoding/json"
	"fmt"

	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

// fallbackStreamErrorMessage is used when an error frame carries no text.
const fallbackStreamErrorMessage = "The agent ran into a problem while responding. Please try again."

// frame is the JSON payload shape of one data line. Fields are optional per
// type.
type frame struct {
	Type             string          `json:"type"`
	Content          json.RawMessage `json:"content,omitempty"`
	Message          string          `json:"message,omitempty"`
	ConversationID   int64           `json:"conversation_id,omitempty"`
	Context          string          `json:"context,omitempty"`
	ApprovalQuestion string          `json:"approval_question,omitempty"`
	HasDashboard     bool            `json:"has_dashboard,omitempty"`
	MimeType         string          `json:"mime_type,omitempty"`
	Title            string          `json:"title,omitempty"`
}

type imageContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Title    string `json:"title"`
}

// Decode parses one payload string into a typed event. A malformed frame is
// logged and dropped; it never aborts the session. Unknown types are ignored
// so new server-side event kinds degrade gracefully.
func Decode(payload string) (events.Event, bool) {
	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		logger.Warn("dropping malformed frame", "error", err)
		return nil, false
	}

	switch f.Type {
	case "chunk", "text", "text_chunk":
		// Three synonymous delta tags survive from earlier protocol
		// revisions; all are accepted.
		text, err := decodeText(f.Content)
		if err != nil {
			logger.Warn("dropping delta frame with non-text content", "error", err)
			return nil, false
		}
		return events.NewTextDelta(text), true

	case "plot":
		if len(f.Content) == 0 {
			logger.Warn("dropping plot frame without content")
			return nil, false
		}
		return events.NewChartPayload(append(json.RawMessage(nil), f.Content...)), true

	case "image":
		image, err := decodeImage(f)
		if err != nil {
			logger.Warn("dropping image frame", "error", err)
			return nil, false
		}
		return image, true

	case "approval_request":
		return events.NewApprovalRequest(f.ConversationID, f.Context, f.ApprovalQuestion, f.Message), true

	case "done":
		return events.NewCompletion(f.HasDashboard), true

	case "error":
		message := f.Message
		if message == "" {
			message = fallbackStreamErrorMessage
		}
		return events.NewFailure(events.FailureStream, message), true

	case "status", "processing":
		return events.NewHeartbeat(), true

	default:
		logger.Debug("ignoring frame of unknown type", "type", f.Type)
		return nil, false
	}
}

func decodeText(content json.RawMessage) (string, error) {
	if len(content) == 0 {
		return "", nil
	}
	var text string
	if err := json.Unmarshal(content, &text); err != nil {
		return "", err
	}
	return text, nil
}

func decodeImage(f frame) (events.ImageReference, error) {
	if len(f.Content) == 0 {
		return events.ImageReference{}, fmt.Errorf("image frame without content")
	}

	var id string
	if err := json.Unmarshal(f.Content, &id); err == nil {
		if id == "" {
			return events.ImageReference{}, fmt.Errorf("image frame with empty id")
		}
		return events.NewImageReference(id, f.MimeType, f.Title), nil
	}

	var content imageContent
	if err := json.Unmarshal(f.Content, &content); err != nil {
		return events.ImageReference{}, fmt.Errorf("image frame content is neither id nor object: %w", err)
	}
	if content.ID == "" {
		return events.ImageReference{}, fmt.Errorf("image frame with empty id")
	}

	mimeType := content.MimeType
	if mimeType == "" {
		mimeType = f.MimeType
	}
	title := content.Title
	if title == "" {
		title = f.Title
	}
	return events.NewImageReference(content.ID, mimeType, title), nil
}
