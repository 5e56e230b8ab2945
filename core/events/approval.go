package events

// KindApprovalRequest identifies a mid-stream approval request.
const KindApprovalRequest Kind = "approval.requested"

// ApprovalRequest asks the user to approve an action before the agent
// continues. It flushes the in-progress turn but does not terminate the
// stream; further deltas may still arrive.
type ApprovalRequest struct {
	Base
	ConversationID int64
	Context        string
	Question       string
	// Message is the fallback turn content used when no text was accumulated
	// before the request arrived.
	Message string
}

// NewApprovalRequest creates an approval request event.
func NewApprovalRequest(conversationID int64, context, question, message string) ApprovalRequest {
	return ApprovalRequest{
		Base:           NewBase(KindApprovalRequest),
		ConversationID: conversationID,
		Context:        context,
		Question:       question,
		Message:        message,
	}
}
