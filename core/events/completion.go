package events

// KindCompletion identifies terminal stream success.
const KindCompletion Kind = "stream.completed"

// Completion marks successful completion of the response stream.
type Completion struct {
	Base
	// HasDashboard reports that a dashboard artifact is retrievable by a
	// follow-up call.
	HasDashboard bool
}

// NewCompletion creates a completion event.
func NewCompletion(hasDashboard bool) Completion {
	return Completion{Base: NewBase(KindCompletion), HasDashboard: hasDashboard}
}
