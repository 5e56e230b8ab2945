package events

// KindFailure identifies terminal stream failure.
const KindFailure Kind = "stream.failed"

// FailureKind classifies a failure into an actionable category.
type FailureKind string

const (
	// FailureTransport covers network failures and unclassifiable non-2xx
	// responses.
	FailureTransport FailureKind = "transport"
	// FailureAccess means the selected agent has not been hired yet.
	FailureAccess FailureKind = "access"
	// FailureQuotaDaily means the fallback agent's fixed daily allowance is
	// exhausted.
	FailureQuotaDaily FailureKind = "quota_daily"
	// FailureQuotaTrialEnded means the trial ended and only the fallback
	// agent remains available.
	FailureQuotaTrialEnded FailureKind = "quota_trial_ended"
	// FailureQuota covers any other plan-based usage ceiling.
	FailureQuota FailureKind = "quota"
	// FailureStream is an error signalled by the far end mid-stream.
	FailureStream FailureKind = "stream"
)

// Failure marks terminal failure of the response stream. Message is the
// human-readable text surfaced to the caller, exactly once.
type Failure struct {
	Base
	FailureKind FailureKind
	Message     string
}

// NewFailure creates a failure event.
func NewFailure(kind FailureKind, message string) Failure {
	return Failure{Base: NewBase(KindFailure), FailureKind: kind, Message: message}
}
