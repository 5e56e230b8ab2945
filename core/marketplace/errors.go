package marketplace

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

// User-facing failure messages. Each classified failure surfaces exactly one
// of these to the caller.
const (
	msgAgentNotHired           = "This agent isn't on your team yet. Hire it from the marketplace before starting a chat."
	msgDailyAllowanceExhausted = "You've used all of today's free queries for the fallback agent. Your allowance resets tomorrow."
	msgTrialEnded              = "Your trial has ended and only the fallback agent is still available. Upgrade to bring back the full marketplace."
	msgQuotaReached            = "You've reached your plan's usage limit. Upgrade to keep the conversation going."
	msgStreamFailed            = "Something went wrong while streaming the response. Please try again."
)

// APIError is a classified pre-stream failure from the backend.
type APIError struct {
	StatusCode int
	Kind       events.FailureKind
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// FailureKind reports the failure category carried by this error.
func (e *APIError) FailureKind() events.FailureKind {
	return e.Kind
}

// classifyResponse maps a non-2xx response body onto the failure taxonomy.
//
// A structured detail object is a quota-family failure: the fallback agent's
// fixed daily allowance when it is exhausted, the trial-ended case when a
// fallback agent is designated with allowance remaining, and the generic
// plan ceiling otherwise. A plain-string detail on 403 means the selected
// agent has not been hired. Everything else is a transport failure.
func classifyResponse(statusCode int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: statusCode, Kind: events.FailureTransport, Message: msgStreamFailed}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return apiErr
	}

	if isJSONObject(envelope.Detail) {
		var detail errorDetail
		if err := json.Unmarshal(envelope.Detail, &detail); err != nil {
			return apiErr
		}
		switch {
		case detail.IsFallbackMode && detail.DailyQueriesRemaining != nil && *detail.DailyQueriesRemaining == 0:
			apiErr.Kind = events.FailureQuotaDaily
			apiErr.Message = msgDailyAllowanceExhausted
		case detail.IsFallbackMode && detail.FallbackAgent != nil:
			apiErr.Kind = events.FailureQuotaTrialEnded
			apiErr.Message = msgTrialEnded
		default:
			apiErr.Kind = events.FailureQuota
			apiErr.Message = msgQuotaReached
		}
		return apiErr
	}

	var detailText string
	if err := json.Unmarshal(envelope.Detail, &detailText); err == nil && statusCode == http.StatusForbidden {
		apiErr.Kind = events.FailureAccess
		apiErr.Message = msgAgentNotHired
	}

	return apiErr
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}
