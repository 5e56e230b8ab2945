package marketplace

import (
	"net/http"
	"testing"

	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

func TestClassifyResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
		kind       events.FailureKind
		message    string
	}{
		{
			name:       "daily allowance exhausted",
			statusCode: http.StatusTooManyRequests,
			body:       `{"detail": {"is_fallback_mode": true, "daily_queries_remaining": 0, "fallback_agent": "solar-basic"}}`,
			kind:       events.FailureQuotaDaily,
			message:    msgDailyAllowanceExhausted,
		},
		{
			name:       "trial ended with allowance remaining",
			statusCode: http.StatusTooManyRequests,
			body:       `{"detail": {"is_fallback_mode": true, "daily_queries_remaining": 3, "fallback_agent": "solar-basic"}}`,
			kind:       events.FailureQuotaTrialEnded,
			message:    msgTrialEnded,
		},
		{
			name:       "generic quota ceiling",
			statusCode: http.StatusTooManyRequests,
			body:       `{"detail": {"error": "monthly limit reached"}}`,
			kind:       events.FailureQuota,
			message:    msgQuotaReached,
		},
		{
			name:       "agent not hired",
			statusCode: http.StatusForbidden,
			body:       `{"detail": "Agent not available on this plan"}`,
			kind:       events.FailureAccess,
			message:    msgAgentNotHired,
		},
		{
			name:       "string detail outside 403 stays transport",
			statusCode: http.StatusInternalServerError,
			body:       `{"detail": "something broke"}`,
			kind:       events.FailureTransport,
			message:    msgStreamFailed,
		},
		{
			name:       "unparsable body stays transport",
			statusCode: http.StatusBadGateway,
			body:       `<html>bad gateway</html>`,
			kind:       events.FailureTransport,
			message:    msgStreamFailed,
		},
		{
			name:       "null detail stays transport",
			statusCode: http.StatusForbidden,
			body:       `{"detail": null}`,
			kind:       events.FailureTransport,
			message:    msgStreamFailed,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			apiErr := classifyResponse(testCase.statusCode, []byte(testCase.body))
			if apiErr.Kind != testCase.kind {
				t.Fatalf("expected kind %q, got %q", testCase.kind, apiErr.Kind)
			}
			if apiErr.Message != testCase.message {
				t.Fatalf("expected message %q, got %q", testCase.message, apiErr.Message)
			}
			if apiErr.StatusCode != testCase.statusCode {
				t.Fatalf("expected status %d, got %d", testCase.statusCode, apiErr.StatusCode)
			}
		})
	}
}

func TestAPIErrorExposesFailureKind(t *testing.T) {
	apiErr := classifyResponse(http.StatusForbidden, []byte(`{"detail": "not hired"}`))
	if apiErr.FailureKind() != events.FailureAccess {
		t.Fatalf("expected access failure, got %q", apiErr.FailureKind())
	}
	if apiErr.Error() != msgAgentNotHired {
		t.Fatalf("expected user-facing message, got %q", apiErr.Error())
	}
}
