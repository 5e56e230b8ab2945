package chat

import (
	"github.com/Mousa-Becquerel/solarintel-core/core/conversations"
	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

type ClientOption func(*Client)

// WithTranscript replaces the default in-memory transcript. The transcript
// receives the user turn of every send and the assistant turn of every
// successful flush.
func WithTranscript(transcript conversations.Transcript) ClientOption {
	return func(c *Client) { c.transcript = transcript }
}

func WithIDSource(ids IDSource) ClientOption {
	return func(c *Client) { c.ids = ids }
}

type sendCallbacks struct {
	onResponse      func(delta string)
	onTurnFinalized func(turn conversations.Turn)
	onFailure       func(kind events.FailureKind, message string)
	onHeartbeat     func()
	onCancellation  func()
}

type SendOptions struct {
	attachments []conversations.Attachment
	callbacks   sendCallbacks
}

type SendOption func(*SendOptions)

func WithAttachments(attachments ...conversations.Attachment) SendOption {
	return func(o *SendOptions) {
		o.attachments = append(o.attachments, attachments...)
	}
}

// WithResponseCallback registers a callback for each incremental text delta
// as it is applied to the in-progress turn.
func WithResponseCallback(callback func(delta string)) SendOption {
	return func(o *SendOptions) {
		o.callbacks.onResponse = callback
	}
}

// WithTurnFinalizedCallback registers a callback for every assistant turn
// committed to the transcript, including approval flushes mid-stream.
func WithTurnFinalizedCallback(callback func(turn conversations.Turn)) SendOption {
	return func(o *SendOptions) {
		o.callbacks.onTurnFinalized = callback
	}
}

// WithFailureCallback registers a callback for the terminal failure of the
// exchange. It fires at most once, with a message safe to show as-is.
//
// Cancellation does not trigger this callback.
func WithFailureCallback(callback func(kind events.FailureKind, message string)) SendOption {
	return func(o *SendOptions) {
		o.callbacks.onFailure = callback
	}
}

// WithHeartbeatCallback registers a callback for liveness frames. Heartbeats
// carry no content; callers typically drive a progress indicator off them.
func WithHeartbeatCallback(callback func()) SendOption {
	return func(o *SendOptions) {
		o.callbacks.onHeartbeat = callback
	}
}

func WithCancellationCallback(callback func()) SendOption {
	return func(o *SendOptions) {
		o.callbacks.onCancellation = callback
	}
}
