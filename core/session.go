package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Mousa-Becquerel/solarintel-core/core/conversations"
	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

// Phase is the lifecycle state of one exchange.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseAwaitingFirstByte Phase = "awaiting_first_byte"
	PhaseStreaming         Phase = "streaming"
	PhaseFinalizing        Phase = "finalizing"
	PhaseCancelled         Phase = "cancelled"
	PhaseFailed            Phase = "failed"
)

// User-facing messages for failures that do not carry one of their own.
const (
	msgRequestFailed       = "We couldn't reach the agent marketplace. Check your connection and try again."
	msgResponseInterrupted = "The response was cut off before it finished. Please try again."
)

// StreamSession tracks one in-progress exchange against a conversation.
//
// Events are applied strictly one at a time in arrival order; the mutex only
// guards against concurrent cancellation and state reads, never against a
// second event writer.
type StreamSession struct {
	conversationID int64
	agentID        string

	transcript conversations.Transcript
	ids        IDSource
	callbacks  sendCallbacks

	mu     sync.Mutex
	phase  Phase
	buffer strings.Builder
	chart  json.RawMessage
	image  *conversations.ImageRef
	err    error

	cancelled    atomic.Bool
	cancelStream context.CancelFunc

	done chan struct{}
}

func newStreamSession(
	conversationID int64,
	agentID string,
	transcript conversations.Transcript,
	ids IDSource,
	callbacks sendCallbacks,
	cancelStream context.CancelFunc,
) *StreamSession {
	return &StreamSession{
		conversationID: conversationID,
		agentID:        agentID,
		transcript:     transcript,
		ids:            ids,
		callbacks:      callbacks,
		cancelStream:   cancelStream,
		phase:          PhaseIdle,
		done:           make(chan struct{}),
	}
}

// run consumes the stream until a terminal event, a transport error, or
// cancellation. It must be called exactly once.
func (s *StreamSession) run(ctx context.Context, stream events.Stream) {
	defer close(s.done)

	ctx, span := tracer.Start(ctx, "response exchange")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("conversation.id", s.conversationID),
		attribute.String("agent.id", s.agentID),
	)

	s.setPhase(PhaseAwaitingFirstByte)

	for event, err := range stream.Events(ctx) {
		if s.IsCancelled() {
			return
		}
		if err != nil {
			kind, message := classifyFailure(err)
			span.RecordError(err)
			span.SetStatus(codes.Error, message)
			s.fail(kind, message, err)
			return
		}
		if terminal := s.apply(event); terminal {
			return
		}
	}

	if s.IsCancelled() {
		return
	}

	// The far end went away without a done or error frame.
	err := fmt.Errorf("stream ended without a terminal event")
	span.RecordError(err)
	s.fail(events.FailureStream, msgResponseInterrupted, err)
}

// apply folds one event into session state and reports whether it was
// terminal. Callbacks and transcript writes happen outside the lock so a
// callback may call Cancel without deadlocking.
func (s *StreamSession) apply(event events.Event) bool {
	var (
		finalized *conversations.Turn
		notify    func()
		terminal  bool
	)

	s.mu.Lock()
	if s.phase == PhaseCancelled || s.phase == PhaseFailed {
		s.mu.Unlock()
		return true
	}

	switch event := event.(type) {
	case events.TextDelta:
		s.markStreamingLocked()
		s.buffer.WriteString(event.Text)
		if callback := s.callbacks.onResponse; callback != nil {
			notify = func() { callback(event.Text) }
		}

	case events.ChartPayload:
		s.markStreamingLocked()
		// A later chart replaces an earlier one within the same turn.
		s.chart = event.Spec

	case events.ImageReference:
		s.markStreamingLocked()
		s.image = &conversations.ImageRef{ID: event.ID, MimeType: event.MimeType, Title: event.Title}

	case events.Heartbeat:
		s.markStreamingLocked()
		if callback := s.callbacks.onHeartbeat; callback != nil {
			notify = callback
		}

	case events.ApprovalRequest:
		s.phase = PhaseFinalizing
		content := s.buffer.String()
		if content == "" {
			content = event.Message
		}
		turn := s.buildTurnLocked(content, false)
		turn.Approval = &conversations.Approval{Context: event.Context, Question: event.Question}
		finalized = &turn
		s.resetPendingLocked()
		// The stream stays open after an approval flush.
		s.phase = PhaseStreaming

	case events.Completion:
		s.phase = PhaseFinalizing
		if content := s.buffer.String(); content != "" || s.chart != nil || s.image != nil {
			turn := s.buildTurnLocked(content, event.HasDashboard)
			finalized = &turn
		}
		s.resetPendingLocked()
		s.phase = PhaseIdle
		terminal = true

	case events.Failure:
		s.resetPendingLocked()
		s.phase = PhaseFailed
		s.err = &StreamFailure{Kind: event.FailureKind, Message: event.Message}
		if callback := s.callbacks.onFailure; callback != nil {
			kind, message := event.FailureKind, event.Message
			notify = func() { callback(kind, message) }
		}
		terminal = true
	}
	s.mu.Unlock()

	if finalized != nil && !s.cancelled.Load() {
		s.transcript.Append(*finalized)
		if s.callbacks.onTurnFinalized != nil {
			s.callbacks.onTurnFinalized(*finalized)
		}
	}
	if notify != nil {
		notify()
	}

	return terminal
}

// Cancel aborts the exchange. It is idempotent: the transport is told to
// stop, pending content is discarded, no turn is committed, and the
// cancellation callback fires at most once. Cancellation is not a failure.
func (s *StreamSession) Cancel() {
	if s == nil || !s.cancelled.CompareAndSwap(false, true) {
		return
	}

	if s.cancelStream != nil {
		s.cancelStream()
	}

	s.mu.Lock()
	s.phase = PhaseCancelled
	s.resetPendingLocked()
	s.mu.Unlock()

	if s.callbacks.onCancellation != nil {
		s.callbacks.onCancellation()
	}
}

func (s *StreamSession) IsCancelled() bool {
	if s == nil {
		return false
	}

	return s.cancelled.Load()
}

// AwaitCompletion blocks until the exchange has fully wound down.
func (s *StreamSession) AwaitCompletion() {
	if s == nil {
		return
	}

	<-s.done
}

// Phase returns the current lifecycle state.
func (s *StreamSession) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.phase
}

// Err returns the terminal failure of the exchange, if any. Cancelled
// exchanges report no error.
func (s *StreamSession) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

func (s *StreamSession) fail(kind events.FailureKind, message string, cause error) {
	s.mu.Lock()
	if s.phase == PhaseCancelled || s.phase == PhaseFailed {
		s.mu.Unlock()
		return
	}
	s.resetPendingLocked()
	s.phase = PhaseFailed
	s.err = &StreamFailure{Kind: kind, Message: message, cause: cause}
	s.mu.Unlock()

	if s.callbacks.onFailure != nil {
		s.callbacks.onFailure(kind, message)
	}
}

func (s *StreamSession) markStreamingLocked() {
	if s.phase == PhaseAwaitingFirstByte {
		s.phase = PhaseStreaming
	}
}

func (s *StreamSession) buildTurnLocked(content string, hasDashboard bool) conversations.Turn {
	return conversations.Turn{
		ID:             s.ids.NewID(),
		ConversationID: s.conversationID,
		Role:           conversations.RoleAssistant,
		Content:        content,
		Timestamp:      time.Now(),
		Chart:          s.chart,
		Image:          s.image,
		HasDashboard:   hasDashboard,
	}
}

func (s *StreamSession) resetPendingLocked() {
	s.buffer.Reset()
	s.chart = nil
	s.image = nil
}

func (s *StreamSession) setPhase(phase Phase) {
	s.mu.Lock()
	if s.phase != PhaseCancelled && s.phase != PhaseFailed {
		s.phase = phase
	}
	s.mu.Unlock()
}

// StreamFailure is the terminal error of a failed exchange. Message is safe
// to show to the user as-is.
type StreamFailure struct {
	Kind    events.FailureKind
	Message string

	cause error
}

func (e *StreamFailure) Error() string {
	return e.Message
}

func (e *StreamFailure) Unwrap() error {
	return e.cause
}

// failureKinder is implemented by transport errors that already carry a
// user-facing classification.
type failureKinder interface {
	FailureKind() events.FailureKind
}

func classifyFailure(err error) (events.FailureKind, string) {
	var kinder failureKinder
	if errors.As(err, &kinder) {
		return kinder.FailureKind(), err.Error()
	}

	return events.FailureTransport, msgRequestFailed
}
