package chat

import (
	"context"
	"testing"
	"time"

	"github.com/Mousa-Becquerel/solarintel-core/core/conversations"
	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

// channelStream hands over whatever is fed into its channel, blocking in
// between, so tests can interleave sends with cancellation.
type channelStream struct {
	events chan events.Event
}

func newChannelStream() *channelStream {
	return &channelStream{events: make(chan events.Event)}
}

func (s *channelStream) Events(ctx context.Context) func(func(events.Event, error) bool) {
	return func(yield func(events.Event, error) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-s.events:
				if !ok {
					return
				}
				if !yield(event, nil) {
					return
				}
				if _, done := event.(events.Completion); done {
					return
				}
			}
		}
	}
}

func TestCancelMidStreamCommitsNoAssistantTurn(t *testing.T) {
	stream := newChannelStream()
	client := NewClient(&queueOpener{streams: []events.Stream{stream}}, WithIDSource(&countingIDs{}))

	deltaApplied := make(chan struct{}, 2)
	cancelled := make(chan struct{}, 1)
	sendDone := make(chan error, 1)

	go func() {
		sendDone <- client.Send(context.Background(), 1, "hi", "solar-analyst",
			WithResponseCallback(func(string) {
				select {
				case deltaApplied <- struct{}{}:
				default:
				}
			}),
			WithCancellationCallback(func() {
				select {
				case cancelled <- struct{}{}:
				default:
				}
			}),
		)
	}()

	stream.events <- events.NewTextDelta("never ")
	stream.events <- events.NewTextDelta("committed")
	<-deltaApplied

	client.Cancel(1)

	select {
	case <-cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for cancellation callback")
	}

	select {
	case err := <-sendDone:
		if err != nil {
			t.Fatalf("expected a cancelled send to return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for send to return")
	}

	if history := client.History(); len(history) != 1 || history[0].Role != conversations.RoleUser {
		t.Fatalf("expected the transcript to hold only the user turn, got %+v", history)
	}

	// A second cancel is a no-op.
	client.Cancel(1)
}

func TestResendCancelsPriorSessionFirst(t *testing.T) {
	first := newChannelStream()
	second := scriptedStream{events: []events.Event{
		events.NewTextDelta("fresh answer"),
		events.NewCompletion(false),
	}}
	client := NewClient(&queueOpener{streams: []events.Stream{first, second}}, WithIDSource(&countingIDs{}))

	firstDelta := make(chan struct{}, 1)
	firstCancelled := make(chan struct{}, 1)
	firstDone := make(chan error, 1)

	go func() {
		firstDone <- client.Send(context.Background(), 1, "first message", "solar-analyst",
			WithResponseCallback(func(string) {
				select {
				case firstDelta <- struct{}{}:
				default:
				}
			}),
			WithCancellationCallback(func() {
				select {
				case firstCancelled <- struct{}{}:
				default:
				}
			}),
		)
	}()

	first.events <- events.NewTextDelta("stale ")
	<-firstDelta

	if err := client.Send(context.Background(), 1, "second message", "solar-analyst"); err != nil {
		t.Fatalf("unexpected error on re-send: %v", err)
	}

	select {
	case <-firstCancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the prior session to be cancelled")
	}
	select {
	case err := <-firstDone:
		if err != nil {
			t.Fatalf("expected the cancelled send to return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for the prior send to return")
	}

	history := client.History()
	if len(history) != 3 {
		t.Fatalf("expected two user turns and one assistant turn, got %d", len(history))
	}
	if assistant := history[2]; assistant.Content != "fresh answer" {
		t.Fatalf("expected only the new session's turn, got %q", assistant.Content)
	}
}

func TestSessionPhaseTracksLifecycle(t *testing.T) {
	stream := newChannelStream()
	client := NewClient(&queueOpener{streams: []events.Stream{stream}}, WithIDSource(&countingIDs{}))

	if phase := client.SessionPhase(1); phase != PhaseIdle {
		t.Fatalf("expected an idle conversation, got %q", phase)
	}

	deltaApplied := make(chan struct{}, 1)
	sendDone := make(chan error, 1)
	go func() {
		sendDone <- client.Send(context.Background(), 1, "hi", "solar-analyst",
			WithResponseCallback(func(string) {
				select {
				case deltaApplied <- struct{}{}:
				default:
				}
			}),
		)
	}()

	stream.events <- events.NewTextDelta("first byte")
	<-deltaApplied

	if phase := client.SessionPhase(1); phase != PhaseStreaming {
		t.Fatalf("expected a streaming session, got %q", phase)
	}

	stream.events <- events.NewCompletion(false)
	if err := <-sendDone; err != nil {
		t.Fatalf("unexpected error sending message: %v", err)
	}

	if phase := client.SessionPhase(1); phase != PhaseIdle {
		t.Fatalf("expected the conversation to be idle again, got %q", phase)
	}
}

func TestCloseCancelsLiveExchangesAndRejectsSends(t *testing.T) {
	stream := newChannelStream()
	client := NewClient(&queueOpener{streams: []events.Stream{stream}}, WithIDSource(&countingIDs{}))

	deltaApplied := make(chan struct{}, 1)
	sendDone := make(chan error, 1)
	go func() {
		sendDone <- client.Send(context.Background(), 1, "hi", "solar-analyst",
			WithResponseCallback(func(string) {
				select {
				case deltaApplied <- struct{}{}:
				default:
				}
			}),
		)
	}()

	stream.events <- events.NewTextDelta("in flight")
	<-deltaApplied

	client.Close()

	select {
	case err := <-sendDone:
		if err != nil {
			t.Fatalf("expected the closed-out send to return nil, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for send to return after close")
	}

	if err := client.Send(context.Background(), 1, "too late", "solar-analyst"); err == nil {
		t.Fatalf("expected sends after close to be rejected")
	}
}

func TestSendWithAttachmentsCommitsThemOnUserTurn(t *testing.T) {
	client := newScriptedClient(scriptedStream{events: []events.Event{
		events.NewCompletion(false),
	}})

	attachment := conversations.Attachment{Name: "usage.csv", MimeType: "text/csv", Size: 4}
	if err := client.Send(context.Background(), 1, "analyse", "solar-analyst", WithAttachments(attachment)); err != nil {
		t.Fatalf("unexpected error sending message: %v", err)
	}

	history := client.History()
	if len(history) != 1 {
		t.Fatalf("expected a single user turn, got %d", len(history))
	}
	if len(history[0].Attachments) != 1 || history[0].Attachments[0].Name != "usage.csv" {
		t.Fatalf("expected the attachment on the user turn, got %+v", history[0].Attachments)
	}
}
