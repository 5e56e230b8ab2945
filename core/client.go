// Package chat drives incremental response exchanges against the agent
// marketplace: it sends user messages, folds the resulting event stream into
// session state, and hands finalized turns to the conversation transcript.
package chat

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Mousa-Becquerel/solarintel-core/core/conversations"
	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

// StreamOpener prepares the response stream for one outbound message. The
// marketplace client is the production implementation.
type StreamOpener interface {
	OpenStream(
		ctx context.Context,
		conversationID int64,
		message string,
		agentID string,
		attachments []conversations.Attachment,
	) (events.Stream, error)
}

// IDSource produces identifiers for transcript turns. The session owns its
// source so exchanges stay independently testable.
type IDSource interface {
	NewID() string
}

type uuidSource struct{}

func (uuidSource) NewID() string { return uuid.NewString() }

type Client struct {
	opener     StreamOpener
	transcript conversations.Transcript
	ids        IDSource

	mu     sync.Mutex
	active map[int64]*StreamSession

	closeOnce sync.Once
	closed    atomic.Bool
}

func NewClient(opener StreamOpener, opts ...ClientOption) *Client {
	c := &Client{
		opener:     opener,
		transcript: conversations.NewInMemoryTranscript(),
		ids:        uuidSource{},
		active:     map[int64]*StreamSession{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Send dispatches one user message and blocks until the exchange reaches a
// terminal state. The user turn is committed to the transcript before the
// stream opens; the assistant turn is committed only on successful flushes.
//
// At most one exchange may be live per conversation: sending again while one
// is in flight cancels it and waits for its cleanup first. A cancelled
// exchange returns nil; a failed one returns a *StreamFailure.
func (c *Client) Send(ctx context.Context, conversationID int64, message string, agentID string, opts ...SendOption) error {
	if c.closed.Load() {
		return fmt.Errorf("chat client is closed")
	}

	options := SendOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	ctx, span := tracer.Start(ctx, "send message")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("conversation.id", conversationID),
		attribute.String("agent.id", agentID),
	)

	if prior := c.activeSession(conversationID); prior != nil {
		prior.Cancel()
		prior.AwaitCompletion()
	}

	c.transcript.Append(conversations.Turn{
		ID:             c.ids.NewID(),
		ConversationID: conversationID,
		Role:           conversations.RoleUser,
		Content:        message,
		Timestamp:      time.Now(),
		Attachments:    options.attachments,
	})

	stream, err := c.opener.OpenStream(ctx, conversationID, message, agentID, options.attachments)
	if err != nil {
		err = fmt.Errorf("failed to open response stream: %w", err)
		span.RecordError(err)
		kind, userMessage := classifyFailure(err)
		if options.callbacks.onFailure != nil {
			options.callbacks.onFailure(kind, userMessage)
		}
		return err
	}

	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()

	session := newStreamSession(conversationID, agentID, c.transcript, c.ids, options.callbacks, cancelStream)

	c.mu.Lock()
	c.active[conversationID] = session
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.active[conversationID] == session {
			delete(c.active, conversationID)
		}
		c.mu.Unlock()
	}()

	session.run(streamCtx, stream)

	return session.Err()
}

// History returns a copy of the transcript so far, oldest first, when the
// client owns an in-memory transcript. Callers that injected their own
// transcript read it directly instead.
func (c *Client) History() []conversations.Turn {
	if transcript, ok := c.transcript.(*conversations.InMemoryTranscript); ok {
		return transcript.History()
	}

	return nil
}

// Close cancels every live exchange and waits for them to wind down. The
// client rejects further sends afterwards.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)

		c.mu.Lock()
		sessions := make([]*StreamSession, 0, len(c.active))
		for _, session := range c.active {
			sessions = append(sessions, session)
		}
		c.mu.Unlock()

		for _, session := range sessions {
			session.Cancel()
			session.AwaitCompletion()
		}
	})
}

func (c *Client) activeSession(conversationID int64) *StreamSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.active[conversationID]
}
