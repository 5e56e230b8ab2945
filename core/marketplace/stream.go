package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/jinzhu/copier"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/Mousa-Becquerel/solarintel-core/core/conversations"
	"github.com/Mousa-Becquerel/solarintel-core/core/events"
	"github.com/Mousa-Becquerel/solarintel-core/core/wire"
)

const streamPath = "/api/chat/stream"

// OpenStream prepares the outbound exchange for one user message. Nothing
// is sent until the returned stream is iterated; the context passed to
// Events carries the cancellation handle for the whole exchange.
func (c *Client) OpenStream(
	_ context.Context,
	conversationID int64,
	message string,
	agentID string,
	attachments []conversations.Attachment,
) (events.Stream, error) {
	body, err := buildMessageRequest(conversationID, message, agentID, attachments)
	if err != nil {
		return nil, err
	}

	return &Stream{client: c, body: body}, nil
}

func buildMessageRequest(conversationID int64, message string, agentID string, attachments []conversations.Attachment) (messageRequest, error) {
	var payloads []attachmentPayload
	if len(attachments) > 0 {
		if err := copier.Copy(&payloads, attachments); err != nil {
			return messageRequest{}, fmt.Errorf("failed to convert attachments: %w", err)
		}
	}

	return messageRequest{
		ConversationID: conversationID,
		Message:        message,
		AgentID:        agentID,
		Attachments:    payloads,
	}, nil
}

// Stream is one in-flight message exchange over chunked HTTP.
type Stream struct {
	client *Client
	body   messageRequest
}

// Events sends the request and yields decoded events as chunks arrive.
// Iteration ends after a terminal event, on a transport error, or silently
// when ctx is cancelled.
func (s *Stream) Events(ctx context.Context) func(func(events.Event, error) bool) {
	return func(yield func(events.Event, error) bool) {
		ctx, span := tracer.Start(ctx, "message stream")
		defer span.End()
		span.SetAttributes(
			attribute.Int64("request.conversation_id", s.body.ConversationID),
			attribute.String("request.agent_id", s.body.AgentID),
		)

		requestBodyBytes, err := json.Marshal(s.body)
		if err != nil {
			err = fmt.Errorf("error marshalling JSON: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			s.client.baseURL+streamPath, bytes.NewBuffer(requestBodyBytes))
		if err != nil {
			err = fmt.Errorf("error creating request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		req.Header.Set("Content-Type", "application/json")
		s.client.authorize(req)

		resp, err := s.client.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			err = fmt.Errorf("error sending request: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, readErr := io.ReadAll(resp.Body)
			if readErr != nil {
				span.RecordError(fmt.Errorf("error reading failure body: %w", readErr))
			}
			apiErr := classifyResponse(resp.StatusCode, body)
			span.RecordError(apiErr)
			span.SetStatus(codes.Error, apiErr.Message)
			yield(nil, apiErr)
			return
		}

		assembler := wire.NewLineAssembler()
		buf := make([]byte, 4096)
		for {
			n, readErr := resp.Body.Read(buf)
			if n > 0 {
				for _, line := range assembler.Push(buf[:n]) {
					event, ok := decodeLine(line)
					if !ok {
						continue
					}
					if !yield(event, nil) {
						return
					}
					if isTerminal(event) {
						return
					}
				}
			}
			if readErr == nil {
				continue
			}
			if errors.Is(readErr, io.EOF) {
				if line, ok := assembler.Flush(); ok {
					if event, ok := decodeLine(line); ok {
						yield(event, nil)
					}
				}
				return
			}
			if ctx.Err() != nil {
				// Cancellation is signalled through ctx, not as an error.
				return
			}
			readErr = fmt.Errorf("error reading streamed response: %w", readErr)
			span.RecordError(readErr)
			yield(nil, readErr)
			return
		}
	}
}

func decodeLine(line string) (events.Event, bool) {
	payload, ok := wire.Payload(line)
	if !ok {
		return nil, false
	}
	return wire.Decode(payload)
}

func isTerminal(event events.Event) bool {
	switch event.(type) {
	case events.Completion, events.Failure:
		return true
	}
	return false
}
