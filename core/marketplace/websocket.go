package marketplace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Mousa-Becquerel/solarintel-core/core/conversations"
	"github.com/Mousa-Becquerel/solarintel-core/core/events"
)

const websocketPath = "/api/chat/ws"

// DialStream is the websocket variant of OpenStream. The frame protocol is
// the same as the chunked HTTP stream, with each text message carrying one
// or more complete lines.
func (c *Client) DialStream(
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

	return &socketStream{client: c, body: body}, nil
}

type socketStream struct {
	client *Client
	body   messageRequest
}

func (s *socketStream) Events(ctx context.Context) func(func(events.Event, error) bool) {
	return func(yield func(events.Event, error) bool) {
		ctx, span := tracer.Start(ctx, "message stream over websocket")
		defer span.End()
		span.SetAttributes(
			attribute.Int64("request.conversation_id", s.body.ConversationID),
			attribute.String("request.agent_id", s.body.AgentID),
		)

		endpoint, err := websocketEndpoint(s.client.baseURL)
		if err != nil {
			span.RecordError(err)
			yield(nil, err)
			return
		}

		header := http.Header{}
		if s.client.token != "" {
			header.Set("Authorization", "Bearer "+s.client.token)
		}

		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, header)
		if err != nil {
			if resp != nil && resp.Body != nil {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				apiErr := classifyResponse(resp.StatusCode, body)
				span.RecordError(apiErr)
				yield(nil, apiErr)
				return
			}
			err = fmt.Errorf("failed to open socket connection to marketplace: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}
		defer conn.Close()

		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()

		if err := conn.WriteJSON(s.body); err != nil {
			err = fmt.Errorf("error sending message over socket: %w", err)
			span.RecordError(err)
			yield(nil, err)
			return
		}

		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return
				}
				err = fmt.Errorf("error reading socket message: %w", err)
				span.RecordError(err)
				yield(nil, err)
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
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
	}
}

func websocketEndpoint(baseURL string) (string, error) {
	endpoint, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch endpoint.Scheme {
	case "http":
		endpoint.Scheme = "ws"
	case "https":
		endpoint.Scheme = "wss"
	}
	endpoint.Path = strings.TrimSuffix(endpoint.Path, "/") + websocketPath
	return endpoint.String(), nil
}
