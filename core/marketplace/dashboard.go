package marketplace

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

// FetchDashboard retrieves the dashboard document a completed response
// advertised. The document is opaque to this client and handed to the
// presentation layer as-is.
func (c *Client) FetchDashboard(ctx context.Context, conversationID int64) (json.RawMessage, error) {
	ctx, span := tracer.Start(ctx, "fetch dashboard")
	defer span.End()
	span.SetAttributes(attribute.Int64("request.conversation_id", conversationID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/conversations/"+strconv.FormatInt(conversationID, 10)+"/dashboard", nil)
	if err != nil {
		err = fmt.Errorf("error creating request: %w", err)
		span.RecordError(err)
		return nil, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error fetching dashboard: %w", err)
		span.RecordError(err)
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading dashboard body: %w", err)
		span.RecordError(err)
		return nil, err
	}

	return json.RawMessage(body), nil
}
