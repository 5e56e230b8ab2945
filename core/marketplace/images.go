package marketplace

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel/attribute"
)

// FetchImage retrieves the binary asset behind an image reference along with
// its media type. Stream frames only carry identifiers; the bytes always
// come from this separate authenticated round trip.
func (c *Client) FetchImage(ctx context.Context, id string) ([]byte, string, error) {
	ctx, span := tracer.Start(ctx, "fetch image")
	defer span.End()
	span.SetAttributes(attribute.String("request.image_id", id))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/api/images/"+url.PathEscape(id), nil)
	if err != nil {
		err = fmt.Errorf("error creating request: %w", err)
		span.RecordError(err)
		return nil, "", err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("error fetching image: %w", err)
		span.RecordError(err)
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err = fmt.Errorf("non-OK HTTP status: %s", resp.Status)
		span.RecordError(err)
		return nil, "", err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err = fmt.Errorf("error reading image body: %w", err)
		span.RecordError(err)
		return nil, "", err
	}

	return data, resp.Header.Get("Content-Type"), nil
}
