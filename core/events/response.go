package events

import "encoding/json"

const (
	// KindTextDelta identifies streamed assistant response text.
	KindTextDelta Kind = "response.delta"
	// KindChartPayload identifies a chart specification for the in-progress turn.
	KindChartPayload Kind = "response.chart"
	// KindImageReference identifies an out-of-band image asset reference.
	KindImageReference Kind = "response.image"
)

// TextDelta carries an incremental fragment of assistant response text.
type TextDelta struct {
	Base
	Text string
}

// NewTextDelta creates a text delta event.
func NewTextDelta(text string) TextDelta {
	return TextDelta{Base: NewBase(KindTextDelta), Text: text}
}

// ChartPayload carries an opaque chart specification. A later chart payload
// replaces an earlier one within the same turn.
type ChartPayload struct {
	Base
	Spec json.RawMessage
}

// NewChartPayload creates a chart payload event.
func NewChartPayload(spec json.RawMessage) ChartPayload {
	return ChartPayload{Base: NewBase(KindChartPayload), Spec: spec}
}

// ImageReference points at an image asset by id. The frame never embeds
// binary data; the asset is retrieved by a separate authenticated fetch.
type ImageReference struct {
	Base
	ID       string
	MimeType string
	Title    string
}

// NewImageReference creates an image reference event.
func NewImageReference(id, mimeType, title string) ImageReference {
	return ImageReference{Base: NewBase(KindImageReference), ID: id, MimeType: mimeType, Title: title}
}
