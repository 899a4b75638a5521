package agui

import (
	"encoding/json"
	"fmt"
)

// Encoder serializes downstream events as server-sent-event records, one
// JSON object per `data:` frame.
type Encoder struct{}

// ContentType returns the media type for an encoded event stream.
func (Encoder) ContentType() string {
	return "text/event-stream"
}

// Encode renders one event as a `data: <json>\n\n` framed record.
func (Encoder) Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding %s event: %w", ev.Type(), err)
	}
	return fmt.Appendf(nil, "data: %s\n\n", data), nil
}
