package outbox

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	appoutbox "rentals/internal/app/outbox"
)

const defaultSource = "app://rentals"

// Envelope wraps a record's JSON payload in a CloudEvents 1.0 structured
// message and returns it with the broker headers.
func Envelope(record appoutbox.EventRecord, source string) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(record.Payload, &data); err != nil {
		return nil, nil, err
	}
	if source == "" {
		source = defaultSource
	}
	id := record.ID
	if id == "" {
		id = uuid.NewString()
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              id,
		"type":            record.Name + ".v1",
		"source":          source,
		"subject":         record.Aggregate,
		"time":            record.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := record.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range record.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	return payload, headers, nil
}

// TopicFor maps "booking.requested" to "<prefix>booking.events.v1".
func TopicFor(prefix, name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return prefix + base + ".events.v1"
}
