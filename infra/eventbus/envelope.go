package eventbus

import (
	"encoding/json"
	"fmt"

	"github.com/amirasaad/treasury/pkg/domain/events"
)

// envelope is the wire format shared by the Redis and Kafka buses.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func encodeEnvelope(event events.Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}
	envBytes, err := json.Marshal(envelope{Type: event.Type().String(), Payload: data})
	if err != nil {
		return nil, fmt.Errorf("envelope marshal failed: %w", err)
	}
	return envBytes, nil
}

// errUnknownEventType is returned for envelopes no factory can decode.
var errUnknownEventType = fmt.Errorf("unknown event type")

func decodeEnvelope(raw []byte, factories map[events.EventType]func() events.Event) (events.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	constructor, ok := factories[events.EventType(env.Type)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", errUnknownEventType, env.Type)
	}
	evt := constructor()
	if err := json.Unmarshal(env.Payload, evt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return evt, nil
}
