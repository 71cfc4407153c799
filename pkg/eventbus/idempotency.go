package eventbus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// KeyExtractor extracts an idempotency key from an event.
type KeyExtractor func(events.Event) string

// ByEventID keys events by the id stamped in their Meta.
func ByEventID(e events.Event) string {
	if identified, ok := e.(interface{ EventID() uuid.UUID }); ok && identified.EventID() != uuid.Nil {
		return identified.EventID().String()
	}
	return ""
}

// IdempotencyTracker tracks processed events by key.
type IdempotencyTracker struct {
	processed sync.Map
	inflight  singleflight.Group
}

// NewIdempotencyTracker creates a new idempotency tracker.
func NewIdempotencyTracker() *IdempotencyTracker {
	return &IdempotencyTracker{}
}

// Seen reports whether key has been processed successfully.
func (t *IdempotencyTracker) Seen(key string) bool {
	_, ok := t.processed.Load(key)
	return ok
}

// WithIdempotency wraps handler so each key is handled at most once.
// Concurrent deliveries of one key share a single in-flight call, and a
// failed attempt leaves the key unprocessed so redelivery retries it.
func WithIdempotency(
	handler HandlerFunc,
	tracker *IdempotencyTracker,
	keyExtractor KeyExtractor,
	handlerName string,
	logger *slog.Logger,
) HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e events.Event) error {
		key := keyExtractor(e)
		if key == "" {
			return handler(ctx, e)
		}

		log := logger.With("handler", handlerName, "event_type", e.Type(), "idempotency_key", key)
		if tracker.Seen(key) {
			log.Info("🔁 [SKIP] Event already processed")
			return nil
		}

		_, err, _ := tracker.inflight.Do(key, func() (any, error) {
			if tracker.Seen(key) {
				return nil, nil
			}
			if err := handler(ctx, e); err != nil {
				return nil, err
			}
			tracker.processed.Store(key, struct{}{})
			return nil, nil
		})
		return err
	}
}
