package eventbus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/eventbus"
)

// executeHandlers runs handlers in registration order. It reports whether
// all of them succeeded; a panicking handler counts as a failure.
func executeHandlers(
	ctx context.Context,
	logger *slog.Logger,
	evt events.Event,
	handlers []eventbus.HandlerFunc,
	msgID string,
) bool {
	success := true
	for _, handler := range handlers {
		if err := safeCall(ctx, handler, evt); err != nil {
			success = false
			logger.Error("handler error", "error", err, "event_type", evt.Type(), "msg_id", msgID)
		}
	}
	return success
}

func safeCall(ctx context.Context, handler eventbus.HandlerFunc, evt events.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return handler(ctx, evt)
}
