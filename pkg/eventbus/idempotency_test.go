package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithIdempotency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("skips a delivered event", func(t *testing.T) {
		t.Parallel()
		var calls int
		handler := WithIdempotency(func(context.Context, events.Event) error {
			calls++
			return nil
		}, NewIdempotencyTracker(), ByEventID, "test", nil)

		evt := events.NewBudgetEvent(events.EventTypeBudgetCreated)
		require.NoError(t, handler(ctx, evt))
		require.NoError(t, handler(ctx, evt))
		require.NoError(t, handler(ctx, events.NewBudgetEvent(events.EventTypeBudgetCreated)))
		assert.Equal(t, 2, calls)
	})

	t.Run("failure allows retry", func(t *testing.T) {
		t.Parallel()
		tracker := NewIdempotencyTracker()
		fail := true
		var calls int
		handler := WithIdempotency(func(context.Context, events.Event) error {
			calls++
			if fail {
				return errors.New("boom")
			}
			return nil
		}, tracker, ByEventID, "test", nil)

		evt := events.NewLedgerEvent(events.EventTypeLedgerTransactionCreated)
		require.Error(t, handler(ctx, evt))
		assert.False(t, tracker.Seen(ByEventID(evt)))

		fail = false
		require.NoError(t, handler(ctx, evt))
		assert.True(t, tracker.Seen(ByEventID(evt)))
		assert.Equal(t, 2, calls)
	})

	t.Run("empty key bypasses tracking", func(t *testing.T) {
		t.Parallel()
		var calls int
		handler := WithIdempotency(func(context.Context, events.Event) error {
			calls++
			return nil
		}, NewIdempotencyTracker(), func(events.Event) string { return "" }, "test", nil)

		evt := events.NewReconciledEvent()
		require.NoError(t, handler(ctx, evt))
		require.NoError(t, handler(ctx, evt))
		assert.Equal(t, 2, calls)
	})

	t.Run("concurrent deliveries run once", func(t *testing.T) {
		t.Parallel()
		var calls atomic.Int32
		handler := WithIdempotency(func(context.Context, events.Event) error {
			calls.Add(1)
			return nil
		}, NewIdempotencyTracker(), ByEventID, "test", nil)

		evt := events.NewAssetEvent(events.EventTypeAssetCreated)
		var wg sync.WaitGroup
		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				assert.NoError(t, handler(ctx, evt))
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), calls.Load())
	})
}
