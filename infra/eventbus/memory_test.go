package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryEventBus_DispatchesByType(t *testing.T) {
	bus := NewWithMemory(nil)
	var budgets, assets int
	bus.Register(events.EventTypeBudgetCreated, func(context.Context, events.Event) error {
		budgets++
		return nil
	})
	bus.Register(events.EventTypeAssetCreated, func(context.Context, events.Event) error {
		assets++
		return nil
	})

	ctx := context.Background()
	require.NoError(t, bus.Emit(ctx, events.NewBudgetEvent(events.EventTypeBudgetCreated)))
	require.NoError(t, bus.Emit(ctx, events.NewBudgetEvent(events.EventTypeBudgetCreated)))
	require.NoError(t, bus.Emit(ctx, events.NewBudgetEvent(events.EventTypeBudgetDeleted)))

	assert.Equal(t, 2, budgets)
	assert.Equal(t, 0, assets)
	assert.Len(t, bus.Published(), 3)

	bus.ClearPublished()
	assert.Empty(t, bus.Published())
}

func TestMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewWithMemory(nil)
	var reached bool
	bus.Register(events.EventTypeLedgerReconciled, func(context.Context, events.Event) error {
		return errors.New("boom")
	})
	bus.Register(events.EventTypeLedgerReconciled, func(context.Context, events.Event) error {
		panic("handler exploded")
	})
	bus.Register(events.EventTypeLedgerReconciled, func(context.Context, events.Event) error {
		reached = true
		return nil
	})

	require.NoError(t, bus.Emit(context.Background(), events.NewReconciledEvent()))
	assert.True(t, reached)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	evt := events.NewAllocationEvent(events.EventTypeAllocationDisbursed)
	evt.AllocationID = uuid.New()
	evt.Delta = money.MustParse("12.5")
	evt.Actor = "approver-1"

	raw, err := encodeEnvelope(evt)
	require.NoError(t, err)

	decoded, err := decodeEnvelope(raw, events.Factories())
	require.NoError(t, err)
	got, ok := decoded.(*events.AllocationEvent)
	require.True(t, ok)
	assert.Equal(t, evt.AllocationID, got.AllocationID)
	assert.Equal(t, events.EventTypeAllocationDisbursed, got.Type())
	assert.True(t, evt.Delta.Equal(got.Delta))
	assert.Equal(t, "approver-1", got.Actor)
}

func TestDecodeEnvelopeRejectsUnknownType(t *testing.T) {
	_, err := decodeEnvelope([]byte(`{"type":"Nope.Happened","payload":{}}`), events.Factories())
	require.ErrorIs(t, err, errUnknownEventType)

	_, err = decodeEnvelope([]byte(`not json`), events.Factories())
	require.Error(t, err)
}

func TestNaming(t *testing.T) {
	assert.Equal(t, "events:group:budget:created", groupNameFor("events", events.EventTypeBudgetCreated))
	assert.Equal(t, "treasury.allocation.disbursed", topicNameFor("treasury", events.EventTypeAllocationDisbursed))
	assert.Equal(t, "treasury.dlq.ledger.reconciled", dlqTopicNameFor("treasury", events.EventTypeLedgerReconciled))
}
