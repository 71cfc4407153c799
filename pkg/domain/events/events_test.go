package events_test

import (
	"encoding/json"
	"testing"

	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoriesCoverEveryType(t *testing.T) {
	f := events.Factories()
	for typ, ctor := range f {
		evt := ctor()
		require.NotNil(t, evt, typ)
	}
	assert.Len(t, f, 18)
}

func TestEventDecodesThroughFactory(t *testing.T) {
	evt := events.NewAllocationEvent(events.EventTypeAllocationDisbursed)
	evt.AllocationID = uuid.New()
	evt.Amount = money.FromInt(40)
	evt.SpentAmount = money.FromInt(30)
	evt.Status = "APPROVED"

	data, err := json.Marshal(evt)
	require.NoError(t, err)

	decoded := events.Factories()[evt.Type()]()
	require.NoError(t, json.Unmarshal(data, decoded))

	got, ok := decoded.(*events.AllocationEvent)
	require.True(t, ok)
	assert.Equal(t, events.EventTypeAllocationDisbursed, got.Type())
	assert.Equal(t, evt.AllocationID, got.AllocationID)
	assert.True(t, got.SpentAmount.Equal(money.FromInt(30)))
	assert.Equal(t, evt.ID, got.ID)
}
