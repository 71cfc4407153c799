// Package events holds the notifications a unit of work emits after it commits.
package events

import (
	"time"

	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// Event is implemented by every outbound notification.
type Event interface {
	Type() EventType
}

// Meta is embedded in every event.
type Meta struct {
	ID         uuid.UUID `json:"id"`
	Kind       EventType `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
}

func newMeta(t EventType) Meta {
	return Meta{ID: uuid.New(), Kind: t, OccurredAt: time.Now().UTC()}
}

// Type implements Event.
func (m Meta) Type() EventType { return m.Kind }

// EventID returns the unique id stamped at construction.
func (m Meta) EventID() uuid.UUID { return m.ID }

// AssetEvent reports a change to an asset.
type AssetEvent struct {
	Meta
	AssetID          uuid.UUID    `json:"assetId"`
	Symbol           string       `json:"symbol"`
	Balance          money.Amount `json:"balance"`
	AllocatedBalance money.Amount `json:"allocatedBalance"`
	IsActive         bool         `json:"isActive"`
}

// NewAssetEvent stamps an AssetEvent of the given type.
func NewAssetEvent(t EventType) *AssetEvent {
	return &AssetEvent{Meta: newMeta(t)}
}

// BudgetEvent reports a change to a budget.
type BudgetEvent struct {
	Meta
	BudgetID        uuid.UUID    `json:"budgetId"`
	Name            string       `json:"name"`
	Status          string       `json:"status"`
	PreviousStatus  string       `json:"previousStatus,omitempty"`
	TotalAmount     money.Amount `json:"totalAmount"`
	AllocatedAmount money.Amount `json:"allocatedAmount"`
	SpentAmount     money.Amount `json:"spentAmount"`
}

// NewBudgetEvent stamps a BudgetEvent of the given type.
func NewBudgetEvent(t EventType) *BudgetEvent {
	return &BudgetEvent{Meta: newMeta(t)}
}

// AllocationEvent reports a change to an allocation. Actor is whoever
// approved, rejected or processed the change, when known.
type AllocationEvent struct {
	Meta
	AllocationID   uuid.UUID    `json:"allocationId"`
	BudgetID       uuid.UUID    `json:"budgetId"`
	AssetID        uuid.UUID    `json:"assetId"`
	Status         string       `json:"status"`
	PreviousStatus string       `json:"previousStatus,omitempty"`
	Amount         money.Amount `json:"amount"`
	SpentAmount    money.Amount `json:"spentAmount"`
	Delta          money.Amount `json:"delta"`
	Actor          string       `json:"actor,omitempty"`
}

// NewAllocationEvent stamps an AllocationEvent of the given type.
func NewAllocationEvent(t EventType) *AllocationEvent {
	return &AllocationEvent{Meta: newMeta(t)}
}

// AssetTransactionEvent reports a recorded deposit/withdrawal or a status change.
type AssetTransactionEvent struct {
	Meta
	TransactionID    uuid.UUID    `json:"transactionId"`
	AssetID          uuid.UUID    `json:"assetId"`
	Kind             string       `json:"kind"`
	Status           string       `json:"status"`
	Amount           money.Amount `json:"amount"`
	BlockchainTxHash string       `json:"blockchainTxHash,omitempty"`
}

// NewAssetTransactionEvent stamps an AssetTransactionEvent of the given type.
func NewAssetTransactionEvent(t EventType) *AssetTransactionEvent {
	return &AssetTransactionEvent{Meta: newMeta(t)}
}

// LedgerEvent reports a create, update or delete in the double-entry ledger.
type LedgerEvent struct {
	Meta
	TransactionID uuid.UUID `json:"transactionId"`
	Category      string    `json:"category"`
	Actor         string    `json:"actor,omitempty"`
}

// NewLedgerEvent stamps a LedgerEvent of the given type.
func NewLedgerEvent(t EventType) *LedgerEvent {
	return &LedgerEvent{Meta: newMeta(t)}
}

// ReconciledEvent summarises a reconciliation pass.
type ReconciledEvent struct {
	Meta
	AccountsChecked  int         `json:"accountsChecked"`
	MismatchAccounts []uuid.UUID `json:"mismatchAccounts"`
}

// NewReconciledEvent stamps a ReconciledEvent.
func NewReconciledEvent() *ReconciledEvent {
	return &ReconciledEvent{Meta: newMeta(EventTypeLedgerReconciled)}
}

// Factories returns a constructor per event type, used by bus consumers to
// decode payloads.
func Factories() map[EventType]func() Event {
	asset := func() Event { return &AssetEvent{} }
	budget := func() Event { return &BudgetEvent{} }
	allocation := func() Event { return &AllocationEvent{} }
	assetTx := func() Event { return &AssetTransactionEvent{} }
	ledger := func() Event { return &LedgerEvent{} }
	return map[EventType]func() Event{
		EventTypeAssetCreated:                  asset,
		EventTypeAssetUpdated:                  asset,
		EventTypeAssetDeactivated:              asset,
		EventTypeBudgetCreated:                 budget,
		EventTypeBudgetUpdated:                 budget,
		EventTypeBudgetStatusChanged:           budget,
		EventTypeBudgetDeleted:                 budget,
		EventTypeAllocationCreated:             allocation,
		EventTypeAllocationUpdated:             allocation,
		EventTypeAllocationStatusChanged:       allocation,
		EventTypeAllocationDisbursed:           allocation,
		EventTypeAllocationDeleted:             allocation,
		EventTypeAssetTransactionRecorded:      assetTx,
		EventTypeAssetTransactionStatusChanged: assetTx,
		EventTypeLedgerTransactionCreated:      ledger,
		EventTypeLedgerTransactionUpdated:      ledger,
		EventTypeLedgerTransactionDeleted:      ledger,
		EventTypeLedgerReconciled:              func() Event { return &ReconciledEvent{} },
	}
}
