package events

// EventType names an outbound domain event.
type EventType string

const (
	// Asset events
	EventTypeAssetCreated     EventType = "Asset.Created"
	EventTypeAssetUpdated     EventType = "Asset.Updated"
	EventTypeAssetDeactivated EventType = "Asset.Deactivated"

	// Budget events
	EventTypeBudgetCreated       EventType = "Budget.Created"
	EventTypeBudgetUpdated       EventType = "Budget.Updated"
	EventTypeBudgetStatusChanged EventType = "Budget.StatusChanged"
	EventTypeBudgetDeleted       EventType = "Budget.Deleted"

	// Allocation events
	EventTypeAllocationCreated       EventType = "Allocation.Created"
	EventTypeAllocationUpdated       EventType = "Allocation.Updated"
	EventTypeAllocationStatusChanged EventType = "Allocation.StatusChanged"
	EventTypeAllocationDisbursed     EventType = "Allocation.Disbursed"
	EventTypeAllocationDeleted       EventType = "Allocation.Deleted"

	// Asset transaction events
	EventTypeAssetTransactionRecorded      EventType = "AssetTransaction.Recorded"
	EventTypeAssetTransactionStatusChanged EventType = "AssetTransaction.StatusChanged"

	// Double-entry ledger events
	EventTypeLedgerTransactionCreated EventType = "LedgerTransaction.Created"
	EventTypeLedgerTransactionUpdated EventType = "LedgerTransaction.Updated"
	EventTypeLedgerTransactionDeleted EventType = "LedgerTransaction.Deleted"
	EventTypeLedgerReconciled         EventType = "Ledger.Reconciled"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}
