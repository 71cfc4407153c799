package allocation

import (
	"time"

	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// TransactionType classifies an allocation log entry.
type TransactionType string

const (
	TransactionAllocation   TransactionType = "ALLOCATION"
	TransactionDisbursement TransactionType = "DISBURSEMENT"
	TransactionRefund       TransactionType = "REFUND"
	TransactionCancellation TransactionType = "CANCELLATION"
)

// Transaction is an append-only record of funds moved by an allocation.
// Rows are never updated; they are removed only with a PENDING allocation,
// which has none.
type Transaction struct {
	ID               uuid.UUID
	AllocationID     uuid.UUID
	Type             TransactionType
	Amount           money.Amount
	ProcessedAt      time.Time
	ProcessedBy      *string
	BlockchainTxHash *string
	BlockNumber      *int64
	Reference        *string
	Metadata         map[string]any
}

// NewTransaction stamps a log entry. Amount is stored as an absolute value.
func NewTransaction(allocationID uuid.UUID, typ TransactionType, amount money.Amount, processedBy string) *Transaction {
	tx := &Transaction{
		ID:           uuid.New(),
		AllocationID: allocationID,
		Type:         typ,
		Amount:       amount.Abs(),
		ProcessedAt:  time.Now().UTC(),
	}
	if processedBy != "" {
		tx.ProcessedBy = &processedBy
	}
	return tx
}
