package asset

import (
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// TransactionType classifies a movement of an asset.
type TransactionType string

const (
	TransactionDeposit      TransactionType = "DEPOSIT"
	TransactionWithdrawal   TransactionType = "WITHDRAWAL"
	TransactionAllocation   TransactionType = "ALLOCATION"
	TransactionDeallocation TransactionType = "DEALLOCATION"
	TransactionTransfer     TransactionType = "TRANSFER"
)

// TransactionStatus is the settlement state of an asset transaction.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusConfirmed TransactionStatus = "CONFIRMED"
	StatusFailed    TransactionStatus = "FAILED"
)

// Valid reports whether s is a known status.
func (s TransactionStatus) Valid() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusFailed
}

// Transaction records a deposit, withdrawal or other movement of an asset.
// It is mutable only while PENDING.
type Transaction struct {
	ID               uuid.UUID
	AssetID          uuid.UUID
	Type             TransactionType
	Amount           money.Amount
	Status           TransactionStatus
	FromAddress      *string
	ToAddress        *string
	BlockchainTxHash *string
	BlockNumber      *int64
	Reference        *string
	BudgetID         *uuid.UUID
	AllocationID     *uuid.UUID
	Metadata         map[string]any
	ProcessedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTransaction returns a PENDING record. Amount must be positive.
func NewTransaction(assetID uuid.UUID, typ TransactionType, amount money.Amount) (*Transaction, error) {
	if !amount.IsPositive() {
		return nil, domain.Validation("%s amount must be a positive number", typ.label())
	}
	now := time.Now().UTC()
	return &Transaction{
		ID:        uuid.New(),
		AssetID:   assetID,
		Type:      typ,
		Amount:    amount,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (t TransactionType) label() string {
	switch t {
	case TransactionDeposit:
		return "Deposit"
	case TransactionWithdrawal:
		return "Withdrawal"
	default:
		return "Transaction"
	}
}

// HasHash reports whether the record is backed by an on-chain transaction.
func (t *Transaction) HasHash() bool {
	return t.BlockchainTxHash != nil && *t.BlockchainTxHash != ""
}

// BalanceDelta is the signed change to the asset balance when this record
// settles. Only deposits and withdrawals move the balance.
func (t *Transaction) BalanceDelta() money.Amount {
	switch t.Type {
	case TransactionDeposit:
		return t.Amount
	case TransactionWithdrawal:
		return t.Amount.Neg()
	}
	return money.Zero
}

// Transition moves a PENDING record to status. It returns false when the
// record is already in that status. Any other change of a settled record is
// rejected.
func (t *Transaction) Transition(status TransactionStatus, blockNumber *int64) (bool, error) {
	if !status.Valid() {
		return false, domain.Validation("Invalid transaction status: %s", status)
	}
	if t.Status == status {
		return false, nil
	}
	if t.Status != StatusPending {
		return false, domain.BusinessLogic("Cannot change status of %s transaction to %s", t.Status, status)
	}
	now := time.Now().UTC()
	t.Status = status
	t.UpdatedAt = now
	if status == StatusConfirmed {
		t.ProcessedAt = &now
		if blockNumber != nil {
			t.BlockNumber = blockNumber
		}
	}
	return true, nil
}

// SettlesOnConfirm reports whether confirming the record must apply its
// balance delta. Records without a hash settle when they are recorded.
func (t *Transaction) SettlesOnConfirm() bool {
	return t.HasHash() && (t.Type == TransactionDeposit || t.Type == TransactionWithdrawal)
}
