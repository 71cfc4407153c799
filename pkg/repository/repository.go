package repository

import (
	"context"
	"time"

	"github.com/amirasaad/treasury/pkg/domain/allocation"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/domain/ledger"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// Every Get/GetForUpdate returns an error matching domain.ErrNotFound when the
// row is missing. GetForUpdate holds an exclusive row lock until the unit of
// work ends.

// AssetRepository defines data access for assets.
type AssetRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*asset.Asset, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*asset.Asset, error)
	// FindBySymbolAndContract matches a nil contract against native assets only.
	FindBySymbolAndContract(ctx context.Context, symbol string, contract *string) (*asset.Asset, error)
	List(ctx context.Context, includeInactive bool) ([]*asset.Asset, error)
	Create(ctx context.Context, a *asset.Asset) error
	Update(ctx context.Context, a *asset.Asset) error
}

// AssetTransactionFilter narrows asset transaction listings. Zero values match everything.
type AssetTransactionFilter struct {
	AssetID *uuid.UUID
	Type    asset.TransactionType
	Status  asset.TransactionStatus
	From    *time.Time
	To      *time.Time
	Limit   int
}

// Volume is the confirmed deposit and withdrawal flow over a period.
type Volume struct {
	Deposits    money.Amount `json:"deposits"`
	Withdrawals money.Amount `json:"withdrawals"`
}

// AssetTransactionRepository defines data access for deposit/withdrawal records.
type AssetTransactionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*asset.Transaction, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*asset.Transaction, error)
	List(ctx context.Context, filter AssetTransactionFilter) ([]*asset.Transaction, error)
	// ListPendingWithHash returns PENDING records backed by an on-chain hash.
	ListPendingWithHash(ctx context.Context) ([]*asset.Transaction, error)
	Volume(ctx context.Context, assetID *uuid.UUID, from, to time.Time) (Volume, error)
	Create(ctx context.Context, tx *asset.Transaction) error
	Update(ctx context.Context, tx *asset.Transaction) error
}

// BudgetFilter narrows budget listings.
type BudgetFilter struct {
	Status  budget.Status
	OwnerID string
}

// BudgetRepository defines data access for budgets.
type BudgetRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*budget.Budget, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*budget.Budget, error)
	List(ctx context.Context, filter BudgetFilter) ([]*budget.Budget, error)
	// ListExpiredForUpdate locks ACTIVE budgets whose end date is before now.
	ListExpiredForUpdate(ctx context.Context, now time.Time) ([]*budget.Budget, error)
	Count(ctx context.Context, status budget.Status) (int64, error)
	Create(ctx context.Context, b *budget.Budget) error
	Update(ctx context.Context, b *budget.Budget) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AllocationFilter narrows allocation listings.
type AllocationFilter struct {
	BudgetID    *uuid.UUID
	AssetID     *uuid.UUID
	Status      allocation.Status
	RecipientID string
	From        *time.Time
	To          *time.Time
}

// AllocationRepository defines data access for allocations.
type AllocationRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*allocation.Allocation, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*allocation.Allocation, error)
	List(ctx context.Context, filter AllocationFilter) ([]*allocation.Allocation, error)
	Count(ctx context.Context, filter AllocationFilter) (int64, error)
	Create(ctx context.Context, a *allocation.Allocation) error
	Update(ctx context.Context, a *allocation.Allocation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AllocationTransactionRepository is the append-only allocation log.
type AllocationTransactionRepository interface {
	Append(ctx context.Context, tx *allocation.Transaction) error
	ListByAllocation(ctx context.Context, allocationID uuid.UUID) ([]*allocation.Transaction, error)
	// DeleteByAllocation is used only when a PENDING allocation is removed.
	DeleteByAllocation(ctx context.Context, allocationID uuid.UUID) error
}

// LedgerAccountRepository defines data access for general-ledger accounts.
type LedgerAccountRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*ledger.Account, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Account, error)
	List(ctx context.Context) ([]*ledger.Account, error)
	// ListForUpdate locks every account in ascending id order.
	ListForUpdate(ctx context.Context) ([]*ledger.Account, error)
	// ComputedBalances sums credit - debit over all entries, per account.
	ComputedBalances(ctx context.Context) (map[uuid.UUID]money.Amount, error)
	Create(ctx context.Context, a *ledger.Account) error
	Update(ctx context.Context, a *ledger.Account) error
}

// LedgerTransactionFilter narrows ledger searches.
type LedgerTransactionFilter struct {
	StartDate   *time.Time
	EndDate     *time.Time
	Category    string
	AccountID   *uuid.UUID
	Description string
}

// LedgerTransactionRepository defines data access for ledger transactions and
// their entries. Transactions are always loaded with their entries.
type LedgerTransactionRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	// GetForUpdate reads the transaction and its entries with the
	// transaction row locked until the unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*ledger.Transaction, error)
	Find(ctx context.Context, filter LedgerTransactionFilter, page, limit int) ([]*ledger.Transaction, int64, error)
	Create(ctx context.Context, tx *ledger.Transaction) error
	// Update saves the header and replaces the entry set.
	Update(ctx context.Context, tx *ledger.Transaction) error
	Delete(ctx context.Context, id uuid.UUID) error
	// MarkReconciled flags every transaction reconciled except those with an
	// entry on one of the unreconciled accounts.
	MarkReconciled(ctx context.Context, unreconciled []uuid.UUID) error
	Report(ctx context.Context, start, end time.Time) ([]ledger.ReportLine, error)
}

// AuditLogRepository stores ledger audit records.
type AuditLogRepository interface {
	Create(ctx context.Context, log *ledger.AuditLog) error
	ListByEntity(ctx context.Context, entityID uuid.UUID) ([]*ledger.AuditLog, error)
}
