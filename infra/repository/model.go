package repository

import (
	"time"

	"github.com/google/uuid"
)

// Asset represents an asset record in the database.
type Asset struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name             string         `gorm:"size:255;not null"`
	Symbol           string         `gorm:"size:32;not null;index:idx_assets_symbol_contract"`
	Type             string         `gorm:"size:32;not null"`
	ContractAddress  *string        `gorm:"size:255;index:idx_assets_symbol_contract"`
	ChainID          *string        `gorm:"size:64"`
	Decimals         int            `gorm:"not null"`
	Balance          Decimal        `gorm:"not null"`
	AllocatedBalance Decimal        `gorm:"not null"`
	IsActive         bool           `gorm:"not null;index"`
	Metadata         map[string]any `gorm:"serializer:json"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (Asset) TableName() string { return "assets" }

// AssetTransaction represents a deposit, withdrawal or other asset movement.
type AssetTransaction struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	AssetID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Type             string    `gorm:"size:32;not null"`
	Amount           Decimal   `gorm:"not null"`
	Status           string    `gorm:"size:16;not null;index"`
	FromAddress      *string   `gorm:"size:255"`
	ToAddress        *string   `gorm:"size:255"`
	BlockchainTxHash *string   `gorm:"size:255;index"`
	BlockNumber      *int64
	Reference        *string        `gorm:"size:255"`
	BudgetID         *uuid.UUID     `gorm:"type:uuid"`
	AllocationID     *uuid.UUID     `gorm:"type:uuid"`
	Metadata         map[string]any `gorm:"serializer:json"`
	ProcessedAt      *time.Time
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time

	Asset Asset `gorm:"foreignKey:AssetID;constraint:OnDelete:RESTRICT"`
}

func (AssetTransaction) TableName() string { return "asset_transactions" }

// Budget represents a budget record in the database.
type Budget struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"size:255;not null"`
	Description     *string   `gorm:"type:text"`
	TotalAmount     Decimal   `gorm:"not null"`
	AllocatedAmount Decimal   `gorm:"not null"`
	SpentAmount     Decimal   `gorm:"not null"`
	Status          string    `gorm:"size:16;not null;index"`
	StartDate       *time.Time
	EndDate         *time.Time     `gorm:"index"`
	OwnerID         *string        `gorm:"size:255;index"`
	Metadata        map[string]any `gorm:"serializer:json"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (Budget) TableName() string { return "budgets" }

// Allocation represents an allocation record in the database. ApprovedBy and
// ApprovedAt are either both set or both NULL.
type Allocation struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	Title            string    `gorm:"size:255;not null"`
	Description      *string   `gorm:"type:text"`
	BudgetID         uuid.UUID `gorm:"type:uuid;not null;index"`
	AssetID          uuid.UUID `gorm:"type:uuid;not null;index"`
	Amount           Decimal   `gorm:"not null"`
	SpentAmount      Decimal   `gorm:"not null"`
	Status           string    `gorm:"size:16;not null;index"`
	RecipientID      *string   `gorm:"size:255;index"`
	RecipientAddress *string   `gorm:"size:255"`
	ApprovedBy       *string   `gorm:"size:255"`
	ApprovedAt       *time.Time
	Metadata         map[string]any `gorm:"serializer:json"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Budget Budget `gorm:"foreignKey:BudgetID;constraint:OnDelete:RESTRICT"`
	Asset  Asset  `gorm:"foreignKey:AssetID;constraint:OnDelete:RESTRICT"`
}

func (Allocation) TableName() string { return "allocations" }

// AllocationTransaction is an append-only allocation log row.
type AllocationTransaction struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	AllocationID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Type             string    `gorm:"size:16;not null"`
	Amount           Decimal   `gorm:"not null"`
	ProcessedAt      time.Time `gorm:"not null"`
	ProcessedBy      *string   `gorm:"size:255"`
	BlockchainTxHash *string   `gorm:"size:255"`
	BlockNumber      *int64
	Reference        *string        `gorm:"size:255"`
	Metadata         map[string]any `gorm:"serializer:json"`

	Allocation Allocation `gorm:"foreignKey:AllocationID;constraint:OnDelete:RESTRICT"`
}

func (AllocationTransaction) TableName() string { return "allocation_transactions" }

// LedgerAccount is a general-ledger account.
type LedgerAccount struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name         string    `gorm:"size:255;not null"`
	Balance      Decimal   `gorm:"not null"`
	Discrepancy  *Decimal
	ReconciledAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (LedgerAccount) TableName() string { return "ledger_accounts" }

// LedgerTransaction groups balanced ledger entries.
type LedgerTransaction struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Date        time.Time      `gorm:"not null;index"`
	Description string         `gorm:"type:text"`
	Category    string         `gorm:"size:128;index"`
	CreatedBy   string         `gorm:"size:255"`
	Reconciled  bool           `gorm:"not null"`
	Metadata    map[string]any `gorm:"serializer:json"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Entries []LedgerEntry `gorm:"foreignKey:TransactionID"`
}

func (LedgerTransaction) TableName() string { return "ledger_transactions" }

// LedgerEntry is one debit or credit line.
type LedgerEntry struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TransactionID uuid.UUID `gorm:"type:uuid;not null;index"`
	AccountID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Type          string    `gorm:"size:8;not null"`
	Amount        Decimal   `gorm:"not null"`

	Account LedgerAccount `gorm:"foreignKey:AccountID;constraint:OnDelete:RESTRICT"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

// AuditLog records a change to a ledger transaction.
type AuditLog struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey"`
	EntityName string         `gorm:"size:64;not null"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	Action     string         `gorm:"size:16;not null"`
	Changes    map[string]any `gorm:"serializer:json"`
	Actor      string         `gorm:"size:255"`
	Timestamp  time.Time      `gorm:"not null"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// Models lists every table, in dependency order, for AutoMigrate.
func Models() []any {
	return []any{
		&Asset{}, &Budget{}, &Allocation{}, &AllocationTransaction{},
		&AssetTransaction{}, &LedgerAccount{}, &LedgerTransaction{},
		&LedgerEntry{}, &AuditLog{},
	}
}
