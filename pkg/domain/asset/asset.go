// Package asset holds the custodial asset aggregate and the deposit/withdrawal
// records that move its balance.
package asset

import (
	"strings"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// Type classifies an asset.
type Type string

const (
	TypeCryptocurrency Type = "cryptocurrency"
	TypeToken          Type = "token"
	TypeNFT            Type = "nft"
	TypeFiat           Type = "fiat"
)

// DefaultDecimals is used when a builder is not given a precision.
const DefaultDecimals = 18

// Valid reports whether t is a known asset type.
func (t Type) Valid() bool {
	switch t {
	case TypeCryptocurrency, TypeToken, TypeNFT, TypeFiat:
		return true
	}
	return false
}

// Asset is a fungible holding of the treasury.
//
// Invariants:
//   - 0 <= AllocatedBalance <= Balance.
//   - An asset is never removed once created; Deactivate hides it.
type Asset struct {
	ID               uuid.UUID
	Name             string
	Symbol           string
	Type             Type
	ContractAddress  *string
	ChainID          *string
	Decimals         int
	Balance          money.Amount
	AllocatedBalance money.Amount
	IsActive         bool
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Available returns Balance - AllocatedBalance.
func (a *Asset) Available() money.Amount {
	return a.Balance.Sub(a.AllocatedBalance)
}

// SetBalance overwrites the balance.
func (a *Asset) SetBalance(balance money.Amount) error {
	if balance.IsNegative() {
		return domain.Validation("Balance cannot be negative")
	}
	if balance.LessThan(a.AllocatedBalance) {
		return domain.Validation("Balance cannot be less than allocated balance. Allocated: %s, Requested: %s",
			a.AllocatedBalance, balance)
	}
	a.Balance = balance
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// AdjustAllocated moves AllocatedBalance by delta, keeping it inside [0, Balance].
func (a *Asset) AdjustAllocated(delta money.Amount) error {
	next := a.AllocatedBalance.Add(delta)
	if next.IsNegative() {
		return domain.Validation("Allocated balance cannot be negative")
	}
	if next.GreaterThan(a.Balance) {
		return domain.Validation("Allocated amount cannot exceed total balance")
	}
	a.AllocatedBalance = next
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyTransfer moves Balance by delta when a deposit or withdrawal settles.
func (a *Asset) ApplyTransfer(delta money.Amount) error {
	next := a.Balance.Add(delta)
	if next.IsNegative() {
		return domain.BusinessLogic("Withdrawal would result in negative balance")
	}
	if next.LessThan(a.AllocatedBalance) {
		return domain.BusinessLogic("Withdrawal would leave balance below allocated balance. Allocated: %s, Resulting: %s",
			a.AllocatedBalance, next)
	}
	a.Balance = next
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Deactivate soft-deletes the asset.
func (a *Asset) Deactivate() {
	a.IsActive = false
	a.UpdatedAt = time.Now().UTC()
}

// Builder constructs assets.
type Builder struct {
	asset Asset
}

// New returns a Builder for an active asset with a fresh ID.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{asset: Asset{
		ID:        uuid.New(),
		Type:      TypeCryptocurrency,
		Decimals:  DefaultDecimals,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

// WithID overrides the generated identifier.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.asset.ID = id
	return b
}

// WithName sets the display name.
func (b *Builder) WithName(name string) *Builder {
	b.asset.Name = strings.TrimSpace(name)
	return b
}

// WithSymbol sets the ticker symbol.
func (b *Builder) WithSymbol(symbol string) *Builder {
	b.asset.Symbol = strings.TrimSpace(symbol)
	return b
}

// WithType sets the asset type.
func (b *Builder) WithType(t Type) *Builder {
	if t != "" {
		b.asset.Type = t
	}
	return b
}

// WithContract sets the token contract and its chain. Empty values mean a
// native asset.
func (b *Builder) WithContract(address, chainID string) *Builder {
	if address != "" {
		b.asset.ContractAddress = &address
	}
	if chainID != "" {
		b.asset.ChainID = &chainID
	}
	return b
}

// WithDecimals sets the on-chain precision.
func (b *Builder) WithDecimals(decimals int) *Builder {
	b.asset.Decimals = decimals
	return b
}

// WithBalance seeds balances. Used when hydrating from storage and in tests.
func (b *Builder) WithBalance(balance, allocated money.Amount) *Builder {
	b.asset.Balance = balance
	b.asset.AllocatedBalance = allocated
	return b
}

// WithMetadata attaches free-form metadata.
func (b *Builder) WithMetadata(m map[string]any) *Builder {
	b.asset.Metadata = m
	return b
}

// Build validates the asset.
func (b *Builder) Build() (*Asset, error) {
	a := b.asset
	if a.Name == "" {
		return nil, domain.Validation("Asset name is required")
	}
	if a.Symbol == "" {
		return nil, domain.Validation("Asset symbol is required")
	}
	if !a.Type.Valid() {
		return nil, domain.Validation("Invalid asset type: %s", a.Type)
	}
	if a.Decimals < 0 || a.Decimals > int(money.Scale) {
		return nil, domain.Validation("Decimals must be between 0 and %d", money.Scale)
	}
	if a.Balance.IsNegative() {
		return nil, domain.Validation("Balance cannot be negative")
	}
	if a.AllocatedBalance.IsNegative() || a.AllocatedBalance.GreaterThan(a.Balance) {
		return nil, domain.Validation("Allocated balance must be between 0 and balance")
	}
	return &a, nil
}
