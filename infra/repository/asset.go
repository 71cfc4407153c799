package repository

import (
	"context"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type assetRepository struct {
	store store[Asset]
}

// NewAssetRepository returns an AssetRepository bound to db.
func NewAssetRepository(db *gorm.DB) repository.AssetRepository {
	return &assetRepository{store: newStore[Asset](db, "Asset")}
}

func (r *assetRepository) Get(ctx context.Context, id uuid.UUID) (*asset.Asset, error) {
	m, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAssetToDomain(m), nil
}

func (r *assetRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*asset.Asset, error) {
	m, err := r.store.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAssetToDomain(m), nil
}

func (r *assetRepository) FindBySymbolAndContract(
	ctx context.Context,
	symbol string,
	contract *string,
) (*asset.Asset, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where("symbol = ?", symbol)
		if contract == nil {
			return db.Where("contract_address IS NULL").Limit(1)
		}
		return db.Where("contract_address = ?", *contract).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, domain.ErrNotFound
	}
	return mapAssetToDomain(&rows[0]), nil
}

func (r *assetRepository) List(ctx context.Context, includeInactive bool) ([]*asset.Asset, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		if !includeInactive {
			db = db.Where("is_active = ?", true)
		}
		return db.Order("created_at DESC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]*asset.Asset, 0, len(rows))
	for i := range rows {
		out = append(out, mapAssetToDomain(&rows[i]))
	}
	return out, nil
}

func (r *assetRepository) Create(ctx context.Context, a *asset.Asset) error {
	return r.store.create(ctx, mapAssetToModel(a))
}

func (r *assetRepository) Update(ctx context.Context, a *asset.Asset) error {
	return r.store.save(ctx, mapAssetToModel(a))
}

func mapAssetToModel(a *asset.Asset) *Asset {
	return &Asset{
		ID:               a.ID,
		Name:             a.Name,
		Symbol:           a.Symbol,
		Type:             string(a.Type),
		ContractAddress:  a.ContractAddress,
		ChainID:          a.ChainID,
		Decimals:         a.Decimals,
		Balance:          toDecimal(a.Balance),
		AllocatedBalance: toDecimal(a.AllocatedBalance),
		IsActive:         a.IsActive,
		Metadata:         a.Metadata,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func mapAssetToDomain(m *Asset) *asset.Asset {
	return &asset.Asset{
		ID:               m.ID,
		Name:             m.Name,
		Symbol:           m.Symbol,
		Type:             asset.Type(m.Type),
		ContractAddress:  m.ContractAddress,
		ChainID:          m.ChainID,
		Decimals:         m.Decimals,
		Balance:          m.Balance.Amount(),
		AllocatedBalance: m.AllocatedBalance.Amount(),
		IsActive:         m.IsActive,
		Metadata:         m.Metadata,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

type assetTransactionRepository struct {
	store store[AssetTransaction]
}

// NewAssetTransactionRepository returns an AssetTransactionRepository bound to db.
func NewAssetTransactionRepository(db *gorm.DB) repository.AssetTransactionRepository {
	return &assetTransactionRepository{store: newStore[AssetTransaction](db, "Transaction")}
}

func (r *assetTransactionRepository) Get(ctx context.Context, id uuid.UUID) (*asset.Transaction, error) {
	m, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAssetTxToDomain(m), nil
}

func (r *assetTransactionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*asset.Transaction, error) {
	m, err := r.store.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAssetTxToDomain(m), nil
}

func (r *assetTransactionRepository) List(
	ctx context.Context,
	filter repository.AssetTransactionFilter,
) ([]*asset.Transaction, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		if filter.AssetID != nil {
			db = db.Where("asset_id = ?", *filter.AssetID)
		}
		if filter.Type != "" {
			db = db.Where("type = ?", string(filter.Type))
		}
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.From != nil {
			db = db.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("created_at <= ?", *filter.To)
		}
		if filter.Limit > 0 {
			db = db.Limit(filter.Limit)
		}
		return db.Order("created_at DESC")
	})
	if err != nil {
		return nil, err
	}
	return mapAssetTxs(rows), nil
}

func (r *assetTransactionRepository) ListPendingWithHash(ctx context.Context) ([]*asset.Transaction, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.
			Where("status = ?", string(asset.StatusPending)).
			Where("blockchain_tx_hash IS NOT NULL AND blockchain_tx_hash <> ''").
			Order("created_at ASC")
	})
	if err != nil {
		return nil, err
	}
	return mapAssetTxs(rows), nil
}

// Volume sums in Go so the result keeps all 18 fractional digits on every dialect.
func (r *assetTransactionRepository) Volume(
	ctx context.Context,
	assetID *uuid.UUID,
	from, to time.Time,
) (repository.Volume, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Select("type", "amount").
			Where("status = ?", string(asset.StatusConfirmed)).
			Where("type IN ?", []string{string(asset.TransactionDeposit), string(asset.TransactionWithdrawal)}).
			Where("created_at BETWEEN ? AND ?", from, to)
		if assetID != nil {
			db = db.Where("asset_id = ?", *assetID)
		}
		return db
	})
	if err != nil {
		return repository.Volume{}, err
	}
	v := repository.Volume{Deposits: money.Zero, Withdrawals: money.Zero}
	for _, row := range rows {
		switch asset.TransactionType(row.Type) {
		case asset.TransactionDeposit:
			v.Deposits = v.Deposits.Add(row.Amount.Amount())
		case asset.TransactionWithdrawal:
			v.Withdrawals = v.Withdrawals.Add(row.Amount.Amount())
		}
	}
	return v, nil
}

func (r *assetTransactionRepository) Create(ctx context.Context, tx *asset.Transaction) error {
	return r.store.create(ctx, mapAssetTxToModel(tx))
}

func (r *assetTransactionRepository) Update(ctx context.Context, tx *asset.Transaction) error {
	return r.store.save(ctx, mapAssetTxToModel(tx))
}

func mapAssetTxs(rows []AssetTransaction) []*asset.Transaction {
	out := make([]*asset.Transaction, 0, len(rows))
	for i := range rows {
		out = append(out, mapAssetTxToDomain(&rows[i]))
	}
	return out
}

func mapAssetTxToModel(t *asset.Transaction) *AssetTransaction {
	return &AssetTransaction{
		ID:               t.ID,
		AssetID:          t.AssetID,
		Type:             string(t.Type),
		Amount:           toDecimal(t.Amount),
		Status:           string(t.Status),
		FromAddress:      t.FromAddress,
		ToAddress:        t.ToAddress,
		BlockchainTxHash: t.BlockchainTxHash,
		BlockNumber:      t.BlockNumber,
		Reference:        t.Reference,
		BudgetID:         t.BudgetID,
		AllocationID:     t.AllocationID,
		Metadata:         t.Metadata,
		ProcessedAt:      t.ProcessedAt,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
}

func mapAssetTxToDomain(m *AssetTransaction) *asset.Transaction {
	return &asset.Transaction{
		ID:               m.ID,
		AssetID:          m.AssetID,
		Type:             asset.TransactionType(m.Type),
		Amount:           m.Amount.Amount(),
		Status:           asset.TransactionStatus(m.Status),
		FromAddress:      m.FromAddress,
		ToAddress:        m.ToAddress,
		BlockchainTxHash: m.BlockchainTxHash,
		BlockNumber:      m.BlockNumber,
		Reference:        m.Reference,
		BudgetID:         m.BudgetID,
		AllocationID:     m.AllocationID,
		Metadata:         m.Metadata,
		ProcessedAt:      m.ProcessedAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
