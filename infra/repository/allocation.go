package repository

import (
	"context"

	"github.com/amirasaad/treasury/pkg/domain/allocation"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type allocationRepository struct {
	store store[Allocation]
}

// NewAllocationRepository returns an AllocationRepository bound to db.
func NewAllocationRepository(db *gorm.DB) repository.AllocationRepository {
	return &allocationRepository{store: newStore[Allocation](db, "Allocation")}
}

func (r *allocationRepository) Get(ctx context.Context, id uuid.UUID) (*allocation.Allocation, error) {
	m, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAllocationToDomain(m), nil
}

func (r *allocationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*allocation.Allocation, error) {
	m, err := r.store.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapAllocationToDomain(m), nil
}

func allocationScope(filter repository.AllocationFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if filter.BudgetID != nil {
			db = db.Where("budget_id = ?", *filter.BudgetID)
		}
		if filter.AssetID != nil {
			db = db.Where("asset_id = ?", *filter.AssetID)
		}
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.RecipientID != "" {
			db = db.Where("recipient_id = ?", filter.RecipientID)
		}
		if filter.From != nil {
			db = db.Where("created_at >= ?", *filter.From)
		}
		if filter.To != nil {
			db = db.Where("created_at <= ?", *filter.To)
		}
		return db
	}
}

func (r *allocationRepository) List(
	ctx context.Context,
	filter repository.AllocationFilter,
) ([]*allocation.Allocation, error) {
	scope := allocationScope(filter)
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return scope(db).Order("created_at DESC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]*allocation.Allocation, 0, len(rows))
	for i := range rows {
		out = append(out, mapAllocationToDomain(&rows[i]))
	}
	return out, nil
}

func (r *allocationRepository) Count(ctx context.Context, filter repository.AllocationFilter) (int64, error) {
	return r.store.count(ctx, allocationScope(filter))
}

func (r *allocationRepository) Create(ctx context.Context, a *allocation.Allocation) error {
	return r.store.create(ctx, mapAllocationToModel(a))
}

func (r *allocationRepository) Update(ctx context.Context, a *allocation.Allocation) error {
	return r.store.save(ctx, mapAllocationToModel(a))
}

func (r *allocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.delete(ctx, id)
}

func mapAllocationToModel(a *allocation.Allocation) *Allocation {
	m := &Allocation{
		ID:               a.ID,
		Title:            a.Title,
		Description:      a.Description,
		BudgetID:         a.BudgetID,
		AssetID:          a.AssetID,
		Amount:           toDecimal(a.Amount),
		SpentAmount:      toDecimal(a.SpentAmount),
		Status:           string(a.Status),
		RecipientID:      a.RecipientID,
		RecipientAddress: a.RecipientAddress,
		Metadata:         a.Metadata,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
	if a.Approval != nil {
		by, at := a.Approval.By, a.Approval.At
		m.ApprovedBy = &by
		m.ApprovedAt = &at
	}
	return m
}

func mapAllocationToDomain(m *Allocation) *allocation.Allocation {
	a := &allocation.Allocation{
		ID:               m.ID,
		Title:            m.Title,
		Description:      m.Description,
		BudgetID:         m.BudgetID,
		AssetID:          m.AssetID,
		Amount:           m.Amount.Amount(),
		SpentAmount:      m.SpentAmount.Amount(),
		Status:           allocation.Status(m.Status),
		RecipientID:      m.RecipientID,
		RecipientAddress: m.RecipientAddress,
		Metadata:         m.Metadata,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
	if m.ApprovedAt != nil {
		a.Approval = &allocation.Approval{At: *m.ApprovedAt}
		if m.ApprovedBy != nil {
			a.Approval.By = *m.ApprovedBy
		}
	}
	return a
}

type allocationTransactionRepository struct {
	store store[AllocationTransaction]
}

// NewAllocationTransactionRepository returns the append-only allocation log bound to db.
func NewAllocationTransactionRepository(db *gorm.DB) repository.AllocationTransactionRepository {
	return &allocationTransactionRepository{store: newStore[AllocationTransaction](db, "AllocationTransaction")}
}

func (r *allocationTransactionRepository) Append(ctx context.Context, tx *allocation.Transaction) error {
	return r.store.create(ctx, &AllocationTransaction{
		ID:               tx.ID,
		AllocationID:     tx.AllocationID,
		Type:             string(tx.Type),
		Amount:           toDecimal(tx.Amount),
		ProcessedAt:      tx.ProcessedAt,
		ProcessedBy:      tx.ProcessedBy,
		BlockchainTxHash: tx.BlockchainTxHash,
		BlockNumber:      tx.BlockNumber,
		Reference:        tx.Reference,
		Metadata:         tx.Metadata,
	})
}

func (r *allocationTransactionRepository) ListByAllocation(
	ctx context.Context,
	allocationID uuid.UUID,
) ([]*allocation.Transaction, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("allocation_id = ?", allocationID).Order("processed_at ASC")
	})
	if err != nil {
		return nil, err
	}
	out := make([]*allocation.Transaction, 0, len(rows))
	for _, m := range rows {
		out = append(out, &allocation.Transaction{
			ID:               m.ID,
			AllocationID:     m.AllocationID,
			Type:             allocation.TransactionType(m.Type),
			Amount:           m.Amount.Amount(),
			ProcessedAt:      m.ProcessedAt,
			ProcessedBy:      m.ProcessedBy,
			BlockchainTxHash: m.BlockchainTxHash,
			BlockNumber:      m.BlockNumber,
			Reference:        m.Reference,
			Metadata:         m.Metadata,
		})
	}
	return out, nil
}

func (r *allocationTransactionRepository) DeleteByAllocation(ctx context.Context, allocationID uuid.UUID) error {
	return WrapError(func() error {
		return r.store.session(ctx).
			Where("allocation_id = ?", allocationID).
			Delete(&AllocationTransaction{}).Error
	})
}
