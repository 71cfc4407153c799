package repository

import (
	"context"
	"time"

	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type budgetRepository struct {
	store store[Budget]
}

// NewBudgetRepository returns a BudgetRepository bound to db.
func NewBudgetRepository(db *gorm.DB) repository.BudgetRepository {
	return &budgetRepository{store: newStore[Budget](db, "Budget")}
}

func (r *budgetRepository) Get(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	m, err := r.store.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapBudgetToDomain(m), nil
}

func (r *budgetRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	m, err := r.store.getForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapBudgetToDomain(m), nil
}

func (r *budgetRepository) List(ctx context.Context, filter repository.BudgetFilter) ([]*budget.Budget, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		if filter.Status != "" {
			db = db.Where("status = ?", string(filter.Status))
		}
		if filter.OwnerID != "" {
			db = db.Where("owner_id = ?", filter.OwnerID)
		}
		return db.Order("created_at DESC")
	})
	if err != nil {
		return nil, err
	}
	return mapBudgets(rows), nil
}

func (r *budgetRepository) ListExpiredForUpdate(ctx context.Context, now time.Time) ([]*budget.Budget, error) {
	rows, err := r.store.find(ctx, func(db *gorm.DB) *gorm.DB {
		return db.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ?", string(budget.StatusActive)).
			Where("end_date IS NOT NULL AND end_date < ?", now).
			Order("id")
	})
	if err != nil {
		return nil, err
	}
	return mapBudgets(rows), nil
}

func (r *budgetRepository) Count(ctx context.Context, status budget.Status) (int64, error) {
	return r.store.count(ctx, func(db *gorm.DB) *gorm.DB {
		if status != "" {
			db = db.Where("status = ?", string(status))
		}
		return db
	})
}

func (r *budgetRepository) Create(ctx context.Context, b *budget.Budget) error {
	return r.store.create(ctx, mapBudgetToModel(b))
}

func (r *budgetRepository) Update(ctx context.Context, b *budget.Budget) error {
	return r.store.save(ctx, mapBudgetToModel(b))
}

func (r *budgetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.delete(ctx, id)
}

func mapBudgets(rows []Budget) []*budget.Budget {
	out := make([]*budget.Budget, 0, len(rows))
	for i := range rows {
		out = append(out, mapBudgetToDomain(&rows[i]))
	}
	return out
}

func mapBudgetToModel(b *budget.Budget) *Budget {
	return &Budget{
		ID:              b.ID,
		Name:            b.Name,
		Description:     b.Description,
		TotalAmount:     toDecimal(b.TotalAmount),
		AllocatedAmount: toDecimal(b.AllocatedAmount),
		SpentAmount:     toDecimal(b.SpentAmount),
		Status:          string(b.Status),
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		OwnerID:         b.OwnerID,
		Metadata:        b.Metadata,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func mapBudgetToDomain(m *Budget) *budget.Budget {
	return &budget.Budget{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		TotalAmount:     m.TotalAmount.Amount(),
		AllocatedAmount: m.AllocatedAmount.Amount(),
		SpentAmount:     m.SpentAmount.Amount(),
		Status:          budget.Status(m.Status),
		StartDate:       m.StartDate,
		EndDate:         m.EndDate,
		OwnerID:         m.OwnerID,
		Metadata:        m.Metadata,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
