// Package budget provides the Budget Ledger: budgets, their lifecycle and the
// committed and spent amounts drawn on them by allocations.
package budget

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/amirasaad/treasury/pkg/service"
	"github.com/google/uuid"
)

// CreateInput describes a new budget. Status defaults to DRAFT.
type CreateInput struct {
	Name        string         `json:"name" validate:"required"`
	Description *string        `json:"description"`
	TotalAmount money.Amount   `json:"totalAmount"`
	Status      budget.Status  `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE"`
	StartDate   *time.Time     `json:"startDate"`
	EndDate     *time.Time     `json:"endDate"`
	OwnerID     *string        `json:"ownerId"`
	Metadata    map[string]any `json:"metadata"`
}

// UpdateInput patches a budget. Nil fields are left unchanged.
type UpdateInput struct {
	Name        *string        `json:"name"`
	Description *string        `json:"description"`
	TotalAmount *money.Amount  `json:"totalAmount"`
	Status      *budget.Status `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE CLOSED EXPIRED"`
	StartDate   *time.Time     `json:"startDate"`
	EndDate     *time.Time     `json:"endDate"`
	Metadata    map[string]any `json:"metadata"`
}

// Service is the Budget Ledger.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new budget Service.
func NewService(deps service.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.LoggerOrDefault().With("service", "budget")}
}

// Create opens a DRAFT or ACTIVE budget.
func (s *Service) Create(ctx context.Context, in CreateInput) (b *budget.Budget, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	b, err = budget.New().
		WithName(in.Name).
		WithDescription(in.Description).
		WithTotal(in.TotalAmount).
		WithStatus(in.Status).
		WithPeriod(in.StartDate, in.EndDate).
		WithOwner(in.OwnerID).
		WithMetadata(in.Metadata).
		Build()
	if err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BudgetRepository()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, b); err != nil {
			return err
		}
		uow.Record(budgetEvent(events.EventTypeBudgetCreated, b))
		return nil
	})
	if err != nil {
		s.logger.Error("Create failed", "name", in.Name, "error", err)
		return nil, err
	}
	s.logger.Info("budget created", "budget_id", b.ID, "status", b.Status, "total", b.TotalAmount)
	return b, nil
}

// FindAll lists budgets newest first.
func (s *Service) FindAll(ctx context.Context, filter repository.BudgetFilter) ([]*budget.Budget, error) {
	repo, err := s.uow.BudgetRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}

// FindByID returns the budget or a NotFound error.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	repo, err := s.uow.BudgetRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// Update patches a budget. The total may not drop below what is allocated,
// the period must be ordered and a status change must follow the lifecycle.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (b *budget.Budget, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		b, err = Mutate(ctx, uow, id, func(b *budget.Budget) error {
			return applyPatch(b, in)
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Activate moves a DRAFT budget to ACTIVE.
func (s *Service) Activate(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	return s.transition(ctx, id, budget.StatusActive)
}

// Close moves a budget to CLOSED.
func (s *Service) Close(ctx context.Context, id uuid.UUID) (*budget.Budget, error) {
	return s.transition(ctx, id, budget.StatusClosed)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, next budget.Status) (*budget.Budget, error) {
	return s.Update(ctx, id, UpdateInput{Status: &next})
}

// UpdateAllocatedAmount moves the committed amount by delta. The budget must
// be ACTIVE and the result must stay within [0, total].
func (s *Service) UpdateAllocatedAmount(ctx context.Context, id uuid.UUID, delta money.Amount) (b *budget.Budget, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		b, err = Mutate(ctx, uow, id, func(b *budget.Budget) error {
			return b.Reserve(delta)
		})
		return err
	})
	if err != nil {
		s.logger.Warn("UpdateAllocatedAmount rejected", "budget_id", id, "delta", delta, "error", err)
		return nil, err
	}
	return b, nil
}

// UpdateSpentAmount moves the spent amount by delta. Only increases are
// bounded by the total.
func (s *Service) UpdateSpentAmount(ctx context.Context, id uuid.UUID, delta money.Amount) (b *budget.Budget, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		b, err = Mutate(ctx, uow, id, func(b *budget.Budget) error {
			return b.AdjustSpent(delta)
		})
		return err
	})
	if err != nil {
		s.logger.Warn("UpdateSpentAmount rejected", "budget_id", id, "delta", delta, "error", err)
		return nil, err
	}
	return b, nil
}

// GetAvailableBudget returns total - allocated.
func (s *Service) GetAvailableBudget(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	b, err := s.FindByID(ctx, id)
	if err != nil {
		return money.Zero, err
	}
	return b.Available(), nil
}

// GetRemainingBudget returns total - spent.
func (s *Service) GetRemainingBudget(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	b, err := s.FindByID(ctx, id)
	if err != nil {
		return money.Zero, err
	}
	return b.Remaining(), nil
}

// CheckAndUpdateExpiredBudgets expires every ACTIVE budget whose end date has
// passed, in one unit of work, and returns how many changed.
func (s *Service) CheckAndUpdateExpiredBudgets(ctx context.Context) (int, error) {
	var count int
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BudgetRepository()
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		expired, err := repo.ListExpiredForUpdate(ctx, now)
		if err != nil {
			return err
		}
		for _, b := range expired {
			if err := b.TransitionTo(budget.StatusExpired); err != nil {
				return err
			}
			if err := repo.Update(ctx, b); err != nil {
				return err
			}
			evt := budgetEvent(events.EventTypeBudgetStatusChanged, b)
			evt.PreviousStatus = string(budget.StatusActive)
			uow.Record(evt)
		}
		count = len(expired)
		return nil
	})
	if err != nil {
		s.logger.Error("expired budget sweep failed", "error", err)
		return 0, err
	}
	if count > 0 {
		s.logger.Info("budgets expired", "count", count)
	}
	return count, nil
}

// Delete removes a DRAFT budget that has no allocations.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.BudgetRepository()
		if err != nil {
			return err
		}
		allocations, err := uow.AllocationRepository()
		if err != nil {
			return err
		}
		b, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		n, err := allocations.Count(ctx, repository.AllocationFilter{BudgetID: &id})
		if err != nil {
			return err
		}
		if err := b.CanDelete(n); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		uow.Record(budgetEvent(events.EventTypeBudgetDeleted, b))
		return nil
	})
}

// Mutate locks the budget inside uow, applies fn, saves it and records the
// matching event. A status change is reported as StatusChanged.
func Mutate(
	ctx context.Context,
	uow repository.UnitOfWork,
	id uuid.UUID,
	fn func(b *budget.Budget) error,
) (*budget.Budget, error) {
	repo, err := uow.BudgetRepository()
	if err != nil {
		return nil, err
	}
	b, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := b.Status
	if err := fn(b); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, b); err != nil {
		return nil, err
	}
	if b.Status != previous {
		evt := budgetEvent(events.EventTypeBudgetStatusChanged, b)
		evt.PreviousStatus = string(previous)
		uow.Record(evt)
	} else {
		uow.Record(budgetEvent(events.EventTypeBudgetUpdated, b))
	}
	return b, nil
}

func applyPatch(b *budget.Budget, in UpdateInput) error {
	if in.Name != nil {
		if *in.Name == "" {
			return domain.Validation("Budget name is required")
		}
		b.Name = *in.Name
	}
	if in.Description != nil {
		b.Description = in.Description
	}
	if in.TotalAmount != nil {
		if err := b.SetTotal(*in.TotalAmount); err != nil {
			return err
		}
	}
	if in.StartDate != nil || in.EndDate != nil {
		start, end := b.StartDate, b.EndDate
		if in.StartDate != nil {
			start = in.StartDate
		}
		if in.EndDate != nil {
			end = in.EndDate
		}
		if err := b.SetPeriod(start, end); err != nil {
			return err
		}
	}
	if in.Metadata != nil {
		b.Metadata = in.Metadata
	}
	if in.Status != nil && *in.Status != b.Status {
		if err := b.TransitionTo(*in.Status); err != nil {
			return err
		}
	}
	return nil
}

func budgetEvent(t events.EventType, b *budget.Budget) *events.BudgetEvent {
	evt := events.NewBudgetEvent(t)
	evt.BudgetID = b.ID
	evt.Name = b.Name
	evt.Status = string(b.Status)
	evt.TotalAmount = b.TotalAmount
	evt.AllocatedAmount = b.AllocatedAmount
	evt.SpentAmount = b.SpentAmount
	return evt
}
