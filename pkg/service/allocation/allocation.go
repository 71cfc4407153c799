// Package allocation provides the Allocation Engine. Every transition that
// moves funds locks the allocation, then its budget, then its asset, and
// applies all effects in one unit of work.
package allocation

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/allocation"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/amirasaad/treasury/pkg/service"
	assetsvc "github.com/amirasaad/treasury/pkg/service/asset"
	budgetsvc "github.com/amirasaad/treasury/pkg/service/budget"
	"github.com/google/uuid"
)

// CreateInput describes a new allocation. Status defaults to PENDING; APPROVED
// commits the funds immediately and records ApprovedBy.
type CreateInput struct {
	Title            string            `json:"title" validate:"required"`
	Description      *string           `json:"description"`
	BudgetID         uuid.UUID         `json:"budgetId" validate:"required"`
	AssetID          uuid.UUID         `json:"assetId" validate:"required"`
	Amount           money.Amount      `json:"amount"`
	Status           allocation.Status `json:"status" validate:"omitempty,oneof=PENDING APPROVED"`
	RecipientID      *string           `json:"recipientId"`
	RecipientAddress *string           `json:"recipientAddress"`
	Metadata         map[string]any    `json:"metadata"`
	// CreatedBy is the actor on the Created event. ApprovedBy is recorded
	// only when the allocation starts APPROVED.
	CreatedBy  string `json:"createdBy"`
	ApprovedBy string `json:"approvedBy"`
}

// UpdateInput patches descriptive fields and optionally moves the status.
// ActedBy is recorded as approver or processor of the status change.
type UpdateInput struct {
	Title            *string            `json:"title"`
	Description      *string            `json:"description"`
	RecipientID      *string            `json:"recipientId"`
	RecipientAddress *string            `json:"recipientAddress"`
	Metadata         map[string]any     `json:"metadata"`
	Status           *allocation.Status `json:"status" validate:"omitempty,oneof=PENDING APPROVED REJECTED COMPLETED CANCELLED"`
	ActedBy          string             `json:"actedBy"`
}

// DisbursementInput describes a spend-down of an approved allocation.
type DisbursementInput struct {
	Amount           money.Amount   `json:"amount"`
	BlockchainTxHash *string        `json:"blockchainTxHash"`
	BlockNumber      *int64         `json:"blockNumber"`
	Reference        *string        `json:"reference"`
	Metadata         map[string]any `json:"metadata"`
	ProcessedBy      string         `json:"processedBy"`
}

// Service is the Allocation Engine.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new allocation Service.
func NewService(deps service.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.LoggerOrDefault().With("service", "allocation")}
}

// Create records an allocation after checking that its budget and asset can
// cover the amount.
func (s *Service) Create(ctx context.Context, in CreateInput) (a *allocation.Allocation, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	a, err = allocation.New().
		WithTitle(in.Title).
		WithDescription(in.Description).
		WithBudget(in.BudgetID).
		WithAsset(in.AssetID).
		WithAmount(in.Amount).
		WithRecipient(in.RecipientID, in.RecipientAddress).
		WithMetadata(in.Metadata).
		Build()
	if err != nil {
		return nil, err
	}
	logger := s.logger.With("allocation_id", a.ID, "budget_id", a.BudgetID, "asset_id", a.AssetID)

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		if err := checkAvailability(ctx, uow, a); err != nil {
			return err
		}
		repo, err := uow.AllocationRepository()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		uow.Record(allocationEvent(events.EventTypeAllocationCreated, a, "", in.CreatedBy))

		if in.Status == allocation.StatusApproved {
			return s.transitionLocked(ctx, uow, a, allocation.StatusApproved, in.ApprovedBy)
		}
		return nil
	})
	if err != nil {
		logger.Warn("Create failed", "error", err)
		return nil, err
	}
	logger.Info("allocation created", "status", a.Status, "amount", a.Amount)
	return a, nil
}

// FindAll lists allocations newest first.
func (s *Service) FindAll(ctx context.Context, filter repository.AllocationFilter) ([]*allocation.Allocation, error) {
	repo, err := s.uow.AllocationRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}

// FindByID returns the allocation or a NotFound error.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*allocation.Allocation, error) {
	repo, err := s.uow.AllocationRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// GetAllocationTransactions returns the allocation's log, oldest first.
func (s *Service) GetAllocationTransactions(ctx context.Context, id uuid.UUID) ([]*allocation.Transaction, error) {
	if _, err := s.FindByID(ctx, id); err != nil {
		return nil, err
	}
	repo, err := s.uow.AllocationTransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.ListByAllocation(ctx, id)
}

// Approve commits the allocation's funds against its budget and asset.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, approvedBy string) (*allocation.Allocation, error) {
	return s.transition(ctx, id, allocation.StatusApproved, approvedBy)
}

// Reject declines a PENDING allocation. Nothing was committed, so nothing moves.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reviewedBy string) (*allocation.Allocation, error) {
	return s.transition(ctx, id, allocation.StatusRejected, reviewedBy)
}

// Cancel withdraws an allocation, releasing whatever is still unspent.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, cancelledBy string) (*allocation.Allocation, error) {
	return s.transition(ctx, id, allocation.StatusCancelled, cancelledBy)
}

// Complete closes an APPROVED allocation and refunds the unspent remainder.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, completedBy string) (*allocation.Allocation, error) {
	return s.transition(ctx, id, allocation.StatusCompleted, completedBy)
}

// Update patches descriptive fields and, when Status is set and differs,
// runs the status transition with its side effects.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (a *allocation.Allocation, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AllocationRepository()
		if err != nil {
			return err
		}
		a, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if in.Title != nil {
			if *in.Title == "" {
				return domain.Validation("Allocation title is required")
			}
			a.Title = *in.Title
		}
		if in.Description != nil {
			a.Description = in.Description
		}
		if in.RecipientID != nil {
			a.RecipientID = in.RecipientID
		}
		if in.RecipientAddress != nil {
			a.RecipientAddress = in.RecipientAddress
		}
		if in.Metadata != nil {
			a.Metadata = in.Metadata
		}
		a.UpdatedAt = time.Now().UTC()

		if in.Status != nil && *in.Status != a.Status {
			return s.transitionLocked(ctx, uow, a, *in.Status, in.ActedBy)
		}
		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		uow.Record(allocationEvent(events.EventTypeAllocationUpdated, a, "", in.ActedBy))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes a PENDING allocation together with its (empty) log.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AllocationRepository()
		if err != nil {
			return err
		}
		log, err := uow.AllocationTransactionRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := a.CanDelete(); err != nil {
			return err
		}
		if err := log.DeleteByAllocation(ctx, id); err != nil {
			return err
		}
		if err := repo.Delete(ctx, id); err != nil {
			return err
		}
		uow.Record(allocationEvent(events.EventTypeAllocationDeleted, a, "", ""))
		return nil
	})
}

// ProcessDisbursement spends part of an APPROVED allocation. The allocation
// row stays locked from validation to commit, so two disbursements of the
// same remainder cannot both succeed. Spending the whole remainder completes
// the allocation.
func (s *Service) ProcessDisbursement(
	ctx context.Context,
	id uuid.UUID,
	in DisbursementInput,
) (a *allocation.Allocation, err error) {
	logger := s.logger.With("allocation_id", id, "amount", in.Amount)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AllocationRepository()
		if err != nil {
			return err
		}
		a, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		completed, err := a.Disburse(in.Amount)
		if err != nil {
			return err
		}
		if _, err := budgetsvc.Mutate(ctx, uow, a.BudgetID, func(b *budget.Budget) error {
			return b.AdjustSpent(in.Amount)
		}); err != nil {
			return err
		}
		if err := repo.Update(ctx, a); err != nil {
			return err
		}

		entry := allocation.NewTransaction(a.ID, allocation.TransactionDisbursement, in.Amount, in.ProcessedBy)
		entry.BlockchainTxHash = in.BlockchainTxHash
		entry.BlockNumber = in.BlockNumber
		entry.Reference = in.Reference
		entry.Metadata = in.Metadata
		if err := appendLog(ctx, uow, entry); err != nil {
			return err
		}

		evt := allocationEvent(events.EventTypeAllocationDisbursed, a, "", in.ProcessedBy)
		evt.Delta = in.Amount
		uow.Record(evt)
		if completed {
			uow.Record(allocationEvent(events.EventTypeAllocationStatusChanged, a,
				allocation.StatusApproved, in.ProcessedBy))
		}
		return nil
	})
	if err != nil {
		logger.Warn("disbursement rejected", "error", err)
		return nil, err
	}
	logger.Info("disbursement processed", "spent", a.SpentAmount, "status", a.Status)
	return a, nil
}

func (s *Service) transition(
	ctx context.Context,
	id uuid.UUID,
	next allocation.Status,
	actor string,
) (a *allocation.Allocation, err error) {
	logger := s.logger.With("allocation_id", id, "to", next, "actor", actor)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AllocationRepository()
		if err != nil {
			return err
		}
		a, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		return s.transitionLocked(ctx, uow, a, next, actor)
	})
	if err != nil {
		logger.Warn("transition rejected", "error", err)
		return nil, err
	}
	logger.Info("allocation status changed")
	return a, nil
}

// transitionLocked moves an allocation the caller has already locked, then
// locks and adjusts its budget and asset when funds move.
func (s *Service) transitionLocked(
	ctx context.Context,
	uow repository.UnitOfWork,
	a *allocation.Allocation,
	next allocation.Status,
	actor string,
) error {
	previous := a.Status
	if next == allocation.StatusApproved {
		if err := checkAvailability(ctx, uow, a); err != nil {
			return err
		}
	}
	effect, err := a.TransitionTo(next, actor, time.Now().UTC())
	if err != nil {
		return err
	}

	repo, err := uow.AllocationRepository()
	if err != nil {
		return err
	}
	if err := repo.Update(ctx, a); err != nil {
		return err
	}

	evt := allocationEvent(events.EventTypeAllocationStatusChanged, a, previous, actor)
	if effect != nil {
		if err := applyEffect(ctx, uow, a, effect, actor); err != nil {
			return err
		}
		evt.Delta = effect.Delta
	}
	uow.Record(evt)
	return nil
}

func applyEffect(
	ctx context.Context,
	uow repository.UnitOfWork,
	a *allocation.Allocation,
	effect *allocation.Effect,
	actor string,
) error {
	if _, err := budgetsvc.Mutate(ctx, uow, a.BudgetID, func(b *budget.Budget) error {
		if effect.Delta.IsNegative() {
			return b.Release(effect.Delta.Neg())
		}
		return b.Reserve(effect.Delta)
	}); err != nil {
		return err
	}
	if _, err := assetsvc.Mutate(ctx, uow, a.AssetID, func(as *asset.Asset) error {
		return as.AdjustAllocated(effect.Delta)
	}); err != nil {
		return err
	}
	return appendLog(ctx, uow, allocation.NewTransaction(a.ID, effect.Kind, effect.Delta, actor))
}

// checkAvailability reads the budget and asset under lock, in that order.
func checkAvailability(ctx context.Context, uow repository.UnitOfWork, a *allocation.Allocation) error {
	budgets, err := uow.BudgetRepository()
	if err != nil {
		return err
	}
	assets, err := uow.AssetRepository()
	if err != nil {
		return err
	}
	b, err := budgets.GetForUpdate(ctx, a.BudgetID)
	if err != nil {
		return err
	}
	if available := b.Available(); available.LessThan(a.Amount) {
		return domain.BusinessLogic("Insufficient available budget. Available: %s, Requested: %s",
			available, a.Amount)
	}
	as, err := assets.GetForUpdate(ctx, a.AssetID)
	if err != nil {
		return err
	}
	if available := as.Available(); available.LessThan(a.Amount) {
		return domain.BusinessLogic("Insufficient available asset balance. Available: %s, Requested: %s",
			available, a.Amount)
	}
	return nil
}

func appendLog(ctx context.Context, uow repository.UnitOfWork, entry *allocation.Transaction) error {
	log, err := uow.AllocationTransactionRepository()
	if err != nil {
		return err
	}
	return log.Append(ctx, entry)
}

func allocationEvent(
	t events.EventType,
	a *allocation.Allocation,
	previous allocation.Status,
	actor string,
) *events.AllocationEvent {
	evt := events.NewAllocationEvent(t)
	evt.AllocationID = a.ID
	evt.BudgetID = a.BudgetID
	evt.AssetID = a.AssetID
	evt.Status = string(a.Status)
	evt.PreviousStatus = string(previous)
	evt.Amount = a.Amount
	evt.SpentAmount = a.SpentAmount
	evt.Actor = actor
	return evt
}
