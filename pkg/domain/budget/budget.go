// Package budget holds the budget aggregate and its lifecycle.
package budget

import (
	"strings"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// Status is the lifecycle state of a budget.
type Status string

const (
	StatusDraft   Status = "DRAFT"
	StatusActive  Status = "ACTIVE"
	StatusClosed  Status = "CLOSED"
	StatusExpired Status = "EXPIRED"
)

var transitions = map[Status][]Status{
	StatusDraft:   {StatusActive, StatusClosed},
	StatusActive:  {StatusClosed, StatusExpired},
	StatusClosed:  {},
	StatusExpired: {StatusClosed},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the lifecycle allows moving from s to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Budget is a pool of funds drawn on by allocations.
//
// Invariants:
//   - 0 <= AllocatedAmount <= TotalAmount.
//   - 0 <= SpentAmount <= TotalAmount.
type Budget struct {
	ID              uuid.UUID
	Name            string
	Description     *string
	TotalAmount     money.Amount
	AllocatedAmount money.Amount
	SpentAmount     money.Amount
	Status          Status
	StartDate       *time.Time
	EndDate         *time.Time
	OwnerID         *string
	Metadata        map[string]any
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Available is the part of the budget not yet allocated.
func (b *Budget) Available() money.Amount {
	return b.TotalAmount.Sub(b.AllocatedAmount)
}

// Remaining is the part of the budget not yet spent.
func (b *Budget) Remaining() money.Amount {
	return b.TotalAmount.Sub(b.SpentAmount)
}

// TransitionTo moves the budget along its lifecycle.
func (b *Budget) TransitionTo(next Status) error {
	if !next.Valid() {
		return domain.Validation("Invalid budget status: %s", next)
	}
	if !b.Status.CanTransitionTo(next) {
		return domain.BusinessLogic("Invalid budget status transition from %s to %s", b.Status, next)
	}
	b.Status = next
	b.touch()
	return nil
}

// Reserve commits amount of the budget to an allocation. Only an ACTIVE
// budget accepts changes to its commitments.
func (b *Budget) Reserve(delta money.Amount) error {
	return b.adjustAllocated(delta)
}

// Release returns previously committed funds. Like Reserve it requires an
// ACTIVE budget.
func (b *Budget) Release(amount money.Amount) error {
	return b.adjustAllocated(amount.Neg())
}

func (b *Budget) adjustAllocated(delta money.Amount) error {
	if b.Status != StatusActive {
		return domain.BusinessLogic("Cannot update allocations for budget with status %s", b.Status)
	}
	next := b.AllocatedAmount.Add(delta)
	if next.GreaterThan(b.TotalAmount) {
		return domain.Validation("Allocated amount cannot exceed total budget amount")
	}
	if next.IsNegative() {
		return domain.Validation("Allocated amount cannot be negative")
	}
	b.AllocatedAmount = next
	b.touch()
	return nil
}

// AdjustSpent moves SpentAmount by delta. The upper bound is only checked
// when spending increases.
func (b *Budget) AdjustSpent(delta money.Amount) error {
	next := b.SpentAmount.Add(delta)
	if delta.IsPositive() && next.GreaterThan(b.TotalAmount) {
		return domain.Validation("Spent amount cannot exceed total budget amount")
	}
	if next.IsNegative() {
		return domain.Validation("Spent amount cannot be negative")
	}
	b.SpentAmount = next
	b.touch()
	return nil
}

// SetTotal changes TotalAmount without dropping below what is allocated or spent.
func (b *Budget) SetTotal(total money.Amount) error {
	if total.IsNegative() {
		return domain.Validation("Budget amount must be a non-negative number")
	}
	if total.LessThan(b.AllocatedAmount) {
		return domain.Validation("Total budget amount cannot be less than already allocated amount")
	}
	if total.LessThan(b.SpentAmount) {
		return domain.Validation("Total budget amount cannot be less than already spent amount")
	}
	b.TotalAmount = total
	b.touch()
	return nil
}

// SetPeriod changes the validity window.
func (b *Budget) SetPeriod(start, end *time.Time) error {
	if err := ValidatePeriod(start, end); err != nil {
		return err
	}
	b.StartDate, b.EndDate = start, end
	b.touch()
	return nil
}

// IsExpired reports whether an ACTIVE budget's end date has passed.
func (b *Budget) IsExpired(now time.Time) bool {
	return b.Status == StatusActive && b.EndDate != nil && b.EndDate.Before(now)
}

// CanDelete reports whether the budget may be removed given how many
// allocations reference it.
func (b *Budget) CanDelete(allocations int64) error {
	if b.Status != StatusDraft {
		return domain.BusinessLogic("Cannot delete budget with status %s", b.Status)
	}
	if allocations > 0 {
		return domain.BusinessLogic("Cannot delete budget with existing allocations")
	}
	return nil
}

func (b *Budget) touch() {
	b.UpdatedAt = time.Now().UTC()
}

// ValidatePeriod rejects a start date after the end date.
func ValidatePeriod(start, end *time.Time) error {
	if start != nil && end != nil && start.After(*end) {
		return domain.Validation("Start date cannot be after end date")
	}
	return nil
}

// Builder constructs budgets.
type Builder struct {
	budget Budget
}

// New returns a Builder for a DRAFT budget with a fresh ID.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{budget: Budget{
		ID:        uuid.New(),
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

// WithID overrides the generated identifier.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.budget.ID = id
	return b
}

// WithName sets the budget name.
func (b *Builder) WithName(name string) *Builder {
	b.budget.Name = strings.TrimSpace(name)
	return b
}

// WithDescription sets an optional description.
func (b *Builder) WithDescription(d *string) *Builder {
	b.budget.Description = d
	return b
}

// WithTotal sets the total amount available to allocate.
func (b *Builder) WithTotal(total money.Amount) *Builder {
	b.budget.TotalAmount = total
	return b
}

// WithAmounts seeds the committed and spent amounts. Used when hydrating and in tests.
func (b *Builder) WithAmounts(allocated, spent money.Amount) *Builder {
	b.budget.AllocatedAmount = allocated
	b.budget.SpentAmount = spent
	return b
}

// WithStatus sets the initial status. Empty keeps DRAFT.
func (b *Builder) WithStatus(s Status) *Builder {
	if s != "" {
		b.budget.Status = s
	}
	return b
}

// WithPeriod sets the optional start and end dates.
func (b *Builder) WithPeriod(start, end *time.Time) *Builder {
	b.budget.StartDate, b.budget.EndDate = start, end
	return b
}

// WithOwner records the owning user.
func (b *Builder) WithOwner(owner *string) *Builder {
	b.budget.OwnerID = owner
	return b
}

// WithMetadata attaches free-form metadata.
func (b *Builder) WithMetadata(m map[string]any) *Builder {
	b.budget.Metadata = m
	return b
}

// Build validates a new budget. Only DRAFT and ACTIVE are accepted as initial
// statuses.
func (b *Builder) Build() (*Budget, error) {
	bg := b.budget
	if bg.Name == "" {
		return nil, domain.Validation("Budget name is required")
	}
	if bg.TotalAmount.IsNegative() {
		return nil, domain.Validation("Budget amount must be a non-negative number")
	}
	if bg.Status != StatusDraft && bg.Status != StatusActive {
		return nil, domain.Validation("Budget must start as %s or %s", StatusDraft, StatusActive)
	}
	if bg.AllocatedAmount.IsNegative() || bg.AllocatedAmount.GreaterThan(bg.TotalAmount) ||
		bg.SpentAmount.IsNegative() || bg.SpentAmount.GreaterThan(bg.TotalAmount) {
		return nil, domain.Validation("Budget amounts must be between 0 and total amount")
	}
	if err := ValidatePeriod(bg.StartDate, bg.EndDate); err != nil {
		return nil, err
	}
	return &bg, nil
}
