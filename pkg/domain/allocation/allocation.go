// Package allocation holds the allocation aggregate, its state machine and the
// append-only log of the funds it moved.
package allocation

import (
	"strings"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/google/uuid"
)

// Status is the lifecycle state of an allocation.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCompleted, StatusCancelled},
	StatusRejected:  {},
	StatusCompleted: {},
	StatusCancelled: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransitionTo reports whether the state machine allows s -> next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Approval records who approved an allocation and when. A nil *Approval
// means the allocation has not been approved.
type Approval struct {
	By string
	At time.Time
}

// Allocation is a slice of a budget, backed by one asset, disbursed in parts.
//
// Invariant: 0 <= SpentAmount <= Amount.
type Allocation struct {
	ID               uuid.UUID
	Title            string
	Description      *string
	BudgetID         uuid.UUID
	AssetID          uuid.UUID
	Amount           money.Amount
	SpentAmount      money.Amount
	Status           Status
	RecipientID      *string
	RecipientAddress *string
	Approval         *Approval
	Metadata         map[string]any
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Remaining is Amount - SpentAmount.
func (a *Allocation) Remaining() money.Amount {
	return a.Amount.Sub(a.SpentAmount)
}

// Effect is the funds movement a transition causes. Delta is the signed
// change to Budget.AllocatedAmount and Asset.AllocatedBalance; the log entry
// records its absolute value.
type Effect struct {
	Kind  TransactionType
	Delta money.Amount
}

// TransitionTo moves the allocation to next and returns the funds movement
// the caller must apply in the same unit of work, or nil if there is none.
// actor is recorded as the approver when next is APPROVED.
func (a *Allocation) TransitionTo(next Status, actor string, at time.Time) (*Effect, error) {
	if !next.Valid() {
		return nil, domain.Validation("Invalid allocation status: %s", next)
	}
	if !a.Status.CanTransitionTo(next) {
		return nil, domain.BusinessLogic("Invalid allocation status transition from %s to %s", a.Status, next)
	}

	var effect *Effect
	switch {
	case next == StatusApproved:
		a.Approval = &Approval{By: actor, At: at}
		effect = &Effect{Kind: TransactionAllocation, Delta: a.Amount}
	case next == StatusCancelled && a.Status == StatusApproved:
		if release := a.Remaining(); release.IsPositive() {
			effect = &Effect{Kind: TransactionCancellation, Delta: release.Neg()}
		}
	case next == StatusCompleted:
		if refund := a.Remaining(); refund.IsPositive() {
			effect = &Effect{Kind: TransactionRefund, Delta: refund.Neg()}
		}
	}

	a.Status = next
	a.UpdatedAt = at
	return effect, nil
}

// Disburse spends amount of the allocation. It reports whether the allocation
// became fully spent and was completed.
func (a *Allocation) Disburse(amount money.Amount) (bool, error) {
	if a.Status != StatusApproved {
		return false, domain.BusinessLogic("Cannot process disbursement for allocation with status %s", a.Status)
	}
	if !amount.IsPositive() {
		return false, domain.Validation("Disbursement amount must be a positive number")
	}
	remaining := a.Remaining()
	if amount.GreaterThan(remaining) {
		return false, domain.BusinessLogic("Insufficient remaining allocation. Remaining: %s, Requested: %s",
			remaining, amount)
	}
	a.SpentAmount = a.SpentAmount.Add(amount)
	a.UpdatedAt = time.Now().UTC()
	if a.SpentAmount.Equal(a.Amount) {
		a.Status = StatusCompleted
		return true, nil
	}
	return false, nil
}

// CanDelete rejects deletion of anything but a PENDING allocation.
func (a *Allocation) CanDelete() error {
	if a.Status != StatusPending {
		return domain.BusinessLogic("Cannot delete allocation with status %s", a.Status)
	}
	return nil
}

// Builder constructs PENDING allocations.
type Builder struct {
	allocation Allocation
}

// New returns a Builder for a PENDING allocation with a fresh ID.
func New() *Builder {
	now := time.Now().UTC()
	return &Builder{allocation: Allocation{
		ID:        uuid.New(),
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}}
}

// WithID overrides the generated identifier.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.allocation.ID = id
	return b
}

// WithTitle sets the title.
func (b *Builder) WithTitle(title string) *Builder {
	b.allocation.Title = strings.TrimSpace(title)
	return b
}

// WithDescription sets an optional description.
func (b *Builder) WithDescription(d *string) *Builder {
	b.allocation.Description = d
	return b
}

// WithBudget sets the budget the allocation draws on.
func (b *Builder) WithBudget(id uuid.UUID) *Builder {
	b.allocation.BudgetID = id
	return b
}

// WithAsset sets the asset that funds the allocation.
func (b *Builder) WithAsset(id uuid.UUID) *Builder {
	b.allocation.AssetID = id
	return b
}

// WithAmount sets the allocated amount.
func (b *Builder) WithAmount(amount money.Amount) *Builder {
	b.allocation.Amount = amount
	return b
}

// WithRecipient records who receives disbursements.
func (b *Builder) WithRecipient(id, address *string) *Builder {
	b.allocation.RecipientID = id
	b.allocation.RecipientAddress = address
	return b
}

// WithMetadata attaches free-form metadata.
func (b *Builder) WithMetadata(m map[string]any) *Builder {
	b.allocation.Metadata = m
	return b
}

// Build validates the allocation.
func (b *Builder) Build() (*Allocation, error) {
	a := b.allocation
	switch {
	case a.Title == "":
		return nil, domain.Validation("Allocation title is required")
	case a.BudgetID == uuid.Nil:
		return nil, domain.Validation("Budget ID is required")
	case a.AssetID == uuid.Nil:
		return nil, domain.Validation("Asset ID is required")
	case !a.Amount.IsPositive():
		return nil, domain.Validation("Allocation amount must be a positive number")
	}
	return &a, nil
}
