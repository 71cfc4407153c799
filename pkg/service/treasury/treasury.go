// Package treasury is the facade over the asset, budget, allocation and
// transaction services: dashboard reads and the multi-step workflows that
// compose them. It owns no state.
package treasury

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/treasury/pkg/cache"
	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/allocation"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/domain/budget"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/amirasaad/treasury/pkg/service"
	allocationsvc "github.com/amirasaad/treasury/pkg/service/allocation"
	assetsvc "github.com/amirasaad/treasury/pkg/service/asset"
	budgetsvc "github.com/amirasaad/treasury/pkg/service/budget"
	txsvc "github.com/amirasaad/treasury/pkg/service/transaction"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	overviewKey = "treasury:overview"
	riskKey     = "treasury:risk"

	recentWindow = 7 * 24 * time.Hour
	recentLimit  = 10
)

// Overview is the dashboard summary across all active assets.
type Overview struct {
	Assets             []*asset.Asset       `json:"assets"`
	TotalBalance       money.Amount         `json:"totalBalance"`
	AllocatedBalance   money.Amount         `json:"allocatedBalance"`
	AvailableBalance   money.Amount         `json:"availableBalance"`
	BudgetCount        int                  `json:"budgetCount"`
	ActiveAllocations  int                  `json:"activeAllocations"`
	RecentTransactions []*asset.Transaction `json:"recentTransactions"`
}

// RiskBand is the qualitative risk assessment.
type RiskBand string

const (
	RiskLow    RiskBand = "Low Risk"
	RiskMedium RiskBand = "Medium Risk"
	RiskHigh   RiskBand = "High Risk"
)

// RiskMetrics scores the spread and commitment of treasury assets.
// Diversification and allocation risk are percentages rounded to integers;
// liquidity is available/allocated as a percentage, 100 when nothing is
// allocated.
type RiskMetrics struct {
	DiversificationScore int      `json:"diversificationScore"`
	AllocationRiskScore  int      `json:"allocationRiskScore"`
	LiquidityRatio       float64  `json:"liquidityRatio"`
	RiskAssessment       RiskBand `json:"riskAssessment"`
}

// TransactionSummary groups deposits and withdrawals of a period.
type TransactionSummary struct {
	Deposits       []*asset.Transaction `json:"deposits"`
	Withdrawals    []*asset.Transaction `json:"withdrawals"`
	TotalDeposited money.Amount         `json:"totalDeposited"`
	TotalWithdrawn money.Amount         `json:"totalWithdrawn"`
}

// BudgetActivity totals budgets; ClosedBudgets counts those closed in the period.
type BudgetActivity struct {
	TotalBudgets         int          `json:"totalBudgets"`
	ActiveBudgets        int          `json:"activeBudgets"`
	ClosedBudgets        int          `json:"closedBudgets"`
	TotalBudgetAmount    money.Amount `json:"totalBudgetAmount"`
	TotalAllocatedAmount money.Amount `json:"totalAllocatedAmount"`
	TotalSpentAmount     money.Amount `json:"totalSpentAmount"`
}

// AllocationActivity counts allocations approved or completed in the period.
type AllocationActivity struct {
	ApprovedAllocations  int          `json:"approvedAllocations"`
	CompletedAllocations int          `json:"completedAllocations"`
	TotalAllocatedAmount money.Amount `json:"totalAllocatedAmount"`
	TotalSpentAmount     money.Amount `json:"totalSpentAmount"`
}

// AuditReport is treasury activity over a period.
type AuditReport struct {
	From               time.Time          `json:"from"`
	To                 time.Time          `json:"to"`
	TransactionSummary TransactionSummary `json:"transactionSummary"`
	BudgetActivity     BudgetActivity     `json:"budgetActivity"`
	AllocationActivity AllocationActivity `json:"allocationActivity"`
}

// HousekeepingResult reports what one housekeeping run changed.
type HousekeepingResult struct {
	ExpiredBudgetsUpdated        int `json:"expiredBudgetsUpdated"`
	PendingTransactionsProcessed int `json:"pendingTransactionsProcessed"`
}

// Service is the Treasury facade.
type Service struct {
	assets       *assetsvc.Service
	budgets      *budgetsvc.Service
	allocations  *allocationsvc.Service
	transactions *txsvc.Service
	cache        *cache.Loader
	logger       *slog.Logger
}

// NewService wires the facade and the services it composes from deps.
func NewService(deps service.Deps) *Service {
	return &Service{
		assets:       assetsvc.NewService(deps),
		budgets:      budgetsvc.NewService(deps),
		allocations:  allocationsvc.NewService(deps),
		transactions: txsvc.NewService(deps),
		cache:        deps.Cache,
		logger:       deps.LoggerOrDefault().With("service", "treasury"),
	}
}

// Assets returns the asset service the facade delegates to.
func (s *Service) Assets() *assetsvc.Service { return s.assets }

// Budgets returns the budget service.
func (s *Service) Budgets() *budgetsvc.Service { return s.budgets }

// Allocations returns the allocation service.
func (s *Service) Allocations() *allocationsvc.Service { return s.allocations }

// Transactions returns the asset transaction service.
func (s *Service) Transactions() *txsvc.Service { return s.transactions }

// GetOverview sums active asset balances, counts active budgets and approved
// allocations and lists up to ten transactions from the last seven days.
// Reads run concurrently and take no locks.
func (s *Service) GetOverview(ctx context.Context) (*Overview, error) {
	return cache.GetOrLoad(ctx, s.cache, overviewKey, s.loadOverview)
}

func (s *Service) loadOverview(ctx context.Context) (*Overview, error) {
	var (
		out         Overview
		budgets     []*budget.Budget
		allocations []*allocation.Allocation
	)
	since := time.Now().UTC().Add(-recentWindow)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.Assets, err = s.assets.FindAll(gctx, false)
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.budgets.FindAll(gctx, repository.BudgetFilter{Status: budget.StatusActive})
		return err
	})
	g.Go(func() (err error) {
		allocations, err = s.allocations.FindAll(gctx, repository.AllocationFilter{Status: allocation.StatusApproved})
		return err
	})
	g.Go(func() (err error) {
		out.RecentTransactions, err = s.transactions.FindAll(gctx, repository.AssetTransactionFilter{
			From:  &since,
			Limit: recentLimit,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("GetOverview failed", "error", err)
		return nil, err
	}

	for _, a := range out.Assets {
		out.TotalBalance = out.TotalBalance.Add(a.Balance)
		out.AllocatedBalance = out.AllocatedBalance.Add(a.AllocatedBalance)
	}
	out.AvailableBalance = out.TotalBalance.Sub(out.AllocatedBalance)
	out.BudgetCount = len(budgets)
	out.ActiveAllocations = len(allocations)
	return &out, nil
}

// CalculateRiskMetrics scores the active assets.
func (s *Service) CalculateRiskMetrics(ctx context.Context) (*RiskMetrics, error) {
	return cache.GetOrLoad(ctx, s.cache, riskKey, func(ctx context.Context) (*RiskMetrics, error) {
		assets, err := s.assets.FindAll(ctx, false)
		if err != nil {
			s.logger.Error("CalculateRiskMetrics failed", "error", err)
			return nil, err
		}
		m := RiskMetricsFor(assets)
		return &m, nil
	})
}

// GenerateAuditReport summarises transactions, budgets and allocations over
// [from, to].
func (s *Service) GenerateAuditReport(ctx context.Context, from, to time.Time) (*AuditReport, error) {
	if to.Before(from) {
		return nil, domain.Validation("Report end date must not be before start date")
	}
	from, to = from.UTC(), to.UTC()
	var (
		txs         []*asset.Transaction
		budgets     []*budget.Budget
		allocations []*allocation.Allocation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		txs, err = s.transactions.FindAll(gctx, repository.AssetTransactionFilter{From: &from, To: &to})
		return err
	})
	g.Go(func() (err error) {
		budgets, err = s.budgets.FindAll(gctx, repository.BudgetFilter{})
		return err
	})
	g.Go(func() (err error) {
		allocations, err = s.allocations.FindAll(gctx, repository.AllocationFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("GenerateAuditReport failed", "error", err)
		return nil, err
	}

	report := &AuditReport{From: from, To: to}
	within := func(t time.Time) bool { return !t.Before(from) && !t.After(to) }

	ts := &report.TransactionSummary
	ts.Deposits, ts.Withdrawals = []*asset.Transaction{}, []*asset.Transaction{}
	for _, tx := range txs {
		switch tx.Type {
		case asset.TransactionDeposit:
			ts.Deposits = append(ts.Deposits, tx)
			ts.TotalDeposited = ts.TotalDeposited.Add(tx.Amount)
		case asset.TransactionWithdrawal:
			ts.Withdrawals = append(ts.Withdrawals, tx)
			ts.TotalWithdrawn = ts.TotalWithdrawn.Add(tx.Amount)
		}
	}

	ba := &report.BudgetActivity
	ba.TotalBudgets = len(budgets)
	for _, b := range budgets {
		switch {
		case b.Status == budget.StatusActive:
			ba.ActiveBudgets++
		case b.Status == budget.StatusClosed && within(b.UpdatedAt):
			ba.ClosedBudgets++
		}
		ba.TotalBudgetAmount = ba.TotalBudgetAmount.Add(b.TotalAmount)
		ba.TotalAllocatedAmount = ba.TotalAllocatedAmount.Add(b.AllocatedAmount)
		ba.TotalSpentAmount = ba.TotalSpentAmount.Add(b.SpentAmount)
	}

	aa := &report.AllocationActivity
	for _, a := range allocations {
		switch {
		case a.Status == allocation.StatusApproved && a.Approval != nil && within(a.Approval.At):
			aa.ApprovedAllocations++
		case a.Status == allocation.StatusCompleted && within(a.UpdatedAt):
			aa.CompletedAllocations++
		}
		aa.TotalAllocatedAmount = aa.TotalAllocatedAmount.Add(a.Amount)
		aa.TotalSpentAmount = aa.TotalSpentAmount.Add(a.SpentAmount)
	}
	return report, nil
}

// CreateBudgetWithAllocation creates a budget and then an allocation against
// it. The two steps commit separately; if the allocation fails the budget is
// kept and the error returned.
func (s *Service) CreateBudgetWithAllocation(
	ctx context.Context,
	budgetIn budgetsvc.CreateInput,
	allocationIn allocationsvc.CreateInput,
) (*budget.Budget, *allocation.Allocation, error) {
	b, err := s.budgets.Create(ctx, budgetIn)
	if err != nil {
		return nil, nil, err
	}
	allocationIn.BudgetID = b.ID
	a, err := s.allocations.Create(ctx, allocationIn)
	if err != nil {
		s.logger.Error("allocation for new budget failed", "budget_id", b.ID, "error", err)
		return b, nil, err
	}
	s.InvalidateDashboards(ctx)
	return b, a, nil
}

// ProcessBudgetApproval activates a DRAFT budget.
func (s *Service) ProcessBudgetApproval(ctx context.Context, budgetID uuid.UUID, approverID string) (*budget.Budget, error) {
	b, err := s.budgets.FindByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.Status != budget.StatusDraft {
		return nil, domain.BusinessLogic("Cannot approve budget with status %s", b.Status)
	}
	b, err = s.budgets.Activate(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("budget approved", "budget_id", budgetID, "approver", approverID)
	s.InvalidateDashboards(ctx)
	return b, nil
}

// ProcessAllocationApproval approves a PENDING allocation.
func (s *Service) ProcessAllocationApproval(
	ctx context.Context,
	allocationID uuid.UUID,
	approverID string,
) (*allocation.Allocation, error) {
	a, err := s.allocations.FindByID(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	if a.Status != allocation.StatusPending {
		return nil, domain.BusinessLogic("Cannot approve allocation with status %s", a.Status)
	}
	a, err = s.allocations.Approve(ctx, allocationID, approverID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("allocation approved", "allocation_id", allocationID, "approver", approverID)
	s.InvalidateDashboards(ctx)
	return a, nil
}

// ProcessDeposit records a deposit.
func (s *Service) ProcessDeposit(ctx context.Context, in txsvc.TransferInput) (*asset.Transaction, error) {
	tx, err := s.transactions.RecordDeposit(ctx, in)
	if err != nil {
		return nil, err
	}
	s.InvalidateDashboards(ctx)
	return tx, nil
}

// ProcessWithdrawal records a withdrawal.
func (s *Service) ProcessWithdrawal(ctx context.Context, in txsvc.TransferInput) (*asset.Transaction, error) {
	tx, err := s.transactions.RecordWithdrawal(ctx, in)
	if err != nil {
		return nil, err
	}
	s.InvalidateDashboards(ctx)
	return tx, nil
}

// PerformHousekeeping expires stale budgets and then resolves pending
// on-chain transactions.
func (s *Service) PerformHousekeeping(ctx context.Context) (*HousekeepingResult, error) {
	expired, err := s.budgets.CheckAndUpdateExpiredBudgets(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.transactions.ProcessPendingTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if expired > 0 || processed > 0 {
		s.InvalidateDashboards(ctx)
	}
	s.logger.Info("housekeeping completed", "expired_budgets", expired, "pending_processed", processed)
	return &HousekeepingResult{ExpiredBudgetsUpdated: expired, PendingTransactionsProcessed: processed}, nil
}

// InvalidateDashboards drops the cached overview and risk metrics.
func (s *Service) InvalidateDashboards(ctx context.Context) {
	s.cache.Invalidate(ctx, overviewKey)
	s.cache.Invalidate(ctx, riskKey)
}
