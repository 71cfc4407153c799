package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/amirasaad/treasury/infra/initializer"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/money"
	assetsvc "github.com/amirasaad/treasury/pkg/service/asset"
	txsvc "github.com/amirasaad/treasury/pkg/service/transaction"
	"github.com/amirasaad/treasury/pkg/service/treasury"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	errUsage = errors.New("invalid arguments; run without arguments for usage")

	label = color.New(color.FgCyan).SprintFunc()
	good  = color.New(color.FgGreen).SprintFunc()
	warn  = color.New(color.FgYellow).SprintFunc()
	bad   = color.New(color.FgRed, color.Bold).SprintFunc()
)

const dateLayout = "2006-01-02"

func run(ctx context.Context, deps *initializer.Deps, args []string, w io.Writer) error {
	if len(args) == 0 {
		usage(w)
		return nil
	}
	t := deps.Treasury
	switch args[0] {
	case "asset":
		return assetCommand(ctx, t, args[1:], w)
	case "deposit", "withdraw":
		return transferCommand(ctx, t, args[0], args[1:], w)
	case "overview":
		o, err := t.GetOverview(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s\n", label("total:    "), o.TotalBalance)
		fmt.Fprintf(w, "%s %s\n", label("allocated:"), o.AllocatedBalance)
		fmt.Fprintf(w, "%s %s\n", label("available:"), good(o.AvailableBalance))
		fmt.Fprintf(w, "%s %d active budgets, %d approved allocations\n", label("budgets:  "),
			o.BudgetCount, o.ActiveAllocations)
		for _, tx := range o.RecentTransactions {
			printTransaction(w, tx)
		}
		return nil
	case "risk":
		m, err := t.CalculateRiskMetrics(ctx)
		if err != nil {
			return err
		}
		band := good(m.RiskAssessment)
		switch m.RiskAssessment {
		case treasury.RiskHigh:
			band = bad(m.RiskAssessment)
		case treasury.RiskMedium:
			band = warn(m.RiskAssessment)
		}
		fmt.Fprintf(w, "%s %d\n%s %d\n%s %.2f\n%s %s\n",
			label("diversification:"), m.DiversificationScore,
			label("allocation risk:"), m.AllocationRiskScore,
			label("liquidity:      "), m.LiquidityRatio,
			label("assessment:     "), band)
		return nil
	case "housekeeping":
		res, err := t.PerformHousekeeping(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "expired budgets: %d, pending transactions processed: %d\n",
			res.ExpiredBudgetsUpdated, res.PendingTransactionsProcessed)
		return nil
	case "ledger":
		return ledgerCommand(ctx, deps, args[1:], w)
	case "audit":
		if len(args) != 3 {
			return errUsage
		}
		from, err := time.Parse(dateLayout, args[1])
		if err != nil {
			return fmt.Errorf("invalid from date: %w", err)
		}
		to, err := time.Parse(dateLayout, args[2])
		if err != nil {
			return fmt.Errorf("invalid to date: %w", err)
		}
		r, err := t.GenerateAuditReport(ctx, from, to.Add(24*time.Hour-time.Nanosecond))
		if err != nil {
			return err
		}
		ts := r.TransactionSummary
		fmt.Fprintf(w, "%s %d deposits (%s), %d withdrawals (%s)\n", label("transactions:"),
			len(ts.Deposits), ts.TotalDeposited, len(ts.Withdrawals), ts.TotalWithdrawn)
		fmt.Fprintf(w, "%s %d total, %d active, %d closed, spent %s\n", label("budgets:     "),
			r.BudgetActivity.TotalBudgets, r.BudgetActivity.ActiveBudgets, r.BudgetActivity.ClosedBudgets,
			r.BudgetActivity.TotalSpentAmount)
		fmt.Fprintf(w, "%s %d approved, %d completed, spent %s\n", label("allocations: "),
			r.AllocationActivity.ApprovedAllocations, r.AllocationActivity.CompletedAllocations,
			r.AllocationActivity.TotalSpentAmount)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func assetCommand(ctx context.Context, t *treasury.Service, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "create":
		if len(args) < 3 {
			return errUsage
		}
		in := assetsvc.CreateInput{Name: args[1], Symbol: args[2]}
		if len(args) > 3 {
			balance, err := money.Parse(args[3])
			if err != nil {
				return err
			}
			in.Balance = balance
		}
		a, err := t.Assets().Create(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s %s balance=%s\n", good("created"), a.ID, a.Symbol, a.Balance)
		return nil
	case "list":
		assets, err := t.Assets().FindAll(ctx, false)
		if err != nil {
			return err
		}
		for _, a := range assets {
			fmt.Fprintf(w, "%s %-8s balance=%s allocated=%s available=%s\n",
				a.ID, label(a.Symbol), a.Balance, a.AllocatedBalance, good(a.Available()))
		}
		return nil
	default:
		return errUsage
	}
}

func transferCommand(ctx context.Context, t *treasury.Service, kind string, args []string, w io.Writer) error {
	if len(args) < 2 {
		return errUsage
	}
	assetID, err := uuid.Parse(args[0])
	if err != nil {
		return fmt.Errorf("invalid asset id: %w", err)
	}
	amount, err := money.Parse(args[1])
	if err != nil {
		return err
	}
	in := txsvc.TransferInput{AssetID: assetID, Amount: amount}
	if len(args) > 2 {
		in.BlockchainTxHash = &args[2]
	}

	var tx *asset.Transaction
	if kind == "deposit" {
		tx, err = t.ProcessDeposit(ctx, in)
	} else {
		tx, err = t.ProcessWithdrawal(ctx, in)
	}
	if err != nil {
		return err
	}
	printTransaction(w, tx)
	return nil
}

func ledgerCommand(ctx context.Context, deps *initializer.Deps, args []string, w io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "account":
		if len(args) != 2 {
			return errUsage
		}
		a, err := deps.Ledger.CreateAccount(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s %s\n", good("created"), a.ID, a.Name)
		return nil
	case "reconcile":
		res, err := deps.Ledger.ReconcileTransactions(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "checked %d accounts\n", res.AccountsChecked)
		for _, m := range res.Mismatches {
			fmt.Fprintf(w, "%s %s stored=%s computed=%s\n", bad("mismatch"), m.AccountID, m.Stored, m.Computed)
		}
		if len(res.Unreconciled) > 0 {
			fmt.Fprintf(w, "%s %d accounts with outstanding discrepancies\n", warn("unreconciled"), len(res.Unreconciled))
		}
		return nil
	default:
		return errUsage
	}
}

func printTransaction(w io.Writer, tx *asset.Transaction) {
	status := good(tx.Status)
	switch tx.Status {
	case asset.StatusPending:
		status = warn(tx.Status)
	case asset.StatusFailed:
		status = bad(tx.Status)
	}
	fmt.Fprintf(w, "%s %-10s %s %s\n", tx.ID, tx.Type, tx.Amount, status)
}
