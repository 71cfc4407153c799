// Package transaction provides the Asset Transaction Processor: deposits and
// withdrawals against an asset, settled immediately or, when backed by an
// on-chain hash, once the blockchain oracle confirms them.
package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/provider/blockchain"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/amirasaad/treasury/pkg/service"
	assetsvc "github.com/amirasaad/treasury/pkg/service/asset"
	"github.com/google/uuid"
)

// TransferInput describes a deposit or withdrawal.
type TransferInput struct {
	AssetID          uuid.UUID      `json:"assetId" validate:"required"`
	Amount           money.Amount   `json:"amount"`
	FromAddress      *string        `json:"fromAddress"`
	ToAddress        *string        `json:"toAddress"`
	BlockchainTxHash *string        `json:"blockchainTxHash"`
	BlockNumber      *int64         `json:"blockNumber"`
	Reference        *string        `json:"reference"`
	BudgetID         *uuid.UUID     `json:"budgetId"`
	AllocationID     *uuid.UUID     `json:"allocationId"`
	Metadata         map[string]any `json:"metadata"`
}

// Service is the Asset Transaction Processor.
type Service struct {
	uow    repository.UnitOfWork
	oracle blockchain.Oracle
	logger *slog.Logger
}

// NewService creates a new transaction Service. deps.Oracle is only needed by
// ProcessPendingTransactions.
func NewService(deps service.Deps) *Service {
	return &Service{
		uow:    deps.Uow,
		oracle: deps.Oracle,
		logger: deps.LoggerOrDefault().With("service", "transaction"),
	}
}

// RecordDeposit records a deposit. Without a hash the balance rises now and
// the record is CONFIRMED; with one it stays PENDING until confirmed.
func (s *Service) RecordDeposit(ctx context.Context, in TransferInput) (*asset.Transaction, error) {
	return s.record(ctx, asset.TransactionDeposit, in)
}

// RecordWithdrawal records a withdrawal. The available balance is checked
// under the asset row lock; settlement follows the same rule as deposits.
func (s *Service) RecordWithdrawal(ctx context.Context, in TransferInput) (*asset.Transaction, error) {
	return s.record(ctx, asset.TransactionWithdrawal, in)
}

func (s *Service) record(ctx context.Context, typ asset.TransactionType, in TransferInput) (tx *asset.Transaction, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	tx, err = asset.NewTransaction(in.AssetID, typ, in.Amount)
	if err != nil {
		return nil, err
	}
	tx.FromAddress = in.FromAddress
	tx.ToAddress = in.ToAddress
	tx.BlockchainTxHash = in.BlockchainTxHash
	tx.BlockNumber = in.BlockNumber
	tx.Reference = in.Reference
	tx.BudgetID = in.BudgetID
	tx.AllocationID = in.AllocationID
	tx.Metadata = in.Metadata
	logger := s.logger.With("type", typ, "asset_id", in.AssetID, "amount", in.Amount, "pending", tx.HasHash())

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		settle := func(a *asset.Asset) error {
			if typ == asset.TransactionWithdrawal {
				if available := a.Available(); available.LessThan(in.Amount) {
					return domain.BusinessLogic("Insufficient available balance. Available: %s, Requested: %s",
						available, in.Amount)
				}
			}
			if tx.HasHash() {
				return nil
			}
			return a.ApplyTransfer(tx.BalanceDelta())
		}
		if tx.HasHash() {
			assets, err := uow.AssetRepository()
			if err != nil {
				return err
			}
			a, err := assets.GetForUpdate(ctx, in.AssetID)
			if err != nil {
				return err
			}
			if err := settle(a); err != nil {
				return err
			}
		} else {
			if _, err := assetsvc.Mutate(ctx, uow, in.AssetID, settle); err != nil {
				return err
			}
			if _, err := tx.Transition(asset.StatusConfirmed, in.BlockNumber); err != nil {
				return err
			}
		}

		repo, err := uow.AssetTransactionRepository()
		if err != nil {
			return err
		}
		if err := repo.Create(ctx, tx); err != nil {
			return err
		}
		uow.Record(transactionEvent(events.EventTypeAssetTransactionRecorded, tx))
		return nil
	})
	if err != nil {
		logger.Warn("transaction rejected", "error", err)
		return nil, err
	}
	logger.Info("transaction recorded", "transaction_id", tx.ID, "status", tx.Status)
	return tx, nil
}

// UpdateTransactionStatus moves a PENDING record to status. Repeating the
// current status is a no-op. Confirming a hashed deposit or withdrawal applies
// its balance change now, and fails if that would overdraw the asset.
func (s *Service) UpdateTransactionStatus(
	ctx context.Context,
	id uuid.UUID,
	status asset.TransactionStatus,
	blockNumber *int64,
) (tx *asset.Transaction, err error) {
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AssetTransactionRepository()
		if err != nil {
			return err
		}
		tx, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		changed, err := tx.Transition(status, blockNumber)
		if err != nil || !changed {
			return err
		}
		if status == asset.StatusConfirmed && tx.SettlesOnConfirm() {
			if _, err := assetsvc.Mutate(ctx, uow, tx.AssetID, func(a *asset.Asset) error {
				return a.ApplyTransfer(tx.BalanceDelta())
			}); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, tx); err != nil {
			return err
		}
		uow.Record(transactionEvent(events.EventTypeAssetTransactionStatusChanged, tx))
		return nil
	})
	if err != nil {
		s.logger.Warn("UpdateTransactionStatus failed", "transaction_id", id, "status", status, "error", err)
		return nil, err
	}
	return tx, nil
}

// ProcessPendingTransactions asks the oracle about every PENDING record with
// a hash and confirms or fails it. Each record is handled on its own: an
// oracle or settlement error is logged and the record stays PENDING for the
// next sweep. It returns how many records changed status.
func (s *Service) ProcessPendingTransactions(ctx context.Context) (int, error) {
	if s.oracle == nil {
		return 0, domain.BusinessLogic("No blockchain oracle configured")
	}
	repo, err := s.uow.AssetTransactionRepository()
	if err != nil {
		return 0, err
	}
	pending, err := repo.ListPendingWithHash(ctx)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, tx := range pending {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		logger := s.logger.With("transaction_id", tx.ID, "hash", *tx.BlockchainTxHash)
		info, err := s.oracle.GetTransaction(ctx, *tx.BlockchainTxHash)
		if err != nil {
			logger.Warn("oracle lookup failed; will retry", "error", err)
			continue
		}

		var next asset.TransactionStatus
		switch {
		case info.Status.Confirmed():
			next = asset.StatusConfirmed
		case info.Status.Failed():
			next = asset.StatusFailed
		default:
			logger.Debug("still pending on chain", "chain_status", info.Status)
			continue
		}
		if _, err := s.UpdateTransactionStatus(ctx, tx.ID, next, info.BlockNumber); err != nil {
			logger.Error("failed to settle pending transaction", "status", next, "error", err)
			continue
		}
		processed++
	}
	if processed > 0 {
		s.logger.Info("pending transactions processed", "processed", processed, "scanned", len(pending))
	}
	return processed, nil
}

// FindAll lists transactions newest first.
func (s *Service) FindAll(ctx context.Context, filter repository.AssetTransactionFilter) ([]*asset.Transaction, error) {
	repo, err := s.uow.AssetTransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}

// FindByID returns the transaction or a NotFound error.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*asset.Transaction, error) {
	repo, err := s.uow.AssetTransactionRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// CalculateTransactionVolume sums confirmed deposits and withdrawals. A nil
// bound defaults to the start or end of the current calendar month.
func (s *Service) CalculateTransactionVolume(
	ctx context.Context,
	assetID *uuid.UUID,
	from, to *time.Time,
) (repository.Volume, error) {
	start, end := CurrentMonth(time.Now().UTC())
	if from != nil {
		start = from.UTC()
	}
	if to != nil {
		end = to.UTC()
	}
	repo, err := s.uow.AssetTransactionRepository()
	if err != nil {
		return repository.Volume{}, err
	}
	return repo.Volume(ctx, assetID, start, end)
}

// CurrentMonth returns the first and last instant of now's calendar month.
func CurrentMonth(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, start.AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func transactionEvent(t events.EventType, tx *asset.Transaction) *events.AssetTransactionEvent {
	evt := events.NewAssetTransactionEvent(t)
	evt.TransactionID = tx.ID
	evt.AssetID = tx.AssetID
	evt.Kind = string(tx.Type)
	evt.Status = string(tx.Status)
	evt.Amount = tx.Amount
	if tx.BlockchainTxHash != nil {
		evt.BlockchainTxHash = *tx.BlockchainTxHash
	}
	return evt
}
