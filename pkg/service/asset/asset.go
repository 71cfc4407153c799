// Package asset provides the Asset Ledger: custodial holdings, their balances
// and the part of each balance committed to allocations.
//
// Every balance mutation locks the asset row for the rest of the unit of work.
package asset

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amirasaad/treasury/pkg/domain"
	"github.com/amirasaad/treasury/pkg/domain/asset"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/repository"
	"github.com/amirasaad/treasury/pkg/service"
	"github.com/google/uuid"
)

// CreateInput describes a new asset.
type CreateInput struct {
	Name            string         `json:"name" validate:"required"`
	Symbol          string         `json:"symbol" validate:"required"`
	Type            asset.Type     `json:"type" validate:"omitempty,oneof=cryptocurrency token nft fiat"`
	ContractAddress string         `json:"contractAddress"`
	ChainID         string         `json:"chainId"`
	Decimals        *int           `json:"decimals" validate:"omitempty,min=0,max=18"`
	Balance         money.Amount   `json:"balance"`
	Metadata        map[string]any `json:"metadata"`
}

// UpdateInput patches descriptive fields. Nil fields are left unchanged;
// balances change only through UpdateBalance and UpdateAllocatedBalance.
type UpdateInput struct {
	Name            *string        `json:"name"`
	Symbol          *string        `json:"symbol"`
	Type            *asset.Type    `json:"type" validate:"omitempty,oneof=cryptocurrency token nft fiat"`
	ContractAddress *string        `json:"contractAddress"`
	ChainID         *string        `json:"chainId"`
	Decimals        *int           `json:"decimals" validate:"omitempty,min=0,max=18"`
	Metadata        map[string]any `json:"metadata"`
}

// Service is the Asset Ledger.
type Service struct {
	uow    repository.UnitOfWork
	logger *slog.Logger
}

// NewService creates a new asset Service.
func NewService(deps service.Deps) *Service {
	return &Service{uow: deps.Uow, logger: deps.LoggerOrDefault().With("service", "asset")}
}

// Create registers an asset. The (symbol, contract address) pair must be
// unique; a missing contract address identifies the chain's native asset.
func (s *Service) Create(ctx context.Context, in CreateInput) (a *asset.Asset, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	builder := asset.New().
		WithName(in.Name).
		WithSymbol(in.Symbol).
		WithType(in.Type).
		WithContract(in.ContractAddress, in.ChainID).
		WithBalance(in.Balance, money.Zero).
		WithMetadata(in.Metadata)
	if in.Decimals != nil {
		builder = builder.WithDecimals(*in.Decimals)
	}
	a, err = builder.Build()
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AssetRepository()
		if err != nil {
			return err
		}
		if err := ensureUnique(ctx, repo, a.Symbol, a.ContractAddress, uuid.Nil); err != nil {
			return err
		}
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		uow.Record(assetEvent(events.EventTypeAssetCreated, a))
		return nil
	})
	if err != nil {
		s.logger.Error("Create failed", "symbol", in.Symbol, "error", err)
		return nil, err
	}
	s.logger.Info("asset created", "asset_id", a.ID, "symbol", a.Symbol)
	return a, nil
}

// FindAll lists assets newest first, hiding deactivated ones unless asked.
func (s *Service) FindAll(ctx context.Context, includeInactive bool) ([]*asset.Asset, error) {
	repo, err := s.uow.AssetRepository()
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, includeInactive)
}

// FindByID returns the asset or a NotFound error.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (*asset.Asset, error) {
	repo, err := s.uow.AssetRepository()
	if err != nil {
		return nil, err
	}
	return repo.Get(ctx, id)
}

// FindBySymbolAndContract looks an asset up by its identifying pair.
func (s *Service) FindBySymbolAndContract(ctx context.Context, symbol string, contract *string) (*asset.Asset, error) {
	repo, err := s.uow.AssetRepository()
	if err != nil {
		return nil, err
	}
	return repo.FindBySymbolAndContract(ctx, symbol, contract)
}

// Update patches descriptive fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (a *asset.Asset, err error) {
	if err = service.Validate(in); err != nil {
		return nil, err
	}
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AssetRepository()
		if err != nil {
			return err
		}
		a, err = repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := applyPatch(a, in); err != nil {
			return err
		}
		if in.Symbol != nil || in.ContractAddress != nil {
			if err := ensureUnique(ctx, repo, a.Symbol, a.ContractAddress, a.ID); err != nil {
				return err
			}
		}
		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		uow.Record(assetEvent(events.EventTypeAssetUpdated, a))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateBalance overwrites the balance. It may not go below zero or below
// what is already allocated.
func (s *Service) UpdateBalance(ctx context.Context, id uuid.UUID, balance money.Amount) (*asset.Asset, error) {
	return s.mutate(ctx, id, "UpdateBalance", func(a *asset.Asset) error {
		return a.SetBalance(balance)
	})
}

// UpdateAllocatedBalance moves the allocated balance by delta, keeping it
// within [0, balance].
func (s *Service) UpdateAllocatedBalance(ctx context.Context, id uuid.UUID, delta money.Amount) (*asset.Asset, error) {
	return s.mutate(ctx, id, "UpdateAllocatedBalance", func(a *asset.Asset) error {
		return a.AdjustAllocated(delta)
	})
}

// GetAvailableBalance returns balance - allocated balance.
func (s *Service) GetAvailableBalance(ctx context.Context, id uuid.UUID) (money.Amount, error) {
	a, err := s.FindByID(ctx, id)
	if err != nil {
		return money.Zero, err
	}
	return a.Available(), nil
}

// Delete deactivates the asset. Assets are never removed.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		repo, err := uow.AssetRepository()
		if err != nil {
			return err
		}
		a, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		a.Deactivate()
		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		uow.Record(assetEvent(events.EventTypeAssetDeactivated, a))
		return nil
	})
	if err == nil {
		s.logger.Info("asset deactivated", "asset_id", id)
	}
	return err
}

func (s *Service) mutate(
	ctx context.Context,
	id uuid.UUID,
	op string,
	fn func(a *asset.Asset) error,
) (a *asset.Asset, err error) {
	logger := s.logger.With("op", op, "asset_id", id)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		a, err = Mutate(ctx, uow, id, fn)
		return err
	})
	if err != nil {
		logger.Warn("balance mutation rejected", "error", err)
		return nil, err
	}
	logger.Info("balance updated", "balance", a.Balance, "allocated", a.AllocatedBalance)
	return a, nil
}

// Mutate locks the asset inside uow, applies fn, saves it and records an
// update event. Other services use it to move asset balances as part of
// their own unit of work.
func Mutate(
	ctx context.Context,
	uow repository.UnitOfWork,
	id uuid.UUID,
	fn func(a *asset.Asset) error,
) (*asset.Asset, error) {
	repo, err := uow.AssetRepository()
	if err != nil {
		return nil, err
	}
	a, err := repo.GetForUpdate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(a); err != nil {
		return nil, err
	}
	if err := repo.Update(ctx, a); err != nil {
		return nil, err
	}
	uow.Record(assetEvent(events.EventTypeAssetUpdated, a))
	return a, nil
}

func ensureUnique(ctx context.Context, repo repository.AssetRepository, symbol string, contract *string, self uuid.UUID) error {
	existing, err := repo.FindBySymbolAndContract(ctx, symbol, contract)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID == self:
		return nil
	}
	if contract == nil {
		return domain.Validation("Asset with symbol %s already exists", symbol)
	}
	return domain.Validation("Asset with symbol %s and contract address %s already exists", symbol, *contract)
}

func applyPatch(a *asset.Asset, in UpdateInput) error {
	if in.Name != nil {
		if *in.Name == "" {
			return domain.Validation("Asset name is required")
		}
		a.Name = *in.Name
	}
	if in.Symbol != nil {
		if *in.Symbol == "" {
			return domain.Validation("Asset symbol is required")
		}
		a.Symbol = *in.Symbol
	}
	if in.Type != nil {
		a.Type = *in.Type
	}
	if in.ContractAddress != nil {
		a.ContractAddress = emptyAsNil(*in.ContractAddress)
	}
	if in.ChainID != nil {
		a.ChainID = emptyAsNil(*in.ChainID)
	}
	if in.Decimals != nil {
		a.Decimals = *in.Decimals
	}
	if in.Metadata != nil {
		a.Metadata = in.Metadata
	}
	return nil
}

func emptyAsNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func assetEvent(t events.EventType, a *asset.Asset) *events.AssetEvent {
	evt := events.NewAssetEvent(t)
	evt.AssetID = a.ID
	evt.Symbol = a.Symbol
	evt.Balance = a.Balance
	evt.AllocatedBalance = a.AllocatedBalance
	evt.IsActive = a.IsActive
	return evt
}
