// Package service holds the engine's application services. Each sub-package
// owns one aggregate and opens its own unit of work per mutating call;
// treasury composes them.
package service

import (
	"log/slog"

	"github.com/amirasaad/treasury/pkg/cache"
	"github.com/amirasaad/treasury/pkg/provider/blockchain"
	"github.com/amirasaad/treasury/pkg/repository"
)

// Deps holds the infrastructure the services are built from.
type Deps struct {
	Uow    repository.UnitOfWork
	Oracle blockchain.Oracle
	// Cache may be nil, which disables dashboard caching.
	Cache  *cache.Loader
	Logger *slog.Logger
}

// LoggerOrDefault returns d.Logger, falling back to slog.Default.
func (d Deps) LoggerOrDefault() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}
