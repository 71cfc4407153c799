package initializer

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"
	"time"

	infraeventbus "github.com/amirasaad/treasury/infra/eventbus"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/amirasaad/treasury/pkg/domain/events"
	"github.com/amirasaad/treasury/pkg/money"
	"github.com/amirasaad/treasury/pkg/provider"
	assetsvc "github.com/amirasaad/treasury/pkg/service/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig(t *testing.T) *config.App {
	return &config.App{
		Env: "test",
		Log: &config.Log{Level: 8, Format: "text"},
		DB: &config.DB{
			Driver:  "sqlite",
			Url:     filepath.Join(t.TempDir(), "treasury.db") + "?_foreign_keys=on",
			Migrate: true,
		},
		EventBus:     &config.EventBus{Driver: "memory"},
		Oracle:       &config.Oracle{Provider: "stub"},
		Cache:        &config.Cache{Driver: "memory", TTL: time.Minute},
		Housekeeping: &config.Housekeeping{Schedule: "@every 5m"},
	}
}

func TestInitializeDependencies(t *testing.T) {
	deps, err := InitializeDependencies(sqliteConfig(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, deps.Close()) })

	ctx := context.Background()
	_, err = deps.Treasury.Assets().Create(ctx, assetsvc.CreateInput{
		Name: "Ether", Symbol: "ETH", Balance: money.FromInt(10),
	})
	require.NoError(t, err)

	bus, ok := deps.Bus.(*infraeventbus.MemoryEventBus)
	require.True(t, ok)
	published := bus.Published()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventTypeAssetCreated, published[0].Type())

	o, err := deps.Treasury.GetOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "10", o.TotalBalance.String())

	_, err = deps.Treasury.Assets().UpdateBalance(ctx, o.Assets[0].ID, money.FromInt(25))
	require.NoError(t, err)
	o, err = deps.Treasury.GetOverview(ctx)
	require.NoError(t, err)
	assert.Equal(t, "25", o.TotalBalance.String(), "asset events drop the cached overview")

	require.NoError(t, deps.Housekeeping(ctx))
	assert.NoError(t, provider.AllHealthy(ctx, deps.HealthChecks()...))
}

func TestInitializeDependenciesRejectsBadConfig(t *testing.T) {
	cfg := sqliteConfig(t)
	cfg.EventBus.Driver = "carrier-pigeon"
	_, err := InitializeDependencies(cfg)
	assert.Error(t, err)

	cfg = sqliteConfig(t)
	cfg.DB.Url = ""
	_, err = InitializeDependencies(cfg)
	assert.Error(t, err)
}

func TestSetupLoggerFormats(t *testing.T) {
	var buf bytes.Buffer
	logger := setupLogger(&config.Log{Format: "json"}, &buf)
	logger.Info("budget created", "budget_id", "b-1")
	assert.Contains(t, buf.String(), "budget_id")
	assert.Contains(t, buf.String(), "b-1")

	buf.Reset()
	logger = setupLogger(&config.Log{Format: "text"}, &buf)
	logger.Warn("allocation rejected", "status", "REJECTED")
	assert.Contains(t, buf.String(), "allocation rejected")
	assert.Contains(t, buf.String(), "REJECTED")
}
