package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/amirasaad/treasury/infra/initializer"
	"github.com/amirasaad/treasury/pkg/config"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDeps(t *testing.T) *initializer.Deps {
	color.NoColor = true
	deps, err := initializer.InitializeDependencies(&config.App{
		Env: "test",
		Log: &config.Log{Level: 8},
		DB: &config.DB{
			Driver:  "sqlite",
			Url:     filepath.Join(t.TempDir(), "cli.db") + "?_foreign_keys=on",
			Migrate: true,
		},
		EventBus: &config.EventBus{Driver: "memory"},
		Oracle:   &config.Oracle{Provider: "stub"},
		Cache:    &config.Cache{Driver: "none"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })
	return deps
}

func TestCLIFlow(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()
	var out bytes.Buffer

	require.NoError(t, run(ctx, deps, []string{"asset", "create", "Ether", "ETH", "100"}, &out))
	fields := strings.Fields(out.String())
	require.GreaterOrEqual(t, len(fields), 2)
	assetID := fields[1]

	out.Reset()
	require.NoError(t, run(ctx, deps, []string{"deposit", assetID, "2.5"}, &out))
	assert.Contains(t, out.String(), "CONFIRMED")

	out.Reset()
	err := run(ctx, deps, []string{"withdraw", assetID, "500"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Insufficient available balance")

	out.Reset()
	require.NoError(t, run(ctx, deps, []string{"overview"}, &out))
	assert.Contains(t, out.String(), "102.5")

	out.Reset()
	require.NoError(t, run(ctx, deps, []string{"risk"}, &out))
	assert.Contains(t, out.String(), "Low Risk")

	out.Reset()
	require.NoError(t, run(ctx, deps, []string{"housekeeping"}, &out))
	assert.Contains(t, out.String(), "expired budgets: 0")

	out.Reset()
	today := time.Now().UTC().Format(dateLayout)
	require.NoError(t, run(ctx, deps, []string{"audit", today, today}, &out))
	assert.Contains(t, out.String(), "1 deposits (2.5)")

	out.Reset()
	require.NoError(t, run(ctx, deps, []string{"ledger", "account", "Cash"}, &out))
	require.NoError(t, run(ctx, deps, []string{"ledger", "reconcile"}, &out))
	assert.Contains(t, out.String(), "checked 1 accounts")
}

func TestCLIRejectsBadArguments(t *testing.T) {
	deps := newDeps(t)
	ctx := context.Background()
	var out bytes.Buffer

	assert.ErrorIs(t, run(ctx, deps, []string{"asset"}, &out), errUsage)
	assert.ErrorIs(t, run(ctx, deps, []string{"deposit", "x"}, &out), errUsage)
	assert.Error(t, run(ctx, deps, []string{"deposit", "not-a-uuid", "1"}, &out))
	assert.Error(t, run(ctx, deps, []string{"audit", "yesterday", "today"}, &out))
	assert.Error(t, run(ctx, deps, []string{"mint"}, &out))
}
