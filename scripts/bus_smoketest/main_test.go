package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/treasury/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestRunSmokeTestInMemory(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, RunSmokeTest(ctx, &config.EventBus{Driver: "memory"}, logger))
}
