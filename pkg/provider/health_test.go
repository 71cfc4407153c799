package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheckAll(t *testing.T) {
	down := errors.New("connection refused")
	checks := []HealthChecker{
		CheckFunc{ID: "database", Check: func(context.Context) error { return nil }},
		CheckFunc{ID: "oracle", Check: func(context.Context) error { return down }},
	}

	results := HealthCheckAll(context.Background(), checks...)
	require.Len(t, results, 2)
	assert.NoError(t, results["database"])
	assert.ErrorIs(t, results["oracle"], down)

	err := AllHealthy(context.Background(), checks...)
	require.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), "oracle: connection refused")

	assert.NoError(t, AllHealthy(context.Background(), checks[0]))
	assert.NoError(t, AllHealthy(context.Background()))
}
