package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestScheduledTaskRuns(t *testing.T) {
	var runs atomic.Int32
	task, err := NewScheduledTask("tick", "@every 1s", 0, func(context.Context) error {
		runs.Add(1)
		return errors.New("errors are logged, not fatal")
	}, discard())
	require.NoError(t, err)
	defer task.Cancel()

	assert.WithinDuration(t, time.Now().Add(time.Second), task.Next(), 1100*time.Millisecond)
	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 5*time.Second, 50*time.Millisecond)
}

func TestScheduledTaskInvalidSpec(t *testing.T) {
	_, err := NewScheduledTask("bad", "every now and then", 0, func(context.Context) error { return nil }, discard())
	assert.Error(t, err)
}

func TestCancelStopsRunningJob(t *testing.T) {
	started := make(chan struct{})
	var stopped atomic.Bool
	task, err := NewScheduledTask("slow", "@every 1s", time.Minute, func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		stopped.Store(true)
		return ctx.Err()
	}, discard())
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("job never started")
	}
	task.Cancel()
	assert.True(t, stopped.Load())
	task.Cancel()
}
