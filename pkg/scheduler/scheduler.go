// Package scheduler runs periodic jobs such as the treasury housekeeping sweep.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a unit of periodic work. ctx is cancelled when the task is cancelled.
type Job func(ctx context.Context) error

// ScheduledTask runs a Job on a cron schedule. A run that is still going when
// the next one is due is skipped rather than overlapped.
type ScheduledTask struct {
	name   string
	cron   *cron.Cron
	cronID cron.EntryID
	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
	logger *slog.Logger
}

// NewScheduledTask parses spec, registers job and starts the schedule. spec
// accepts standard five-field expressions and descriptors like "@every 5m".
// timeout bounds each run; zero means no bound.
func NewScheduledTask(
	name, spec string,
	timeout time.Duration,
	job Job,
	logger *slog.Logger,
) (*ScheduledTask, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	task := &ScheduledTask{
		name:   name,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With("component", "scheduler", "task", name),
	}
	task.cron = cron.New(cron.WithChain(
		cron.Recover(cronLogger{task.logger}),
		cron.SkipIfStillRunning(cronLogger{task.logger}),
	))

	id, err := task.cron.AddFunc(spec, func() { task.run(timeout, job) })
	if err != nil {
		cancel()
		return nil, err
	}
	task.cronID = id
	task.cron.Start()
	task.logger.Info("task scheduled", "spec", spec)
	return task, nil
}

func (t *ScheduledTask) run(timeout time.Duration, job Job) {
	if t.ctx.Err() != nil {
		return
	}
	ctx := t.ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	if err := job(ctx); err != nil {
		t.logger.Error("task failed", "error", err, "duration", time.Since(start))
		return
	}
	t.logger.Debug("task finished", "duration", time.Since(start))
}

// Next returns when the task runs next.
func (t *ScheduledTask) Next() time.Time {
	return t.cron.Entry(t.cronID).Next
}

// Cancel stops the schedule, cancels a running job and waits for it to return.
func (t *ScheduledTask) Cancel() {
	t.once.Do(func() {
		t.cron.Remove(t.cronID)
		t.cancel()
		<-t.cron.Stop().Done()
		t.logger.Info("task cancelled")
	})
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
