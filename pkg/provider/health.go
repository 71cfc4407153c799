// Package provider holds contracts for external collaborators and the health
// checks run against them at startup.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// HealthChecker is a named dependency that can report whether it is reachable.
type HealthChecker interface {
	Name() string
	CheckHealth(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc struct {
	ID    string
	Check func(ctx context.Context) error
}

// Name returns the checker ID.
func (c CheckFunc) Name() string { return c.ID }

// CheckHealth runs Check.
func (c CheckFunc) CheckHealth(ctx context.Context) error { return c.Check(ctx) }

// HealthCheckAll checks every dependency concurrently and returns the result
// per name. A nil error means healthy.
func HealthCheckAll(ctx context.Context, checkers ...HealthChecker) map[string]error {
	results := make(map[string]error, len(checkers))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range checkers {
		wg.Add(1)
		go func(c HealthChecker) {
			defer wg.Done()
			err := c.CheckHealth(ctx)
			mu.Lock()
			results[c.Name()] = err
			mu.Unlock()
		}(c)
	}
	wg.Wait()
	return results
}

// AllHealthy joins the failures of HealthCheckAll, naming each dependency.
func AllHealthy(ctx context.Context, checkers ...HealthChecker) error {
	var errs []error
	for name, err := range HealthCheckAll(ctx, checkers...) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}
