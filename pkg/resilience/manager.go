package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/query"
)

// ManagerConfig configures the resilient manager decorator.
type ManagerConfig struct {
	// MaxFailures is the consecutive failure count that opens the breaker.
	// Defaults to 5.
	MaxFailures int
	// Cooldown is how long the breaker stays open before admitting a probe.
	// Defaults to 30 seconds.
	Cooldown time.Duration
	// RatePerSecond caps the sustained operation rate. Non-positive disables
	// throttling.
	RatePerSecond float64
	// Burst is the rate limiter's burst allowance.
	Burst int
}

// Manager decorates a collection manager with a circuit breaker and a rate
// limiter. manager.ErrNotFound is a domain outcome, not a store failure, and
// does not trip the breaker.
type Manager struct {
	inner   manager.Manager
	breaker *CircuitBreaker
	limiter *Limiter
}

// NewManager wraps inner with the configured breaker and limiter.
func NewManager(inner manager.Manager, cfg ManagerConfig) *Manager {
	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	cooldown := cfg.Cooldown
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Manager{
		inner:   inner,
		breaker: NewCircuitBreaker(maxFailures, cooldown),
		limiter: NewLimiter(cfg.RatePerSecond, cfg.Burst),
	}
}

// Breaker returns the decorator's circuit breaker, for state inspection.
func (m *Manager) Breaker() *CircuitBreaker {
	return m.breaker
}

// Insert delegates to the inner manager under breaker and limiter control.
func (m *Manager) Insert(ctx context.Context, doc document.Document, ttl time.Duration) (document.Document, error) {
	var out document.Document
	err := m.run(ctx, func() error {
		var err error
		out, err = m.inner.Insert(ctx, doc, ttl)
		return err
	})
	return out, err
}

// Update delegates to the inner manager under breaker and limiter control.
func (m *Manager) Update(ctx context.Context, doc document.Document) (document.Document, error) {
	var out document.Document
	err := m.run(ctx, func() error {
		var err error
		out, err = m.inner.Update(ctx, doc)
		return err
	})
	return out, err
}

// Delete delegates to the inner manager under breaker and limiter control.
func (m *Manager) Delete(ctx context.Context, q query.DeleteQuery) error {
	return m.run(ctx, func() error {
		return m.inner.Delete(ctx, q)
	})
}

// Select delegates to the inner manager under breaker and limiter control.
// Stream iteration itself is not decorated.
func (m *Manager) Select(ctx context.Context, q query.Query) (document.Stream, error) {
	var out document.Stream
	err := m.run(ctx, func() error {
		var err error
		out, err = m.inner.Select(ctx, q)
		return err
	})
	return out, err
}

// Count delegates to the inner manager under breaker and limiter control.
func (m *Manager) Count(ctx context.Context, q query.Query) (int64, error) {
	var out int64
	err := m.run(ctx, func() error {
		var err error
		out, err = m.inner.Count(ctx, q)
		return err
	})
	return out, err
}

// Close closes the inner manager, bypassing breaker and limiter.
func (m *Manager) Close(ctx context.Context) error {
	return m.inner.Close(ctx)
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Ping forwards a health probe to the inner manager when it supports one,
// bypassing breaker and limiter so probes keep observing the real store.
func (m *Manager) Ping(ctx context.Context) error {
	if p, ok := m.inner.(pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (m *Manager) run(ctx context.Context, fn func() error) error {
	if err := m.limiter.Wait(ctx); err != nil {
		return err
	}
	var opErr error
	err := m.breaker.Execute(func() error {
		opErr = fn()
		if opErr != nil && errors.Is(opErr, manager.ErrNotFound) {
			return nil
		}
		return opErr
	})
	if opErr != nil {
		return opErr
	}
	return err
}
