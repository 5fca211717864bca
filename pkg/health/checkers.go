package health

import (
	"context"
	"time"
)

// Pinger is implemented by collection managers that can verify store
// connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreChecker probes a collection manager's backing store.
type StoreChecker struct {
	name    string
	store   Pinger
	timeout time.Duration
}

// NewStoreChecker creates a checker pinging the given store. A zero timeout
// defaults to 5 seconds.
func NewStoreChecker(name string, store Pinger, timeout time.Duration) *StoreChecker {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &StoreChecker{name: name, store: store, timeout: timeout}
}

// Check pings the store within the checker's timeout.
func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	start := time.Now()
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	err := c.store.Ping(pingCtx)
	duration := time.Since(start)

	if err != nil {
		return CheckResult{
			Name:      c.name,
			Status:    StatusUnhealthy,
			Error:     err.Error(),
			Timestamp: time.Now(),
			Duration:  duration,
		}
	}
	return CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   "OK",
		Timestamp: time.Now(),
		Duration:  duration,
	}
}

// Name returns the checker's name.
func (c *StoreChecker) Name() string {
	return c.name
}

// LivenessChecker always reports healthy. It answers "is the process up"
// without touching any dependency.
type LivenessChecker struct {
	name string
}

// NewLivenessChecker creates a liveness checker.
func NewLivenessChecker(name string) *LivenessChecker {
	return &LivenessChecker{name: name}
}

// Check reports healthy unconditionally.
func (c *LivenessChecker) Check(ctx context.Context) CheckResult {
	return CheckResult{
		Name:      c.name,
		Status:    StatusHealthy,
		Message:   "alive",
		Timestamp: time.Now(),
	}
}

// Name returns the checker's name.
func (c *LivenessChecker) Name() string {
	return c.name
}
