package resilience

import (
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func failingCall() error { return errBoom }

func succeedingCall() error { return nil }

// advance installs a fake clock on the breaker and returns a function that
// moves it forward.
func advance(cb *CircuitBreaker) func(d time.Duration) {
	current := time.Unix(0, 0)
	cb.now = func() time.Time { return current }
	return func(d time.Duration) { current = current.Add(d) }
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)

	for i := 0; i < 3; i++ {
		if err := cb.Execute(failingCall); !errors.Is(err, errBoom) {
			t.Fatalf("Execute() error = %v, want errBoom", err)
		}
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v after threshold, want open", cb.State())
	}
	if err := cb.Execute(succeedingCall); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Fatalf("Execute() while open error = %v, want ErrCircuitBreakerOpen", err)
	}
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)

	if err := cb.Execute(failingCall); err == nil {
		t.Fatal("Execute() expected failure")
	}
	if err := cb.Execute(succeedingCall); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if cb.Failures() != 0 {
		t.Fatalf("Failures() = %d after success, want 0", cb.Failures())
	}
	if err := cb.Execute(failingCall); err == nil {
		t.Fatal("Execute() expected failure")
	}
	if cb.State() != StateClosed {
		t.Fatalf("State() = %v, want closed after one failure below threshold", cb.State())
	}
}

func TestCircuitBreaker_ProbeClosesAfterCooldown(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	tick := advance(cb)

	if err := cb.Execute(failingCall); err == nil {
		t.Fatal("Execute() expected failure")
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	tick(2 * time.Minute)
	if err := cb.Execute(succeedingCall); err != nil {
		t.Fatalf("probe Execute() error = %v", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("State() = %v after probe success, want closed", cb.State())
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	tick := advance(cb)

	if err := cb.Execute(failingCall); err == nil {
		t.Fatal("Execute() expected failure")
	}

	tick(2 * time.Minute)
	if err := cb.Execute(failingCall); !errors.Is(err, errBoom) {
		t.Fatalf("probe Execute() error = %v, want errBoom", err)
	}
	if cb.State() != StateOpen {
		t.Fatalf("State() = %v after probe failure, want open", cb.State())
	}
	if err := cb.Execute(succeedingCall); !errors.Is(err, ErrCircuitBreakerOpen) {
		t.Fatalf("Execute() error = %v, want ErrCircuitBreakerOpen", err)
	}
}

func TestCircuitBreaker_Reset(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)

	if err := cb.Execute(failingCall); err == nil {
		t.Fatal("Execute() expected failure")
	}
	cb.Reset()
	if cb.State() != StateClosed || cb.Failures() != 0 {
		t.Fatalf("after Reset() state = %v failures = %d", cb.State(), cb.Failures())
	}
	if err := cb.Execute(succeedingCall); err != nil {
		t.Fatalf("Execute() after reset error = %v", err)
	}
}
