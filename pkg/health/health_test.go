package health

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/manager/memory"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

func TestStoreChecker_HealthyAndUnhealthy(t *testing.T) {
	healthy := NewStoreChecker("store", &fakePinger{}, time.Second)
	result := healthy.Check(context.Background())
	if result.Status != StatusHealthy || result.Name != "store" {
		t.Fatalf("Check() = %+v, want healthy", result)
	}

	broken := NewStoreChecker("store", &fakePinger{err: errors.New("store down")}, time.Second)
	result = broken.Check(context.Background())
	if result.Status != StatusUnhealthy || result.Error != "store down" {
		t.Fatalf("Check() = %+v, want unhealthy", result)
	}
}

func TestStoreChecker_MemoryManager(t *testing.T) {
	mgr := memory.NewManager(nil)
	checker := NewStoreChecker("memory", mgr, 0)

	if result := checker.Check(context.Background()); result.Status != StatusHealthy {
		t.Fatalf("Check() = %+v, want healthy", result)
	}

	if err := mgr.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	result := checker.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("Check() after close = %+v, want unhealthy", result)
	}
	if result.Error != manager.ErrClosed.Error() {
		t.Fatalf("Error = %q", result.Error)
	}
}

func TestLivenessChecker(t *testing.T) {
	result := NewLivenessChecker("live").Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Check() = %+v, want healthy", result)
	}
}

func TestRegistry_AggregatesWorstStatus(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewLivenessChecker("live"))
	reg.Register(NewStoreChecker("store", &fakePinger{}, time.Second))

	agg := reg.Check(context.Background())
	if !agg.IsHealthy() {
		t.Fatalf("Check() = %+v, want healthy", agg)
	}
	if len(agg.Checks) != 2 {
		t.Fatalf("ran %d checks, want 2", len(agg.Checks))
	}

	reg.Register(NewStoreChecker("broken", &fakePinger{err: errors.New("down")}, time.Second))
	agg = reg.Check(context.Background())
	if agg.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want unhealthy", agg.Status)
	}
}

func TestRegistry_DegradedOutranksHealthy(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewLivenessChecker("live"))
	reg.RegisterFunc("slow-store", func(ctx context.Context) CheckResult {
		return CheckResult{Name: "slow-store", Status: StatusDegraded, Timestamp: time.Now()}
	})

	agg := reg.Check(context.Background())
	if agg.Status != StatusDegraded {
		t.Fatalf("Status = %v, want degraded", agg.Status)
	}
}

func TestRegistry_CheckOne(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewLivenessChecker("live"))

	result, err := reg.CheckOne(context.Background(), "live")
	if err != nil {
		t.Fatalf("CheckOne() error = %v", err)
	}
	if result.Name != "live" {
		t.Fatalf("CheckOne() = %+v", result)
	}

	if _, err := reg.CheckOne(context.Background(), "missing"); err == nil {
		t.Fatal("CheckOne() for unknown name should fail")
	}
}

func TestRegistry_RegisterReplaceUnregisterList(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewLivenessChecker("a"))
	reg.Register(NewLivenessChecker("b"))
	reg.Register(NewStoreChecker("a", &fakePinger{}, time.Second))

	names := reg.List()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("List() = %v", names)
	}

	reg.Unregister("a")
	if names := reg.List(); len(names) != 1 || names[0] != "b" {
		t.Fatalf("List() after unregister = %v", names)
	}
}
