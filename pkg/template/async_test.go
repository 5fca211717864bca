package template

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/observability/logger"
	"github.com/nimburion/docmap/pkg/query"
)

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Info(string, ...any)  {}
func (l *recordingLogger) Warn(string, ...any)  {}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) With(...any) logger.Logger           { return l }
func (l *recordingLogger) WithContext(context.Context) logger.Logger { return l }

// inlineAsyncManager stands in for a store client with a native completion
// mechanism: each operation runs the sync manager and invokes its callback
// from within the call itself.
type inlineAsyncManager struct {
	inner manager.Manager
}

func (m *inlineAsyncManager) Insert(ctx context.Context, doc document.Document, ttl time.Duration, cb manager.Callback[document.Document]) {
	stored, err := m.inner.Insert(ctx, doc, ttl)
	if cb != nil {
		cb(stored, err)
	}
}

func (m *inlineAsyncManager) Update(ctx context.Context, doc document.Document, cb manager.Callback[document.Document]) {
	stored, err := m.inner.Update(ctx, doc)
	if cb != nil {
		cb(stored, err)
	}
}

func (m *inlineAsyncManager) Delete(ctx context.Context, q query.DeleteQuery, cb func(err error)) {
	err := m.inner.Delete(ctx, q)
	if cb != nil {
		cb(err)
	}
}

func (m *inlineAsyncManager) Select(ctx context.Context, q query.Query, cb manager.Callback[document.Stream]) {
	stream, err := m.inner.Select(ctx, q)
	if cb != nil {
		cb(stream, err)
	}
}

func (m *inlineAsyncManager) Count(ctx context.Context, q query.Query, cb manager.Callback[int64]) {
	n, err := m.inner.Count(ctx, q)
	if cb != nil {
		cb(n, err)
	}
}

func TestAsync_InsertDeliversEntity(t *testing.T) {
	tmpl, _ := newTemplate(t, Options{})
	async := NewAsync(tmpl)

	done := make(chan *Person, 1)
	err := async.Insert(context.Background(), &Person{ID: 1, Name: "Ada"}, func(result *Person, err error) {
		if err != nil {
			t.Errorf("callback error = %v", err)
		}
		done <- result
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	select {
	case got := <-done:
		if got == nil || got.Name != "Ada" {
			t.Fatalf("callback entity = %+v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}
}

func TestAsync_ConvertsInManagerCompletion(t *testing.T) {
	tmpl, mgr := newTemplate(t, Options{})
	async := NewAsyncOver(tmpl, &inlineAsyncManager{inner: mgr})

	var got *Person
	err := async.Insert(context.Background(), &Person{ID: 7, Name: "Grace"}, func(result *Person, err error) {
		if err != nil {
			t.Errorf("callback error = %v", err)
		}
		got = result
	})
	if err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	// The inline manager completes within the Insert call itself, so the
	// converted entity must already be delivered: no goroutine in between.
	if got == nil || got.Name != "Grace" {
		t.Fatalf("entity after inline completion = %+v, want converted Grace", got)
	}

	q, err := query.From("Person").Where("name").Eq("Grace").Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	var found *Person
	if err := async.SingleResult(context.Background(), q, func(result *Person, err error) {
		if err != nil {
			t.Errorf("callback error = %v", err)
		}
		found = result
	}); err != nil {
		t.Fatalf("SingleResult() error = %v", err)
	}
	if found == nil || found.ID != 7 {
		t.Fatalf("single result after inline completion = %+v", found)
	}
}

func TestAsync_ConversionFailureIsSynchronous(t *testing.T) {
	tmpl, _ := newTemplate(t, Options{})
	async := NewAsync(tmpl)

	invoked := false
	err := async.Insert(context.Background(), nil, func(*Person, error) {
		invoked = true
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("Insert(nil) error = %v, want ErrValidation", err)
	}
	async.Wait()
	if invoked {
		t.Fatal("callback must not run after a synchronous failure")
	}
}

func TestAsync_TTLValidationIsSynchronous(t *testing.T) {
	tmpl, _ := newTemplate(t, Options{})
	async := NewAsync(tmpl)

	err := async.InsertWithTTL(context.Background(), &Person{ID: 1}, -time.Second, func(*Person, error) {})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("InsertWithTTL() error = %v, want ErrValidation", err)
	}
}

func TestAsync_UpdateMissingDeliversDelegateError(t *testing.T) {
	tmpl, _ := newTemplate(t, Options{})
	async := NewAsync(tmpl)

	done := make(chan error, 1)
	err := async.Update(context.Background(), &Person{ID: 99}, func(_ *Person, err error) {
		done <- err
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	select {
	case cbErr := <-done:
		if !errors.Is(cbErr, ErrDelegate) || !errors.Is(cbErr, manager.ErrNotFound) {
			t.Fatalf("callback error = %v, want delegate not-found", cbErr)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}
}

func TestAsync_NilCallbackFailureGoesToLogger(t *testing.T) {
	log := &recordingLogger{}
	tmpl, _ := newTemplate(t, Options{Logger: log})
	async := NewAsync(tmpl)

	if err := async.Update(context.Background(), &Person{ID: 99}, nil); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	async.Wait()

	log.mu.Lock()
	defer log.mu.Unlock()
	if len(log.errors) != 1 {
		t.Fatalf("logged errors = %v, want exactly one", log.errors)
	}
}

func TestAsync_FindAndCount(t *testing.T) {
	tmpl, _ := newTemplate(t, Options{})
	insertPeople(t, tmpl)
	async := NewAsync(tmpl)

	q, err := query.From("Person").Where("age").Gte(30).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	found := make(chan int, 1)
	if err := async.Find(context.Background(), q, func(it *Iterator[Person], err error) {
		if err != nil {
			t.Errorf("find callback error = %v", err)
			found <- -1
			return
		}
		people, err := it.All()
		if err != nil {
			t.Errorf("All() error = %v", err)
		}
		found <- len(people)
	}); err != nil {
		t.Fatalf("Find() error = %v", err)
	}

	counted := make(chan int64, 1)
	if err := async.Count(context.Background(), q, func(n int64, err error) {
		if err != nil {
			t.Errorf("count callback error = %v", err)
		}
		counted <- n
	}); err != nil {
		t.Fatalf("Count() error = %v", err)
	}

	async.Wait()
	if n := <-found; n != 2 {
		t.Fatalf("found %d people, want 2", n)
	}
	if n := <-counted; n != 2 {
		t.Fatalf("counted %d, want 2", n)
	}
}

func TestAsync_Delete(t *testing.T) {
	tmpl, _ := newTemplate(t, Options{})
	insertPeople(t, tmpl)
	async := NewAsync(tmpl)

	dq, err := query.DeleteFrom("Person").Where("age").Lt(18).Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	done := make(chan error, 1)
	if err := async.Delete(context.Background(), dq, func(err error) { done <- err }); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("delete callback error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("callback was not invoked")
	}

	q, _ := query.From("Person").Build()
	count, err := tmpl.Count(context.Background(), q)
	if err != nil || count != 2 {
		t.Fatalf("count = %d, %v, want 2", count, err)
	}
}
