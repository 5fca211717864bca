// Package registry holds the templates of an application keyed by entity
// type, so wiring code can hand out a single dependency instead of one
// template per entity.
package registry

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/nimburion/docmap/pkg/template"
)

var (
	// ErrNotRegistered indicates a lookup for an entity type no template
	// was registered for.
	ErrNotRegistered = errors.New("no template registered")

	// ErrDuplicate indicates a second registration for the same entity type
	// and kind.
	ErrDuplicate = errors.New("template already registered")

	// ErrFrozen indicates a registration after Freeze.
	ErrFrozen = errors.New("registry is frozen")
)

// Kind distinguishes synchronous from asynchronous templates.
type Kind string

const (
	KindSync  Kind = "sync"
	KindAsync Kind = "async"
)

type key struct {
	kind   Kind
	entity reflect.Type
}

// Registry is a concurrency-safe template registry. Register during startup,
// Freeze, then look up freely.
type Registry struct {
	mu      sync.RWMutex
	entries map[key]any
	frozen  bool
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[key]any)}
}

// Freeze rejects further registrations. Lookups stay available.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Count returns the number of registered templates.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// RegisterSync adds a synchronous template for entity type T.
func RegisterSync[T any](r *Registry, tmpl *template.Template[T]) error {
	return register[T](r, KindSync, tmpl)
}

// RegisterAsync adds an asynchronous template for entity type T.
func RegisterAsync[T any](r *Registry, tmpl *template.TemplateAsync[T]) error {
	return register[T](r, KindAsync, tmpl)
}

// LookupSync returns the synchronous template registered for entity type T.
func LookupSync[T any](r *Registry) (*template.Template[T], error) {
	v, err := lookup[T](r, KindSync)
	if err != nil {
		return nil, err
	}
	return v.(*template.Template[T]), nil
}

// LookupAsync returns the asynchronous template registered for entity type T.
func LookupAsync[T any](r *Registry) (*template.TemplateAsync[T], error) {
	v, err := lookup[T](r, KindAsync)
	if err != nil {
		return nil, err
	}
	return v.(*template.TemplateAsync[T]), nil
}

func register[T any](r *Registry, kind Kind, tmpl any) error {
	if tmpl == nil || reflect.ValueOf(tmpl).IsNil() {
		return fmt.Errorf("nil template for %s", reflect.TypeFor[T]())
	}
	k := key{kind: kind, entity: reflect.TypeFor[T]()}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		return fmt.Errorf("%w: cannot register %s template for %s", ErrFrozen, k.kind, k.entity)
	}
	if _, exists := r.entries[k]; exists {
		return fmt.Errorf("%w: %s template for %s", ErrDuplicate, k.kind, k.entity)
	}
	r.entries[k] = tmpl
	return nil
}

func lookup[T any](r *Registry, kind Kind) (any, error) {
	k := key{kind: kind, entity: reflect.TypeFor[T]()}

	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[k]
	if !ok {
		return nil, fmt.Errorf("%w: %s template for %s", ErrNotRegistered, k.kind, k.entity)
	}
	return v, nil
}
