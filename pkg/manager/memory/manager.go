// Package memory provides an in-memory collection manager. It keeps the full
// operation contract of the store-backed managers (predicates, ordering,
// windowing, expiration) and is intended for tests and local development.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/observability/logger"
	"github.com/nimburion/docmap/pkg/query"
)

type record struct {
	doc      document.Document
	expireAt time.Time // zero means no expiration
}

// Manager is an in-memory implementation of manager.Manager. Safe for
// concurrent use.
type Manager struct {
	logger logger.Logger
	now    func() time.Time

	mu          sync.RWMutex
	collections map[string][]record
	closed      bool
}

// NewManager creates an empty in-memory manager.
func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		logger:      log,
		now:         time.Now,
		collections: make(map[string][]record),
	}
}

// Insert stores a copy of the document. A document without an "_id" field
// gets a generated one, mirroring what document stores assign on insert.
func (m *Manager) Insert(ctx context.Context, doc document.Document, ttl time.Duration) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return document.Document{}, err
	}

	stored := doc.Clone()
	if !stored.Has("_id") {
		stored.Append("_id", uuid.NewString())
	}

	rec := record{doc: stored}
	if ttl > 0 {
		rec.expireAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return document.Document{}, manager.ErrClosed
	}
	m.collections[doc.Collection] = append(m.collections[doc.Collection], rec)
	return stored.Clone(), nil
}

// Update replaces the stored document whose key field (the incoming
// document's first field) matches.
func (m *Manager) Update(ctx context.Context, doc document.Document) (document.Document, error) {
	if err := ctx.Err(); err != nil {
		return document.Document{}, err
	}
	if doc.Len() == 0 {
		return document.Document{}, fmt.Errorf("update requires a non-empty document")
	}
	key := doc.Fields[0]

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return document.Document{}, manager.ErrClosed
	}

	recs := m.collections[doc.Collection]
	now := m.now()
	for i, rec := range recs {
		if rec.expired(now) {
			continue
		}
		v, ok := rec.doc.Get(key.Name)
		if !ok || !valuesEqual(v, key.Value) {
			continue
		}
		stored := doc.Clone()
		recs[i] = record{doc: stored, expireAt: rec.expireAt}
		return stored.Clone(), nil
	}
	return document.Document{}, fmt.Errorf("%w: no document with %s=%v in %q",
		manager.ErrNotFound, key.Name, key.Value, doc.Collection)
}

// Delete removes every document matching the descriptor's predicate.
func (m *Manager) Delete(ctx context.Context, q query.DeleteQuery) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return manager.ErrClosed
	}

	recs := m.collections[q.Collection]
	now := m.now()
	// Compact into a fresh slice; an evaluation error mid-pass must leave
	// the stored records untouched.
	kept := make([]record, 0, len(recs))
	for _, rec := range recs {
		if rec.expired(now) {
			continue
		}
		match, err := evalCondition(q.Condition, rec.doc)
		if err != nil {
			return err
		}
		if !match {
			kept = append(kept, rec)
		}
	}
	m.collections[q.Collection] = kept
	return nil
}

// Select returns a stream over copies of the matching documents, sorted and
// windowed per the descriptor.
func (m *Manager) Select(ctx context.Context, q query.Query) (document.Stream, error) {
	docs, err := m.selectDocs(ctx, q, true)
	if err != nil {
		return nil, err
	}
	return document.NewSliceStream(docs), nil
}

// Count returns the number of documents matching the descriptor's predicate.
func (m *Manager) Count(ctx context.Context, q query.Query) (int64, error) {
	docs, err := m.selectDocs(ctx, q, false)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

func (m *Manager) selectDocs(ctx context.Context, q query.Query, window bool) ([]document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, manager.ErrClosed
	}

	now := m.now()
	var out []document.Document
	for _, rec := range m.collections[q.Collection] {
		if rec.expired(now) {
			continue
		}
		match, err := evalCondition(q.Condition, rec.doc)
		if err != nil {
			return nil, err
		}
		if match {
			out = append(out, rec.doc.Clone())
		}
	}

	sortDocs(out, q.Sorts)

	if window {
		if q.Offset > 0 {
			if q.Offset >= int64(len(out)) {
				out = nil
			} else {
				out = out[q.Offset:]
			}
		}
		if q.Limit > 0 && q.Limit < int64(len(out)) {
			out = out[:q.Limit]
		}
	}
	return out, nil
}

// Ping reports whether the manager is still open.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return manager.ErrClosed
	}
	return nil
}

// Close empties the manager; subsequent operations fail with ErrClosed.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.collections = nil
	return nil
}

func (r record) expired(now time.Time) bool {
	return !r.expireAt.IsZero() && now.After(r.expireAt)
}

func sortDocs(docs []document.Document, sorts []query.Sort) {
	if len(sorts) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range sorts {
			vi, _ := docs[i].Get(s.Field)
			vj, _ := docs[j].Get(s.Field)
			cmp, ok := compareValues(vi, vj)
			if !ok || cmp == 0 {
				continue
			}
			if s.Direction == query.SortDesc {
				return cmp > 0
			}
			return cmp < 0
		}
		return false
	})
}
