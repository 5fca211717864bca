// Package manager defines the collection-access contracts the mapping layer
// delegates to: a synchronous Manager and a callback-driven AsyncManager,
// plus an adapter deriving the latter from the former.
package manager

import (
	"context"
	"errors"
	"time"

	"github.com/nimburion/docmap/pkg/document"
	"github.com/nimburion/docmap/pkg/query"
)

var (
	// ErrNotFound classifies updates addressing a document that does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrClosed classifies operations on an already closed manager.
	ErrClosed = errors.New("manager closed")
)

// Manager is the synchronous collection-access client. Implementations own
// connection handling and durability; this layer only delegates.
//
// By convention the first field of an inserted or updated document is its
// key field (the converter emits the identity field first). Update replaces
// the stored document whose key field matches and fails with ErrNotFound
// when none does.
type Manager interface {
	// Insert stores a new document. A positive ttl marks the document for
	// expiration after that duration; zero means no expiration. The returned
	// document includes any store-assigned fields.
	Insert(ctx context.Context, doc document.Document, ttl time.Duration) (document.Document, error)

	// Update replaces the stored document matching the given one's key field.
	Update(ctx context.Context, doc document.Document) (document.Document, error)

	// Delete removes every document matching the descriptor.
	Delete(ctx context.Context, q query.DeleteQuery) error

	// Select returns a lazy, finite, non-restartable stream of matching
	// documents, honoring the descriptor's ordering and window.
	Select(ctx context.Context, q query.Query) (document.Stream, error)

	// Count returns the number of documents matching the descriptor's
	// predicate; ordering and window are ignored.
	Count(ctx context.Context, q query.Query) (int64, error)

	// Close releases the underlying resources.
	Close(ctx context.Context) error
}

// Callback delivers the outcome of one asynchronous operation: exactly one
// invocation, carrying either a result or a failure, never both.
type Callback[T any] func(result T, err error)

// AsyncManager is the asynchronous collection-access client. Each operation
// schedules the work and returns immediately; the callback runs later on the
// manager's own completion mechanism. A nil callback dispatches the
// operation without a completion handle.
type AsyncManager interface {
	Insert(ctx context.Context, doc document.Document, ttl time.Duration, cb Callback[document.Document])
	Update(ctx context.Context, doc document.Document, cb Callback[document.Document])
	Delete(ctx context.Context, q query.DeleteQuery, cb func(err error))
	Select(ctx context.Context, q query.Query, cb Callback[document.Stream])
	Count(ctx context.Context, q query.Query, cb Callback[int64])
}
