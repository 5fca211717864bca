package template

import (
	"context"

	"github.com/nimburion/docmap/pkg/convert"
	"github.com/nimburion/docmap/pkg/document"
)

// Iterator lazily converts a document stream into entities. It is not
// restartable; once exhausted it stays exhausted. The consumer must call
// Close unless it drains the iterator through All.
type Iterator[T any] struct {
	ctx       context.Context
	stream    document.Stream
	converter *convert.Converter[T]
	post      func(ctx context.Context, doc document.Document) (document.Document, error)
	entity    *T
	err       error
	done      bool
}

// Next advances to the next entity. It returns false when the stream is
// exhausted or a conversion or stream error occurred; check Err afterwards.
func (it *Iterator[T]) Next() bool {
	if it.done || it.err != nil {
		return false
	}
	if !it.stream.Next() {
		it.err = it.stream.Err()
		it.done = true
		return false
	}
	doc := it.stream.Document()
	if it.post != nil {
		var err error
		doc, err = it.post(it.ctx, doc)
		if err != nil {
			it.err = err
			it.done = true
			return false
		}
	}
	entity, err := it.converter.ToEntity(doc)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	it.entity = entity
	return true
}

// Entity returns the entity produced by the last successful Next.
func (it *Iterator[T]) Entity() *T {
	return it.entity
}

// Err returns the first error the iteration hit, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Close releases the underlying stream.
func (it *Iterator[T]) Close() error {
	it.done = true
	return it.stream.Close()
}

// All drains the iterator and closes it.
func (it *Iterator[T]) All() ([]*T, error) {
	defer func() { _ = it.Close() }()
	var out []*T
	for it.Next() {
		out = append(out, it.Entity())
	}
	if it.err != nil {
		return nil, it.err
	}
	return out, nil
}
