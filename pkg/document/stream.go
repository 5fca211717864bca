package document

// Stream is a lazy, finite, non-restartable sequence of documents produced by
// a collection manager select. The usage pattern follows database cursors:
//
//	for stream.Next() {
//		doc := stream.Document()
//		...
//	}
//	if err := stream.Err(); err != nil { ... }
//	_ = stream.Close()
type Stream interface {
	// Next advances to the next document. It returns false when the sequence
	// is exhausted or a failure occurred; Err distinguishes the two.
	Next() bool

	// Document returns the current document. Only valid after Next returned true.
	Document() Document

	// Err returns the failure that terminated iteration, if any.
	Err() error

	// Close releases the underlying resources. Safe to call more than once.
	Close() error
}

// SliceStream is an in-memory Stream over a fixed set of documents.
type SliceStream struct {
	docs   []Document
	pos    int
	closed bool
}

// NewSliceStream creates a stream over the given documents. The slice is not
// copied; callers hand over ownership.
func NewSliceStream(docs []Document) *SliceStream {
	return &SliceStream{docs: docs, pos: -1}
}

// Next advances to the next document.
func (s *SliceStream) Next() bool {
	if s.closed || s.pos+1 >= len(s.docs) {
		return false
	}
	s.pos++
	return true
}

// Document returns the current document.
func (s *SliceStream) Document() Document {
	return s.docs[s.pos]
}

// Err always returns nil; an in-memory stream cannot fail.
func (s *SliceStream) Err() error {
	return nil
}

// Close marks the stream exhausted.
func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}
