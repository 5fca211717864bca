package template

import (
	"context"

	"github.com/nimburion/docmap/pkg/document"
)

// OperationKind identifies which template operation a hook fires for.
type OperationKind string

const (
	OpInsert OperationKind = "insert"
	OpUpdate OperationKind = "update"
	OpDelete OperationKind = "delete"
	OpSelect OperationKind = "select"
	OpCount  OperationKind = "count"
)

// DocumentHook observes or rewrites a document as it passes through the
// template pipeline. Returning an error aborts the operation.
type DocumentHook func(ctx context.Context, op OperationKind, doc document.Document) (document.Document, error)

// Hooks are optional extension points around the delegate call. PreDocument
// runs after entity conversion and before the manager sees the document;
// PostDocument runs on every document coming back from the manager, before
// it is converted to an entity.
type Hooks struct {
	PreDocument  DocumentHook
	PostDocument DocumentHook
}

func (h Hooks) pre(ctx context.Context, op OperationKind, doc document.Document) (document.Document, error) {
	if h.PreDocument == nil {
		return doc, nil
	}
	return h.PreDocument(ctx, op, doc)
}

func (h Hooks) post(ctx context.Context, op OperationKind, doc document.Document) (document.Document, error) {
	if h.PostDocument == nil {
		return doc, nil
	}
	return h.PostDocument(ctx, op, doc)
}
