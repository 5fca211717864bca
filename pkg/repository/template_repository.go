package repository

import (
	"context"
	"fmt"
	"reflect"

	"github.com/nimburion/docmap/pkg/manager"
	"github.com/nimburion/docmap/pkg/mapper"
	"github.com/nimburion/docmap/pkg/metadata"
	"github.com/nimburion/docmap/pkg/query"
	"github.com/nimburion/docmap/pkg/template"
)

// TemplateRepository implements Repository over a Template, translating
// id-centric calls into query descriptors on the entity's identity field.
type TemplateRepository[T any, ID comparable] struct {
	tmpl     *template.Template[T]
	resolver metadata.Resolver
	meta     *metadata.EntityMeta
	id       *metadata.FieldMeta
}

// NewTemplateRepository creates a repository for T keyed by ID. The entity
// type must declare an identity field. Pass the resolver shared with the
// template to share its metadata cache; nil creates a fresh one.
func NewTemplateRepository[T any, ID comparable](tmpl *template.Template[T], resolver metadata.Resolver) (*TemplateRepository[T, ID], error) {
	if tmpl == nil {
		return nil, fmt.Errorf("template is required")
	}
	if resolver == nil {
		resolver = metadata.NewReflectResolver()
	}
	meta, err := resolver.Resolve(reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	id, ok := meta.ID()
	if !ok {
		return nil, fmt.Errorf("%w: type %s has no identity field", metadata.ErrMapping, meta.Type)
	}
	return &TemplateRepository[T, ID]{
		tmpl:     tmpl,
		resolver: resolver,
		meta:     meta,
		id:       id,
	}, nil
}

// FindByID retrieves the entity with the given identity, or
// manager.ErrNotFound if no document matches.
func (r *TemplateRepository[T, ID]) FindByID(ctx context.Context, id ID) (*T, error) {
	q, err := mapper.SelectFrom[T](r.resolver).Where(r.id.Logical).Eq(id).Build()
	if err != nil {
		return nil, err
	}
	entity, err := r.tmpl.SingleResult(ctx, q)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: no %s with id %v", manager.ErrNotFound, r.meta.Collection, id)
	}
	return entity, nil
}

// FindAll retrieves the entities matching the query options. Filter entries
// are equality checks on logical field names, combined with AND logic.
func (r *TemplateRepository[T, ID]) FindAll(ctx context.Context, opts QueryOptions) ([]*T, error) {
	b := r.filtered(opts.Filter)
	if opts.Sort.Field != "" {
		direction := toDirection(opts.Sort.Order)
		b = b.OrderBy(opts.Sort.Field, direction)
	}
	if opts.Pagination.PageSize > 0 {
		b = b.Skip(opts.Pagination.Offset()).Limit(opts.Pagination.Limit())
	}
	q, err := b.Build()
	if err != nil {
		return nil, err
	}
	it, err := r.tmpl.Find(ctx, q)
	if err != nil {
		return nil, err
	}
	return it.All()
}

// Count returns the number of entities matching the filter.
func (r *TemplateRepository[T, ID]) Count(ctx context.Context, filter Filter) (int64, error) {
	q, err := r.filtered(filter).Build()
	if err != nil {
		return 0, err
	}
	return r.tmpl.Count(ctx, q)
}

// Create stores a new entity. Store-assigned fields are written back into
// the entity.
func (r *TemplateRepository[T, ID]) Create(ctx context.Context, entity *T) error {
	inserted, err := r.tmpl.Insert(ctx, entity)
	if err != nil {
		return err
	}
	*entity = *inserted
	return nil
}

// Update replaces the stored document for the entity, matched by its
// identity field. Entities implementing Versioned get an optimistic lock
// check; the check and the write are separate calls, so stores without
// conditional writes can still race between them.
func (r *TemplateRepository[T, ID]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	versioned, ok := any(entity).(Versioned)
	if ok {
		if err := r.checkVersion(ctx, entity, versioned); err != nil {
			return err
		}
		versioned.SetVersion(versioned.GetVersion() + 1)
	}
	updated, err := r.tmpl.Update(ctx, entity)
	if err != nil {
		if ok {
			versioned.SetVersion(versioned.GetVersion() - 1)
		}
		return err
	}
	*entity = *updated
	return nil
}

// Delete removes the entity with the given identity, or manager.ErrNotFound
// if no document matches.
func (r *TemplateRepository[T, ID]) Delete(ctx context.Context, id ID) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	dq, err := mapper.DeleteFrom[T](r.resolver).Where(r.id.Logical).Eq(id).Build()
	if err != nil {
		return err
	}
	return r.tmpl.Delete(ctx, dq)
}

func (r *TemplateRepository[T, ID]) checkVersion(ctx context.Context, entity *T, versioned Versioned) error {
	id := reflect.ValueOf(entity).Elem().Field(r.id.Index).Interface()
	q, err := mapper.SelectFrom[T](r.resolver).Where(r.id.Logical).Eq(id).Build()
	if err != nil {
		return err
	}
	stored, err := r.tmpl.SingleResult(ctx, q)
	if err != nil {
		return err
	}
	if stored == nil {
		return fmt.Errorf("%w: no %s with id %v", manager.ErrNotFound, r.meta.Collection, id)
	}
	actual := any(stored).(Versioned).GetVersion()
	if actual != versioned.GetVersion() {
		return NewOptimisticLockError(fmt.Sprintf("%v", id), versioned.GetVersion(), actual)
	}
	return nil
}

func (r *TemplateRepository[T, ID]) filtered(filter Filter) *mapper.Builder[T] {
	b := mapper.SelectFrom[T](r.resolver)
	for field, value := range filter {
		b = b.And(field).Eq(value)
	}
	return b
}

func toDirection(order SortOrder) query.SortDirection {
	if order == SortDesc {
		return query.SortDesc
	}
	return query.SortAsc
}
