/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package querysets

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/record"
	"github.com/suparena/querysets/registry"
)

// Typed stores values of the struct type T in a queryset. Struct fields map
// to record fields through their json tags.
type Typed[T any] struct {
	qs     queryset.Queryset
	schema *record.Schema
	types  *registry.Types
}

// NewTyped creates a Typed view of qs for records of schema.
func NewTyped[T any](qs queryset.Queryset, schema *record.Schema) *Typed[T] {
	return &Typed[T]{qs: qs, schema: schema}
}

// TypedFor looks up name in r and returns a Typed view of it. When T was
// bound with BindType, its schema must be the one the queryset uses.
func TypedFor[T any](r *Registry, name string) (*Typed[T], error) {
	qs, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	schema, err := r.Schema(name)
	if err != nil {
		return nil, err
	}
	typed := NewTyped[T](qs, schema)

	bound, err := r.types.SchemaFor((*T)(nil))
	switch {
	case stderrors.Is(err, errors.ErrNoSchema):
		return typed, nil
	case err != nil:
		return nil, err
	case bound.Name != schema.Name:
		return nil, fmt.Errorf("queryset %q holds schema %q but %T is bound to %q", name, schema.Name, *new(T), bound.Name)
	}
	typed.types = r.types
	return typed, nil
}

func (t *Typed[T]) document(item *T) (*record.Document, error) {
	if t.types != nil {
		return t.types.Document(item)
	}
	return t.schema.FromStruct(item)
}

func (t *Typed[T]) records(items []T) ([]record.Record, error) {
	recs := make([]record.Record, len(items))
	for i := range items {
		doc, err := t.document(&items[i])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		recs[i] = doc
	}
	return recs, nil
}

// Create stores items and reports one result per item.
func (t *Typed[T]) Create(ctx context.Context, items ...T) (queryset.BatchResult, error) {
	recs, err := t.records(items)
	if err != nil {
		return nil, err
	}
	return queryset.Create(ctx, t.qs, recs...)
}

// Update applies items to the stored entities and reports one result per item.
func (t *Typed[T]) Update(ctx context.Context, items ...T) (queryset.BatchResult, error) {
	recs, err := t.records(items)
	if err != nil {
		return nil, err
	}
	return queryset.Update(ctx, t.qs, recs...)
}

// Get returns the entity stored under id, or false when there is none.
func (t *Typed[T]) Get(ctx context.Context, id string) (*T, bool, error) {
	res, err := t.qs.ReadOne(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if !res.Succeeded() {
		return nil, false, nil
	}
	out := new(T)
	if err := record.DecodeMapping(res.Mapping, out); err != nil {
		return nil, false, err
	}
	return out, true, nil
}

// All returns every stored entity.
func (t *Typed[T]) All(ctx context.Context) ([]T, error) {
	results, err := t.qs.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(results))
	for _, m := range results.Mappings() {
		var item T
		if err := record.DecodeMapping(m, &item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Destroy removes the entities stored under ids.
func (t *Typed[T]) Destroy(ctx context.Context, ids ...string) (queryset.BatchResult, error) {
	return queryset.Destroy(ctx, t.qs, ids...)
}
