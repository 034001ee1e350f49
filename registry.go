/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package querysets

import (
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/record"
	"github.com/suparena/querysets/registry"
)

type entry struct {
	qs     queryset.Queryset
	schema *record.Schema
}

// Registry holds querysets by name, the schemas they use and the Go types
// bound to those schemas. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	querysets map[string]entry
	schemas   *registry.Schemas
	types     *registry.Types
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	schemas := registry.New()
	return &Registry{
		querysets: make(map[string]entry),
		schemas:   schemas,
		types:     registry.NewTypes(schemas),
	}
}

// Schemas returns the schema registry querysets resolve their schemas from.
func (r *Registry) Schemas() *registry.Schemas {
	return r.schemas
}

// Register stores qs under name. schema describes the records qs holds and
// may be nil for querysets that accept any record. A schema not yet known
// by name is added to Schemas.
func (r *Registry) Register(name string, qs queryset.Queryset, schema *record.Schema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.querysets[name]; exists {
		return fmt.Errorf("queryset with name %q already registered", name)
	}
	if schema != nil {
		if _, err := r.schemas.Get(schema.Name); err != nil {
			if err := r.schemas.Register(schema); err != nil {
				return err
			}
		}
	}
	r.querysets[name] = entry{qs: qs, schema: schema}
	return nil
}

// BindType binds the struct type T to the schema of the queryset registered
// under name. TypedFor then builds records of T through that binding.
func BindType[T any](r *Registry, name string) error {
	schema, err := r.Schema(name)
	if err != nil {
		return err
	}
	return registry.RegisterType[T](r.types, schema.Name)
}

// Get retrieves the queryset registered under name.
func (r *Registry) Get(name string) (queryset.Queryset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.querysets[name]
	if !exists {
		return nil, errors.NewNotFoundError("queryset", name)
	}
	return e.qs, nil
}

// Schema retrieves the schema registered with the queryset under name.
func (r *Registry) Schema(name string) (*record.Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.querysets[name]
	if !exists {
		return nil, errors.NewNotFoundError("queryset", name)
	}
	if e.schema == nil {
		return nil, fmt.Errorf("queryset %q: %w", name, errors.ErrNoSchema)
	}
	return e.schema, nil
}

// Remove deletes the queryset registered under name. The queryset's store
// is left untouched.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.querysets[name]; !exists {
		return errors.NewNotFoundError("queryset", name)
	}
	delete(r.querysets, name)
	return nil
}

// List returns the registered names in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.querysets))
	for name := range r.querysets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
