/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/record"
)

// Types associates Go struct types with registered schemas so that plain
// structs can be stored as records.
type Types struct {
	schemas *Schemas
	mu      sync.RWMutex
	types   map[reflect.Type]string
}

// NewTypes creates a Types registry resolving schema names through schemas.
func NewTypes(schemas *Schemas) *Types {
	return &Types{
		schemas: schemas,
		types:   make(map[reflect.Type]string),
	}
}

// RegisterType associates the Go type T with the schema named schemaName.
func RegisterType[T any](t *Types, schemaName string) error {
	if _, err := t.schemas.Get(schemaName); err != nil {
		return err
	}
	typ := structType(reflect.TypeOf((*T)(nil)).Elem())

	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.types[typ]; ok {
		return fmt.Errorf("type registry: %s already registered for schema %q", typ, existing)
	}
	t.types[typ] = schemaName
	return nil
}

// SchemaFor returns the schema registered for v's type. Pointers resolve to
// their element type.
func (t *Types) SchemaFor(v any) (*record.Schema, error) {
	typ := structType(reflect.TypeOf(v))

	t.mu.RLock()
	name, ok := t.types[typ]
	t.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("type registry: %v: %w", typ, errors.ErrNoSchema)
	}
	return t.schemas.Get(name)
}

// Document builds a record from v using the schema registered for its type.
func (t *Types) Document(v any) (*record.Document, error) {
	s, err := t.SchemaFor(v)
	if err != nil {
		return nil, err
	}
	return s.FromStruct(v)
}

func structType(typ reflect.Type) reflect.Type {
	for typ != nil && typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	return typ
}
