/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/suparena/querysets/errors"
)

// Document is the schema-driven Record implementation.
type Document struct {
	schema *Schema
	values *Mapping
}

var (
	_ Record           = (*Document)(nil)
	_ IdentifierSetter = (*Document)(nil)
)

// NewDocument creates a document with the given identifier and no data fields.
func (s *Schema) NewDocument(id string) *Document {
	d := &Document{schema: s, values: NewMapping()}
	d.values.Set(s.IdentifierField(), id)
	return d
}

// FromMap creates a validated document from unordered values. A non-string
// identifier is formatted with fmt.Sprint.
func (s *Schema) FromMap(values map[string]any) (*Document, error) {
	idField := s.IdentifierField()
	normalized := make(map[string]any, len(values))
	for k, v := range values {
		if !s.Has(k) {
			return nil, errors.NewValidationError(k, fmt.Sprintf("not declared in schema %q", s.Name))
		}
		normalized[k] = v
	}
	if id, ok := normalized[idField]; ok && id != nil {
		if _, isString := id.(string); !isString {
			normalized[idField] = fmt.Sprint(id)
		}
	} else {
		normalized[idField] = ""
	}

	d := &Document{schema: s, values: s.Project(normalized)}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// FromMapping creates a validated document from a canonical mapping.
func (s *Schema) FromMapping(m *Mapping) (*Document, error) {
	return s.FromMap(m.ToMap())
}

// FromStruct creates a validated document from a struct, using json tags as
// field names.
func (s *Schema) FromStruct(v any) (*Document, error) {
	values := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &values,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("failed to decode %T: %w", v, err)
	}
	for k, val := range values {
		if val == nil {
			delete(values, k)
		}
	}
	return s.FromMap(values)
}

// Schema returns the document's schema.
func (d *Document) Schema() *Schema {
	return d.schema
}

// Identifier implements Record.
func (d *Document) Identifier() string {
	id, _ := d.values.GetString(d.schema.IdentifierField())
	return id
}

// SetIdentifier implements IdentifierSetter.
func (d *Document) SetIdentifier(id string) {
	d.values.Set(d.schema.IdentifierField(), id)
}

// Get returns a field value.
func (d *Document) Get(field string) (any, bool) {
	return d.values.Get(field)
}

// Set assigns a declared field. Setting the identifier field is allowed.
func (d *Document) Set(field string, value any) error {
	if !d.schema.Has(field) {
		return errors.NewValidationError(field, fmt.Sprintf("not declared in schema %q", d.schema.Name))
	}
	d.values.Set(field, NormalizeValue(value))
	return nil
}

// MustSet is Set for fields known to be declared; it panics otherwise.
func (d *Document) MustSet(field string, value any) *Document {
	if err := d.Set(field, value); err != nil {
		panic(err)
	}
	return d
}

// Validate checks the document against its schema. An empty identifier is
// accepted so that backends can assign one.
func (d *Document) Validate() error {
	return d.schema.Validate(d.values)
}

// CanonicalMapping implements Record. Fields come in schema order.
func (d *Document) CanonicalMapping() *Mapping {
	return d.schema.Project(d.values.ToMap())
}

// DiffAgainst implements Record.
func (d *Document) DiffAgainst(baseline *Mapping) *Mapping {
	return Diff(d.schema.IdentifierField(), d.CanonicalMapping(), baseline)
}

// Decode copies the document's fields into out, a pointer to a struct with
// json tags or a map.
func (d *Document) Decode(out any) error {
	return DecodeMapping(d.values, out)
}

// DecodeMapping copies a mapping into out, a pointer to a struct with json
// tags or a map.
func DecodeMapping(m *Mapping, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := dec.Decode(m.ToMap()); err != nil {
		return fmt.Errorf("failed to decode mapping into %T: %w", out, err)
	}
	return nil
}
