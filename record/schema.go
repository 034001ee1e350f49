/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"fmt"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/querysets/errors"
)

// DefaultIDField is the identifier field name used when a schema does not set one.
const DefaultIDField = "id"

// Field describes one data field of a schema.
type Field struct {
	Name string `yaml:"name" json:"name"`
	// Format is an optional strfmt format name (e.g. "date-time", "uuid",
	// "email") that string values must satisfy.
	Format   string `yaml:"format,omitempty" json:"format,omitempty"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// Schema names a record kind, its identifier field and its data fields.
type Schema struct {
	Name    string  `yaml:"name" json:"name"`
	IDField string  `yaml:"id_field,omitempty" json:"idField,omitempty"`
	Fields  []Field `yaml:"fields" json:"fields"`
}

// NewSchema creates a schema with the default identifier field and optional
// data fields.
func NewSchema(name string, fields ...string) *Schema {
	s := &Schema{Name: name, IDField: DefaultIDField}
	for _, f := range fields {
		s.Fields = append(s.Fields, Field{Name: f})
	}
	return s
}

// IdentifierField returns the identifier field name.
func (s *Schema) IdentifierField() string {
	if s.IDField == "" {
		return DefaultIDField
	}
	return s.IDField
}

// Has reports whether field is the identifier or a declared data field.
func (s *Schema) Has(field string) bool {
	if field == s.IdentifierField() {
		return true
	}
	_, ok := s.field(field)
	return ok
}

// FieldNames returns the identifier followed by the data fields in
// declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields)+1)
	names = append(names, s.IdentifierField())
	for _, f := range s.Fields {
		names = append(names, f.Name)
	}
	return names
}

func (s *Schema) field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Check reports structural problems in the schema itself.
func (s *Schema) Check() error {
	if s.Name == "" {
		return errors.NewValidationError("name", "schema name is required")
	}
	seen := map[string]bool{s.IdentifierField(): true}
	for _, f := range s.Fields {
		if f.Name == "" {
			return errors.NewValidationError("fields", fmt.Sprintf("schema %q has a field without a name", s.Name))
		}
		if seen[f.Name] {
			return errors.NewValidationError(f.Name, fmt.Sprintf("declared twice in schema %q", s.Name))
		}
		seen[f.Name] = true
		if f.Format != "" && !strfmt.Default.ContainsName(f.Format) {
			return errors.NewValidationError(f.Name, fmt.Sprintf("unknown format %q", f.Format))
		}
	}
	return nil
}

// Validate checks a mapping against the schema: identifier present and a
// string, no undeclared fields, required fields present, formats satisfied.
func (s *Schema) Validate(m *Mapping) error {
	idField := s.IdentifierField()
	id, ok := m.Get(idField)
	if !ok {
		return errors.NewValidationError(idField, "identifier is missing")
	}
	if _, ok := id.(string); !ok {
		return errors.NewValidationError(idField, fmt.Sprintf("identifier must be a string, got %T", id))
	}

	for _, name := range m.Fields() {
		if !s.Has(name) {
			return errors.NewValidationError(name, fmt.Sprintf("not declared in schema %q", s.Name))
		}
	}

	for _, f := range s.Fields {
		v, present := m.Get(f.Name)
		if !present || v == nil {
			if f.Required {
				return errors.NewValidationError(f.Name, "required")
			}
			continue
		}
		if f.Format == "" {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return errors.NewValidationError(f.Name, fmt.Sprintf("format %q needs a string, got %T", f.Format, v))
		}
		if !strfmt.Default.Validates(f.Format, str) {
			return errors.NewValidationError(f.Name, fmt.Sprintf("%q is not a valid %s", str, f.Format))
		}
	}
	return nil
}

// Project builds a canonical mapping from unordered values: identifier first,
// then declared fields in schema order. Fields the schema does not declare
// are dropped; absent fields stay absent.
func (s *Schema) Project(values map[string]any) *Mapping {
	m := NewMapping()
	for _, name := range s.FieldNames() {
		if v, ok := values[name]; ok {
			m.Set(name, NormalizeValue(v))
		}
	}
	return m
}
