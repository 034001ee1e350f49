/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import "reflect"

// Record is the capability a value needs to be stored by a queryset.
type Record interface {
	// Identifier returns the value of the identifier field.
	Identifier() string

	// CanonicalMapping returns the ordered field -> value representation,
	// always including the identifier.
	CanonicalMapping() *Mapping

	// DiffAgainst returns the fields whose values differ from baseline,
	// keyed by the identifier (the identifier is always included).
	DiffAgainst(baseline *Mapping) *Mapping
}

// IdentifierSetter is implemented by records that accept a backend-assigned
// identifier.
type IdentifierSetter interface {
	SetIdentifier(id string)
}

// Diff is the shared implementation of Record.DiffAgainst for records that
// can produce a canonical mapping.
func Diff(idField string, current, baseline *Mapping) *Mapping {
	delta := NewMapping()
	if id, ok := current.Get(idField); ok {
		delta.Set(idField, id)
	}
	current.Each(func(field string, value any) {
		if field == idField {
			return
		}
		if baseline != nil {
			if old, ok := baseline.Get(field); ok && valuesEqual(old, value) {
				return
			}
		}
		delta.Set(field, deepCopyValue(value))
	})
	return delta
}

func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(NormalizeValue(a), NormalizeValue(b))
}
