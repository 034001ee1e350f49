/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"fmt"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/record"
)

// ToDocument renames the schema's identifier field to nativeKey.
func ToDocument(schema *record.Schema, nativeKey string, m *record.Mapping) Document {
	idField := schema.IdentifierField()
	doc := make(Document, m.Len())
	m.Each(func(field string, value any) {
		if field == idField {
			doc[nativeKey] = value
			return
		}
		doc[field] = value
	})
	return doc
}

// FromDocument renames nativeKey back to the identifier field and drops every
// field the schema does not declare, such as attributes the store injects.
func FromDocument(schema *record.Schema, nativeKey string, doc Document) (*record.Mapping, error) {
	raw, ok := doc[nativeKey]
	if !ok {
		return nil, errors.NewTranslationError(nativeKey, "", "document has no native key")
	}
	id, ok := raw.(string)
	if !ok {
		return nil, errors.NewTranslationError(nativeKey, fmt.Sprint(raw), fmt.Sprintf("native key must be a string, got %T", raw))
	}

	values := make(map[string]any, len(doc))
	for field, value := range doc {
		if field == nativeKey {
			continue
		}
		values[field] = value
	}
	values[schema.IdentifierField()] = id
	return schema.Project(values), nil
}
