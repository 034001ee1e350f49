/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import "context"

// DefaultNativeKey is the key field used when none is configured.
const DefaultNativeKey = "_id"

// Document is a stored document: field name to value, keyed by a native key
// field rather than the record identifier.
type Document map[string]any

// Collection is the document collection a Queryset reads and writes.
type Collection interface {
	// FindOne returns the document whose keyField equals value.
	FindOne(ctx context.Context, keyField, value string) (Document, bool, error)

	// Upsert inserts doc or replaces the document with the same native key.
	Upsert(ctx context.Context, doc Document) error

	// Remove deletes the document whose keyField equals value and reports
	// whether it existed.
	Remove(ctx context.Context, keyField, value string) (bool, error)

	// FindAll returns every document in the collection.
	FindAll(ctx context.Context) ([]Document, error)
}

// BatchFinder is implemented by collections that resolve many keys in one
// round trip. Keys without a document are simply absent from the result.
type BatchFinder interface {
	FindMany(ctx context.Context, keyField string, values []string) ([]Document, error)
}

// Patcher is implemented by collections that can set individual fields of an
// existing document.
type Patcher interface {
	Patch(ctx context.Context, keyField, value string, fields Document) error
}
