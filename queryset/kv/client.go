/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kv

import "context"

// HashClient is the key-value service a Queryset stores hashes in. Keys are
// record identifiers; scoping them to a keyspace is the client's job.
type HashClient interface {
	// Get returns the hash stored under key and whether it exists.
	Get(ctx context.Context, key string) (map[string]string, bool, error)

	// Set replaces the whole hash stored under key.
	Set(ctx context.Context, key string, hash map[string]string) error

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Keys lists every key in the keyspace.
	Keys(ctx context.Context) ([]string, error)
}

// FieldSetter is implemented by clients that can merge fields into an
// existing hash without rewriting it.
type FieldSetter interface {
	SetFields(ctx context.Context, key string, fields map[string]string) error
}
