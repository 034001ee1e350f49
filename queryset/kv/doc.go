/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package kv implements a Queryset over a key-value service that stores one
// hash per record.
//
// The service is reached through the HashClient interface. Two clients ship
// with the module:
//
//   - kv/redis: a Redis keyspace through go-redis
//   - kv/bolt: an embedded bbolt database
//
// Each field of the canonical mapping becomes one hash field holding the
// JSON encoding of its value:
//
//	qs := kv.New(client, schema, kv.WithCompression(zlib.BestSpeed))
//	res, err := qs.CreateOne(ctx, schema.NewDocument("foo").MustSet("data", "x"))
//
// Nested values are rejected. Reads project stored hashes through the schema,
// so fields the schema no longer declares are dropped.
package kv
