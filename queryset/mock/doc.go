/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides in-memory storage clients for testing querysets.
//
// HashClient implements kv.HashClient and kv.FieldSetter; Collection
// implements docstore.Collection, docstore.BatchFinder and docstore.Patcher.
// Both record call counts and can be told to fail:
//
//	client := mock.NewHashClient().WithSetError(errors.New("connection refused"))
//	qs := kv.New(client, schema)
//
// FailOn limits a failure to calls touching one key, which is how batch
// abort behavior is exercised.
package mock
