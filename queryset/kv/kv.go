/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kv

import (
	"compress/zlib"
	"context"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/record"
	"go.uber.org/zap"
)

var _ queryset.Queryset = (*Queryset)(nil)

// Queryset stores one hash per record in a HashClient. Existence is checked
// before each write without compare-and-swap, so concurrent writers to the
// same identifier may both observe StatusCreated.
type Queryset struct {
	client  HashClient
	schema  *record.Schema
	codec   codec
	backend string
	logger  *zap.Logger
}

// Option configures a Queryset.
type Option func(*Queryset)

// WithLogger sets the logger. The default is zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(q *Queryset) {
		q.logger = logger
	}
}

// WithCompression zlib-compresses every stored value at the given level
// (zlib.DefaultCompression, or 1 through 9). Compressed and plain values can
// be read back either way.
func WithCompression(level int) Option {
	return func(q *Queryset) {
		q.codec.compress = true
		q.codec.level = level
	}
}

// WithBackendName names the backend in errors and logs. The default is "kv".
func WithBackendName(name string) Option {
	return func(q *Queryset) {
		q.backend = name
	}
}

// New creates a Queryset storing records of schema through client. The client
// stays owned by the caller.
func New(client HashClient, schema *record.Schema, opts ...Option) *Queryset {
	q := &Queryset{
		client:  client,
		schema:  schema,
		codec:   codec{schema: schema, level: zlib.DefaultCompression},
		backend: "kv",
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = zap.L()
	}
	q.logger = q.logger.With(zap.String("backend", q.backend), zap.String("schema", schema.Name))
	return q
}

// Schema returns the schema records are validated and projected against.
func (q *Queryset) Schema() *record.Schema {
	return q.schema
}

func (q *Queryset) fault(op, key string, err error) error {
	q.logger.Warn("client call failed", zap.String("operation", op), zap.String("id", key), zap.Error(err))
	return errors.NewBackendUnavailableError(q.backend, op, key, err)
}

// prepare assigns a missing identifier and validates the canonical mapping.
func (q *Queryset) prepare(rec record.Record) (string, *record.Mapping, error) {
	id, err := queryset.EnsureIdentifier(rec)
	if err != nil {
		return id, nil, err
	}
	mapping := rec.CanonicalMapping()
	if err := q.schema.Validate(mapping); err != nil {
		return id, nil, err
	}
	return id, mapping, nil
}

func (q *Queryset) load(ctx context.Context, op, id string) (*record.Mapping, bool, error) {
	hash, ok, err := q.client.Get(ctx, id)
	if err != nil {
		return nil, false, q.fault(op, id, err)
	}
	if !ok {
		return nil, false, nil
	}
	m, err := q.codec.decode(id, hash)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (q *Queryset) store(ctx context.Context, op, id string, hash map[string]string) error {
	if err := q.client.Set(ctx, id, hash); err != nil {
		return q.fault(op, id, err)
	}
	return nil
}

// CreateOne implements queryset.Queryset.
func (q *Queryset) CreateOne(ctx context.Context, rec record.Record) (queryset.Result, error) {
	id, mapping, err := q.prepare(rec)
	if err != nil {
		return queryset.Rejected(id, err), err
	}
	hash, err := q.codec.encode(mapping)
	if err != nil {
		return queryset.Rejected(id, err), err
	}

	_, existed, err := q.client.Get(ctx, id)
	if err != nil {
		return queryset.Result{}, q.fault("CreateOne", id, err)
	}
	if err := q.store(ctx, "CreateOne", id, hash); err != nil {
		return queryset.Result{}, err
	}

	q.logger.Debug("put", zap.String("operation", "CreateOne"), zap.String("id", id), zap.Bool("existed", existed))
	return queryset.Put(id, existed, mapping), nil
}

// CreateMany implements queryset.Queryset.
func (q *Queryset) CreateMany(ctx context.Context, recs []record.Record) (queryset.BatchResult, error) {
	return queryset.Each(ctx, recs, q.CreateOne)
}

// ReadOne implements queryset.Queryset.
func (q *Queryset) ReadOne(ctx context.Context, id string) (queryset.Result, error) {
	m, ok, err := q.load(ctx, "ReadOne", id)
	if err != nil {
		return queryset.Result{}, err
	}
	if !ok {
		q.logger.Debug("not found", zap.String("operation", "ReadOne"), zap.String("id", id))
		return queryset.Missing(id), nil
	}
	return queryset.Found(id, m), nil
}

// ReadMany implements queryset.Queryset.
func (q *Queryset) ReadMany(ctx context.Context, ids []string) (queryset.BatchResult, error) {
	return queryset.Each(ctx, ids, q.ReadOne)
}

// ReadAll implements queryset.Queryset. Keys removed between the scan and
// the fetch are skipped.
func (q *Queryset) ReadAll(ctx context.Context) (queryset.BatchResult, error) {
	keys, err := q.client.Keys(ctx)
	if err != nil {
		return nil, q.fault("ReadAll", "", err)
	}

	results := make(queryset.BatchResult, 0, len(keys))
	for _, key := range keys {
		m, ok, err := q.load(ctx, "ReadAll", key)
		if err != nil {
			return results, err
		}
		if ok {
			results = append(results, queryset.Found(key, m))
		}
	}
	return results, nil
}

// UpdateOne implements queryset.Queryset. When the client is a FieldSetter
// only the changed fields are written; otherwise the merged hash replaces the
// stored one.
func (q *Queryset) UpdateOne(ctx context.Context, rec record.Record) (queryset.Result, error) {
	id, mapping, err := q.prepare(rec)
	if err != nil {
		return queryset.Rejected(id, err), err
	}
	hash, err := q.codec.encode(mapping)
	if err != nil {
		return queryset.Rejected(id, err), err
	}

	stored, existed, err := q.load(ctx, "UpdateOne", id)
	if err != nil {
		return queryset.Result{}, err
	}
	if !existed {
		if err := q.store(ctx, "UpdateOne", id, hash); err != nil {
			return queryset.Result{}, err
		}
		q.logger.Debug("update created missing entity", zap.String("operation", "UpdateOne"), zap.String("id", id))
		return queryset.Put(id, false, mapping), nil
	}

	delta := rec.DiffAgainst(stored)
	merged := stored.Clone()
	merged.Merge(delta)

	if setter, ok := q.client.(FieldSetter); ok {
		fields := make(map[string]string, delta.Len())
		for _, field := range delta.Fields() {
			fields[field] = hash[field]
		}
		if err := setter.SetFields(ctx, id, fields); err != nil {
			return queryset.Result{}, q.fault("UpdateOne", id, err)
		}
	} else {
		full, err := q.codec.encode(merged)
		if err != nil {
			return queryset.Rejected(id, err), err
		}
		if err := q.store(ctx, "UpdateOne", id, full); err != nil {
			return queryset.Result{}, err
		}
	}

	q.logger.Debug("merged", zap.String("operation", "UpdateOne"), zap.String("id", id), zap.Strings("fields", delta.Fields()))
	return queryset.Put(id, true, merged), nil
}

// UpdateMany implements queryset.Queryset.
func (q *Queryset) UpdateMany(ctx context.Context, recs []record.Record) (queryset.BatchResult, error) {
	return queryset.Each(ctx, recs, q.UpdateOne)
}

// DestroyOne implements queryset.Queryset.
func (q *Queryset) DestroyOne(ctx context.Context, id string) (queryset.Result, error) {
	stored, ok, err := q.load(ctx, "DestroyOne", id)
	if err != nil {
		return queryset.Result{}, err
	}
	if !ok {
		q.logger.Debug("not found", zap.String("operation", "DestroyOne"), zap.String("id", id))
		return queryset.Missing(id), nil
	}

	removed, err := q.client.Delete(ctx, id)
	if err != nil {
		return queryset.Result{}, q.fault("DestroyOne", id, err)
	}
	if !removed {
		q.logger.Debug("removed concurrently", zap.String("operation", "DestroyOne"), zap.String("id", id))
		return queryset.Missing(id), nil
	}
	return queryset.Removed(id, stored), nil
}

// DestroyMany implements queryset.Queryset.
func (q *Queryset) DestroyMany(ctx context.Context, ids []string) (queryset.BatchResult, error) {
	return queryset.Each(ctx, ids, q.DestroyOne)
}
