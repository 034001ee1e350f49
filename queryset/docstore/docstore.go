/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore

import (
	"context"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/record"
	"go.uber.org/zap"
)

var _ queryset.Queryset = (*Queryset)(nil)

// Queryset stores one document per record in a Collection, with the record
// identifier held under the collection's native key field.
type Queryset struct {
	coll      Collection
	schema    *record.Schema
	nativeKey string
	backend   string
	logger    *zap.Logger
}

// Option configures a Queryset.
type Option func(*Queryset)

// WithLogger sets the logger. The default is zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(q *Queryset) {
		q.logger = logger
	}
}

// WithNativeKey sets the field documents are keyed by. The default is "_id".
func WithNativeKey(field string) Option {
	return func(q *Queryset) {
		q.nativeKey = field
	}
}

// WithBackendName names the backend in errors and logs. The default is
// "docstore".
func WithBackendName(name string) Option {
	return func(q *Queryset) {
		q.backend = name
	}
}

// New creates a Queryset storing records of schema in coll. The collection
// stays owned by the caller.
func New(coll Collection, schema *record.Schema, opts ...Option) *Queryset {
	q := &Queryset{
		coll:      coll,
		schema:    schema,
		nativeKey: DefaultNativeKey,
		backend:   "docstore",
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

// Schema returns the schema records are validated and translated against.
func (q *Queryset) Schema() *record.Schema {
	return q.schema
}

// NativeKey returns the field documents are keyed by.
func (q *Queryset) NativeKey() string {
	return q.nativeKey
}

// fault wraps a collection error as a backend fault. Stored documents the
// collection could not translate are reported as they are.
func (q *Queryset) fault(op, key string, err error) error {
	if errors.IsTranslationError(err) {
		q.logger.Warn("stored document is malformed", zap.String("operation", op), zap.String("id", key), zap.Error(err))
		return err
	}
	q.logger.Warn("collection call failed", zap.String("operation", op), zap.String("id", key), zap.Error(err))
	return errors.NewBackendUnavailableError(q.backend, op, key, err)
}

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

func (q *Queryset) find(ctx context.Context, op, id string) (*record.Mapping, bool, error) {
	doc, ok, err := q.coll.FindOne(ctx, q.nativeKey, id)
	if err != nil {
		return nil, false, q.fault(op, id, err)
	}
	if !ok {
		return nil, false, nil
	}
	m, err := FromDocument(q.schema, q.nativeKey, doc)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// CreateOne implements queryset.Queryset.
func (q *Queryset) CreateOne(ctx context.Context, rec record.Record) (queryset.Result, error) {
	id, mapping, err := q.prepare(rec)
	if err != nil {
		return queryset.Rejected(id, err), err
	}

	_, existed, err := q.coll.FindOne(ctx, q.nativeKey, id)
	if err != nil {
		return queryset.Result{}, q.fault("CreateOne", id, err)
	}
	if err := q.coll.Upsert(ctx, ToDocument(q.schema, q.nativeKey, mapping)); err != nil {
		return queryset.Result{}, q.fault("CreateOne", id, err)
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
	m, ok, err := q.find(ctx, "ReadOne", id)
	if err != nil {
		return queryset.Result{}, err
	}
	if !ok {
		q.logger.Debug("not found", zap.String("operation", "ReadOne"), zap.String("id", id))
		return queryset.Missing(id), nil
	}
	return queryset.Found(id, m), nil
}

// ReadMany implements queryset.Queryset. A BatchFinder collection is asked
// for every identifier at once; identifiers it does not return are reported
// as StatusFailed in their positions.
func (q *Queryset) ReadMany(ctx context.Context, ids []string) (queryset.BatchResult, error) {
	finder, ok := q.coll.(BatchFinder)
	if !ok {
		return queryset.Each(ctx, ids, q.ReadOne)
	}

	docs, err := finder.FindMany(ctx, q.nativeKey, uniqueIDs(ids))
	if err != nil {
		return nil, q.fault("ReadMany", "", err)
	}

	found := make(map[string]*record.Mapping, len(docs))
	for _, doc := range docs {
		m, err := FromDocument(q.schema, q.nativeKey, doc)
		if err != nil {
			return nil, err
		}
		id, _ := m.GetString(q.schema.IdentifierField())
		found[id] = m
	}

	results := make(queryset.BatchResult, len(ids))
	for i, id := range ids {
		if m, ok := found[id]; ok {
			results[i] = queryset.Found(id, m.Clone())
			continue
		}
		results[i] = queryset.Missing(id)
	}
	q.logger.Debug("batch read", zap.String("operation", "ReadMany"), zap.Int("requested", len(ids)), zap.Int("found", len(found)))
	return results, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// ReadAll implements queryset.Queryset.
func (q *Queryset) ReadAll(ctx context.Context) (queryset.BatchResult, error) {
	docs, err := q.coll.FindAll(ctx)
	if err != nil {
		return nil, q.fault("ReadAll", "", err)
	}

	results := make(queryset.BatchResult, 0, len(docs))
	for _, doc := range docs {
		m, err := FromDocument(q.schema, q.nativeKey, doc)
		if err != nil {
			return results, err
		}
		id, _ := m.GetString(q.schema.IdentifierField())
		results = append(results, queryset.Found(id, m))
	}
	return results, nil
}

// UpdateOne implements queryset.Queryset. A Patcher collection receives only
// the changed fields; otherwise the merged document replaces the stored one.
func (q *Queryset) UpdateOne(ctx context.Context, rec record.Record) (queryset.Result, error) {
	id, mapping, err := q.prepare(rec)
	if err != nil {
		return queryset.Rejected(id, err), err
	}

	stored, existed, err := q.find(ctx, "UpdateOne", id)
	if err != nil {
		return queryset.Result{}, err
	}
	if !existed {
		if err := q.coll.Upsert(ctx, ToDocument(q.schema, q.nativeKey, mapping)); err != nil {
			return queryset.Result{}, q.fault("UpdateOne", id, err)
		}
		q.logger.Debug("update created missing entity", zap.String("operation", "UpdateOne"), zap.String("id", id))
		return queryset.Put(id, false, mapping), nil
	}

	delta := rec.DiffAgainst(stored)
	merged := stored.Clone()
	merged.Merge(delta)

	if patcher, ok := q.coll.(Patcher); ok {
		fields := ToDocument(q.schema, q.nativeKey, delta)
		delete(fields, q.nativeKey)
		if len(fields) > 0 {
			if err := patcher.Patch(ctx, q.nativeKey, id, fields); err != nil {
				return queryset.Result{}, q.fault("UpdateOne", id, err)
			}
		}
	} else if err := q.coll.Upsert(ctx, ToDocument(q.schema, q.nativeKey, merged)); err != nil {
		return queryset.Result{}, q.fault("UpdateOne", id, err)
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
	stored, ok, err := q.find(ctx, "DestroyOne", id)
	if err != nil {
		return queryset.Result{}, err
	}
	if !ok {
		q.logger.Debug("not found", zap.String("operation", "DestroyOne"), zap.String("id", id))
		return queryset.Missing(id), nil
	}

	removed, err := q.coll.Remove(ctx, q.nativeKey, id)
	if err != nil {
		return queryset.Result{}, q.fault("DestroyOne", id, err)
	}
	if !removed {
		return queryset.Missing(id), nil
	}
	return queryset.Removed(id, stored), nil
}

// DestroyMany implements queryset.Queryset.
func (q *Queryset) DestroyMany(ctx context.Context, ids []string) (queryset.BatchResult, error) {
	return queryset.Each(ctx, ids, q.DestroyOne)
}
