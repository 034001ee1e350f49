/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides the process-local reference Queryset.
package memory

import (
	"context"
	"sync"

	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/record"
	"go.uber.org/zap"
)

var _ queryset.Queryset = (*Queryset)(nil)

// Queryset keeps canonical mappings keyed by identifier in a map owned by the
// instance. One RWMutex guards the map: mutations are exclusive, reads shared.
type Queryset struct {
	mu     sync.RWMutex
	data   map[string]*record.Mapping
	schema *record.Schema
	logger *zap.Logger
}

// Option configures a Queryset.
type Option func(*Queryset)

// WithLogger sets the logger. The default is zap.L().
func WithLogger(logger *zap.Logger) Option {
	return func(q *Queryset) {
		q.logger = logger
	}
}

// New creates an empty Queryset. Records are validated against schema before
// they are stored; a nil schema accepts any record.
func New(schema *record.Schema, opts ...Option) *Queryset {
	q := &Queryset{
		data:   make(map[string]*record.Mapping),
		schema: schema,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.logger == nil {
		q.logger = zap.L()
	}
	q.logger = q.logger.With(zap.String("backend", "memory"))
	return q
}

// Schema returns the schema records are validated against.
func (q *Queryset) Schema() *record.Schema {
	return q.schema
}

func (q *Queryset) prepare(rec record.Record) (string, *record.Mapping, error) {
	id, err := queryset.EnsureIdentifier(rec)
	if err != nil {
		return id, nil, err
	}
	mapping := rec.CanonicalMapping()
	if q.schema != nil {
		if err := q.schema.Validate(mapping); err != nil {
			return id, nil, err
		}
	}
	return id, mapping, nil
}

// CreateOne implements queryset.Queryset.
func (q *Queryset) CreateOne(ctx context.Context, rec record.Record) (queryset.Result, error) {
	id, mapping, err := q.prepare(rec)
	if err != nil {
		return queryset.Rejected(id, err), err
	}

	q.mu.Lock()
	_, existed := q.data[id]
	q.data[id] = mapping.Clone()
	q.mu.Unlock()

	q.logger.Debug("put", zap.String("operation", "CreateOne"), zap.String("id", id), zap.Bool("existed", existed))
	return queryset.Put(id, existed, mapping), nil
}

// CreateMany implements queryset.Queryset.
func (q *Queryset) CreateMany(ctx context.Context, recs []record.Record) (queryset.BatchResult, error) {
	return queryset.Each(ctx, recs, q.CreateOne)
}

// ReadOne implements queryset.Queryset.
func (q *Queryset) ReadOne(ctx context.Context, id string) (queryset.Result, error) {
	q.mu.RLock()
	stored, ok := q.data[id]
	var out *record.Mapping
	if ok {
		out = stored.Clone()
	}
	q.mu.RUnlock()

	if !ok {
		q.logger.Debug("not found", zap.String("operation", "ReadOne"), zap.String("id", id))
		return queryset.Missing(id), nil
	}
	return queryset.Found(id, out), nil
}

// ReadMany implements queryset.Queryset.
func (q *Queryset) ReadMany(ctx context.Context, ids []string) (queryset.BatchResult, error) {
	return queryset.Each(ctx, ids, q.ReadOne)
}

// ReadAll implements queryset.Queryset. Order follows Go map iteration.
func (q *Queryset) ReadAll(ctx context.Context) (queryset.BatchResult, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	results := make(queryset.BatchResult, 0, len(q.data))
	for id, stored := range q.data {
		results = append(results, queryset.Found(id, stored.Clone()))
	}
	return results, nil
}

// UpdateOne implements queryset.Queryset. The record's delta against the
// stored mapping is merged into it.
func (q *Queryset) UpdateOne(ctx context.Context, rec record.Record) (queryset.Result, error) {
	id, mapping, err := q.prepare(rec)
	if err != nil {
		return queryset.Rejected(id, err), err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	stored, existed := q.data[id]
	if !existed {
		q.data[id] = mapping.Clone()
		q.logger.Debug("update created missing entity", zap.String("operation", "UpdateOne"), zap.String("id", id))
		return queryset.Put(id, false, mapping), nil
	}

	delta := rec.DiffAgainst(stored)
	merged := stored.Clone()
	merged.Merge(delta)
	q.data[id] = merged

	q.logger.Debug("merged", zap.String("operation", "UpdateOne"), zap.String("id", id), zap.Strings("fields", delta.Fields()))
	return queryset.Put(id, true, merged.Clone()), nil
}

// UpdateMany implements queryset.Queryset.
func (q *Queryset) UpdateMany(ctx context.Context, recs []record.Record) (queryset.BatchResult, error) {
	return queryset.Each(ctx, recs, q.UpdateOne)
}

// DestroyOne implements queryset.Queryset.
func (q *Queryset) DestroyOne(ctx context.Context, id string) (queryset.Result, error) {
	q.mu.Lock()
	stored, ok := q.data[id]
	if ok {
		delete(q.data, id)
	}
	q.mu.Unlock()

	if !ok {
		q.logger.Debug("not found", zap.String("operation", "DestroyOne"), zap.String("id", id))
		return queryset.Missing(id), nil
	}
	return queryset.Removed(id, stored), nil
}

// DestroyMany implements queryset.Queryset.
func (q *Queryset) DestroyMany(ctx context.Context, ids []string) (queryset.BatchResult, error) {
	return queryset.Each(ctx, ids, q.DestroyOne)
}

// Len returns the number of stored entities.
func (q *Queryset) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.data)
}

// Clear removes every stored entity.
func (q *Queryset) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.data = make(map[string]*record.Mapping)
}
