/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package queryset

import (
	"context"

	"github.com/google/uuid"
	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/record"
)

// Create routes a single record to CreateOne and anything else to CreateMany.
func Create(ctx context.Context, qs Queryset, recs ...record.Record) (BatchResult, error) {
	if len(recs) == 1 {
		return one(qs.CreateOne(ctx, recs[0]))
	}
	return qs.CreateMany(ctx, recs)
}

// Read routes no identifiers to ReadAll, one to ReadOne and several to ReadMany.
func Read(ctx context.Context, qs Queryset, ids ...string) (BatchResult, error) {
	switch len(ids) {
	case 0:
		return qs.ReadAll(ctx)
	case 1:
		return one(qs.ReadOne(ctx, ids[0]))
	default:
		return qs.ReadMany(ctx, ids)
	}
}

// Update routes a single record to UpdateOne and anything else to UpdateMany.
func Update(ctx context.Context, qs Queryset, recs ...record.Record) (BatchResult, error) {
	if len(recs) == 1 {
		return one(qs.UpdateOne(ctx, recs[0]))
	}
	return qs.UpdateMany(ctx, recs)
}

// Destroy routes a single identifier to DestroyOne and anything else to DestroyMany.
func Destroy(ctx context.Context, qs Queryset, ids ...string) (BatchResult, error) {
	if len(ids) == 1 {
		return one(qs.DestroyOne(ctx, ids[0]))
	}
	return qs.DestroyMany(ctx, ids)
}

func one(res Result, err error) (BatchResult, error) {
	if err != nil {
		if res.Status == StatusFailed {
			return BatchResult{res}, err
		}
		return nil, err
	}
	return BatchResult{res}, nil
}

// EnsureIdentifier returns rec's identifier, assigning a new UUID first when
// it is empty and rec accepts one.
func EnsureIdentifier(rec record.Record) (string, error) {
	if id := rec.Identifier(); id != "" {
		return id, nil
	}
	setter, ok := rec.(record.IdentifierSetter)
	if !ok {
		return "", errors.NewValidationError("", "record has no identifier and cannot be assigned one")
	}
	id := uuid.NewString()
	setter.SetIdentifier(id)
	return id, nil
}
