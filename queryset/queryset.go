/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package queryset

import (
	"context"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/record"
)

// Queryset is the CRUD contract every backend honors. Data-level outcomes are
// reported through Result.Status. A returned error means the backend could not
// serve the call, or the input was rejected, in which case the Result is
// StatusFailed and carries the validation error too.
type Queryset interface {
	// CreateOne stores rec, overwriting any entity with the same identifier.
	// Status is StatusCreated for a new entity and StatusUpdated otherwise.
	CreateOne(ctx context.Context, rec record.Record) (Result, error)

	// CreateMany applies CreateOne to each record in order.
	CreateMany(ctx context.Context, recs []record.Record) (BatchResult, error)

	// ReadOne returns StatusOK with the stored mapping, or StatusFailed with id.
	ReadOne(ctx context.Context, id string) (Result, error)

	// ReadMany applies ReadOne to each identifier in order.
	ReadMany(ctx context.Context, ids []string) (BatchResult, error)

	// ReadAll returns every stored entity once. Order is backend-defined.
	ReadAll(ctx context.Context) (BatchResult, error)

	// UpdateOne applies rec's changes to the stored entity and returns
	// StatusUpdated with the full resulting mapping. A missing entity is
	// created and reported as StatusCreated.
	UpdateOne(ctx context.Context, rec record.Record) (Result, error)

	// UpdateMany applies UpdateOne to each record in order.
	UpdateMany(ctx context.Context, recs []record.Record) (BatchResult, error)

	// DestroyOne removes the entity and returns StatusUpdated with the removed
	// mapping, or StatusFailed with id.
	DestroyOne(ctx context.Context, id string) (Result, error)

	// DestroyMany applies DestroyOne to each identifier in order.
	DestroyMany(ctx context.Context, ids []string) (BatchResult, error)
}

// Each runs fn over inputs sequentially, so later inputs observe the effects
// of earlier ones. A rejected input (a StatusFailed result carrying a
// validation error) is recorded and the batch continues; any other error
// stops the batch and the results gathered so far are returned with it.
func Each[In any](ctx context.Context, inputs []In, fn func(context.Context, In) (Result, error)) (BatchResult, error) {
	results := make(BatchResult, 0, len(inputs))
	for _, in := range inputs {
		res, err := fn(ctx, in)
		if err != nil {
			if res.Status == StatusFailed && errors.IsValidationError(err) {
				results = append(results, res)
				continue
			}
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}
