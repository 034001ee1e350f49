/*
Package queryset defines the CRUD contract shared by every storage backend.

A Queryset lets callers manipulate schema-validated records identically
whether they live in process memory, in a key-value service or in a document
store:

	type Queryset interface {
	    CreateOne(ctx context.Context, rec record.Record) (Result, error)
	    CreateMany(ctx context.Context, recs []record.Record) (BatchResult, error)
	    ReadOne(ctx context.Context, id string) (Result, error)
	    ReadMany(ctx context.Context, ids []string) (BatchResult, error)
	    ReadAll(ctx context.Context) (BatchResult, error)
	    UpdateOne(ctx context.Context, rec record.Record) (Result, error)
	    UpdateMany(ctx context.Context, recs []record.Record) (BatchResult, error)
	    DestroyOne(ctx context.Context, id string) (Result, error)
	    DestroyMany(ctx context.Context, ids []string) (BatchResult, error)
	}

Status vocabulary:
  - StatusCreated: the entity did not exist and is now stored
  - StatusUpdated: the entity existed and was overwritten, or was removed by a destroy
  - StatusOK: a read found the entity
  - StatusFailed: the entity did not exist; the payload is the identifier

Batch operations return one Result per input in input order and apply inputs
sequentially, so duplicate identifiers in one batch observe each other.

Errors are reserved for infrastructure faults (errors.ErrBackendUnavailable,
errors.ErrTranslation). A fault aborts the remainder of a batch; the results
produced before it are returned alongside the error.

Implementations:
  - memory: process-local reference backend
  - kv: one hash per record in a key-value service (Redis, bbolt)
  - docstore: one document per record in a document collection (DynamoDB, MongoDB)
*/
package queryset
