/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package docstore_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/queryset/docstore"
	"github.com/suparena/querysets/queryset/mock"
	"github.com/suparena/querysets/queryset/querysettest"
	"github.com/suparena/querysets/record"
	"go.uber.org/zap/zaptest"
)

// basicCollection hides the optional capabilities of the wrapped collection.
type basicCollection struct {
	docstore.Collection
}

func TestDocumentStoreQueryset(t *testing.T) {
	t.Run("BatchFinderAndPatcher", func(t *testing.T) {
		querysettest.Run(t, func(t *testing.T) queryset.Queryset {
			coll := mock.NewCollection(docstore.DefaultNativeKey).
				WithInjectedFields(docstore.Document{"EntityType": "test"})
			return docstore.New(coll, querysettest.Schema, docstore.WithLogger(zaptest.NewLogger(t)))
		})
	})

	t.Run("Basic", func(t *testing.T) {
		querysettest.Run(t, func(t *testing.T) queryset.Queryset {
			return docstore.New(basicCollection{mock.NewCollection(docstore.DefaultNativeKey)}, querysettest.Schema)
		})
	})

	t.Run("CustomNativeKey", func(t *testing.T) {
		querysettest.Run(t, func(t *testing.T) queryset.Queryset {
			return docstore.New(mock.NewCollection("PK"), querysettest.Schema, docstore.WithNativeKey("PK"))
		})
	})
}

func TestTranslation(t *testing.T) {
	schema := querysettest.Schema
	m := record.MappingOf("id", "foo", "data", "x", "count", int64(2))

	doc := docstore.ToDocument(schema, "_id", m)
	if diff := cmp.Diff(docstore.Document{"_id": "foo", "data": "x", "count": int64(2)}, doc); diff != "" {
		t.Fatalf("unexpected document (-want +got):\n%s", diff)
	}

	doc["EntityType"] = "test"
	back, err := docstore.FromDocument(schema, "_id", doc)
	if err != nil {
		t.Fatalf("FromDocument failed: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "data", "count"}, back.Fields()); diff != "" {
		t.Fatalf("unexpected fields (-want +got):\n%s", diff)
	}
	if !back.Equal(m) {
		t.Fatalf("expected %v, got %v", m, back)
	}

	tests := []struct {
		name string
		doc  docstore.Document
	}{
		{"missing key", docstore.Document{"data": "x"}},
		{"non-string key", docstore.Document{"_id": 42, "data": "x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := docstore.FromDocument(schema, "_id", tt.doc); !errors.IsTranslationError(err) {
				t.Fatalf("expected translation error, got %v", err)
			}
		})
	}
}

func TestStoredDocumentsUseNativeKey(t *testing.T) {
	ctx := context.Background()
	coll := mock.NewCollection("_id")
	qs := docstore.New(coll, querysettest.Schema)

	res, err := qs.CreateOne(ctx, querysettest.Doc("foo", "x"))
	if err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}
	if _, ok := res.Mapping.Get("_id"); ok {
		t.Fatalf("payload must carry the identifier field, got %v", res.Mapping)
	}

	raw, ok := coll.Raw("foo")
	if !ok {
		t.Fatalf("expected a stored document")
	}
	if _, ok := raw["id"]; ok {
		t.Fatalf("stored document must not carry the identifier field, got %v", raw)
	}
}

func TestReadManyPartialSuccess(t *testing.T) {
	ctx := context.Background()
	coll := mock.NewCollection("_id")
	qs := docstore.New(coll, querysettest.Schema)

	if _, err := qs.CreateMany(ctx, []record.Record{querysettest.Doc("a", ""), querysettest.Doc("c", "")}); err != nil {
		t.Fatalf("CreateMany failed: %v", err)
	}

	results, err := qs.ReadMany(ctx, []string{"a", "b", "c", "a"})
	if err != nil {
		t.Fatalf("ReadMany failed: %v", err)
	}
	want := []queryset.Status{queryset.StatusOK, queryset.StatusFailed, queryset.StatusOK, queryset.StatusOK}
	if diff := cmp.Diff(want, results.Statuses()); diff != "" {
		t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
	}
	if results[1].Payload() != "b" {
		t.Fatalf("expected identifier payload, got %v", results[1].Payload())
	}
	if coll.Calls("FindMany") != 1 || coll.Calls("FindOne") != 2 {
		t.Fatalf("expected one batch lookup, got FindMany=%d FindOne=%d", coll.Calls("FindMany"), coll.Calls("FindOne"))
	}
}

func TestUpdatePatchesChangedFields(t *testing.T) {
	ctx := context.Background()
	coll := mock.NewCollection("_id")
	qs := docstore.New(coll, querysettest.Schema)

	if _, err := qs.CreateOne(ctx, querysettest.Doc("foo", "").MustSet("count", 7)); err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}
	res, err := qs.UpdateOne(ctx, querysettest.Doc("foo", "foob"))
	if err != nil {
		t.Fatalf("UpdateOne failed: %v", err)
	}
	if coll.Calls("Patch") != 1 || coll.Calls("Upsert") != 1 {
		t.Fatalf("expected a patch after the initial upsert, got Patch=%d Upsert=%d", coll.Calls("Patch"), coll.Calls("Upsert"))
	}
	want := record.MappingOf("id", "foo", "data", "foob", "count", int64(7))
	if !res.Mapping.Equal(want) {
		t.Fatalf("expected %v, got %v", want, res.Mapping)
	}
}

func TestStoredDocumentWithoutKey(t *testing.T) {
	coll := mock.NewCollection("_id")
	coll.Load("broken", docstore.Document{"data": "x"})
	qs := docstore.New(coll, querysettest.Schema)

	if _, err := qs.ReadAll(context.Background()); !errors.IsTranslationError(err) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestFaults(t *testing.T) {
	ctx := context.Background()
	boom := stderrors.New("server selection timeout")

	t.Run("ReadMany", func(t *testing.T) {
		qs := docstore.New(mock.NewCollection("_id").WithFindError(boom), querysettest.Schema)
		results, err := qs.ReadMany(ctx, []string{"a", "b"})
		if !errors.IsBackendUnavailable(err) || !stderrors.Is(err, boom) {
			t.Fatalf("expected wrapped backend fault, got %v", err)
		}
		if results != nil {
			t.Fatalf("expected no results, got %v", results)
		}
	})

	t.Run("CreateOne", func(t *testing.T) {
		qs := docstore.New(mock.NewCollection("_id").WithUpsertError(boom), querysettest.Schema)
		if _, err := qs.CreateOne(ctx, querysettest.Doc("foo", "")); !errors.IsBackendUnavailable(err) {
			t.Fatalf("expected backend fault, got %v", err)
		}
	})

	t.Run("DestroyManyAbortsAtFault", func(t *testing.T) {
		coll := mock.NewCollection("_id")
		qs := docstore.New(coll, querysettest.Schema)
		if _, err := qs.CreateMany(ctx, []record.Record{querysettest.Doc("foo", ""), querysettest.Doc("bar", "")}); err != nil {
			t.Fatalf("CreateMany failed: %v", err)
		}
		coll.FailOn("bar", boom)

		results, err := qs.DestroyMany(ctx, []string{"nope", "foo", "bar", "foo"})
		if !errors.IsBackendUnavailable(err) {
			t.Fatalf("expected backend fault, got %v", err)
		}
		want := []queryset.Status{queryset.StatusFailed, queryset.StatusUpdated}
		if diff := cmp.Diff(want, results.Statuses()); diff != "" {
			t.Fatalf("unexpected partial results (-want +got):\n%s", diff)
		}
	})

	t.Run("RejectedRecord", func(t *testing.T) {
		schema := record.NewSchema("strict", "email")
		schema.Fields[0].Format = "email"
		qs := docstore.New(mock.NewCollection("_id"), schema)

		res, err := qs.CreateOne(ctx, schema.NewDocument("foo").MustSet("email", "not an address"))
		if !errors.IsValidationError(err) || res.Status != queryset.StatusFailed {
			t.Fatalf("expected rejected result, got %+v / %v", res, err)
		}
	})
}
