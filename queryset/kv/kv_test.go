/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kv_test

import (
	"compress/zlib"
	"context"
	stderrors "errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/queryset/kv"
	"github.com/suparena/querysets/queryset/mock"
	"github.com/suparena/querysets/queryset/querysettest"
	"github.com/suparena/querysets/record"
	"go.uber.org/zap/zaptest"
)

// plainClient hides the FieldSetter of the wrapped client.
type plainClient struct {
	kv.HashClient
}

func TestKeyValueQueryset(t *testing.T) {
	t.Run("FieldSetter", func(t *testing.T) {
		querysettest.Run(t, func(t *testing.T) queryset.Queryset {
			return kv.New(mock.NewHashClient(), querysettest.Schema, kv.WithLogger(zaptest.NewLogger(t)))
		})
	})

	t.Run("FullReplace", func(t *testing.T) {
		querysettest.Run(t, func(t *testing.T) queryset.Queryset {
			return kv.New(plainClient{mock.NewHashClient()}, querysettest.Schema, kv.WithLogger(zaptest.NewLogger(t)))
		})
	})

	t.Run("Compressed", func(t *testing.T) {
		querysettest.Run(t, func(t *testing.T) queryset.Queryset {
			return kv.New(mock.NewHashClient(), querysettest.Schema, kv.WithCompression(zlib.BestSpeed))
		})
	})
}

func TestValueEncoding(t *testing.T) {
	ctx := context.Background()
	schema := record.NewSchema("typed", "name", "count", "ratio", "active", "note")
	client := mock.NewHashClient()
	qs := kv.New(client, schema)

	doc := schema.NewDocument("foo").
		MustSet("name", "x").
		MustSet("count", 3).
		MustSet("ratio", 1.5).
		MustSet("active", true).
		MustSet("note", nil)
	if _, err := qs.CreateOne(ctx, doc); err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}

	raw, ok := client.Raw("foo")
	if !ok {
		t.Fatalf("expected a stored hash")
	}
	wantRaw := map[string]string{
		"id":     `"foo"`,
		"name":   `"x"`,
		"count":  `3`,
		"ratio":  `1.5`,
		"active": `true`,
		"note":   `null`,
	}
	if diff := cmp.Diff(wantRaw, raw); diff != "" {
		t.Fatalf("unexpected stored hash (-want +got):\n%s", diff)
	}

	res, err := qs.ReadOne(ctx, "foo")
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	want := []string{"id", "name", "count", "ratio", "active", "note"}
	if diff := cmp.Diff(want, res.Mapping.Fields()); diff != "" {
		t.Fatalf("unexpected field order (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(doc.CanonicalMapping().ToMap(), res.Mapping.ToMap()); diff != "" {
		t.Fatalf("values did not round trip (-want +got):\n%s", diff)
	}
}

func TestCompression(t *testing.T) {
	ctx := context.Background()
	client := mock.NewHashClient()
	compressed := kv.New(client, querysettest.Schema, kv.WithCompression(zlib.BestCompression))
	plain := kv.New(client, querysettest.Schema)

	if _, err := compressed.CreateOne(ctx, querysettest.Doc("foo", "squeeze me")); err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}
	raw, _ := client.Raw("foo")
	if v := raw["data"]; len(v) == 0 || v[0] != 0x78 {
		t.Fatalf("expected a zlib stream, got %q", v)
	}

	// Values written either way read back through both querysets.
	if _, err := plain.CreateOne(ctx, querysettest.Doc("bar", "as is")); err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}
	for _, qs := range []*kv.Queryset{compressed, plain} {
		results, err := qs.ReadMany(ctx, []string{"foo", "bar"})
		if err != nil {
			t.Fatalf("ReadMany failed: %v", err)
		}
		got := []any{}
		for _, res := range results {
			v, _ := res.Mapping.Get("data")
			got = append(got, v)
		}
		if diff := cmp.Diff([]any{"squeeze me", "as is"}, got); diff != "" {
			t.Fatalf("unexpected values (-want +got):\n%s", diff)
		}
	}
}

func TestNestedValuesRejected(t *testing.T) {
	ctx := context.Background()
	schema := record.NewSchema("nested", "tags")
	client := mock.NewHashClient()
	qs := kv.New(client, schema)

	bad := schema.NewDocument("bad").MustSet("tags", []any{"a", "b"})
	res, err := qs.CreateOne(ctx, bad)
	if !errors.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if res.Status != queryset.StatusFailed || res.ID != "bad" {
		t.Fatalf("expected a rejected result for bad, got %+v", res)
	}
	if client.Calls("Set") != 0 {
		t.Fatalf("nothing should be written for a rejected record")
	}

	results, err := qs.CreateMany(ctx, []record.Record{schema.NewDocument("ok"), bad, schema.NewDocument("ok2")})
	if err != nil {
		t.Fatalf("rejected record should not abort the batch: %v", err)
	}
	want := []queryset.Status{queryset.StatusCreated, queryset.StatusFailed, queryset.StatusCreated}
	if diff := cmp.Diff(want, results.Statuses()); diff != "" {
		t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
	}
}

func TestUpdateWritesOnlyChangedFields(t *testing.T) {
	ctx := context.Background()
	client := mock.NewHashClient()
	qs := kv.New(client, querysettest.Schema)

	if _, err := qs.CreateOne(ctx, querysettest.Doc("foo", "").MustSet("count", 7)); err != nil {
		t.Fatalf("CreateOne failed: %v", err)
	}
	if _, err := qs.UpdateOne(ctx, querysettest.Doc("foo", "foob").MustSet("count", 7)); err != nil {
		t.Fatalf("UpdateOne failed: %v", err)
	}

	if client.Calls("SetFields") != 1 || client.Calls("Set") != 1 {
		t.Fatalf("expected one full write and one field write, got Set=%d SetFields=%d",
			client.Calls("Set"), client.Calls("SetFields"))
	}
	raw, _ := client.Raw("foo")
	if diff := cmp.Diff(map[string]string{"id": `"foo"`, "data": `"foob"`, "count": `7`}, raw); diff != "" {
		t.Fatalf("unexpected stored hash (-want +got):\n%s", diff)
	}
}

func TestFaults(t *testing.T) {
	ctx := context.Background()
	boom := stderrors.New("connection refused")

	t.Run("ReadOne", func(t *testing.T) {
		qs := kv.New(mock.NewHashClient().WithGetError(boom), querysettest.Schema)
		_, err := qs.ReadOne(ctx, "foo")
		if !errors.IsBackendUnavailable(err) {
			t.Fatalf("expected backend fault, got %v", err)
		}
		if !stderrors.Is(err, boom) {
			t.Fatalf("expected the client error to be wrapped, got %v", err)
		}
	})

	t.Run("ReadAll", func(t *testing.T) {
		qs := kv.New(mock.NewHashClient().WithKeysError(boom), querysettest.Schema)
		if _, err := qs.ReadAll(ctx); !errors.IsBackendUnavailable(err) {
			t.Fatalf("expected backend fault, got %v", err)
		}
	})

	t.Run("DestroyOne", func(t *testing.T) {
		client := mock.NewHashClient().WithDeleteError(boom)
		qs := kv.New(client, querysettest.Schema)
		if _, err := qs.CreateOne(ctx, querysettest.Doc("foo", "")); err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}
		if _, err := qs.DestroyOne(ctx, "foo"); !errors.IsBackendUnavailable(err) {
			t.Fatalf("expected backend fault, got %v", err)
		}
	})

	t.Run("BatchAbortsAtFault", func(t *testing.T) {
		client := mock.NewHashClient().FailOn("bar", boom)
		qs := kv.New(client, querysettest.Schema)

		results, err := qs.CreateMany(ctx, []record.Record{
			querysettest.Doc("foo", ""), querysettest.Doc("bar", ""), querysettest.Doc("baz", ""),
		})
		if !errors.IsBackendUnavailable(err) {
			t.Fatalf("expected backend fault, got %v", err)
		}
		if diff := cmp.Diff([]queryset.Status{queryset.StatusCreated}, results.Statuses()); diff != "" {
			t.Fatalf("unexpected partial results (-want +got):\n%s", diff)
		}
		if _, ok := client.Raw("baz"); ok {
			t.Fatalf("records after the fault must not be written")
		}
	})
}

func TestCorruptStoredValue(t *testing.T) {
	client := mock.NewHashClient()
	client.Load("foo", map[string]string{"id": `"foo"`, "data": "not json"})
	qs := kv.New(client, querysettest.Schema)

	_, err := qs.ReadOne(context.Background(), "foo")
	if !errors.IsTranslationError(err) {
		t.Fatalf("expected translation error, got %v", err)
	}
}

func TestReadProjectsThroughSchema(t *testing.T) {
	client := mock.NewHashClient()
	client.Load("foo", map[string]string{"legacy": `"gone"`, "data": `"x"`, "id": `"foo"`})
	qs := kv.New(client, querysettest.Schema)

	res, err := qs.ReadOne(context.Background(), "foo")
	if err != nil {
		t.Fatalf("ReadOne failed: %v", err)
	}
	if diff := cmp.Diff([]string{"id", "data"}, res.Mapping.Fields()); diff != "" {
		t.Fatalf("unexpected fields (-want +got):\n%s", diff)
	}
}
