/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/suparena/querysets/queryset/docstore"
	"github.com/suparena/querysets/queryset/mock"
)

func TestHashClient(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		client := mock.NewHashClient()

		if err := client.Set(ctx, "u1", map[string]string{"id": `"u1"`, "name": `"a"`}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := client.SetFields(ctx, "u1", map[string]string{"name": `"b"`}); err != nil {
			t.Fatalf("SetFields failed: %v", err)
		}

		hash, ok, err := client.Get(ctx, "u1")
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if diff := cmp.Diff(map[string]string{"id": `"u1"`, "name": `"b"`}, hash); diff != "" {
			t.Fatalf("unexpected hash (-want +got):\n%s", diff)
		}

		// Returned hashes are copies.
		hash["name"] = `"c"`
		raw, _ := client.Raw("u1")
		if raw["name"] != `"b"` {
			t.Fatalf("stored hash was modified through a returned copy")
		}

		client.Load("u0", map[string]string{"id": `"u0"`})
		keys, err := client.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		if diff := cmp.Diff([]string{"u0", "u1"}, keys); diff != "" {
			t.Fatalf("unexpected keys (-want +got):\n%s", diff)
		}

		removed, err := client.Delete(ctx, "u1")
		if err != nil || !removed {
			t.Fatalf("Delete failed: removed=%v err=%v", removed, err)
		}
		if removed, _ := client.Delete(ctx, "u1"); removed {
			t.Fatalf("expected second Delete to report nothing removed")
		}
		if got := client.Calls("Delete"); got != 2 {
			t.Fatalf("expected 2 Delete calls, got %d", got)
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		client := mock.NewHashClient().WithGetError(io.EOF).WithKeysError(io.ErrUnexpectedEOF)

		if _, _, err := client.Get(ctx, "u1"); err != io.EOF {
			t.Fatalf("expected get error, got: %v", err)
		}
		if _, err := client.Keys(ctx); err != io.ErrUnexpectedEOF {
			t.Fatalf("expected keys error, got: %v", err)
		}

		client = mock.NewHashClient().FailOn("bad", io.EOF)
		if err := client.Set(ctx, "good", map[string]string{}); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := client.Set(ctx, "bad", map[string]string{}); err != io.EOF {
			t.Fatalf("expected per-key error, got: %v", err)
		}
		if _, ok := client.Raw("bad"); ok {
			t.Fatalf("failed Set must not store anything")
		}
	})
}

func TestCollection(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		coll := mock.NewCollection("_id").WithInjectedFields(docstore.Document{"EntityType": "user"})

		for _, id := range []string{"u2", "u1"} {
			if err := coll.Upsert(ctx, docstore.Document{"_id": id, "name": "a"}); err != nil {
				t.Fatalf("Upsert failed: %v", err)
			}
		}

		doc, ok, err := coll.FindOne(ctx, "_id", "u1")
		if err != nil || !ok {
			t.Fatalf("FindOne failed: ok=%v err=%v", ok, err)
		}
		want := docstore.Document{"_id": "u1", "name": "a", "EntityType": "user"}
		if diff := cmp.Diff(want, doc); diff != "" {
			t.Fatalf("unexpected document (-want +got):\n%s", diff)
		}

		if err := coll.Patch(ctx, "_id", "u1", docstore.Document{"name": "b"}); err != nil {
			t.Fatalf("Patch failed: %v", err)
		}
		if err := coll.Patch(ctx, "_id", "u9", docstore.Document{"name": "b"}); err == nil {
			t.Fatalf("expected Patch of a missing document to fail")
		}

		docs, err := coll.FindMany(ctx, "_id", []string{"u1", "u9", "u2"})
		if err != nil {
			t.Fatalf("FindMany failed: %v", err)
		}
		if len(docs) != 2 || docs[0]["name"] != "b" {
			t.Fatalf("unexpected documents: %v", docs)
		}

		all, err := coll.FindAll(ctx)
		if err != nil {
			t.Fatalf("FindAll failed: %v", err)
		}
		if len(all) != 2 || all[0]["_id"] != "u1" || all[1]["_id"] != "u2" {
			t.Fatalf("expected documents in key order, got %v", all)
		}

		removed, err := coll.Remove(ctx, "_id", "u1")
		if err != nil || !removed {
			t.Fatalf("Remove failed: removed=%v err=%v", removed, err)
		}
		if _, ok, _ := coll.FindOne(ctx, "_id", "u1"); ok {
			t.Fatalf("expected u1 to be removed")
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		coll := mock.NewCollection("_id").WithUpsertError(io.EOF)
		if err := coll.Upsert(ctx, docstore.Document{"_id": "u1"}); err != io.EOF {
			t.Fatalf("expected upsert error, got: %v", err)
		}

		coll = mock.NewCollection("_id").WithRemoveError(io.EOF)
		if _, err := coll.Remove(ctx, "_id", "u1"); err != io.EOF {
			t.Fatalf("expected remove error, got: %v", err)
		}

		coll = mock.NewCollection("_id").FailOn("u2", io.EOF)
		coll.Load("u1", docstore.Document{"_id": "u1"})
		if _, err := coll.FindMany(ctx, "_id", []string{"u1", "u2"}); err != io.EOF {
			t.Fatalf("expected per-key error from FindMany, got: %v", err)
		}
		if got := coll.Calls("FindMany"); got != 1 {
			t.Fatalf("expected 1 FindMany call, got %d", got)
		}

		if err := coll.Upsert(ctx, docstore.Document{"name": "no key"}); err == nil {
			t.Fatalf("expected Upsert without a key to fail")
		}
	})
}
