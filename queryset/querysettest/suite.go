/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package querysettest holds the behavior every queryset backend must share.
// Backend tests call Run with a factory that returns an empty queryset.
package querysettest

import (
	"context"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/record"
)

// Schema is the record shape used by the suite.
var Schema = &record.Schema{
	Name:    "test",
	IDField: record.DefaultIDField,
	Fields: []record.Field{
		{Name: "data"},
		{Name: "count"},
		{Name: "email", Format: "email"},
	},
}

// Factory returns an empty queryset storing records of Schema.
type Factory func(t *testing.T) queryset.Queryset

// Doc builds a test record with the given identifier and data field.
func Doc(id, data string) *record.Document {
	return Schema.NewDocument(id).MustSet("data", data)
}

// looseRecord carries whatever fields it is given, declared or not.
type looseRecord struct {
	m *record.Mapping
}

func (r looseRecord) Identifier() string {
	id, _ := r.m.GetString(record.DefaultIDField)
	return id
}

func (r looseRecord) CanonicalMapping() *record.Mapping { return r.m.Clone() }

func (r looseRecord) DiffAgainst(baseline *record.Mapping) *record.Mapping {
	return record.Diff(record.DefaultIDField, r.m, baseline)
}

func records(docs ...*record.Document) []record.Record {
	out := make([]record.Record, len(docs))
	for i, d := range docs {
		out[i] = d
	}
	return out
}

func seed(t *testing.T, ctx context.Context, qs queryset.Queryset) []*record.Document {
	t.Helper()
	docs := []*record.Document{Doc("foo", ""), Doc("bar", ""), Doc("baz", "")}
	if _, err := qs.CreateMany(ctx, records(docs...)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return docs
}

func expectStatuses(t *testing.T, results queryset.BatchResult, want ...queryset.Status) {
	t.Helper()
	if diff := cmp.Diff(want, results.Statuses()); diff != "" {
		t.Fatalf("unexpected statuses (-want +got):\n%s", diff)
	}
}

func expectMapping(t *testing.T, want, got *record.Mapping) {
	t.Helper()
	if diff := cmp.Diff(want.ToMap(), got.ToMap()); diff != "" {
		t.Fatalf("unexpected mapping (-want +got):\n%s", diff)
	}
}

func sortedMaps(ms []*record.Mapping) []map[string]any {
	out := make([]map[string]any, len(ms))
	for i, m := range ms {
		out[i] = m.ToMap()
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := out[i]["id"].(string)
		b, _ := out[j]["id"].(string)
		return a < b
	})
	return out
}

// Run executes the shared behavior against querysets built by newQueryset.
func Run(t *testing.T, newQueryset Factory) {
	ctx := context.Background()

	t.Run("CreateOneTwice", func(t *testing.T) {
		qs := newQueryset(t)
		doc := Doc("foo", "")

		first, err := qs.CreateOne(ctx, doc)
		if err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}
		if first.Status != queryset.StatusCreated {
			t.Fatalf("expected %s, got %s", queryset.StatusCreated, first.Status)
		}
		expectMapping(t, doc.CanonicalMapping(), first.Mapping)

		second, err := qs.CreateOne(ctx, doc)
		if err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}
		if second.Status != queryset.StatusUpdated {
			t.Fatalf("expected %s, got %s", queryset.StatusUpdated, second.Status)
		}
	})

	t.Run("CreateOneOverwrites", func(t *testing.T) {
		qs := newQueryset(t)
		if _, err := qs.CreateOne(ctx, Doc("foo", "a").MustSet("count", 3)); err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}
		replacement := Doc("foo", "b")
		if _, err := qs.CreateOne(ctx, replacement); err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}
		res, err := qs.ReadOne(ctx, "foo")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		expectMapping(t, replacement.CanonicalMapping(), res.Mapping)
	})

	t.Run("CreateMany", func(t *testing.T) {
		qs := newQueryset(t)
		foo, bar, baz := Doc("foo", ""), Doc("bar", ""), Doc("baz", "")

		results, err := qs.CreateMany(ctx, records(foo, bar, baz))
		if err != nil {
			t.Fatalf("CreateMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusCreated, queryset.StatusCreated, queryset.StatusCreated)

		results, err = qs.CreateMany(ctx, records(foo, Doc("bloop", ""), baz))
		if err != nil {
			t.Fatalf("CreateMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusUpdated, queryset.StatusCreated, queryset.StatusUpdated)
		for i, id := range []string{"foo", "bloop", "baz"} {
			if results[i].ID != id {
				t.Fatalf("result %d: expected id %q, got %q", i, id, results[i].ID)
			}
		}
	})

	t.Run("CreateManyDuplicatesApplySequentially", func(t *testing.T) {
		qs := newQueryset(t)
		results, err := qs.CreateMany(ctx, records(Doc("dup", "first"), Doc("dup", "second")))
		if err != nil {
			t.Fatalf("CreateMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusCreated, queryset.StatusUpdated)

		res, err := qs.ReadOne(ctx, "dup")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		if v, _ := res.Mapping.Get("data"); v != "second" {
			t.Fatalf("expected last write to win, got %v", v)
		}
	})

	t.Run("CreateAssignsIdentifier", func(t *testing.T) {
		qs := newQueryset(t)
		doc := Doc("", "anon")

		res, err := qs.CreateOne(ctx, doc)
		if err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}
		if res.ID == "" || res.ID != doc.Identifier() {
			t.Fatalf("expected an assigned identifier, got result %q record %q", res.ID, doc.Identifier())
		}
		read, err := qs.ReadOne(ctx, res.ID)
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		if read.Status != queryset.StatusOK {
			t.Fatalf("expected %s, got %s", queryset.StatusOK, read.Status)
		}
	})

	t.Run("ReadOne", func(t *testing.T) {
		qs := newQueryset(t)
		docs := seed(t, ctx, qs)

		for _, doc := range docs {
			res, err := qs.ReadOne(ctx, doc.Identifier())
			if err != nil {
				t.Fatalf("ReadOne failed: %v", err)
			}
			if res.Status != queryset.StatusOK {
				t.Fatalf("expected %s, got %s", queryset.StatusOK, res.Status)
			}
			expectMapping(t, doc.CanonicalMapping(), res.Mapping)
		}
	})

	t.Run("ReadOneMissing", func(t *testing.T) {
		qs := newQueryset(t)
		seed(t, ctx, qs)

		res, err := qs.ReadOne(ctx, "DOESNTEXIST")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		if res.Status != queryset.StatusFailed {
			t.Fatalf("expected %s, got %s", queryset.StatusFailed, res.Status)
		}
		if res.Payload() != "DOESNTEXIST" {
			t.Fatalf("expected identifier payload, got %v", res.Payload())
		}
	})

	t.Run("ReadManyPreservesOrder", func(t *testing.T) {
		qs := newQueryset(t)
		seed(t, ctx, qs)

		ids := []string{"foo", "missing-1", "bar", "missing-2", "foo"}
		results, err := qs.ReadMany(ctx, ids)
		if err != nil {
			t.Fatalf("ReadMany failed: %v", err)
		}
		expectStatuses(t, results,
			queryset.StatusOK, queryset.StatusFailed, queryset.StatusOK, queryset.StatusFailed, queryset.StatusOK)
		for i, id := range ids {
			if results[i].ID != id {
				t.Fatalf("result %d: expected id %q, got %q", i, id, results[i].ID)
			}
			if results[i].Succeeded() {
				if got, _ := results[i].Mapping.GetString("id"); got != id {
					t.Fatalf("result %d: payload belongs to %q, want %q", i, got, id)
				}
			} else if results[i].Payload() != id {
				t.Fatalf("result %d: expected payload %q, got %v", i, id, results[i].Payload())
			}
		}
	})

	t.Run("ReadAll", func(t *testing.T) {
		qs := newQueryset(t)
		docs := seed(t, ctx, qs)

		results, err := qs.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		for _, res := range results {
			if res.Status != queryset.StatusOK {
				t.Fatalf("expected %s, got %s", queryset.StatusOK, res.Status)
			}
		}
		want := make([]*record.Mapping, len(docs))
		for i, d := range docs {
			want[i] = d.CanonicalMapping()
		}
		if diff := cmp.Diff(sortedMaps(want), sortedMaps(results.Mappings())); diff != "" {
			t.Fatalf("unexpected payloads (-want +got):\n%s", diff)
		}

		if _, err := qs.DestroyOne(ctx, "bar"); err != nil {
			t.Fatalf("DestroyOne failed: %v", err)
		}
		results, err = qs.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		want = []*record.Mapping{docs[0].CanonicalMapping(), docs[2].CanonicalMapping()}
		if diff := cmp.Diff(sortedMaps(want), sortedMaps(results.Mappings())); diff != "" {
			t.Fatalf("unexpected payloads after destroy (-want +got):\n%s", diff)
		}
	})

	t.Run("ReadAllEmpty", func(t *testing.T) {
		qs := newQueryset(t)
		results, err := qs.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(results) != 0 {
			t.Fatalf("expected no results, got %d", len(results))
		}
	})

	t.Run("UpdateOneChangesOneField", func(t *testing.T) {
		qs := newQueryset(t)
		if _, err := qs.CreateOne(ctx, Doc("foo", "").MustSet("count", 1)); err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}

		res, err := qs.UpdateOne(ctx, Doc("foo", "foob").MustSet("count", 1))
		if err != nil {
			t.Fatalf("UpdateOne failed: %v", err)
		}
		if res.Status != queryset.StatusUpdated {
			t.Fatalf("expected %s, got %s", queryset.StatusUpdated, res.Status)
		}
		want := record.MappingOf("id", "foo", "data", "foob", "count", int64(1))
		expectMapping(t, want, res.Mapping)

		read, err := qs.ReadOne(ctx, "foo")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		expectMapping(t, want, read.Mapping)
	})

	t.Run("UpdateOneKeepsUnchangedFields", func(t *testing.T) {
		qs := newQueryset(t)
		if _, err := qs.CreateOne(ctx, Doc("foo", "").MustSet("count", 7)); err != nil {
			t.Fatalf("CreateOne failed: %v", err)
		}

		// The update record does not carry count at all.
		res, err := qs.UpdateOne(ctx, Doc("foo", "foob"))
		if err != nil {
			t.Fatalf("UpdateOne failed: %v", err)
		}
		expectMapping(t, record.MappingOf("id", "foo", "data", "foob", "count", int64(7)), res.Mapping)
	})

	t.Run("UpdateOneMissingCreates", func(t *testing.T) {
		qs := newQueryset(t)
		res, err := qs.UpdateOne(ctx, Doc("new", "x"))
		if err != nil {
			t.Fatalf("UpdateOne failed: %v", err)
		}
		if res.Status != queryset.StatusCreated {
			t.Fatalf("expected %s, got %s", queryset.StatusCreated, res.Status)
		}
		read, err := qs.ReadOne(ctx, "new")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		if read.Status != queryset.StatusOK {
			t.Fatalf("expected %s, got %s", queryset.StatusOK, read.Status)
		}
	})

	t.Run("UpdateMany", func(t *testing.T) {
		qs := newQueryset(t)
		docs := seed(t, ctx, qs)
		for _, d := range docs {
			d.MustSet("data", "foob")
		}

		results, err := qs.UpdateMany(ctx, records(docs...))
		if err != nil {
			t.Fatalf("UpdateMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusUpdated, queryset.StatusUpdated, queryset.StatusUpdated)
		for _, res := range results {
			if v, _ := res.Mapping.Get("data"); v != "foob" {
				t.Fatalf("expected data foob, got %v", v)
			}
		}

		all, err := qs.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 entities, got %d", len(all))
		}
		for _, res := range all {
			if res.Status != queryset.StatusOK {
				t.Fatalf("expected %s, got %s", queryset.StatusOK, res.Status)
			}
			if v, _ := res.Mapping.Get("data"); v != "foob" {
				t.Fatalf("expected data foob, got %v", v)
			}
		}
	})

	t.Run("UpdateManyInterleaved", func(t *testing.T) {
		qs := newQueryset(t)
		if _, err := qs.CreateMany(ctx, records(Doc("foo", "old"), Doc("baz", "old"))); err != nil {
			t.Fatalf("CreateMany failed: %v", err)
		}

		ids := []string{"new1", "foo", "new2", "baz"}
		docs := make([]*record.Document, len(ids))
		for i, id := range ids {
			docs[i] = Doc(id, "data-"+id)
		}
		results, err := qs.UpdateMany(ctx, records(docs...))
		if err != nil {
			t.Fatalf("UpdateMany failed: %v", err)
		}
		expectStatuses(t, results,
			queryset.StatusCreated, queryset.StatusUpdated, queryset.StatusCreated, queryset.StatusUpdated)
		for i, id := range ids {
			if results[i].ID != id {
				t.Fatalf("result %d: expected id %q, got %q", i, id, results[i].ID)
			}
			expectMapping(t, docs[i].CanonicalMapping(), results[i].Mapping)
		}

		all, err := qs.ReadAll(ctx)
		if err != nil {
			t.Fatalf("ReadAll failed: %v", err)
		}
		if len(all) != 4 {
			t.Fatalf("expected 4 entities, got %d", len(all))
		}
	})

	t.Run("RejectsInvalidRecords", func(t *testing.T) {
		qs := newQueryset(t)
		invalid := Doc("foo", "").MustSet("email", "not-an-email")

		res, err := qs.CreateOne(ctx, invalid)
		if !errors.IsValidationError(err) {
			t.Fatalf("expected validation error, got %v", err)
		}
		if res.Status != queryset.StatusFailed || res.ID != "foo" || !errors.IsValidationError(res.Err) {
			t.Fatalf("expected a rejected result for foo, got %+v", res)
		}
		read, err := qs.ReadOne(ctx, "foo")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		if read.Status != queryset.StatusFailed {
			t.Fatalf("rejected record was stored: %s", read.Status)
		}

		undeclared := looseRecord{record.MappingOf("id", "bar", "data", "x", "extra", "y")}
		if _, err := qs.CreateOne(ctx, undeclared); !errors.IsValidationError(err) {
			t.Fatalf("expected validation error for an undeclared field, got %v", err)
		}

		results, err := qs.CreateMany(ctx, records(Doc("a", ""), Doc("b", "").MustSet("email", "nope"), Doc("c", "").MustSet("email", "c@example.com")))
		if err != nil {
			t.Fatalf("CreateMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusCreated, queryset.StatusFailed, queryset.StatusCreated)

		res, err = qs.UpdateOne(ctx, Doc("a", "changed").MustSet("email", "nope"))
		if !errors.IsValidationError(err) || res.Status != queryset.StatusFailed {
			t.Fatalf("expected rejected update, got %+v, %v", res, err)
		}
		read, err = qs.ReadOne(ctx, "a")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		expectMapping(t, Doc("a", "").CanonicalMapping(), read.Mapping)
	})

	t.Run("UpdateManyDuplicatesApplySequentially", func(t *testing.T) {
		qs := newQueryset(t)
		results, err := qs.UpdateMany(ctx, records(Doc("dup", "first"), Doc("dup", "second").MustSet("count", 2)))
		if err != nil {
			t.Fatalf("UpdateMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusCreated, queryset.StatusUpdated)
		expectMapping(t, record.MappingOf("id", "dup", "data", "second", "count", int64(2)), results[1].Mapping)
	})

	t.Run("DestroyOne", func(t *testing.T) {
		qs := newQueryset(t)
		docs := seed(t, ctx, qs)

		res, err := qs.DestroyOne(ctx, "foo")
		if err != nil {
			t.Fatalf("DestroyOne failed: %v", err)
		}
		if res.Status != queryset.StatusUpdated {
			t.Fatalf("expected %s, got %s", queryset.StatusUpdated, res.Status)
		}
		expectMapping(t, docs[0].CanonicalMapping(), res.Mapping)

		read, err := qs.ReadOne(ctx, "foo")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		if read.Status != queryset.StatusFailed || read.Payload() != "foo" {
			t.Fatalf("expected (%s, foo), got (%s, %v)", queryset.StatusFailed, read.Status, read.Payload())
		}
	})

	t.Run("DestroyOneMissing", func(t *testing.T) {
		qs := newQueryset(t)
		res, err := qs.DestroyOne(ctx, "ghost")
		if err != nil {
			t.Fatalf("DestroyOne failed: %v", err)
		}
		if res.Status != queryset.StatusFailed || res.Payload() != "ghost" {
			t.Fatalf("expected (%s, ghost), got (%s, %v)", queryset.StatusFailed, res.Status, res.Payload())
		}
	})

	t.Run("DestroyMany", func(t *testing.T) {
		qs := newQueryset(t)
		docs := seed(t, ctx, qs)

		results, err := qs.DestroyMany(ctx, []string{"foo", "bar"})
		if err != nil {
			t.Fatalf("DestroyMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusUpdated, queryset.StatusUpdated)

		results, err = qs.ReadMany(ctx, []string{"foo", "bar"})
		if err != nil {
			t.Fatalf("ReadMany failed: %v", err)
		}
		expectStatuses(t, results, queryset.StatusFailed, queryset.StatusFailed)

		res, err := qs.ReadOne(ctx, "baz")
		if err != nil {
			t.Fatalf("ReadOne failed: %v", err)
		}
		if res.Status != queryset.StatusOK {
			t.Fatalf("expected %s, got %s", queryset.StatusOK, res.Status)
		}
		expectMapping(t, docs[2].CanonicalMapping(), res.Mapping)
	})

	t.Run("DestroyManyInterleaved", func(t *testing.T) {
		qs := newQueryset(t)
		seed(t, ctx, qs)

		results, err := qs.DestroyMany(ctx, []string{"nope", "foo", "foo", "baz"})
		if err != nil {
			t.Fatalf("DestroyMany failed: %v", err)
		}
		expectStatuses(t, results,
			queryset.StatusFailed, queryset.StatusUpdated, queryset.StatusFailed, queryset.StatusUpdated)
		if results[0].Payload() != "nope" || results[2].Payload() != "foo" {
			t.Fatalf("unexpected failure payloads: %v, %v", results[0].Payload(), results[2].Payload())
		}
	})
}
