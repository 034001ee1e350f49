/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mongo implements docstore.Collection on a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/suparena/querysets/queryset/docstore"
	"github.com/suparena/querysets/record"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	_ docstore.Collection  = (*Collection)(nil)
	_ docstore.BatchFinder = (*Collection)(nil)
	_ docstore.Patcher     = (*Collection)(nil)
)

// Collection stores documents in a MongoDB collection keyed by keyField
// ("_id" unless configured otherwise).
type Collection struct {
	coll     *mongo.Collection
	keyField string
	client   *mongo.Client
}

// Dial connects to uri and pings the deployment. The caller disconnects the
// returned client.
func Dial(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}
	return client, nil
}

// Connect dials uri and returns a Collection for database.collection. Close
// disconnects the client.
func Connect(ctx context.Context, uri, database, collection string) (*Collection, error) {
	client, err := Dial(ctx, uri)
	if err != nil {
		return nil, err
	}
	c := New(client.Database(database).Collection(collection), docstore.DefaultNativeKey)
	c.client = client
	return c, nil
}

// New wraps an existing collection, which stays owned by the caller.
func New(coll *mongo.Collection, keyField string) *Collection {
	if keyField == "" {
		keyField = docstore.DefaultNativeKey
	}
	return &Collection{coll: coll, keyField: keyField}
}

// KeyField returns the field documents are keyed by.
func (c *Collection) KeyField() string {
	return c.keyField
}

// Close disconnects the client when Connect created it.
func (c *Collection) Close(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	return c.client.Disconnect(ctx)
}

// FindOne implements docstore.Collection.
func (c *Collection) FindOne(ctx context.Context, keyField, value string) (docstore.Document, bool, error) {
	var raw bson.M
	err := c.coll.FindOne(ctx, bson.M{keyField: value}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("mongo: find one: %w", err)
	}
	return toDocument(raw), true, nil
}

// Upsert implements docstore.Collection with a ReplaceOne upsert.
func (c *Collection) Upsert(ctx context.Context, doc docstore.Document) error {
	key, ok := doc[c.keyField]
	if !ok {
		return fmt.Errorf("mongo: document has no %q", c.keyField)
	}
	_, err := c.coll.ReplaceOne(ctx, bson.M{c.keyField: key}, bson.M(doc), options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo: replace: %w", err)
	}
	return nil
}

// Remove implements docstore.Collection.
func (c *Collection) Remove(ctx context.Context, keyField, value string) (bool, error) {
	res, err := c.coll.DeleteOne(ctx, bson.M{keyField: value})
	if err != nil {
		return false, fmt.Errorf("mongo: delete: %w", err)
	}
	return res.DeletedCount > 0, nil
}

// FindAll implements docstore.Collection.
func (c *Collection) FindAll(ctx context.Context) ([]docstore.Document, error) {
	return c.find(ctx, bson.M{})
}

// FindMany implements docstore.BatchFinder with an $in query.
func (c *Collection) FindMany(ctx context.Context, keyField string, values []string) ([]docstore.Document, error) {
	return c.find(ctx, bson.M{keyField: bson.M{"$in": values}})
}

func (c *Collection) find(ctx context.Context, filter bson.M) ([]docstore.Document, error) {
	cur, err := c.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("mongo: find: %w", err)
	}
	var raws []bson.M
	if err := cur.All(ctx, &raws); err != nil {
		return nil, fmt.Errorf("mongo: read cursor: %w", err)
	}
	docs := make([]docstore.Document, len(raws))
	for i, raw := range raws {
		docs[i] = toDocument(raw)
	}
	return docs, nil
}

// Patch implements docstore.Patcher with $set.
func (c *Collection) Patch(ctx context.Context, keyField, value string, fields docstore.Document) error {
	res, err := c.coll.UpdateOne(ctx, bson.M{keyField: value}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return fmt.Errorf("mongo: update: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("mongo: patch target %q no longer exists", value)
	}
	return nil
}

func toDocument(raw bson.M) docstore.Document {
	doc := make(docstore.Document, len(raw))
	for k, v := range raw {
		doc[k] = normalize(v)
	}
	return doc
}

// normalize converts BSON container and scalar types to the plain Go values
// records use.
func normalize(v any) any {
	switch t := v.(type) {
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, inner := range t {
			out[k] = normalize(inner)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case primitive.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = normalize(inner)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	default:
		return record.NormalizeValue(v)
	}
}
