/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/suparena/querysets/queryset/docstore"
)

var (
	_ docstore.Collection  = (*Collection)(nil)
	_ docstore.BatchFinder = (*Collection)(nil)
	_ docstore.Patcher     = (*Collection)(nil)
)

// Collection is an in-memory docstore.Collection with error injection.
// Documents are keyed by the field given to NewCollection.
type Collection struct {
	mu          sync.RWMutex
	keyField    string
	docs        map[string]docstore.Document
	calls       map[string]int
	extra       docstore.Document
	findError   error
	upsertError error
	removeError error
	keyErrors   map[string]error
}

// NewCollection creates an empty Collection keyed by keyField.
func NewCollection(keyField string) *Collection {
	return &Collection{
		keyField:  keyField,
		docs:      make(map[string]docstore.Document),
		calls:     make(map[string]int),
		keyErrors: make(map[string]error),
	}
}

// WithFindError makes FindOne, FindMany and FindAll return an error
func (c *Collection) WithFindError(err error) *Collection {
	c.findError = err
	return c
}

// WithUpsertError makes Upsert and Patch return an error
func (c *Collection) WithUpsertError(err error) *Collection {
	c.upsertError = err
	return c
}

// WithRemoveError makes Remove return an error
func (c *Collection) WithRemoveError(err error) *Collection {
	c.removeError = err
	return c
}

// WithInjectedFields adds fields to every stored document, the way stores
// add their own bookkeeping attributes.
func (c *Collection) WithInjectedFields(fields docstore.Document) *Collection {
	c.extra = fields
	return c
}

// FailOn makes every call touching key return err.
func (c *Collection) FailOn(key string, err error) *Collection {
	c.keyErrors[key] = err
	return c
}

// Calls returns how many times the named method was called.
func (c *Collection) Calls(method string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[method]
}

// Raw returns a copy of the stored document, bypassing error injection.
func (c *Collection) Raw(key string) (docstore.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[key]
	return copyDocument(doc), ok
}

// Load stores doc as is, bypassing error injection and key checks. Documents
// without a usable key are stored under key.
func (c *Collection) Load(key string, doc docstore.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.docs[key] = copyDocument(doc)
}

func (c *Collection) record(method, key string, injected error) error {
	c.calls[method]++
	if injected != nil {
		return injected
	}
	return c.keyErrors[key]
}

func (c *Collection) lookup(keyField, value string) (docstore.Document, bool) {
	if keyField == c.keyField {
		doc, ok := c.docs[value]
		return doc, ok
	}
	for _, doc := range c.docs {
		if v, ok := doc[keyField].(string); ok && v == value {
			return doc, true
		}
	}
	return nil, false
}

// FindOne implements docstore.Collection.
func (c *Collection) FindOne(ctx context.Context, keyField, value string) (docstore.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("FindOne", value, c.findError); err != nil {
		return nil, false, err
	}
	doc, ok := c.lookup(keyField, value)
	return copyDocument(doc), ok, nil
}

// FindMany implements docstore.BatchFinder.
func (c *Collection) FindMany(ctx context.Context, keyField string, values []string) ([]docstore.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls["FindMany"]++
	if c.findError != nil {
		return nil, c.findError
	}

	out := make([]docstore.Document, 0, len(values))
	for _, value := range values {
		if err := c.keyErrors[value]; err != nil {
			return nil, err
		}
		if doc, ok := c.lookup(keyField, value); ok {
			out = append(out, copyDocument(doc))
		}
	}
	return out, nil
}

// Upsert implements docstore.Collection.
func (c *Collection) Upsert(ctx context.Context, doc docstore.Document) error {
	key, ok := doc[c.keyField].(string)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Upsert", key, c.upsertError); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("mock: document has no string %q", c.keyField)
	}

	stored := copyDocument(doc)
	for field, value := range c.extra {
		stored[field] = value
	}
	c.docs[key] = stored
	return nil
}

// Patch implements docstore.Patcher.
func (c *Collection) Patch(ctx context.Context, keyField, value string, fields docstore.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Patch", value, c.upsertError); err != nil {
		return err
	}
	doc, ok := c.lookup(keyField, value)
	if !ok {
		return fmt.Errorf("mock: no document with %s=%q", keyField, value)
	}
	for field, v := range fields {
		doc[field] = v
	}
	return nil
}

// Remove implements docstore.Collection.
func (c *Collection) Remove(ctx context.Context, keyField, value string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Remove", value, c.removeError); err != nil {
		return false, err
	}
	for key, doc := range c.docs {
		if v, ok := doc[keyField].(string); ok && v == value {
			delete(c.docs, key)
			return true, nil
		}
	}
	return false, nil
}

// FindAll implements docstore.Collection. Documents are returned in key order.
func (c *Collection) FindAll(ctx context.Context) ([]docstore.Document, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("FindAll", "", c.findError); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(c.docs))
	for key := range c.docs {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]docstore.Document, 0, len(keys))
	for _, key := range keys {
		out = append(out, copyDocument(c.docs[key]))
	}
	return out, nil
}

func copyDocument(doc docstore.Document) docstore.Document {
	if doc == nil {
		return nil
	}
	out := make(docstore.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
