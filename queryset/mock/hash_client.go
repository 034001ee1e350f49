/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"context"
	"sort"
	"sync"

	"github.com/suparena/querysets/queryset/kv"
)

var (
	_ kv.HashClient  = (*HashClient)(nil)
	_ kv.FieldSetter = (*HashClient)(nil)
)

// HashClient is an in-memory kv.HashClient with error injection.
type HashClient struct {
	mu        sync.RWMutex
	data      map[string]map[string]string
	calls     map[string]int
	getError  error
	setError  error
	deleteErr error
	keysError error
	keyErrors map[string]error
}

// NewHashClient creates an empty HashClient.
func NewHashClient() *HashClient {
	return &HashClient{
		data:      make(map[string]map[string]string),
		calls:     make(map[string]int),
		keyErrors: make(map[string]error),
	}
}

// WithGetError makes Get return an error
func (c *HashClient) WithGetError(err error) *HashClient {
	c.getError = err
	return c
}

// WithSetError makes Set and SetFields return an error
func (c *HashClient) WithSetError(err error) *HashClient {
	c.setError = err
	return c
}

// WithDeleteError makes Delete return an error
func (c *HashClient) WithDeleteError(err error) *HashClient {
	c.deleteErr = err
	return c
}

// WithKeysError makes Keys return an error
func (c *HashClient) WithKeysError(err error) *HashClient {
	c.keysError = err
	return c
}

// FailOn makes every call touching key return err.
func (c *HashClient) FailOn(key string, err error) *HashClient {
	c.keyErrors[key] = err
	return c
}

// Calls returns how many times the named method was called.
func (c *HashClient) Calls(method string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.calls[method]
}

// Raw returns a copy of the stored hash, bypassing error injection.
func (c *HashClient) Raw(key string) (map[string]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hash, ok := c.data[key]
	return copyHash(hash), ok
}

// Load stores hash under key, bypassing error injection.
func (c *HashClient) Load(key string, hash map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = copyHash(hash)
}

func (c *HashClient) record(method, key string, injected error) error {
	c.calls[method]++
	if injected != nil {
		return injected
	}
	return c.keyErrors[key]
}

// Get implements kv.HashClient.
func (c *HashClient) Get(ctx context.Context, key string) (map[string]string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Get", key, c.getError); err != nil {
		return nil, false, err
	}
	hash, ok := c.data[key]
	return copyHash(hash), ok, nil
}

// Set implements kv.HashClient.
func (c *HashClient) Set(ctx context.Context, key string, hash map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Set", key, c.setError); err != nil {
		return err
	}
	c.data[key] = copyHash(hash)
	return nil
}

// SetFields implements kv.FieldSetter.
func (c *HashClient) SetFields(ctx context.Context, key string, fields map[string]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("SetFields", key, c.setError); err != nil {
		return err
	}
	hash, ok := c.data[key]
	if !ok {
		hash = make(map[string]string, len(fields))
		c.data[key] = hash
	}
	for field, value := range fields {
		hash[field] = value
	}
	return nil
}

// Delete implements kv.HashClient.
func (c *HashClient) Delete(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Delete", key, c.deleteErr); err != nil {
		return false, err
	}
	_, ok := c.data[key]
	delete(c.data, key)
	return ok, nil
}

// Keys implements kv.HashClient. Keys are returned sorted.
func (c *HashClient) Keys(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Keys", "", c.keysError); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(c.data))
	for key := range c.data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func copyHash(hash map[string]string) map[string]string {
	if hash == nil {
		return nil
	}
	out := make(map[string]string, len(hash))
	for k, v := range hash {
		out[k] = v
	}
	return out
}
