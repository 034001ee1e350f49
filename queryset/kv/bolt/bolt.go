/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package bolt implements kv.HashClient on an embedded bbolt database.
//
// Each keyspace is a top-level bucket. Every record is a nested bucket named
// after its key, holding one entry per hash field.
package bolt

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/suparena/querysets/queryset/kv"
	bolt "go.etcd.io/bbolt"
)

var (
	_ kv.HashClient  = (*Client)(nil)
	_ kv.FieldSetter = (*Client)(nil)
)

// Client stores hashes in one keyspace bucket of a bbolt database.
type Client struct {
	db       *bolt.DB
	keyspace []byte
	owned    bool
}

// Open opens (or creates) the database at path and scopes a client to
// keyspace. Close releases the database.
func Open(path, keyspace string) (*Client, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt store at %s: %w", path, err)
	}
	c, err := New(db, keyspace)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.owned = true
	return c, nil
}

// New scopes a client to keyspace in an already open database, creating the
// keyspace bucket if needed. The database stays owned by the caller.
func New(db *bolt.DB, keyspace string) (*Client, error) {
	if keyspace == "" {
		return nil, fmt.Errorf("bolt: keyspace is required")
	}
	c := &Client{db: db, keyspace: []byte(keyspace)}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(c.keyspace)
		return err
	}); err != nil {
		return nil, fmt.Errorf("could not ensure keyspace bucket %q exists: %w", keyspace, err)
	}
	return c, nil
}

// Close closes the database when the client opened it.
func (c *Client) Close() error {
	if !c.owned {
		return nil
	}
	return c.db.Close()
}

func (c *Client) root(tx *bolt.Tx) (*bolt.Bucket, error) {
	b := tx.Bucket(c.keyspace)
	if b == nil {
		return nil, fmt.Errorf("bolt: keyspace bucket %q is missing", c.keyspace)
	}
	return b, nil
}

// Get implements kv.HashClient.
func (c *Client) Get(ctx context.Context, key string) (map[string]string, bool, error) {
	var hash map[string]string
	err := c.db.View(func(tx *bolt.Tx) error {
		root, err := c.root(tx)
		if err != nil {
			return err
		}
		b := root.Bucket([]byte(key))
		if b == nil {
			return nil
		}
		hash = make(map[string]string)
		return b.ForEach(func(k, v []byte) error {
			hash[string(k)] = string(v)
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return hash, hash != nil, nil
}

// Set implements kv.HashClient.
func (c *Client) Set(ctx context.Context, key string, hash map[string]string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		root, err := c.root(tx)
		if err != nil {
			return err
		}
		if err := root.DeleteBucket([]byte(key)); err != nil && !stderrors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := root.CreateBucket([]byte(key))
		if err != nil {
			return err
		}
		return putAll(b, hash)
	})
}

// SetFields implements kv.FieldSetter.
func (c *Client) SetFields(ctx context.Context, key string, fields map[string]string) error {
	return c.db.Update(func(tx *bolt.Tx) error {
		root, err := c.root(tx)
		if err != nil {
			return err
		}
		b, err := root.CreateBucketIfNotExists([]byte(key))
		if err != nil {
			return err
		}
		return putAll(b, fields)
	})
}

func putAll(b *bolt.Bucket, hash map[string]string) error {
	for field, value := range hash {
		if err := b.Put([]byte(field), []byte(value)); err != nil {
			return fmt.Errorf("put field %q: %w", field, err)
		}
	}
	return nil
}

// Delete implements kv.HashClient.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	existed := false
	err := c.db.Update(func(tx *bolt.Tx) error {
		root, err := c.root(tx)
		if err != nil {
			return err
		}
		err = root.DeleteBucket([]byte(key))
		if stderrors.Is(err, bolt.ErrBucketNotFound) {
			return nil
		}
		existed = err == nil
		return err
	})
	return existed, err
}

// Keys implements kv.HashClient. Keys come back in byte order.
func (c *Client) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	err := c.db.View(func(tx *bolt.Tx) error {
		root, err := c.root(tx)
		if err != nil {
			return err
		}
		return root.ForEach(func(k, v []byte) error {
			if v == nil {
				keys = append(keys, string(k))
			}
			return nil
		})
	})
	return keys, err
}
