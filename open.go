/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package querysets

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/suparena/querysets/config"
	"github.com/suparena/querysets/queryset"
	"github.com/suparena/querysets/queryset/docstore"
	"github.com/suparena/querysets/queryset/docstore/ddb"
	mongodoc "github.com/suparena/querysets/queryset/docstore/mongo"
	"github.com/suparena/querysets/queryset/kv"
	kvbolt "github.com/suparena/querysets/queryset/kv/bolt"
	kvredis "github.com/suparena/querysets/queryset/kv/redis"
	"github.com/suparena/querysets/queryset/memory"
	"github.com/suparena/querysets/record"
	bolt "go.etcd.io/bbolt"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Open builds every queryset cfg describes and registers it under its name.
// Clients are created once per backend and shared by the querysets using
// them; the returned close function releases them all.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Registry, func() error, error) {
	if logger == nil {
		logger = zap.L()
	}

	reg := NewRegistry()
	schemas := reg.Schemas()
	for i := range cfg.Schemas {
		if err := schemas.Register(&cfg.Schemas[i]); err != nil {
			return nil, nil, err
		}
	}

	o := &opener{ctx: ctx, cfg: cfg, logger: logger}
	for _, name := range cfg.QuerysetNames() {
		qc := cfg.Querysets[name]
		schema, err := schemas.Get(qc.Schema)
		if err != nil {
			o.close()
			return nil, nil, fmt.Errorf("queryset %q: %w", name, err)
		}
		qs, err := o.build(name, qc, schema)
		if err != nil {
			o.close()
			return nil, nil, fmt.Errorf("queryset %q: %w", name, err)
		}
		if err := reg.Register(name, qs, schema); err != nil {
			o.close()
			return nil, nil, err
		}
		logger.Debug("queryset opened", zap.String("queryset", name), zap.String("backend", qc.Backend), zap.String("schema", schema.Name))
	}
	return reg, o.close, nil
}

// opener creates backend clients on first use.
type opener struct {
	ctx    context.Context
	cfg    *config.Config
	logger *zap.Logger

	rdb    *goredis.Client
	boltDB *bolt.DB
	ddbAPI ddb.API
	mongo  *mongo.Client

	closers []func() error
}

func (o *opener) build(name string, qc config.QuerysetConfig, schema *record.Schema) (queryset.Queryset, error) {
	switch qc.Backend {
	case config.BackendMemory:
		return memory.New(schema, memory.WithLogger(o.logger)), nil

	case config.BackendRedis:
		rdb, err := o.redis()
		if err != nil {
			return nil, err
		}
		return kv.New(kvredis.New(rdb, qc.Keyspace), schema, o.kvOptions(qc)...), nil

	case config.BackendBolt:
		db, err := o.bolt()
		if err != nil {
			return nil, err
		}
		client, err := kvbolt.New(db, qc.Keyspace)
		if err != nil {
			return nil, err
		}
		return kv.New(client, schema, o.kvOptions(qc)...), nil

	case config.BackendDynamoDB:
		api, err := o.dynamodb()
		if err != nil {
			return nil, err
		}
		coll, err := ddb.New(api, ddb.Config{
			Table:        o.cfg.DynamoDB.Table,
			KeyAttribute: o.cfg.DynamoDB.KeyAttribute,
			EntityType:   qc.EntityType,
		})
		if err != nil {
			return nil, err
		}
		return docstore.New(coll, schema,
			docstore.WithNativeKey(coll.KeyAttribute()),
			docstore.WithBackendName(qc.Backend),
			docstore.WithLogger(o.logger)), nil

	case config.BackendMongo:
		client, err := o.mongoClient()
		if err != nil {
			return nil, err
		}
		coll := mongodoc.New(client.Database(o.cfg.Mongo.Database).Collection(qc.Collection), docstore.DefaultNativeKey)
		return docstore.New(coll, schema,
			docstore.WithNativeKey(coll.KeyField()),
			docstore.WithBackendName(qc.Backend),
			docstore.WithLogger(o.logger)), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", qc.Backend)
	}
}

func (o *opener) kvOptions(qc config.QuerysetConfig) []kv.Option {
	opts := []kv.Option{kv.WithBackendName(qc.Backend), kv.WithLogger(o.logger)}
	if qc.Compress {
		opts = append(opts, kv.WithCompression(qc.Level()))
	}
	return opts
}

func (o *opener) redis() (*goredis.Client, error) {
	if o.rdb != nil {
		return o.rdb, nil
	}
	opts, err := goredis.ParseURL(o.cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(o.ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", opts.Addr, err)
	}
	o.rdb = rdb
	o.closers = append(o.closers, rdb.Close)
	return rdb, nil
}

func (o *opener) bolt() (*bolt.DB, error) {
	if o.boltDB != nil {
		return o.boltDB, nil
	}
	path := o.cfg.Bolt.Path
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("bolt: %w", err)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("could not open bbolt store at %s: %w", path, err)
	}
	o.boltDB = db
	o.closers = append(o.closers, db.Close)
	return db, nil
}

func (o *opener) dynamodb() (ddb.API, error) {
	if o.ddbAPI != nil {
		return o.ddbAPI, nil
	}
	client, err := ddb.NewDynamoDBClient(o.ctx, ddb.ClientConfig{
		Region:    o.cfg.DynamoDB.Region,
		AccessKey: o.cfg.DynamoDB.AccessKey,
		SecretKey: o.cfg.DynamoDB.SecretKey,
		Endpoint:  o.cfg.DynamoDB.Endpoint,
	})
	if err != nil {
		return nil, err
	}
	o.ddbAPI = client
	return client, nil
}

func (o *opener) mongoClient() (*mongo.Client, error) {
	if o.mongo != nil {
		return o.mongo, nil
	}
	client, err := mongodoc.Dial(o.ctx, o.cfg.Mongo.URI)
	if err != nil {
		return nil, err
	}
	o.mongo = client
	o.closers = append(o.closers, func() error {
		return client.Disconnect(context.Background())
	})
	return client, nil
}

// close releases clients in reverse order of creation.
func (o *opener) close() error {
	var errs []error
	for i := len(o.closers) - 1; i >= 0; i-- {
		if err := o.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	o.closers = nil
	return stderrors.Join(errs...)
}
