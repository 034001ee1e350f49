/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"compress/zlib"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
	"github.com/suparena/querysets/record"
	"gopkg.in/yaml.v3"
)

// Backend names.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendBolt     = "bolt"
	BackendDynamoDB = "dynamodb"
	BackendMongo    = "mongo"
)

const (
	defaultLogLevel      = "info"
	defaultBoltPath      = "querysets.db"
	defaultMongoDatabase = "querysets"
	defaultRedisURL      = "redis://localhost:6379/0"
)

// Config describes the schemas, the named querysets built on them and the
// connections their backends use.
type Config struct {
	Log       LogConfig                 `yaml:"log"`
	Schemas   []record.Schema           `yaml:"schemas"`
	Querysets map[string]QuerysetConfig `yaml:"querysets"`
	Redis     RedisConfig               `yaml:"redis"`
	Bolt      BoltConfig                `yaml:"bolt"`
	DynamoDB  DynamoDBConfig            `yaml:"dynamodb"`
	Mongo     MongoConfig               `yaml:"mongo"`
}

// QuerysetConfig configures one named queryset.
type QuerysetConfig struct {
	Schema  string `yaml:"schema"`
	Backend string `yaml:"backend"`

	// Keyspace scopes keys on the redis and bolt backends.
	// Default: the queryset name
	Keyspace string `yaml:"keyspace,omitempty"`

	// Compress zlib-compresses stored values on the redis and bolt backends.
	Compress      bool `yaml:"compress,omitempty"`
	CompressLevel *int `yaml:"compress_level,omitempty"`

	// Collection names the MongoDB collection.
	// Default: the queryset name
	Collection string `yaml:"collection,omitempty"`

	// EntityType tags DynamoDB items so several querysets can share a table.
	// Default: the schema name
	EntityType string `yaml:"entity_type,omitempty"`
}

// RedisConfig holds the Redis connection.
type RedisConfig struct {
	URL string `yaml:"url"`
}

// BoltConfig holds the bbolt database file.
type BoltConfig struct {
	Path string `yaml:"path"`
}

// DynamoDBConfig holds the DynamoDB client and table settings.
type DynamoDBConfig struct {
	Region       string `yaml:"region"`
	AccessKey    string `yaml:"access_key,omitempty"`
	SecretKey    string `yaml:"secret_key,omitempty"`
	Endpoint     string `yaml:"endpoint,omitempty"`
	Table        string `yaml:"table"`
	KeyAttribute string `yaml:"key_attribute,omitempty"`
}

// MongoConfig holds the MongoDB connection.
type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

// DefaultConfig returns a Config with defaults for every connection.
func DefaultConfig() Config {
	return Config{
		Log:       LogConfig{Level: defaultLogLevel},
		Querysets: map[string]QuerysetConfig{},
		Redis:     RedisConfig{URL: defaultRedisURL},
		Bolt:      BoltConfig{Path: defaultBoltPath},
		Mongo:     MongoConfig{Database: defaultMongoDatabase},
	}
}

// LoadEnv loads .env files into the process environment. With no paths it
// loads ./.env when present. Variables already set are kept.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load reads a YAML config file, expands ${VAR} references from the
// environment, applies defaults and validates the result.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse is Load for config text already in memory.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	expanded := os.Expand(string(data), os.Getenv)
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.validate()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate fills defaults that depend on other fields.
func (c *Config) validate() {
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Querysets == nil {
		c.Querysets = map[string]QuerysetConfig{}
	}
	for name, qc := range c.Querysets {
		if qc.Keyspace == "" {
			qc.Keyspace = name
		}
		if qc.Collection == "" {
			qc.Collection = name
		}
		if qc.EntityType == "" {
			qc.EntityType = qc.Schema
		}
		c.Querysets[name] = qc
	}
}

// Validate reports every structural problem in the config.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.Log.level(); err != nil {
		errs = append(errs, err)
	}

	schemas := make(map[string]bool, len(c.Schemas))
	for i := range c.Schemas {
		s := &c.Schemas[i]
		if schemas[s.Name] {
			errs = append(errs, fmt.Errorf("schema %q defined twice", s.Name))
		}
		schemas[s.Name] = true
		if err := s.Check(); err != nil {
			errs = append(errs, fmt.Errorf("schema %q: %w", s.Name, err))
		}
	}

	used := map[string]bool{}
	for _, name := range c.QuerysetNames() {
		qc := c.Querysets[name]
		if !schemas[qc.Schema] {
			errs = append(errs, fmt.Errorf("queryset %q: unknown schema %q", name, qc.Schema))
		}
		switch qc.Backend {
		case BackendMemory, BackendRedis, BackendBolt, BackendDynamoDB, BackendMongo:
			used[qc.Backend] = true
		default:
			errs = append(errs, fmt.Errorf("queryset %q: unknown backend %q", name, qc.Backend))
		}
		if qc.Compress && qc.Backend != BackendRedis && qc.Backend != BackendBolt {
			errs = append(errs, fmt.Errorf("queryset %q: compression is only supported by the redis and bolt backends", name))
		}
		if qc.CompressLevel != nil {
			if lvl := *qc.CompressLevel; lvl < zlib.HuffmanOnly || lvl > zlib.BestCompression {
				errs = append(errs, fmt.Errorf("queryset %q: compress_level %d out of range", name, lvl))
			}
		}
	}

	if used[BackendRedis] && c.Redis.URL == "" {
		errs = append(errs, errors.New("redis: url is required"))
	}
	if used[BackendBolt] && c.Bolt.Path == "" {
		errs = append(errs, errors.New("bolt: path is required"))
	}
	if used[BackendDynamoDB] {
		if c.DynamoDB.Table == "" {
			errs = append(errs, errors.New("dynamodb: table is required"))
		}
		if c.DynamoDB.Region == "" {
			errs = append(errs, errors.New("dynamodb: region is required"))
		}
	}
	if used[BackendMongo] {
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo: uri is required"))
		}
		if c.Mongo.Database == "" {
			errs = append(errs, errors.New("mongo: database is required"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// QuerysetNames returns the configured queryset names in sorted order.
func (c *Config) QuerysetNames() []string {
	names := make([]string, 0, len(c.Querysets))
	for name := range c.Querysets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Level returns the configured compression level, or zlib.DefaultCompression.
func (q QuerysetConfig) Level() int {
	if q.CompressLevel == nil {
		return zlib.DefaultCompression
	}
	return *q.CompressLevel
}
