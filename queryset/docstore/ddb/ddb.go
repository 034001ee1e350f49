/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	qerrors "github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/queryset/docstore"
	"github.com/suparena/querysets/record"
)

const (
	// DefaultKeyAttribute is the partition key attribute used when none is configured.
	DefaultKeyAttribute = "PK"

	// DefaultEntityTypeAttribute holds the record kind on every stored item.
	DefaultEntityTypeAttribute = "EntityType"

	// keySeparator joins the entity type and the identifier in stored keys.
	keySeparator = "#"

	// batchGetLimit is the most keys BatchGetItem accepts per call.
	batchGetLimit = 100

	// maxBatchRounds bounds how often unprocessed keys are resubmitted.
	maxBatchRounds = 5
)

// API is the subset of the DynamoDB client a Collection uses.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *sdk.DeleteItemInput, optFns ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error)
	UpdateItem(ctx context.Context, params *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
	BatchGetItem(ctx context.Context, params *sdk.BatchGetItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error)
	sdk.ScanAPIClient
}

var (
	_ API                  = (*sdk.Client)(nil)
	_ docstore.Collection  = (*Collection)(nil)
	_ docstore.BatchFinder = (*Collection)(nil)
	_ docstore.Patcher     = (*Collection)(nil)
)

// ClientConfig holds what NewDynamoDBClient needs. Empty credentials fall
// back to the default AWS credential chain; Endpoint points the client at a
// local DynamoDB.
type ClientConfig struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string
}

// NewDynamoDBClient initializes a DynamoDB client.
func NewDynamoDBClient(ctx context.Context, cfg ClientConfig) (*sdk.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// Config describes the table a Collection works on.
type Config struct {
	Table string

	// KeyAttribute is the table's partition key, a string attribute. The
	// queryset's native key field must match it.
	KeyAttribute string

	// EntityType is written on every item and prefixes its key as
	// "<EntityType>#<id>", so several record kinds can share one table
	// without seeing each other's items. FindAll is restricted to items of
	// this kind.
	EntityType          string
	EntityTypeAttribute string
}

func (c *Config) validate() {
	if c.KeyAttribute == "" {
		c.KeyAttribute = DefaultKeyAttribute
	}
	if c.EntityTypeAttribute == "" {
		c.EntityTypeAttribute = DefaultEntityTypeAttribute
	}
}

// Collection implements docstore.Collection on a DynamoDB table.
type Collection struct {
	api    API
	config Config
}

// New creates a Collection. The client stays owned by the caller.
func New(api API, cfg Config) (*Collection, error) {
	cfg.validate()
	if cfg.Table == "" {
		return nil, errors.New("ddb: table name is required")
	}
	return &Collection{api: api, config: cfg}, nil
}

// KeyAttribute returns the partition key attribute.
func (c *Collection) KeyAttribute() string {
	return c.config.KeyAttribute
}

// storedKey returns the partition key value an identifier is stored under.
func (c *Collection) storedKey(id string) string {
	if c.config.EntityType == "" {
		return id
	}
	return c.config.EntityType + keySeparator + id
}

func (c *Collection) key(keyField, value string) (map[string]types.AttributeValue, error) {
	if keyField != c.config.KeyAttribute {
		return nil, fmt.Errorf("ddb: table %s is keyed by %q, not %q", c.config.Table, c.config.KeyAttribute, keyField)
	}
	return map[string]types.AttributeValue{
		keyField: &types.AttributeValueMemberS{Value: c.storedKey(value)},
	}, nil
}

// FindOne implements docstore.Collection.
func (c *Collection) FindOne(ctx context.Context, keyField, value string) (docstore.Document, bool, error) {
	key, err := c.key(keyField, value)
	if err != nil {
		return nil, false, err
	}
	out, err := c.api.GetItem(ctx, &sdk.GetItemInput{
		TableName:      aws.String(c.config.Table),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("GetItem error: %w", err)
	}
	if out.Item == nil {
		return nil, false, nil
	}
	doc, err := c.decodeItem(out.Item)
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Upsert implements docstore.Collection.
func (c *Collection) Upsert(ctx context.Context, doc docstore.Document) error {
	id, ok := doc[c.config.KeyAttribute].(string)
	if !ok {
		return fmt.Errorf("ddb: document has no string %q", c.config.KeyAttribute)
	}
	item, err := attributevalue.MarshalMap(map[string]any(doc))
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}
	item[c.config.KeyAttribute] = &types.AttributeValueMemberS{Value: c.storedKey(id)}
	if c.config.EntityType != "" {
		item[c.config.EntityTypeAttribute] = &types.AttributeValueMemberS{Value: c.config.EntityType}
	}

	_, err = c.api.PutItem(ctx, &sdk.PutItemInput{
		TableName: aws.String(c.config.Table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem failed: %w", err)
	}
	return nil
}

// Remove implements docstore.Collection.
func (c *Collection) Remove(ctx context.Context, keyField, value string) (bool, error) {
	key, err := c.key(keyField, value)
	if err != nil {
		return false, err
	}
	out, err := c.api.DeleteItem(ctx, &sdk.DeleteItemInput{
		TableName:    aws.String(c.config.Table),
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete item in DynamoDB: %w", err)
	}
	return len(out.Attributes) > 0, nil
}

// FindAll implements docstore.Collection by scanning the table.
func (c *Collection) FindAll(ctx context.Context) ([]docstore.Document, error) {
	input := &sdk.ScanInput{
		TableName:      aws.String(c.config.Table),
		ConsistentRead: aws.Bool(true),
	}
	if c.config.EntityType != "" {
		input.FilterExpression = aws.String("#et = :et")
		input.ExpressionAttributeNames = map[string]string{"#et": c.config.EntityTypeAttribute}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":et": &types.AttributeValueMemberS{Value: c.config.EntityType},
		}
	}

	var docs []docstore.Document
	paginator := sdk.NewScanPaginator(c.api, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("Scan error: %w", err)
		}
		for _, item := range page.Items {
			doc, err := c.decodeItem(item)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// FindMany implements docstore.BatchFinder with BatchGetItem, resubmitting
// unprocessed keys a bounded number of times.
func (c *Collection) FindMany(ctx context.Context, keyField string, values []string) ([]docstore.Document, error) {
	docs := make([]docstore.Document, 0, len(values))
	for start := 0; start < len(values); start += batchGetLimit {
		end := start + batchGetLimit
		if end > len(values) {
			end = len(values)
		}

		keys := make([]map[string]types.AttributeValue, 0, end-start)
		for _, value := range values[start:end] {
			key, err := c.key(keyField, value)
			if err != nil {
				return nil, err
			}
			keys = append(keys, key)
		}

		request := map[string]types.KeysAndAttributes{
			c.config.Table: {Keys: keys, ConsistentRead: aws.Bool(true)},
		}
		for round := 0; len(request) > 0; round++ {
			if round == maxBatchRounds {
				return nil, fmt.Errorf("BatchGetItem: keys still unprocessed after %d rounds", maxBatchRounds)
			}
			out, err := c.api.BatchGetItem(ctx, &sdk.BatchGetItemInput{RequestItems: request})
			if err != nil {
				return nil, fmt.Errorf("BatchGetItem error: %w", err)
			}
			for _, item := range out.Responses[c.config.Table] {
				doc, err := c.decodeItem(item)
				if err != nil {
					return nil, err
				}
				docs = append(docs, doc)
			}
			request = out.UnprocessedKeys
		}
	}
	return docs, nil
}

// Patch implements docstore.Patcher with a conditional UpdateItem.
func (c *Collection) Patch(ctx context.Context, keyField, value string, fields docstore.Document) error {
	key, err := c.key(keyField, value)
	if err != nil {
		return err
	}
	updateExpr, exprAttrNames, exprAttrValues, err := buildUpdateExpression(fields)
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}
	exprAttrNames["#k"] = keyField

	_, err = c.api.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                 aws.String(c.config.Table),
		Key:                       key,
		UpdateExpression:          aws.String(updateExpr),
		ConditionExpression:       aws.String("attribute_exists(#k)"),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrValues,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return fmt.Errorf("patch target %q no longer exists: %w", value, err)
		}
		return fmt.Errorf("UpdateItem failed: %w", err)
	}
	return nil
}

// decodeItem turns a stored item into a document keyed by the bare
// identifier. Items that cannot be decoded are reported as translation errors.
func (c *Collection) decodeItem(item map[string]types.AttributeValue) (docstore.Document, error) {
	keyAttr := c.config.KeyAttribute
	stored, ok := item[keyAttr].(*types.AttributeValueMemberS)
	if !ok {
		return nil, qerrors.NewTranslationError(keyAttr, "", "item has no string partition key")
	}
	prefix := c.storedKey("")
	if !strings.HasPrefix(stored.Value, prefix) {
		return nil, qerrors.NewTranslationError(keyAttr, stored.Value, fmt.Sprintf("key is not prefixed with %q", prefix))
	}

	var values map[string]any
	err := attributevalue.UnmarshalMapWithOptions(item, &values, func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	if err != nil {
		return nil, qerrors.NewTranslationError("", stored.Value, fmt.Sprintf("failed to unmarshal item: %v", err))
	}
	doc := make(docstore.Document, len(values))
	for k, v := range values {
		doc[k] = normalize(v)
	}
	doc[keyAttr] = strings.TrimPrefix(stored.Value, prefix)
	return doc, nil
}

// normalize turns DynamoDB numbers into the int64/float64 values records use.
func normalize(v any) any {
	switch t := v.(type) {
	case attributevalue.Number:
		return record.NormalizeValue(json.Number(t))
	case map[string]any:
		for k, inner := range t {
			t[k] = normalize(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalize(inner)
		}
		return t
	default:
		return v
	}
}
