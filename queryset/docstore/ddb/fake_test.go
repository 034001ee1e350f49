/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// fakeAPI is an in-memory single-table DynamoDB keyed by one string
// attribute. Scan returns pageSize items per page; BatchGetItem can be told
// to leave the first key unprocessed once.
type fakeAPI struct {
	mu            sync.Mutex
	keyAttr       string
	items         map[string]map[string]types.AttributeValue
	pageSize      int
	unprocessOnce bool
	err           error
	calls         map[string]int
}

func newFakeAPI(keyAttr string) *fakeAPI {
	return &fakeAPI{
		keyAttr:  keyAttr,
		items:    make(map[string]map[string]types.AttributeValue),
		pageSize: 2,
		calls:    make(map[string]int),
	}
}

func (f *fakeAPI) keyOf(key map[string]types.AttributeValue) string {
	s, _ := key[f.keyAttr].(*types.AttributeValueMemberS)
	if s == nil {
		return ""
	}
	return s.Value
}

func (f *fakeAPI) begin(op string) error {
	f.mu.Lock()
	f.calls[op]++
	return f.err
}

func (f *fakeAPI) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	err := f.begin("GetItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &sdk.GetItemOutput{Item: f.items[f.keyOf(in.Key)]}, nil
}

func (f *fakeAPI) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	err := f.begin("PutItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	f.items[f.keyOf(in.Item)] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeAPI) DeleteItem(ctx context.Context, in *sdk.DeleteItemInput, _ ...func(*sdk.Options)) (*sdk.DeleteItemOutput, error) {
	err := f.begin("DeleteItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	key := f.keyOf(in.Key)
	old := f.items[key]
	delete(f.items, key)
	if in.ReturnValues != types.ReturnValueAllOld {
		old = nil
	}
	return &sdk.DeleteItemOutput{Attributes: old}, nil
}

func (f *fakeAPI) UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	err := f.begin("UpdateItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	item, ok := f.items[f.keyOf(in.Key)]
	if !ok {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}

	expr := strings.TrimPrefix(aws.ToString(in.UpdateExpression), "SET ")
	for _, clause := range strings.Split(expr, ", ") {
		parts := strings.Split(clause, " = ")
		if len(parts) != 2 {
			return nil, errors.New("fake: unsupported update expression")
		}
		item[in.ExpressionAttributeNames[parts[0]]] = in.ExpressionAttributeValues[parts[1]]
	}
	return &sdk.UpdateItemOutput{}, nil
}

func (f *fakeAPI) BatchGetItem(ctx context.Context, in *sdk.BatchGetItemInput, _ ...func(*sdk.Options)) (*sdk.BatchGetItemOutput, error) {
	err := f.begin("BatchGetItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := &sdk.BatchGetItemOutput{
		Responses:       make(map[string][]map[string]types.AttributeValue),
		UnprocessedKeys: make(map[string]types.KeysAndAttributes),
	}
	for table, req := range in.RequestItems {
		keys := req.Keys
		if f.unprocessOnce && len(keys) > 0 {
			f.unprocessOnce = false
			out.UnprocessedKeys[table] = types.KeysAndAttributes{Keys: keys[:1]}
			keys = keys[1:]
		}
		for _, key := range keys {
			if item, ok := f.items[f.keyOf(key)]; ok {
				out.Responses[table] = append(out.Responses[table], item)
			}
		}
	}
	return out, nil
}

func (f *fakeAPI) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	err := f.begin("Scan")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(f.items))
	for k := range f.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	start := 0
	if in.ExclusiveStartKey != nil {
		after := f.keyOf(in.ExclusiveStartKey)
		start = sort.SearchStrings(keys, after)
		if start < len(keys) && keys[start] == after {
			start++
		}
	}
	end := start + f.pageSize
	if end > len(keys) {
		end = len(keys)
	}

	out := &sdk.ScanOutput{}
	for _, k := range keys[start:end] {
		item := f.items[k]
		if in.FilterExpression != nil {
			attr := in.ExpressionAttributeNames["#et"]
			want := in.ExpressionAttributeValues[":et"].(*types.AttributeValueMemberS).Value
			got, _ := item[attr].(*types.AttributeValueMemberS)
			if got == nil || got.Value != want {
				continue
			}
		}
		out.Items = append(out.Items, item)
	}
	if end < len(keys) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			f.keyAttr: &types.AttributeValueMemberS{Value: keys[end-1]},
		}
	}
	return out, nil
}
