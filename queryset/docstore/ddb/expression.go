/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// buildUpdateExpression transforms a map of field->value into:
//   - an "update expression" (e.g., "SET #f0 = :v0, #f1 = :v1")
//   - a corresponding map of expression attribute names
//   - a corresponding map of expression attribute values
//
// Fields are numbered in sorted order so the expression is deterministic.
func buildUpdateExpression(updates map[string]any) (string, map[string]string, map[string]types.AttributeValue, error) {
	if len(updates) == 0 {
		return "", nil, nil, errors.New("no updates provided")
	}

	fields := make([]string, 0, len(updates))
	for field := range updates {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	setClauses := make([]string, 0, len(fields))
	exprAttrNames := make(map[string]string, len(fields))
	exprAttrValues := make(map[string]types.AttributeValue, len(fields))

	for i, field := range fields {
		placeholderName := fmt.Sprintf("#f%d", i)
		placeholderValue := fmt.Sprintf(":v%d", i)

		av, err := attributevalue.Marshal(updates[field])
		if err != nil {
			return "", nil, nil, fmt.Errorf("unhandled update value type for field '%s': %w", field, err)
		}

		setClauses = append(setClauses, fmt.Sprintf("%s = %s", placeholderName, placeholderValue))
		exprAttrNames[placeholderName] = field
		exprAttrValues[placeholderValue] = av
	}

	return "SET " + strings.Join(setClauses, ", "), exprAttrNames, exprAttrValues, nil
}
