/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package kv

import (
	"bytes"
	"compress/zlib"
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"reflect"

	"github.com/suparena/querysets/errors"
	"github.com/suparena/querysets/record"
)

// codec converts canonical mappings to flat hashes and back. Every value is
// JSON so numbers, booleans and null survive the trip through a string store.
type codec struct {
	schema   *record.Schema
	compress bool
	level    int
}

func (c codec) encode(m *record.Mapping) (map[string]string, error) {
	hash := make(map[string]string, m.Len())
	var encErr error
	m.Each(func(field string, value any) {
		if encErr != nil {
			return
		}
		raw, err := c.encodeValue(field, value)
		if err != nil {
			encErr = err
			return
		}
		hash[field] = raw
	})
	if encErr != nil {
		return nil, encErr
	}
	return hash, nil
}

func (c codec) encodeValue(field string, value any) (string, error) {
	if err := checkFlat(field, value); err != nil {
		return "", err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return "", errors.NewValidationError(field, fmt.Sprintf("cannot encode value: %v", err))
	}
	if !c.compress {
		return string(raw), nil
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return "", fmt.Errorf("kv: compression level %d: %w", c.level, err)
	}
	if _, err := w.Write(raw); err != nil {
		return "", fmt.Errorf("kv: compress field %q: %w", field, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("kv: compress field %q: %w", field, err)
	}
	return buf.String(), nil
}

// checkFlat rejects values that do not fit in a single hash field.
func checkFlat(field string, value any) error {
	if value == nil {
		return nil
	}
	if _, ok := value.(*record.Mapping); ok {
		return errors.NewValidationError(field, "nested mappings cannot be stored in a hash field")
	}
	switch reflect.ValueOf(value).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array:
		return errors.NewValidationError(field, fmt.Sprintf("nested %T cannot be stored in a hash field", value))
	case reflect.Struct:
		if _, ok := value.(encoding.TextMarshaler); !ok {
			return errors.NewValidationError(field, fmt.Sprintf("nested %T cannot be stored in a hash field", value))
		}
	}
	return nil
}

func (c codec) decode(key string, hash map[string]string) (*record.Mapping, error) {
	values := make(map[string]any, len(hash))
	for field, raw := range hash {
		v, err := decodeValue(raw)
		if err != nil {
			return nil, errors.NewTranslationError(field, key, err.Error())
		}
		values[field] = v
	}
	return c.schema.Project(values), nil
}

func decodeValue(raw string) (any, error) {
	data := []byte(raw)
	if isZlib(data) {
		r, err := zlib.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("corrupt compressed value: %v", err)
		}
		data, err = io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, fmt.Errorf("corrupt compressed value: %v", err)
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("stored value is not JSON: %v", err)
	}
	return record.NormalizeValue(v), nil
}

// isZlib reports whether data starts with a zlib header. No JSON text starts
// with 0x78 ('x'), so the check cannot misfire on uncompressed values.
func isZlib(data []byte) bool {
	if len(data) < 2 || data[0] != 0x78 {
		return false
	}
	return (uint16(data[0])<<8|uint16(data[1]))%31 == 0
}
