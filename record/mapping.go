/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package record

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Mapping is the ordered field -> value representation of a record. Field
// order is insertion order; overwriting a field keeps its position.
// The zero value is not usable, use NewMapping.
type Mapping struct {
	m *linkedhashmap.Map
}

// NewMapping creates an empty Mapping.
func NewMapping() *Mapping {
	return &Mapping{m: linkedhashmap.New()}
}

// MappingOf builds a Mapping from alternating field, value pairs.
// It panics on an odd argument count or a non-string field name.
func MappingOf(pairs ...any) *Mapping {
	if len(pairs)%2 != 0 {
		panic("record: MappingOf requires field, value pairs")
	}
	m := NewMapping()
	for i := 0; i < len(pairs); i += 2 {
		field, ok := pairs[i].(string)
		if !ok {
			panic(fmt.Sprintf("record: field name at position %d is %T, not string", i, pairs[i]))
		}
		m.Set(field, pairs[i+1])
	}
	return m
}

// Set stores value under field.
func (m *Mapping) Set(field string, value any) {
	m.m.Put(field, value)
}

// Get returns the value stored under field.
func (m *Mapping) Get(field string) (any, bool) {
	return m.m.Get(field)
}

// GetString returns the value under field if it is a string.
func (m *Mapping) GetString(field string) (string, bool) {
	v, ok := m.m.Get(field)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Delete removes field.
func (m *Mapping) Delete(field string) {
	m.m.Remove(field)
}

// Has reports whether field is present.
func (m *Mapping) Has(field string) bool {
	_, ok := m.m.Get(field)
	return ok
}

// Len returns the number of fields.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return m.m.Size()
}

// Fields returns field names in order.
func (m *Mapping) Fields() []string {
	keys := m.m.Keys()
	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = k.(string)
	}
	return fields
}

// Each calls fn for every field in order.
func (m *Mapping) Each(fn func(field string, value any)) {
	it := m.m.Iterator()
	for it.Next() {
		fn(it.Key().(string), it.Value())
	}
}

// Clone returns a deep copy.
func (m *Mapping) Clone() *Mapping {
	if m == nil {
		return nil
	}
	out := NewMapping()
	m.Each(func(field string, value any) {
		out.Set(field, deepCopyValue(value))
	})
	return out
}

// Merge writes every field of delta into m, appending new fields at the end.
func (m *Mapping) Merge(delta *Mapping) {
	if delta == nil {
		return
	}
	delta.Each(func(field string, value any) {
		m.Set(field, deepCopyValue(value))
	})
}

// ToMap returns an unordered deep copy.
func (m *Mapping) ToMap() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, m.Len())
	m.Each(func(field string, value any) {
		out[field] = deepCopyValue(value)
	})
	return out
}

// Equal reports whether both mappings hold the same fields and values,
// ignoring order.
func (m *Mapping) Equal(other *Mapping) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.Len() != other.Len() {
		return false
	}
	equal := true
	m.Each(func(field string, value any) {
		if !equal {
			return
		}
		ov, ok := other.Get(field)
		if !ok || !reflect.DeepEqual(value, ov) {
			equal = false
		}
	})
	return equal
}

func (m *Mapping) String() string {
	b, err := m.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("record.Mapping(%v)", m.ToMap())
	}
	return string(b)
}

// MarshalJSON encodes the mapping as a JSON object in field order.
func (m *Mapping) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	i := 0
	var err error
	m.Each(func(field string, value any) {
		if err != nil {
			return
		}
		if i > 0 {
			buf.WriteByte(',')
		}
		i++
		var kb, vb []byte
		if kb, err = json.Marshal(field); err != nil {
			return
		}
		if vb, err = json.Marshal(value); err != nil {
			err = fmt.Errorf("failed to marshal field %q: %w", field, err)
			return
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping the field order of the input.
// Numbers decode to int64 when integral and float64 otherwise.
func (m *Mapping) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("record: expected JSON object, got %v", tok)
	}

	if m.m == nil {
		m.m = linkedhashmap.New()
	} else {
		m.m.Clear()
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		field, ok := tok.(string)
		if !ok {
			return fmt.Errorf("record: expected field name, got %v", tok)
		}
		var raw any
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode field %q: %w", field, err)
		}
		m.Set(field, NormalizeValue(raw))
	}
	_, err = dec.Token()
	return err
}

// NormalizeValue converts decoded JSON numbers and Go integer and float kinds
// to int64 or float64 so that values compare equal across backends.
func NormalizeValue(v any) any {
	switch tv := v.(type) {
	case json.Number:
		if i, err := tv.Int64(); err == nil {
			return i
		}
		if f, err := tv.Float64(); err == nil {
			return f
		}
		return tv.String()
	case int:
		return int64(tv)
	case int8:
		return int64(tv)
	case int16:
		return int64(tv)
	case int32:
		return int64(tv)
	case uint:
		return int64(tv)
	case uint8:
		return int64(tv)
	case uint16:
		return int64(tv)
	case uint32:
		return int64(tv)
	case uint64:
		return int64(tv)
	case float32:
		return float64(tv)
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = NormalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = NormalizeValue(e)
		}
		return out
	default:
		return v
	}
}

func deepCopyValue(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(tv))
		for k, e := range tv {
			out[k] = deepCopyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(tv))
		for i, e := range tv {
			out[i] = deepCopyValue(e)
		}
		return out
	case *Mapping:
		return tv.Clone()
	default:
		return v
	}
}
