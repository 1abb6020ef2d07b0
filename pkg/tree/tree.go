// srtools-go: sim racing data conversion tools
// Copyright (C) 2018  Yishen Miao
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package tree holds the ordered attribute trees produced by the car file and
// JBeam decoders.
//
// A tree is built from *Map (string keys kept in insertion order), []any lists
// and the scalars float64, string and bool.
package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"math"

	"gopkg.in/yaml.v2"
)

// Map is a string keyed map that remembers the order keys were first set.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: make(map[string]any)}
}

// Set stores v under k. A key that is already present keeps its position.
func (m *Map) Set(k string, v any) {
	if m.vals == nil {
		m.vals = make(map[string]any)
	}

	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}

	m.vals[k] = v
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	if m == nil {
		return nil, false
	}

	v, ok := m.vals[k]

	return v, ok
}

// Keys returns a copy of the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	return append([]string(nil), m.keys...)
}

// Len returns the number of keys.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// All iterates over the entries in insertion order.
func (m *Map) All() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if m == nil {
			return
		}

		for _, k := range m.keys {
			if !yield(k, m.vals[k]) {
				return
			}
		}
	}
}

// Lookup walks nested maps along path and returns the value at its end.
func (m *Map) Lookup(path ...string) (any, bool) {
	var cur any = m

	for _, k := range path {
		sub, ok := cur.(*Map)
		if !ok {
			return nil, false
		}

		if cur, ok = sub.Get(k); !ok {
			return nil, false
		}
	}

	return cur, true
}

// Sub returns the map found at path.
func (m *Map) Sub(path ...string) (*Map, error) {
	v, err := m.find(path)
	if err != nil {
		return nil, err
	}

	sub, ok := v.(*Map)
	if !ok {
		return nil, &TypeError{Path: path, Want: "map", Got: v}
	}

	return sub, nil
}

// Float returns the number found at path.
func (m *Map) Float(path ...string) (float64, error) {
	v, err := m.find(path)
	if err != nil {
		return 0, err
	}

	f, ok := v.(float64)
	if !ok {
		return 0, &TypeError{Path: path, Want: "number", Got: v}
	}

	return f, nil
}

// String returns the text found at path.
func (m *Map) String(path ...string) (string, error) {
	v, err := m.find(path)
	if err != nil {
		return "", err
	}

	s, ok := v.(string)
	if !ok {
		return "", &TypeError{Path: path, Want: "text", Got: v}
	}

	return s, nil
}

// Bool returns the boolean found at path.
func (m *Map) Bool(path ...string) (bool, error) {
	v, err := m.find(path)
	if err != nil {
		return false, err
	}

	b, ok := v.(bool)
	if !ok {
		return false, &TypeError{Path: path, Want: "boolean", Got: v}
	}

	return b, nil
}

func (m *Map) find(path []string) (any, error) {
	v, ok := m.Lookup(path...)
	if !ok {
		return nil, &MissingError{Path: path}
	}

	return v, nil
}

// MarshalJSON renders the map as a JSON object in insertion order. NaN and
// infinite numbers are rendered as null.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	if err := writeJSON(&buf, m); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// MarshalYAML renders the map as an ordered yaml.MapSlice.
func (m *Map) MarshalYAML() (interface{}, error) {
	return toYAML(m), nil
}

func toYAML(v any) any {
	switch t := v.(type) {
	case *Map:
		ms := make(yaml.MapSlice, 0, t.Len())
		for k, sub := range t.All() {
			ms = append(ms, yaml.MapItem{Key: k, Value: toYAML(sub)})
		}

		return ms
	case []any:
		l := make([]any, len(t))
		for i, sub := range t {
			l[i] = toYAML(sub)
		}

		return l
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}

		return t
	default:
		return t
	}
}

func writeJSON(buf *bytes.Buffer, v any) error {
	switch t := v.(type) {
	case *Map:
		if t == nil {
			buf.WriteString("null")
			return nil
		}

		buf.WriteByte('{')

		for i, k := range t.keys {
			if i > 0 {
				buf.WriteByte(',')
			}

			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}

			buf.Write(kb)
			buf.WriteByte(':')

			if err := writeJSON(buf, t.vals[k]); err != nil {
				return err
			}
		}

		buf.WriteByte('}')
	case []any:
		buf.WriteByte('[')

		for i, sub := range t {
			if i > 0 {
				buf.WriteByte(',')
			}

			if err := writeJSON(buf, sub); err != nil {
				return err
			}
		}

		buf.WriteByte(']')
	default:
		if f, ok := t.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			buf.WriteString("null")
			return nil
		}

		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("tree: %w", err)
		}

		buf.Write(b)
	}

	return nil
}

// Equal reports whether a and b hold the same tree: same keys in the same
// order, same list lengths and equal scalars. NaN equals NaN.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Map:
		y, ok := b.(*Map)
		if !ok || x.Len() != y.Len() {
			return false
		}

		if x == nil || y == nil {
			return x == y
		}

		for i, k := range x.keys {
			if y.keys[i] != k || !Equal(x.vals[k], y.vals[k]) {
				return false
			}
		}

		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}

		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}

		return true
	case float64:
		y, ok := b.(float64)
		if !ok {
			return false
		}

		return x == y || (math.IsNaN(x) && math.IsNaN(y))
	default:
		return a == b
	}
}
