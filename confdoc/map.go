// Package confdoc holds module configuration as an insertion-ordered tree.
//
// A document is a *Map whose values are scalars (string, bool, int, float64,
// nil), lists ([]any) or nested *Map values. Key order survives decoding,
// editing and encoding, so a read-modify-write only changes the keys it
// touches.
package confdoc

import (
	"reflect"
	"slices"
	"sort"
	"strconv"
)

// Map maintains insertion order of keys.
type Map struct {
	keys   []string
	values map[string]any
}

func New() *Map {
	return &Map{
		keys:   make([]string, 0),
		values: make(map[string]any),
	}
}

// FromMap converts a plain map, sorting keys for a deterministic order.
func FromMap(in map[string]any) *Map {
	m := New()
	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Set(k, in[k])
	}
	return m
}

// Set stores value under key. New keys are appended, existing keys keep
// their position.
func (m *Map) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = normalize(value)
}

func (m *Map) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Map) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key and reports whether it was present.
func (m *Map) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k string) bool { return k == key })
	return true
}

// Keys returns a copy of the keys in order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// MapAt returns the nested map under key, or nil.
func (m *Map) MapAt(key string) *Map {
	v, _ := m.Get(key)
	sub, _ := v.(*Map)
	return sub
}

// EnsureMap returns the nested map under key, creating it when absent or
// when the key holds a non-map value.
func (m *Map) EnsureMap(key string) *Map {
	if sub := m.MapAt(key); sub != nil {
		return sub
	}
	sub := New()
	m.Set(key, sub)
	return sub
}

// Path walks nested maps and returns the value at the end of keys.
func (m *Map) Path(keys ...string) (any, bool) {
	cur := m
	for i, k := range keys {
		v, ok := cur.Get(k)
		if !ok {
			return nil, false
		}
		if i == len(keys)-1 {
			return v, true
		}
		if cur, ok = v.(*Map); !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// MapPath is Path for nested maps. It returns nil when any step is missing.
func (m *Map) MapPath(keys ...string) *Map {
	v, _ := m.Path(keys...)
	sub, _ := v.(*Map)
	return sub
}

// EnsurePath creates every missing map along keys.
func (m *Map) EnsurePath(keys ...string) *Map {
	cur := m
	for _, k := range keys {
		cur = cur.EnsureMap(k)
	}
	return cur
}

// String returns the string under key, or "".
func (m *Map) String(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

// Strings returns the list under key. The bool is false when the key is
// absent or does not hold a list of strings; an empty list is reported as
// present.
func (m *Map) Strings(key string) ([]string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	return toStrings(v)
}

func (m *Map) Int(key string) (int, bool) {
	v, ok := m.Get(key)
	if !ok {
		return 0, false
	}
	return toInt(v)
}

func (m *Map) Bool(key string) (bool, bool) {
	v, ok := m.Get(key)
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// Clone returns a deep copy.
func (m *Map) Clone() *Map {
	if m == nil {
		return nil
	}
	out := &Map{
		keys:   slices.Clone(m.keys),
		values: make(map[string]any, len(m.values)),
	}
	for k, v := range m.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

// Equal reports whether both maps hold the same keys in the same order with
// equal values.
func (m *Map) Equal(other *Map) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, k := range m.Keys() {
		if other.keys[i] != k {
			return false
		}
		if !valueEqual(m.values[k], other.values[k]) {
			return false
		}
	}
	return true
}

// Plain converts the tree into map[string]any and []any values.
func (m *Map) Plain() map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.keys))
	for _, k := range m.keys {
		out[k] = plainValue(m.values[k])
	}
	return out
}

func plainValue(v any) any {
	switch v := v.(type) {
	case *Map:
		return v.Plain()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = plainValue(e)
		}
		return out
	}
	return v
}

func normalize(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return FromMap(v)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case []any:
		for i, e := range v {
			v[i] = normalize(e)
		}
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	}
	return v
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case *Map:
		return v.Clone()
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}

func valueEqual(a, b any) bool {
	switch a := a.(type) {
	case *Map:
		bm, ok := b.(*Map)
		return ok && a.Equal(bm)
	case []any:
		bl, ok := b.([]any)
		if !ok || len(a) != len(bl) {
			return false
		}
		for i := range a {
			if !valueEqual(a[i], bl[i]) {
				return false
			}
		}
		return true
	}
	if af, ok := toFloat(a); ok {
		bf, ok := toFloat(b)
		return ok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func toStrings(v any) ([]string, bool) {
	switch v := v.(type) {
	case []string:
		return slices.Clone(v), true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toInt(v any) (int, bool) {
	switch v := v.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	case float64:
		return v, true
	}
	return 0, false
}
