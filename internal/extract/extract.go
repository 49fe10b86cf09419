// Package extract builds small, pure functions that pull fields out of decoded JSON.
//
// A path is a dotted list of keys. Numeric segments index lists (negative values count from the end)
// and "*" applies the rest of the path to every element:
//
//	name                  the track name
//	artists.0.name        the first artist
//	album.images.-1.url   the smallest cover
//	items.*.track.id      every track id on a playlist page
//
// Missing fields never fail an extraction; they produce the configured default (nil unless
// [WithDefault] is given).
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Extractor projects a decoded record to a new value.
type Extractor func(record any) any

// Identity returns its input.
func Identity(record any) any { return record }

// Ensure returns e, or [Identity] when e is nil.
func Ensure(e Extractor) Extractor {
	if e == nil {
		return Identity
	}
	return e
}

// Option configures an extractor.
type Option func(*options)

type options struct {
	def any
}

// WithDefault sets the value returned for paths that do not resolve.
func WithDefault(v any) Option {
	return func(o *options) { o.def = v }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Path returns an extractor for a single path.
func Path(expr string, opts ...Option) (Extractor, error) {
	e, err := Compile(expr)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	return func(record any) any {
		if v, ok := e.Lookup(record); ok {
			return v
		}
		return o.def
	}, nil
}

// MustPath is like [Path] but panics on a malformed path.
func MustPath(expr string, opts ...Option) Extractor {
	e, err := Path(expr, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Field names one output of a mapping extractor.
type Field struct {
	Name string
	Path string
}

// Spec is an ordered list of output names and the paths that feed them.
type Spec []Field

// Names returns the output names in order.
func (s Spec) Names() []string {
	names := make([]string, len(s))
	for i, f := range s {
		names[i] = f.Name
	}
	return names
}

// Mapping returns an extractor producing a [Record] with one value per field of spec.
func Mapping(spec Spec, opts ...Option) (Extractor, error) {
	exprs := make([]Expr, len(spec))
	for i, f := range spec {
		e, err := Compile(f.Path)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		exprs[i] = e
	}

	o := buildOptions(opts)
	names := spec.Names()
	return func(record any) any {
		out := Record{Keys: names, Values: make(map[string]any, len(names))}
		for i, name := range names {
			v, ok := exprs[i].Lookup(record)
			if !ok {
				v = o.def
			}
			out.Values[name] = v
		}
		return out
	}, nil
}

// MustMapping is like [Mapping] but panics on a malformed path.
func MustMapping(spec Spec, opts ...Option) Extractor {
	e, err := Mapping(spec, opts...)
	if err != nil {
		panic(err)
	}
	return e
}

// Fields returns a mapping extractor where each name is also its own path.
func Fields(names ...string) (Extractor, error) {
	spec := make(Spec, len(names))
	for i, n := range names {
		spec[i] = Field{Name: n, Path: n}
	}
	return Mapping(spec)
}

// FromMap builds a [Spec] from an unordered name → path map. Fields are sorted by name.
func FromMap(m map[string]string) Spec {
	spec := make(Spec, 0, len(m))
	for _, k := range sortedKeys(m) {
		spec = append(spec, Field{Name: k, Path: m[k]})
	}
	return spec
}

// ApplyAll maps e over records.
func ApplyAll(e Extractor, records []any) []any {
	e = Ensure(e)
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = e(r)
	}
	return out
}

// Record is the result of a mapping extractor. Keys keeps the output order.
type Record struct {
	Keys   []string
	Values map[string]any
}

// Get returns the value for key, or nil.
func (r Record) Get(key string) any {
	return r.Values[key]
}

// Map returns the values as a plain map.
func (r Record) Map() map[string]any {
	out := make(map[string]any, len(r.Values))
	for k, v := range r.Values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the record as an object with keys in order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
