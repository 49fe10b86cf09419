package extract

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/desertthunder/sung/internal/shared"
)

// Wildcard maps the remainder of a path over every element of a list.
const Wildcard = "*"

type segment struct {
	key   string
	index int
	isNum bool
	star  bool
}

// Expr is a compiled path such as "album.images.0.url" or "items.*.track.id".
type Expr struct {
	raw  string
	segs []segment
}

// Compile parses a dotted path. The empty path selects the record itself.
func Compile(expr string) (Expr, error) {
	if expr == "" {
		return Expr{}, nil
	}

	parts := strings.Split(expr, ".")
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if p == "" {
			return Expr{}, fmt.Errorf("%w: empty segment in path %q", shared.ErrInvalidArgument, expr)
		}
		seg := segment{key: p, star: p == Wildcard}
		if n, err := strconv.Atoi(p); err == nil {
			seg.index, seg.isNum = n, true
		}
		segs[i] = seg
	}
	return Expr{raw: expr, segs: segs}, nil
}

// MustCompile is like [Compile] but panics on a malformed path.
func MustCompile(expr string) Expr {
	e, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Expr) String() string { return e.raw }

// Lookup resolves the path against record. The boolean is false when some segment is missing.
//
// Under a wildcard, elements that do not resolve become nil so positions line up with the source list.
func (e Expr) Lookup(record any) (any, bool) {
	return walk(record, e.segs)
}

func walk(v any, segs []segment) (any, bool) {
	if len(segs) == 0 {
		return v, true
	}
	if v == nil {
		return nil, false
	}

	seg, rest := segs[0], segs[1:]
	if seg.star {
		elems, ok := elements(v)
		if !ok {
			return nil, false
		}
		out := make([]any, len(elems))
		for i, el := range elems {
			out[i], _ = walk(el, rest)
		}
		return out, true
	}

	switch t := v.(type) {
	case map[string]any:
		next, ok := t[seg.key]
		if !ok {
			return nil, false
		}
		return walk(next, rest)
	case []any:
		next, ok := at(len(t), seg, func(i int) any { return t[i] })
		if !ok {
			return nil, false
		}
		return walk(next, rest)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		next := rv.MapIndex(reflect.ValueOf(seg.key).Convert(rv.Type().Key()))
		if !next.IsValid() {
			return nil, false
		}
		return walk(next.Interface(), rest)
	case reflect.Slice, reflect.Array:
		next, ok := at(rv.Len(), seg, func(i int) any { return rv.Index(i).Interface() })
		if !ok {
			return nil, false
		}
		return walk(next, rest)
	}
	return nil, false
}

func at(n int, seg segment, get func(int) any) (any, bool) {
	if !seg.isNum {
		return nil, false
	}
	i := seg.index
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return nil, false
	}
	return get(i), true
}

// elements lists the items of a slice, or the values of a map in key order.
func elements(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case map[string]any:
		keys := sortedKeys(t)
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = t[k]
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}
