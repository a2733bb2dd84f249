package docstore

import (
	"cmp"
	"reflect"
	"time"
)

// transform is a field value that is computed against the stored value
// instead of replacing it.
type transform interface {
	apply(current any) any
	elements() []any
}

type arrayUnion struct{ values []any }

type arrayRemove struct{ values []any }

// ArrayUnion adds each value to an array field unless already present.
// Applying it again has no further effect.
func ArrayUnion(values ...any) any {
	return arrayUnion{values: values}
}

// ArrayRemove removes every occurrence of each value from an array field.
// Removing an absent value has no effect.
func ArrayRemove(values ...any) any {
	return arrayRemove{values: values}
}

func (u arrayUnion) elements() []any { return u.values }

func (u arrayUnion) apply(current any) any {
	out := toSlice(current)
	for _, v := range u.values {
		v = normalize(v)
		if !containsValue(out, v) {
			out = append(out, v)
		}
	}
	return out
}

func (r arrayRemove) elements() []any { return r.values }

func (r arrayRemove) apply(current any) any {
	in := toSlice(current)
	out := make([]any, 0, len(in))
	for _, v := range in {
		if !containsValue(normalizeSlice(r.values), v) {
			out = append(out, v)
		}
	}
	return out
}

func toSlice(v any) []any {
	switch s := normalize(v).(type) {
	case []any:
		return s
	default:
		return []any{}
	}
}

func normalizeSlice(in []any) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = normalize(v)
	}
	return out
}

func containsValue(list []any, v any) bool {
	for _, e := range list {
		if valuesEqual(e, v) {
			return true
		}
	}
	return false
}

// normalize returns a deep copy of v with typed slices and maps converted to
// []any and map[string]any, and integer kinds widened to int64.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case Fields:
		return normalizeMap(t)
	case map[string]any:
		return normalizeMap(t)
	case []any:
		return normalizeSlice(t)
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, m := range t {
			out[i] = normalizeMap(m)
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC()
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.UTC()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Slice:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalize(rv.Index(i).Interface())
		}
		return out
	}
	return v
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}

// cloneFields deep-copies a field map.
func cloneFields(f Fields) Fields {
	if f == nil {
		return Fields{}
	}
	return Fields(normalizeMap(f))
}

// applyUpdate writes patch onto dst in place, evaluating transforms.
func applyUpdate(dst, patch Fields) {
	for k, v := range patch {
		if tr, ok := v.(transform); ok {
			dst[k] = tr.apply(dst[k])
			continue
		}
		dst[k] = normalize(v)
	}
}

// valuesEqual compares two normalized values. Numbers compare by value
// regardless of their Go type, times by instant.
func valuesEqual(a, b any) bool {
	if fa, ok := number(a); ok {
		if fb, ok := number(b); ok {
			return fa == fb
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// rank orders values of different kinds: nil < bool < number < time < string.
func rank(v any) int {
	switch v.(type) {
	case nil:
		return 0
	case bool:
		return 1
	case int, int64, float64:
		return 2
	case time.Time:
		return 3
	case string:
		return 4
	}
	return 5
}

// compareValues orders two normalized values. Strings holding RFC 3339
// timestamps compare as instants, so documents read back from JSON keep
// their chronological order.
func compareValues(a, b any) int {
	if sa, ok := a.(string); ok {
		if ta, err := time.Parse(time.RFC3339Nano, sa); err == nil {
			a = ta
		}
	}
	if sb, ok := b.(string); ok {
		if tb, err := time.Parse(time.RFC3339Nano, sb); err == nil {
			b = tb
		}
	}
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}
	switch x := a.(type) {
	case bool:
		y := b.(bool)
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		default:
			return 1
		}
	case time.Time:
		return x.Compare(b.(time.Time))
	case string:
		return cmp.Compare(x, b.(string))
	}
	if fa, ok := number(a); ok {
		fb, _ := number(b)
		return cmp.Compare(fa, fb)
	}
	return 0
}
