package docstore

import (
	"math"
	"time"
)

// Accessors read typed values from Fields. They accept every representation
// a backend may hand back for the type: JSON-backed stores return numbers as
// float64 and times as RFC 3339 strings, the others int64 and time.Time.

// String returns the string at key, or "".
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Bool returns the bool at key, or false.
func (f Fields) Bool(key string) bool {
	b, _ := f[key].(bool)
	return b
}

// Int returns the integer at key and whether a number was present.
func (f Fields) Int(key string) (int, bool) {
	switch n := f[key].(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(math.Round(n)), true
	}
	return 0, false
}

// Time returns the instant at key, or the zero time.
func (f Fields) Time(key string) time.Time {
	switch t := f[key].(type) {
	case time.Time:
		return t.UTC()
	case string:
		if v, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return v.UTC()
		}
	}
	return time.Time{}
}

// Strings returns the string elements of the array at key and whether the
// field held an array.
func (f Fields) Strings(key string) ([]string, bool) {
	list, ok := f[key].([]any)
	if !ok {
		if ss, isStrings := f[key].([]string); isStrings {
			return append([]string{}, ss...), true
		}
		return nil, false
	}
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// Maps returns the object elements of the array at key.
func (f Fields) Maps(key string) []Fields {
	list, _ := f[key].([]any)
	out := make([]Fields, 0, len(list))
	for _, v := range list {
		if m, ok := v.(map[string]any); ok {
			out = append(out, Fields(m))
		}
	}
	return out
}

// Has reports whether key is present.
func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}
