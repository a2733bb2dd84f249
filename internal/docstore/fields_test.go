package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFieldAccessors(t *testing.T) {
	at := time.Date(2025, 5, 1, 8, 30, 0, 0, time.UTC)
	f := Fields{
		"title":    "Run",
		"done":     true,
		"asInt":    int64(5),
		"asFloat":  float64(7),
		"asTime":   at,
		"asString": at.Format(time.RFC3339Nano),
		"tags":     []any{"a", 1, "b"},
		"subs":     []any{map[string]any{"id": "s1"}, "junk"},
	}

	assert.Equal(t, "Run", f.String("title"))
	assert.Equal(t, "", f.String("done"))
	assert.True(t, f.Bool("done"))

	n, ok := f.Int("asInt")
	assert.True(t, ok)
	assert.Equal(t, 5, n)
	n, ok = f.Int("asFloat")
	assert.True(t, ok)
	assert.Equal(t, 7, n)
	_, ok = f.Int("missing")
	assert.False(t, ok)

	assert.True(t, at.Equal(f.Time("asTime")))
	assert.True(t, at.Equal(f.Time("asString")))
	assert.True(t, f.Time("title").IsZero())

	tags, ok := f.Strings("tags")
	assert.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tags)
	_, ok = f.Strings("missing")
	assert.False(t, ok)

	subs := f.Maps("subs")
	assert.Len(t, subs, 1)
	assert.Equal(t, "s1", subs[0].String("id"))

	assert.True(t, f.Has("title"))
	assert.False(t, f.Has("nope"))
}
