package docstore_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/winnermind/internal/docstore"
)

// runStoreContract checks the behaviour every Store implementation shares.
func runStoreContract(t *testing.T, newStore func(t *testing.T) docstore.Store) {
	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(context.Background(), docstore.Join(uniqueCollection(), "nope"))
		assert.ErrorIs(t, err, docstore.ErrNotFound)
	})

	t.Run("set and get", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		path := docstore.Join(uniqueCollection(), "doc1")

		require.NoError(t, s.Set(ctx, path, docstore.Fields{
			"title": "Run", "done": false, "count": 3, "tags": []string{"a"},
		}))
		doc, err := s.Get(ctx, path)
		require.NoError(t, err)

		assert.Equal(t, "doc1", doc.ID)
		assert.Equal(t, path, doc.Path)
		assert.Equal(t, "Run", doc.Fields["title"])
		assert.Equal(t, false, doc.Fields["done"])
		assert.EqualValues(t, 3, number(doc.Fields["count"]))
		assert.Equal(t, []any{"a"}, doc.Fields["tags"])

		require.NoError(t, s.Set(ctx, path, docstore.Fields{"title": "Walk"}))
		doc, err = s.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, docstore.Fields{"title": "Walk"}, doc.Fields)
	})

	t.Run("merge", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		path := docstore.Join(uniqueCollection(), "doc1")

		require.NoError(t, s.Merge(ctx, path, docstore.Fields{"a": "1"}))
		require.NoError(t, s.Merge(ctx, path, docstore.Fields{"b": "2"}))

		doc, err := s.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "1", doc.Fields["a"])
		assert.Equal(t, "2", doc.Fields["b"])
	})

	t.Run("update", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		col := uniqueCollection()

		err := s.Update(ctx, docstore.Join(col, "missing"), docstore.Fields{"a": "1"})
		assert.ErrorIs(t, err, docstore.ErrNotFound)

		path := docstore.Join(col, "doc1")
		require.NoError(t, s.Set(ctx, path, docstore.Fields{"a": "1", "b": "1"}))
		require.NoError(t, s.Update(ctx, path, docstore.Fields{"b": "2"}))

		doc, err := s.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "1", doc.Fields["a"])
		assert.Equal(t, "2", doc.Fields["b"])
	})

	t.Run("array transforms", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		path := docstore.Join(uniqueCollection(), "c1")
		require.NoError(t, s.Set(ctx, path, docstore.Fields{"participants": []string{}}))

		for i := 0; i < 2; i++ {
			require.NoError(t, s.Update(ctx, path, docstore.Fields{"participants": docstore.ArrayUnion("u1")}))
		}
		doc, err := s.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, []any{"u1"}, doc.Fields["participants"])

		require.NoError(t, s.Update(ctx, path, docstore.Fields{"participants": docstore.ArrayRemove("u2")}))
		require.NoError(t, s.Update(ctx, path, docstore.Fields{"participants": docstore.ArrayRemove("u1")}))
		doc, err = s.Get(ctx, path)
		require.NoError(t, err)
		assert.Empty(t, doc.Fields["participants"])
	})

	t.Run("add and delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		col := uniqueCollection()

		doc, err := s.Add(ctx, col, docstore.Fields{"title": "x"})
		require.NoError(t, err)
		assert.NotEmpty(t, doc.ID)
		assert.Equal(t, docstore.Join(col, doc.ID), doc.Path)
		assert.Equal(t, "x", doc.Fields["title"])

		require.NoError(t, s.Delete(ctx, doc.Path))
		_, err = s.Get(ctx, doc.Path)
		assert.ErrorIs(t, err, docstore.ErrNotFound)
		assert.ErrorIs(t, s.Delete(ctx, doc.Path), docstore.ErrNotFound)
	})

	t.Run("create only", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		path := docstore.Join(uniqueCollection(), "ann@example.com")

		require.NoError(t, s.Create(ctx, path, docstore.Fields{"userId": "u1"}))
		err := s.Create(ctx, path, docstore.Fields{"userId": "u2"})
		assert.ErrorIs(t, err, docstore.ErrAlreadyExists)

		doc, err := s.Get(ctx, path)
		require.NoError(t, err)
		assert.Equal(t, "u1", doc.Fields.String("userId"), "the first writer keeps the document")
	})

	t.Run("query filters and order", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		col := uniqueCollection()
		base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, s.Set(ctx, docstore.Join(col, "a"), docstore.Fields{"owner": "u1", "createdAt": base}))
		require.NoError(t, s.Set(ctx, docstore.Join(col, "b"), docstore.Fields{"owner": "u1", "createdAt": base.Add(2 * time.Hour)}))
		require.NoError(t, s.Set(ctx, docstore.Join(col, "c"), docstore.Fields{"owner": "u2", "createdAt": base.Add(time.Hour)}))

		docs, err := s.Query(ctx, docstore.Collection(col).Order("createdAt", docstore.Desc))
		require.NoError(t, err)
		assert.Equal(t, []string{"b", "c", "a"}, ids(docs))

		docs, err = s.Query(ctx, docstore.Collection(col).Where("owner", "u1").Order("createdAt", docstore.Asc))
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ids(docs))
	})

	t.Run("invalid paths", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_, err := s.Get(ctx, "only-a-collection")
		assert.ErrorIs(t, err, docstore.ErrInvalidPath)
		_, err = s.Query(ctx, docstore.Collection("a/b"))
		assert.ErrorIs(t, err, docstore.ErrInvalidPath)
	})

	t.Run("subscribe", func(t *testing.T) {
		s := newStore(t)
		col := uniqueCollection()
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		ch, err := s.Subscribe(ctx, docstore.Collection(col))
		require.NoError(t, err)

		first := waitFor(t, ch, func(snap docstore.Snapshot) bool { return snap.Err == nil })
		assert.Empty(t, first.Docs)

		require.NoError(t, s.Set(context.Background(), docstore.Join(col, "x"), docstore.Fields{"v": "1"}))
		waitFor(t, ch, func(snap docstore.Snapshot) bool { return len(snap.Docs) == 1 })

		require.NoError(t, s.Delete(context.Background(), docstore.Join(col, "x")))
		waitFor(t, ch, func(snap docstore.Snapshot) bool { return snap.Err == nil && len(snap.Docs) == 0 })

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, ok := <-ch:
				return !ok
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)
	})
}

func uniqueCollection() string {
	return "c" + strings.ToLower(ulid.Make().String())
}

func ids(docs []docstore.Document) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.ID)
	}
	return out
}

func number(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return -1
}

// waitFor reads snapshots until one satisfies ok.
func waitFor(t *testing.T, ch <-chan docstore.Snapshot, ok func(docstore.Snapshot) bool) docstore.Snapshot {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case snap, open := <-ch:
			if !open {
				t.Fatal("subscription closed")
			}
			if ok(snap) {
				return snap
			}
		case <-timeout:
			t.Fatal("timed out waiting for snapshot")
		}
	}
}
