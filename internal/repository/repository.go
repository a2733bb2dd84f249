// Package repository maps the entity families onto document store
// collections:
//
//	settings/global, settings/{uid}   effective settings records
//	users/{uid}/goals/{id}            goals with embedded sub-goals
//	challenges/{id}                   community challenges
//	programs/{id}                     learning programs
//	users/{uid}                       account profiles (admin projection)
package repository

import (
	"context"

	"github.com/atinyakov/winnermind/internal/docstore"
)

// Snapshot is one push of a typed subscription: the full decoded result of
// the subscribed query or an error.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// subscribe opens a store subscription and decodes each snapshot. Like the
// store channel, the returned one is latest-wins and closes when ctx ends.
func subscribe[T any](ctx context.Context, store docstore.Store, q docstore.Query, decode func(docstore.Document) T) (<-chan Snapshot[T], error) {
	src, err := store.Subscribe(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make(chan Snapshot[T], 1)
	go func() {
		defer close(out)
		for snap := range src {
			next := Snapshot[T]{Err: snap.Err}
			if snap.Err == nil {
				next.Items = decodeAll(snap.Docs, decode)
			}
			select {
			case <-out:
			default:
			}
			out <- next
		}
	}()
	return out, nil
}

func decodeAll[T any](docs []docstore.Document, decode func(docstore.Document) T) []T {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		out = append(out, decode(d))
	}
	return out
}
