// Package docstore is the boundary to the remote, schemaless document
// database. Documents are addressed by slash-separated paths: collection
// paths have an odd number of segments ("challenges", "users/u1/goals"),
// document paths an even number ("challenges/c1").
//
// Implementations: MemoryStore (in-process), SQLStore (Postgres or SQLite
// holding JSON documents) and FirestoreStore (hosted Firestore).
package docstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a document addressed by path does not exist.
var ErrNotFound = errors.New("docstore: document not found")

// ErrAlreadyExists is returned by Create when the document is present.
var ErrAlreadyExists = errors.New("docstore: document already exists")

// ErrInvalidPath is returned for malformed collection or document paths.
var ErrInvalidPath = errors.New("docstore: invalid path")

// Fields is the content of a document. Values are strings, bools, numbers,
// time.Time, []any, map[string]any or nil. Inside Update, values may also be
// the transforms returned by ArrayUnion and ArrayRemove.
type Fields map[string]any

// Document is a snapshot of one stored document.
type Document struct {
	// ID is the last path segment.
	ID string
	// Path is the full document path.
	Path string
	// Fields is the document content.
	Fields Fields
}

// Snapshot is one push from a subscription: either the full result of the
// subscribed query or an error.
type Snapshot struct {
	Docs []Document
	Err  error
}

// Store is the path-addressed document API the data layer consumes.
type Store interface {
	// Get reads one document. Returns ErrNotFound when absent.
	Get(ctx context.Context, path string) (Document, error)
	// Set overwrites the whole document, creating it when absent.
	Set(ctx context.Context, path string, fields Fields) error
	// Create writes a new document and fails with ErrAlreadyExists when
	// the path is taken. The check and the write are one atomic step.
	Create(ctx context.Context, path string, fields Fields) error
	// Merge writes the given fields over the stored ones, creating the
	// document when absent.
	Merge(ctx context.Context, path string, fields Fields) error
	// Add creates a document with a store-assigned id in the collection.
	Add(ctx context.Context, collection string, fields Fields) (Document, error)
	// Update writes only the given fields. Returns ErrNotFound when absent.
	Update(ctx context.Context, path string, fields Fields) error
	// Delete removes the document. Returns ErrNotFound when absent.
	Delete(ctx context.Context, path string) error
	// Query returns the documents of a collection matching q.
	Query(ctx context.Context, q Query) ([]Document, error)
	// Subscribe pushes the result of q once immediately and again after
	// every change to the collection. The channel is closed when ctx ends.
	Subscribe(ctx context.Context, q Query) (<-chan Snapshot, error)
	// Close releases the underlying resources.
	Close() error
}

// Join builds a path from segments.
func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// SplitDoc splits a document path into its collection path and id.
func SplitDoc(path string) (collection, id string, err error) {
	segs, err := segments(path)
	if err != nil {
		return "", "", err
	}
	if len(segs)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q is not a document path", ErrInvalidPath, path)
	}
	return strings.Join(segs[:len(segs)-1], "/"), segs[len(segs)-1], nil
}

// CheckCollection validates a collection path.
func CheckCollection(path string) error {
	segs, err := segments(path)
	if err != nil {
		return err
	}
	if len(segs)%2 != 1 {
		return fmt.Errorf("%w: %q is not a collection path", ErrInvalidPath, path)
	}
	return nil
}

func segments(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(path, "/")
	for _, s := range segs {
		if s == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}
