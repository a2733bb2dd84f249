package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/oklog/ulid/v2"
)

// MemoryStore keeps documents in process memory. Values are deep-copied on
// the way in and out, so callers never share state with the store.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields
	hub         *hub
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{collections: make(map[string]map[string]Fields)}
	s.hub = newHub(s.Query)
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, path string) (Document, error) {
	col, id, err := SplitDoc(path)
	if err != nil {
		return Document{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.collections[col][id]
	if !ok {
		return Document{}, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	return Document{ID: id, Path: path, Fields: cloneFields(f)}, nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	doc := Fields{}
	applyUpdate(doc, fields)

	s.mu.Lock()
	s.collection(col)[id] = doc
	s.mu.Unlock()

	s.hub.publish(col)
	return nil
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	doc := Fields{}
	applyUpdate(doc, fields)

	s.mu.Lock()
	c := s.collection(col)
	if _, ok := c[id]; ok {
		s.mu.Unlock()
		return fmt.Errorf("create %s: %w", path, ErrAlreadyExists)
	}
	c[id] = doc
	s.mu.Unlock()

	s.hub.publish(col)
	return nil
}

// Merge implements Store.
func (s *MemoryStore) Merge(_ context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	c := s.collection(col)
	doc, ok := c[id]
	if !ok {
		doc = Fields{}
		c[id] = doc
	}
	applyUpdate(doc, fields)
	s.mu.Unlock()

	s.hub.publish(col)
	return nil
}

// Add implements Store.
func (s *MemoryStore) Add(ctx context.Context, collection string, fields Fields) (Document, error) {
	if err := CheckCollection(collection); err != nil {
		return Document{}, err
	}
	id := ulid.Make().String()
	path := Join(collection, id)
	if err := s.Set(ctx, path, fields); err != nil {
		return Document{}, err
	}
	return s.Get(ctx, path)
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	doc, ok := s.collections[col][id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("update %s: %w", path, ErrNotFound)
	}
	applyUpdate(doc, fields)
	s.mu.Unlock()

	s.hub.publish(col)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, path string) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.collections[col][id]; !ok {
		s.mu.Unlock()
		return fmt.Errorf("delete %s: %w", path, ErrNotFound)
	}
	delete(s.collections[col], id)
	s.mu.Unlock()

	s.hub.publish(col)
	return nil
}

// Query implements Store.
func (s *MemoryStore) Query(_ context.Context, q Query) ([]Document, error) {
	if err := CheckCollection(q.Collection); err != nil {
		return nil, err
	}
	s.mu.RLock()
	docs := make([]Document, 0, len(s.collections[q.Collection]))
	for id, f := range s.collections[q.Collection] {
		docs = append(docs, Document{ID: id, Path: Join(q.Collection, id), Fields: cloneFields(f)})
	}
	s.mu.RUnlock()
	return q.evaluate(docs), nil
}

// Subscribe implements Store.
func (s *MemoryStore) Subscribe(ctx context.Context, q Query) (<-chan Snapshot, error) {
	if err := CheckCollection(q.Collection); err != nil {
		return nil, err
	}
	return s.hub.subscribe(ctx, q)
}

// Close ends every subscription.
func (s *MemoryStore) Close() error {
	s.hub.close()
	return nil
}

func (s *MemoryStore) collection(col string) map[string]Fields {
	c, ok := s.collections[col]
	if !ok {
		c = make(map[string]Fields)
		s.collections[col] = c
	}
	return c
}
