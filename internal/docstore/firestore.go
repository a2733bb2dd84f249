package docstore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the hosted document database backend.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore connects to the Firestore project. Credentials and the
// emulator address (FIRESTORE_EMULATOR_HOST) come from the environment.
func NewFirestoreStore(ctx context.Context, projectID string) (*FirestoreStore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}
	return &FirestoreStore{client: client}, nil
}

// Get implements Store.
func (s *FirestoreStore) Get(ctx context.Context, path string) (Document, error) {
	if _, _, err := SplitDoc(path); err != nil {
		return Document{}, err
	}
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, mapFirestoreErr(err))
	}
	return Document{ID: snap.Ref.ID, Path: path, Fields: Fields(snap.Data())}, nil
}

// Set implements Store.
func (s *FirestoreStore) Set(ctx context.Context, path string, fields Fields) error {
	if _, _, err := SplitDoc(path); err != nil {
		return err
	}
	if _, err := s.client.Doc(path).Set(ctx, toFirestore(fields)); err != nil {
		return fmt.Errorf("set %s: %w", path, mapFirestoreErr(err))
	}
	return nil
}

// Create implements Store.
func (s *FirestoreStore) Create(ctx context.Context, path string, fields Fields) error {
	if _, _, err := SplitDoc(path); err != nil {
		return err
	}
	if _, err := s.client.Doc(path).Create(ctx, toFirestore(fields)); err != nil {
		return fmt.Errorf("create %s: %w", path, mapFirestoreErr(err))
	}
	return nil
}

// Merge implements Store.
func (s *FirestoreStore) Merge(ctx context.Context, path string, fields Fields) error {
	if _, _, err := SplitDoc(path); err != nil {
		return err
	}
	if _, err := s.client.Doc(path).Set(ctx, toFirestore(fields), firestore.MergeAll); err != nil {
		return fmt.Errorf("merge %s: %w", path, mapFirestoreErr(err))
	}
	return nil
}

// Add implements Store.
func (s *FirestoreStore) Add(ctx context.Context, collection string, fields Fields) (Document, error) {
	if err := CheckCollection(collection); err != nil {
		return Document{}, err
	}
	ref, _, err := s.client.Collection(collection).Add(ctx, toFirestore(fields))
	if err != nil {
		return Document{}, fmt.Errorf("add %s: %w", collection, mapFirestoreErr(err))
	}
	return s.Get(ctx, Join(collection, ref.ID))
}

// Update implements Store.
func (s *FirestoreStore) Update(ctx context.Context, path string, fields Fields) error {
	if _, _, err := SplitDoc(path); err != nil {
		return err
	}
	updates := make([]firestore.Update, 0, len(fields))
	for k, v := range fields {
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: toFirestoreValue(v)})
	}
	if _, err := s.client.Doc(path).Update(ctx, updates); err != nil {
		return fmt.Errorf("update %s: %w", path, mapFirestoreErr(err))
	}
	return nil
}

// Delete implements Store. The Exists precondition makes deleting a missing
// document fail instead of succeeding silently.
func (s *FirestoreStore) Delete(ctx context.Context, path string) error {
	if _, _, err := SplitDoc(path); err != nil {
		return err
	}
	if _, err := s.client.Doc(path).Delete(ctx, firestore.Exists); err != nil {
		return fmt.Errorf("delete %s: %w", path, mapFirestoreErr(err))
	}
	return nil
}

// Query implements Store.
func (s *FirestoreStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := CheckCollection(q.Collection); err != nil {
		return nil, err
	}
	snaps, err := s.query(q).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, mapFirestoreErr(err))
	}
	return fromSnapshots(q.Collection, snaps), nil
}

// Subscribe implements Store.
func (s *FirestoreStore) Subscribe(ctx context.Context, q Query) (<-chan Snapshot, error) {
	if err := CheckCollection(q.Collection); err != nil {
		return nil, err
	}
	it := s.query(q).Snapshots(ctx)
	sub := &subscriber{ctx: ctx, q: q, ch: make(chan Snapshot, 1)}

	go func() {
		defer sub.close()
		defer it.Stop()
		for {
			qs, err := it.Next()
			if ctx.Err() != nil || errors.Is(err, iterator.Done) {
				return
			}
			if err != nil {
				sub.deliver(Snapshot{Err: fmt.Errorf("subscribe %s: %w", q.Collection, mapFirestoreErr(err))})
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				sub.deliver(Snapshot{Err: fmt.Errorf("subscribe %s: %w", q.Collection, mapFirestoreErr(err))})
				continue
			}
			sub.deliver(Snapshot{Docs: fromSnapshots(q.Collection, snaps)})
		}
	}()
	return sub.ch, nil
}

// Close closes the Firestore client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) query(q Query) firestore.Query {
	fq := s.client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, "==", normalize(f.Value))
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Direction == Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	return fq.OrderBy(firestore.DocumentID, firestore.Asc)
}

func fromSnapshots(collection string, snaps []*firestore.DocumentSnapshot) []Document {
	docs := make([]Document, 0, len(snaps))
	for _, snap := range snaps {
		docs = append(docs, Document{
			ID:     snap.Ref.ID,
			Path:   Join(collection, snap.Ref.ID),
			Fields: Fields(snap.Data()),
		})
	}
	return docs
}

func toFirestore(fields Fields) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = toFirestoreValue(v)
	}
	return out
}

func toFirestoreValue(v any) any {
	switch t := v.(type) {
	case arrayUnion:
		return firestore.ArrayUnion(normalizeSlice(t.values)...)
	case arrayRemove:
		return firestore.ArrayRemove(normalizeSlice(t.values)...)
	}
	return normalize(v)
}

func mapFirestoreErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound, codes.FailedPrecondition:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return err
}
