package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Dialect selects the SQL flavour of an SQLStore.
type Dialect int

const (
	// Postgres uses $n placeholders, row locks and pg_notify.
	Postgres Dialect = iota
	// SQLite uses ? placeholders.
	SQLite
)

// ChangeChannel is the Postgres NOTIFY channel carrying the collection path
// of every write.
const ChangeChannel = "docstore_changes"

// SQLStore keeps every document as a JSON row of a single documents table
// (see internal/db for the schema). Filters and ordering are evaluated in
// Go after a per-collection scan.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	hub     *hub
}

// NewSQLStore wraps an initialized database handle.
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	s := &SQLStore{db: db, dialect: dialect}
	s.hub = newHub(s.Query)
	return s
}

// Get implements Store.
func (s *SQLStore) Get(ctx context.Context, path string) (Document, error) {
	col, id, err := SplitDoc(path)
	if err != nil {
		return Document{}, err
	}
	var raw []byte
	err = s.db.QueryRowContext(ctx,
		s.rebind(`SELECT fields FROM documents WHERE collection = ? AND id = ?`),
		col, id,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, fmt.Errorf("get %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}
	fields, err := decodeFields(raw)
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}
	return Document{ID: id, Path: path, Fields: fields}, nil
}

// Set implements Store.
func (s *SQLStore) Set(ctx context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	doc := Fields{}
	applyUpdate(doc, fields)
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		if err := s.upsert(ctx, tx, col, id, doc); err != nil {
			return err
		}
		return s.notify(ctx, tx, col)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	s.hub.publish(col)
	return nil
}

// Create implements Store. The insert skips conflicting rows, so a taken
// path shows up as zero affected rows.
func (s *SQLStore) Create(ctx context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	doc := Fields{}
	applyUpdate(doc, fields)
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("create %s: encode fields: %w", path, err)
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, s.rebind(`
			INSERT INTO documents (collection, id, fields, updated_at)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (collection, id) DO NOTHING
		`), col, id, string(raw), time.Now().UTC())
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrAlreadyExists
		}
		return s.notify(ctx, tx, col)
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	s.hub.publish(col)
	return nil
}

// Merge implements Store.
func (s *SQLStore) Merge(ctx context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		doc, err := s.lockedRead(ctx, tx, col, id)
		if errors.Is(err, ErrNotFound) {
			doc = Fields{}
		} else if err != nil {
			return err
		}
		applyUpdate(doc, fields)
		if err := s.upsert(ctx, tx, col, id, doc); err != nil {
			return err
		}
		return s.notify(ctx, tx, col)
	})
	if err != nil {
		return fmt.Errorf("merge %s: %w", path, err)
	}
	s.hub.publish(col)
	return nil
}

// Add implements Store.
func (s *SQLStore) Add(ctx context.Context, collection string, fields Fields) (Document, error) {
	if err := CheckCollection(collection); err != nil {
		return Document{}, err
	}
	path := Join(collection, ulid.Make().String())
	if err := s.Set(ctx, path, fields); err != nil {
		return Document{}, err
	}
	return s.Get(ctx, path)
}

// Update implements Store.
func (s *SQLStore) Update(ctx context.Context, path string, fields Fields) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		doc, err := s.lockedRead(ctx, tx, col, id)
		if err != nil {
			return err
		}
		applyUpdate(doc, fields)
		if err := s.upsert(ctx, tx, col, id, doc); err != nil {
			return err
		}
		return s.notify(ctx, tx, col)
	})
	if err != nil {
		return fmt.Errorf("update %s: %w", path, err)
	}
	s.hub.publish(col)
	return nil
}

// Delete implements Store.
func (s *SQLStore) Delete(ctx context.Context, path string) error {
	col, id, err := SplitDoc(path)
	if err != nil {
		return err
	}
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			s.rebind(`DELETE FROM documents WHERE collection = ? AND id = ?`), col, id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return s.notify(ctx, tx, col)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	s.hub.publish(col)
	return nil
}

// Query implements Store.
func (s *SQLStore) Query(ctx context.Context, q Query) ([]Document, error) {
	if err := CheckCollection(q.Collection); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, fields FROM documents WHERE collection = ?`), q.Collection)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		fields, err := decodeFields(raw)
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", q.Collection, err)
		}
		docs = append(docs, Document{ID: id, Path: Join(q.Collection, id), Fields: fields})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query %s: %w", q.Collection, err)
	}
	return q.evaluate(docs), nil
}

// Subscribe implements Store. Only writes made through this SQLStore (or
// relayed by ListenPostgres) trigger snapshots.
func (s *SQLStore) Subscribe(ctx context.Context, q Query) (<-chan Snapshot, error) {
	if err := CheckCollection(q.Collection); err != nil {
		return nil, err
	}
	return s.hub.subscribe(ctx, q)
}

// Publish re-runs the subscriptions of a collection changed elsewhere.
func (s *SQLStore) Publish(collection string) {
	s.hub.publish(collection)
}

// PublishAll re-runs every subscription, e.g. after missed notifications.
func (s *SQLStore) PublishAll() {
	s.hub.publishAll()
}

// Close ends every subscription and closes the database handle.
func (s *SQLStore) Close() error {
	s.hub.close()
	return s.db.Close()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLStore) lockedRead(ctx context.Context, tx *sql.Tx, col, id string) (Fields, error) {
	query := `SELECT fields FROM documents WHERE collection = ? AND id = ?`
	if s.dialect == Postgres {
		query += ` FOR UPDATE`
	}
	var raw []byte
	err := tx.QueryRowContext(ctx, s.rebind(query), col, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return decodeFields(raw)
}

func (s *SQLStore) upsert(ctx context.Context, tx *sql.Tx, col, id string, doc Fields) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}
	_, err = tx.ExecContext(ctx, s.rebind(`
		INSERT INTO documents (collection, id, fields, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			fields = EXCLUDED.fields,
			updated_at = EXCLUDED.updated_at
	`), col, id, string(raw), time.Now().UTC())
	return err
}

func (s *SQLStore) notify(ctx context.Context, tx *sql.Tx, col string) error {
	if s.dialect != Postgres {
		return nil
	}
	_, err := tx.ExecContext(ctx, `SELECT pg_notify($1, $2)`, ChangeChannel, col)
	return err
}

// rebind turns ? placeholders into $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func decodeFields(raw []byte) (Fields, error) {
	fields := Fields{}
	if len(raw) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return fields, nil
}
