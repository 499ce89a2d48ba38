// Package postgres implements store.Backend on a single JSONB table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/joeydtaylor/steeze-social/pkg/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection TEXT      NOT NULL,
	id         TEXT      NOT NULL,
	seq        BIGSERIAL NOT NULL,
	doc        JSONB     NOT NULL,
	PRIMARY KEY (collection, id)
)`

// Store implements store.Backend backed by PostgreSQL.
type Store struct {
	db *sqlx.DB
}

var _ store.Backend = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Open connects using a lib/pq DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return New(db), nil
}

// Migrate creates the documents table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Insert(ctx context.Context, coll, id string, doc []byte) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, doc)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO NOTHING
	`, coll, id, string(doc))
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrExists
	}
	return nil
}

func (s *Store) Get(ctx context.Context, coll, id string) ([]byte, error) {
	var doc []byte
	err := s.db.GetContext(ctx, &doc, `SELECT doc FROM documents WHERE collection = $1 AND id = $2`, coll, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return doc, err
}

func (s *Store) Find(ctx context.Context, coll string, f store.Filter) ([][]byte, error) {
	where, args, err := whereClause(coll, f)
	if err != nil {
		return nil, err
	}
	var docs [][]byte
	if err := s.db.SelectContext(ctx, &docs, `SELECT doc FROM documents WHERE `+where+` ORDER BY seq ASC`, args...); err != nil {
		return nil, err
	}
	return docs, nil
}

func (s *Store) Replace(ctx context.Context, coll, id string, doc []byte) error {
	res, err := s.db.ExecContext(ctx, `UPDATE documents SET doc = $3::jsonb WHERE collection = $1 AND id = $2`, coll, id, string(doc))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Mutate locks the row for the duration of fn.
func (s *Store) Mutate(ctx context.Context, coll, id string, fn func([]byte) ([]byte, error)) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var doc []byte
	err = tx.GetContext(ctx, &doc, `SELECT doc FROM documents WHERE collection = $1 AND id = $2 FOR UPDATE`, coll, id)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return err
	}
	next, err := fn(doc)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `UPDATE documents SET doc = $3::jsonb WHERE collection = $1 AND id = $2`, coll, id, string(next)); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Delete(ctx context.Context, coll, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, coll, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (s *Store) DeleteWhere(ctx context.Context, coll string, f store.Filter) (int, error) {
	where, args, err := whereClause(coll, f)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE `+where, args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// whereClause binds field names as parameters; nothing user-supplied is
// spliced into the SQL text.
func whereClause(coll string, f store.Filter) (string, []any, error) {
	parts := []string{"collection = $1"}
	args := []any{coll}
	for _, c := range f {
		val := c.Value
		if c.Op == store.OpHas {
			val = []any{c.Value}
		}
		js, err := store.JSONValue(val)
		if err != nil {
			return "", nil, err
		}
		fieldArg := len(args) + 1
		valArg := fieldArg + 1
		switch c.Op {
		case store.OpEq:
			parts = append(parts, fmt.Sprintf("doc -> $%d = $%d::jsonb", fieldArg, valArg))
		case store.OpHas:
			parts = append(parts, fmt.Sprintf("doc -> $%d @> $%d::jsonb", fieldArg, valArg))
		default:
			return "", nil, fmt.Errorf("postgres: unsupported operator %s", c.Op)
		}
		args = append(args, c.Field, js)
	}
	return strings.Join(parts, " AND "), args, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}
