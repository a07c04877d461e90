// Package postgres stores boards in a PostgreSQL table, one row per board with
// the element sequence as jsonb.
package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/matzehuels/whiteboard/pkg/element"
	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/store"
)

// Schema creates the boards table if it does not exist.
const Schema = `CREATE TABLE IF NOT EXISTS boards (
	id         text PRIMARY KEY,
	owner      text NOT NULL,
	shared     text[] NOT NULL DEFAULT '{}',
	elements   jsonb NOT NULL DEFAULT '[]',
	updated_at timestamptz NOT NULL
)`

const (
	selectBoard = `SELECT id, owner, shared, elements, updated_at FROM boards WHERE id = $1`
	upsertBoard = `INSERT INTO boards (id, owner, shared, elements, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
	owner = EXCLUDED.owner,
	shared = EXCLUDED.shared,
	elements = EXCLUDED.elements,
	updated_at = EXCLUDED.updated_at`
)

// Store is a PostgreSQL-backed board store.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to the database at dsn and applies [Schema].
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect postgres")
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		pool.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "apply schema")
	}
	return &Store{pool: pool}, nil
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (*store.Board, error) {
	var (
		b   store.Board
		raw []byte
	)
	err := s.pool.QueryRow(ctx, selectBoard, id).Scan(&b.ID, &b.Owner, &b.Shared, &raw, &b.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get %s", id)
	}
	if err := json.Unmarshal(raw, &b.Elements); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode %s", id)
	}
	return &b, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, b *store.Board) error {
	elements := b.Elements
	if elements == nil {
		elements = []element.Element{}
	}
	raw, err := json.Marshal(elements)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "encode %s", b.ID)
	}
	shared := b.Shared
	if shared == nil {
		shared = []string{}
	}
	_, err = s.pool.Exec(ctx, upsertBoard, b.ID, b.Owner, shared, string(raw), time.Now().UTC())
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save %s", b.ID)
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

var _ store.Store = (*Store)(nil)
