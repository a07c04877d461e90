// Package bolt stores boards in an embedded bbolt database, one JSON value per
// board in a single bucket.
package bolt

import (
	"context"
	"encoding/json"
	"time"

	"go.etcd.io/bbolt"

	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/store"
)

var bucket = []byte("boards")

// Store is a bbolt-backed board store.
type Store struct {
	db *bbolt.DB
}

// Open opens or creates the database file at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "open %s", path)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "create bucket")
	}
	return &Store{db: db}, nil
}

// Get implements store.Store.
func (s *Store) Get(_ context.Context, id string) (*store.Board, error) {
	var data []byte
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(id)); v != nil {
			data = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get %s", id)
	}
	if data == nil {
		return nil, nil
	}
	var b store.Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode %s", id)
	}
	return &b, nil
}

// Save implements store.Store.
func (s *Store) Save(_ context.Context, b *store.Board) error {
	c := *b
	c.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(&c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "encode %s", b.ID)
	}
	err = s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(b.ID), data)
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save %s", b.ID)
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error { return s.db.Close() }

var _ store.Store = (*Store)(nil)
