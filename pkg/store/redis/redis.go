// Package redis stores boards as JSON strings in Redis, so several relay
// instances can serve the same boards.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/whiteboard/pkg/errors"
	"github.com/matzehuels/whiteboard/pkg/store"
)

// DefaultPrefix namespaces board keys.
const DefaultPrefix = "whiteboard:board:"

// Config holds the connection settings.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store is a Redis-backed board store.
type Store struct {
	rdb    *redis.Client
	prefix string
	owned  bool
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect redis %s", cfg.Addr)
	}
	s := NewFromClient(rdb, cfg.Prefix)
	s.owned = true
	return s, nil
}

// NewFromClient wraps an existing client. Close leaves the client open.
func NewFromClient(rdb *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix}
}

// Get implements store.Store.
func (s *Store) Get(ctx context.Context, id string) (*store.Board, error) {
	data, err := s.rdb.Get(ctx, s.prefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get %s", id)
	}
	var b store.Board
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "decode %s", id)
	}
	return &b, nil
}

// Save implements store.Store.
func (s *Store) Save(ctx context.Context, b *store.Board) error {
	c := *b
	c.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(&c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "encode %s", b.ID)
	}
	if err := s.rdb.Set(ctx, s.prefix+b.ID, data, 0).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save %s", b.ID)
	}
	return nil
}

// Close implements store.Store.
func (s *Store) Close() error {
	if !s.owned {
		return nil
	}
	return s.rdb.Close()
}

var _ store.Store = (*Store)(nil)
