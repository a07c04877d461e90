package server

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/whiteboard/pkg/errors"
)

// Message is an encoded envelope routed to the connections of one board or
// one user.
type Message struct {
	CanvasID string          `json:"canvasId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Origin   string          `json:"origin,omitempty"`
	Data     json.RawMessage `json:"data"`
}

// Fanout distributes messages to every relay instance, including the one that
// published them.
type Fanout interface {
	// Start begins delivering published messages to deliver.
	Start(ctx context.Context, deliver func(Message)) error
	Publish(ctx context.Context, m Message) error
	Close() error
}

// LocalFanout delivers messages within the process.
type LocalFanout struct {
	mu      sync.RWMutex
	deliver func(Message)
}

// NewLocalFanout returns a single-instance fan-out.
func NewLocalFanout() *LocalFanout { return &LocalFanout{} }

// Start implements Fanout.
func (f *LocalFanout) Start(_ context.Context, deliver func(Message)) error {
	f.mu.Lock()
	f.deliver = deliver
	f.mu.Unlock()
	return nil
}

// Publish implements Fanout.
func (f *LocalFanout) Publish(_ context.Context, m Message) error {
	f.mu.RLock()
	deliver := f.deliver
	f.mu.RUnlock()
	if deliver == nil {
		return errors.New(errors.ErrCodeInternal, "fan-out not started")
	}
	deliver(m)
	return nil
}

// Close implements Fanout.
func (f *LocalFanout) Close() error { return nil }

// DefaultChannel is the Redis pub/sub channel shared by relay instances.
const DefaultChannel = "whiteboard:fanout"

// RedisFanout distributes messages through Redis pub/sub so members connected
// to different relay instances see each other's updates.
type RedisFanout struct {
	rdb     *redis.Client
	channel string
	pubsub  *redis.PubSub
	done    chan struct{}
	onError func(error)
}

// NewRedisFanout returns a fan-out over rdb. onError receives messages that
// could not be decoded; it may be nil.
func NewRedisFanout(rdb *redis.Client, channel string, onError func(error)) *RedisFanout {
	if channel == "" {
		channel = DefaultChannel
	}
	if onError == nil {
		onError = func(error) {}
	}
	return &RedisFanout{rdb: rdb, channel: channel, onError: onError}
}

// Start implements Fanout. It returns once the subscription is confirmed.
func (f *RedisFanout) Start(ctx context.Context, deliver func(Message)) error {
	f.pubsub = f.rdb.Subscribe(ctx, f.channel)
	if _, err := f.pubsub.Receive(ctx); err != nil {
		f.pubsub.Close()
		return errors.Wrap(errors.ErrCodeTransport, err, "subscribe %s", f.channel)
	}
	f.done = make(chan struct{})
	ch := f.pubsub.Channel()
	go func() {
		defer close(f.done)
		for msg := range ch {
			var m Message
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				f.onError(errors.Wrap(errors.ErrCodeInvalidMessage, err, "decode fan-out message"))
				continue
			}
			deliver(m)
		}
	}()
	return nil
}

// Publish implements Fanout.
func (f *RedisFanout) Publish(ctx context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode fan-out message")
	}
	if err := f.rdb.Publish(ctx, f.channel, data).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTransport, err, "publish %s", f.channel)
	}
	return nil
}

// Close implements Fanout.
func (f *RedisFanout) Close() error {
	if f.pubsub == nil {
		return nil
	}
	err := f.pubsub.Close()
	<-f.done
	return err
}
