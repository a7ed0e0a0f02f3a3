package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis store.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// RedisStore implements Store on a Redis server.
type RedisStore struct {
	opts   RedisOptions
	client *redis.Client
}

// NewRedisStore creates a store for the given server. Init connects.
func NewRedisStore(opts RedisOptions) *RedisStore {
	return &RedisStore{opts: opts}
}

// Init connects and pings the server.
func (s *RedisStore) Init() error {
	if s.client != nil {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        s.opts.Addr,
		Password:    s.opts.Password,
		DB:          s.opts.DB,
		DialTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", s.opts.Addr, err)
	}
	s.client = client
	return nil
}

// Get returns the value stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	if s.client == nil {
		return nil, ErrNotFound
	}

	value, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, nil
}

// Put overwrites the value stored under key. Keys do not expire.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte) error {
	if s.client == nil {
		return fmt.Errorf("redis store not initialized")
	}
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Close closes the client.
func (s *RedisStore) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
