// Package redis stores kv entries as fields of a single Redis hash so the
// whole application state can be sized and dropped together.
package redis

import (
	"context"
	"errors"
	"fmt"

	"rentapp/internal/kv/core"

	goredis "github.com/redis/go-redis/v9"
)

const (
	defaultAddr = "localhost:6379"
	defaultHash = "rentapp:kv"
)

// Config holds connection parameters.
type Config struct {
	Addr     string
	Password string
	DB       int
	Hash     string
}

// Store implements core.Store on a Redis hash.
type Store struct {
	client *goredis.Client
	hash   string
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config) (*Store, error) {
	addr := cfg.Addr
	if addr == "" {
		addr = defaultAddr
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewFromClient(client, cfg.Hash), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *goredis.Client, hash string) *Store {
	if hash == "" {
		hash = defaultHash
	}
	return &Store{client: client, hash: hash}
}

// Driver returns the kv driver identifier.
func (s *Store) Driver() core.Driver { return core.DriverRedis }

// Get returns the hash field at key.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.HGet(ctx, s.hash, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("hget %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes the hash field at key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.HSet(ctx, s.hash, key, value).Err(); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Remove deletes the hash field at key.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.HDel(ctx, s.hash, key).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", key, err)
	}
	return nil
}

// Size sums field name and value lengths across the hash.
func (s *Store) Size(ctx context.Context) (int64, error) {
	all, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return 0, fmt.Errorf("hgetall: %w", err)
	}
	var total int64
	for k, v := range all {
		total += int64(len(k) + len(v))
	}
	return total, nil
}

// Close closes the client.
func (s *Store) Close() error { return s.client.Close() }
