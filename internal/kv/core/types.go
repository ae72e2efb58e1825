// Package core defines the key-value storage contract shared by every
// storage driver and the repository layer.
package core

import (
	"context"
	"errors"
)

// Driver identifies a concrete key-value storage backend implementation.
type Driver string

const (
	// DriverMemory keeps entries in process memory (tests / ephemeral).
	DriverMemory Driver = "memory"
	// DriverSQLite stores entries in an embedded sqlite file.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres stores entries in a PostgreSQL table.
	DriverPostgres Driver = "postgres"
	// DriverRedis stores entries in a single Redis hash.
	DriverRedis Driver = "redis"
)

// Store is a string key-value store modelled on browser local storage. All
// values are serialized JSON documents owned by the caller.
type Store interface {
	// Get returns the value at key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes value at key, replacing any previous value. Implementations
	// return an error wrapping ErrQuotaExceeded when a budget is enforced.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
	// Size reports the total bytes held by keys and values.
	Size(ctx context.Context) (int64, error)
	// Close releases driver resources.
	Close() error
	// Driver returns the configured backend driver.
	Driver() Driver
}

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")
