// Package kv re-exports the storage contract and selects a driver from
// configuration.
package kv

import (
	"rentapp/internal/kv/core"
)

type (
	// Driver identifies a kv backend driver.
	Driver = core.Driver
	// Store is the interface for kv storage backends.
	Store = core.Store
)

const (
	// DriverMemory is the in-memory driver.
	DriverMemory = core.DriverMemory
	// DriverSQLite is the embedded sqlite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the PostgreSQL driver.
	DriverPostgres = core.DriverPostgres
	// DriverRedis is the Redis driver.
	DriverRedis = core.DriverRedis
)

// ErrClosed indicates the store was closed.
var ErrClosed = core.ErrClosed
