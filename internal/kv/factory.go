package kv

import (
	"context"
	"fmt"

	memorystore "rentapp/internal/infra/kv/memory"
	"rentapp/internal/infra/kv/postgres"
	redisstore "rentapp/internal/infra/kv/redis"
	"rentapp/internal/infra/kv/sqlite"
)

// Options selects and configures a storage driver.
type Options struct {
	Driver        Driver
	SQLitePath    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisHash     string
	// QuotaBytes caps the total stored bytes; zero disables the cap.
	QuotaBytes int64
}

// Open constructs the configured store. Defaults to sqlite when the driver is
// unset, wrapping it in a quota guard when QuotaBytes is positive.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverSQLite
	}
	var (
		store Store
		err   error
	)
	switch driver {
	case DriverMemory:
		store = memorystore.New()
	case DriverSQLite:
		store, err = sqlite.New(ctx, opts.SQLitePath)
	case DriverPostgres:
		store, err = postgres.New(ctx, opts.PostgresDSN)
	case DriverRedis:
		store, err = redisstore.New(ctx, redisstore.Config{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
			Hash:     opts.RedisHash,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %s", driver)
	}
	if err != nil {
		return nil, err
	}
	if opts.QuotaBytes > 0 {
		store = WithQuota(store, opts.QuotaBytes)
	}
	return store, nil
}
