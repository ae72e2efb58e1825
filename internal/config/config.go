// Package config loads rentapp settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"rentapp/internal/blob"
	"rentapp/internal/core"
	"rentapp/internal/kv"
)

// Prefix is prepended to every variable name, e.g. RENTAPP_STORAGE_DRIVER.
const Prefix = "RENTAPP"

// Config is the process configuration.
type Config struct {
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"rentapp.db"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisHash     string `envconfig:"REDIS_HASH" default:"rentapp:kv"`
	QuotaBytes    int64  `envconfig:"QUOTA_BYTES" default:"5242880"`

	BlobDriver  string        `envconfig:"BLOB_DRIVER"`
	BlobRoot    string        `envconfig:"BLOB_ROOT" default:"./images"`
	BlobBaseURL string        `envconfig:"BLOB_BASE_URL"`
	S3Bucket    string        `envconfig:"S3_BUCKET"`
	S3Region    string        `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint  string        `envconfig:"S3_ENDPOINT"`
	S3AccessKey string        `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string        `envconfig:"S3_SECRET_KEY"`
	S3PathStyle bool          `envconfig:"S3_PATH_STYLE" default:"false"`
	S3URLExpiry time.Duration `envconfig:"S3_URL_EXPIRY" default:"168h"`

	CacheWindow time.Duration `envconfig:"CACHE_WINDOW" default:"100ms"`
	StoreBudget int           `envconfig:"STORE_BUDGET" default:"5242880"`
	PruneKeep   int           `envconfig:"PRUNE_KEEP" default:"10"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Metrics  string `envconfig:"METRICS" default:"prometheus"`
	Trace    bool   `envconfig:"TRACE" default:"false"`
	// SupportContact is shown to users when a write fails.
	SupportContact string `envconfig:"SUPPORT_CONTACT" default:"support@rentapp.co.tz"`
}

// Load reads envFiles (missing files are ignored; none means ".env") and
// then processes the environment. Variables already set win over file values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	return cfg, nil
}

// Storage converts the configuration into backend options.
func (c Config) Storage() core.StorageOptions {
	return core.StorageOptions{
		KV: kv.Options{
			Driver:        kv.Driver(c.StorageDriver),
			SQLitePath:    c.SQLitePath,
			PostgresDSN:   c.PostgresDSN,
			RedisAddr:     c.RedisAddr,
			RedisPassword: c.RedisPassword,
			RedisDB:       c.RedisDB,
			RedisHash:     c.RedisHash,
			QuotaBytes:    c.QuotaBytes,
		},
		Blob: blob.Options{
			Driver:  blob.Driver(c.BlobDriver),
			FSRoot:  c.BlobRoot,
			BaseURL: c.BlobBaseURL,
			S3: blob.S3Config{
				Region:          c.S3Region,
				Bucket:          c.S3Bucket,
				Endpoint:        c.S3Endpoint,
				AccessKeyID:     c.S3AccessKey,
				SecretAccessKey: c.S3SecretKey,
				PathStyle:       c.S3PathStyle,
				PublicBaseURL:   c.BlobBaseURL,
				URLExpiry:       c.S3URLExpiry,
			},
		},
	}
}

// Options converts the tuning settings into core options.
func (c Config) Options() []core.Option {
	return []core.Option{
		core.WithCacheWindow(c.CacheWindow),
		core.WithStoreBudget(c.StoreBudget),
		core.WithPruneKeep(c.PruneKeep),
	}
}
