package blob

import (
	"context"
	"fmt"

	"rentapp/internal/infra/blob/fs"
	memorystore "rentapp/internal/infra/blob/memory"
	infraS3 "rentapp/internal/infra/blob/s3"
)

// S3Config configures the S3-compatible driver.
type S3Config = infraS3.Config

// Options selects and configures a blob driver. An empty Driver disables
// image offloading and Open returns (nil, nil).
type Options struct {
	Driver  Driver
	FSRoot  string
	BaseURL string
	S3      S3Config
}

// Open constructs the configured blob store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "":
		return nil, nil
	case DriverFilesystem:
		return fs.New(opts.FSRoot, opts.BaseURL)
	case DriverS3:
		return infraS3.New(ctx, opts.S3)
	case DriverMemory:
		return memorystore.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", opts.Driver)
	}
}
