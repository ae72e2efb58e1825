package blob

import (
	"context"
	"testing"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()

	none, err := Open(ctx, Options{})
	if err != nil || none != nil {
		t.Fatalf("expected no store without a driver, got %v (err=%v)", none, err)
	}

	mem, err := Open(ctx, Options{Driver: DriverMemory})
	if err != nil {
		t.Fatalf("open memory: %v", err)
	}
	if mem.Driver() != DriverMemory {
		t.Fatalf("unexpected driver %v", mem.Driver())
	}

	fsStore, err := Open(ctx, Options{Driver: DriverFilesystem, FSRoot: t.TempDir()})
	if err != nil {
		t.Fatalf("open fs: %v", err)
	}
	if fsStore.Driver() != DriverFilesystem {
		t.Fatalf("unexpected driver %v", fsStore.Driver())
	}

	if _, err := Open(ctx, Options{Driver: DriverS3}); err == nil {
		t.Fatalf("expected bucket is required error")
	}
	if _, err := Open(ctx, Options{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unsupported driver error")
	}
}
