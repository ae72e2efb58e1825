package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingFatal struct{ msg string }

func (r *recordingFatal) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestPredicates(t *testing.T) {
	internal := ModuleInternal("rentapp")
	assert.True(t, internal("rentapp/internal/core"))
	assert.False(t, internal("rentapp/pkg/domain"))
	assert.False(t, internal("golang.org/x/text/internal/tag"))

	assert.True(t, StorageDriver("database/sql"))
	assert.False(t, StorageDriver("database/sql/driver"))
	assert.True(t, StorageDriver("github.com/redis/go-redis/v9"))
	assert.True(t, StorageDriver("modernc.org/sqlite"))
	assert.True(t, StorageDriver("github.com/aws/aws-sdk-go-v2/service/s3"))
	assert.False(t, StorageDriver("github.com/go-playground/validator/v10"))

	either := AnyOf(internal, StorageDriver)
	assert.True(t, either("rentapp/internal/kv"))
	assert.True(t, either("github.com/jackc/pgx/v5/stdlib"))
	assert.False(t, either("strings"))
	assert.False(t, AnyOf()("anything"))
}

func writePkg(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x.go"), []byte(src), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "x_test.go"), []byte("package tmp\nimport _ \"database/sql\"\n"), 0o600))
	return dir
}

func TestDirectImportViolations(t *testing.T) {
	dir := writePkg(t, "package tmp\nimport (\n\t\"fmt\"\n\t_ \"github.com/redis/go-redis/v9\"\n)\nfunc X() { fmt.Println(1) }\n")

	viols, err := directImportViolations(dir, StorageDriver)
	require.NoError(t, err)
	assert.Equal(t, []string{"github.com/redis/go-redis/v9 (in x.go)"}, viols)

	AssertNoDirectImports(t, dir, func(string) bool { return false }, "none")
}

func TestDirectImportViolationsErrors(t *testing.T) {
	_, err := directImportViolations(filepath.Join(t.TempDir(), "missing"), StorageDriver)
	assert.Error(t, err)

	dir := writePkg(t, "package tmp\nimport (\n")
	_, err = directImportViolations(dir, StorageDriver)
	assert.Error(t, err)
}

func TestFailIfViolations(t *testing.T) {
	var r recordingFatal
	failIfViolations(&r, "direct import", "layering", nil)
	assert.Empty(t, r.msg)

	failIfViolations(&r, "direct import", "layering", []string{"a", "b"})
	assert.Equal(t, "forbidden direct import (layering):\na\nb", r.msg)
}
