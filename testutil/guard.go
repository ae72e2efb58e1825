// Package testutil provides import guards used by package tests to keep the
// domain layer free of storage and transport code.
package testutil

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"golang.org/x/tools/go/packages"
)

// Forbidden reports whether an import path breaks a layering rule.
type Forbidden func(importPath string) bool

// AnyOf matches when any of preds matches.
func AnyOf(preds ...Forbidden) Forbidden {
	return func(path string) bool {
		for _, p := range preds {
			if p(path) {
				return true
			}
		}
		return false
	}
}

// ModuleInternal matches packages under module/internal.
func ModuleInternal(module string) Forbidden {
	prefix := module + "/internal/"
	return func(path string) bool { return strings.HasPrefix(path, prefix) }
}

var storageModules = []string{
	"github.com/redis/go-redis/",
	"github.com/jackc/pgx/",
	"modernc.org/sqlite",
	"github.com/aws/aws-sdk-go-v2/",
}

// StorageDriver matches database/sql and the storage client libraries the
// infra drivers wrap.
func StorageDriver(path string) bool {
	if path == "database/sql" {
		return true
	}
	for _, m := range storageModules {
		if strings.HasPrefix(path, m) {
			return true
		}
	}
	return false
}

// AssertNoDirectImports parses the non-test .go files in dir and fails when an
// import matches forbidden. Build tags are ignored.
func AssertNoDirectImports(t testing.TB, dir string, forbidden Forbidden, reason string) {
	t.Helper()
	viols, err := directImportViolations(dir, forbidden)
	if err != nil {
		t.Fatalf("scan %s: %v", dir, err)
	}
	failIfViolations(t, "direct import", reason, viols)
}

// AssertNoTransitiveImports loads pattern with its full dependency graph and
// fails when any reachable package matches forbidden.
func AssertNoTransitiveImports(t testing.TB, pattern string, forbidden Forbidden, reason string) {
	t.Helper()
	viols, err := transitiveViolations(pattern, forbidden)
	if err != nil {
		t.Fatalf("load %s: %v", pattern, err)
	}
	failIfViolations(t, "transitive dependency", reason, viols)
}

func directImportViolations(dir string, forbidden Forbidden) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	fset := token.NewFileSet()
	var viols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		file, err := parser.ParseFile(fset, filepath.Join(dir, name), nil, parser.ImportsOnly)
		if err != nil {
			return nil, err
		}
		for _, imp := range file.Imports {
			ip := strings.Trim(imp.Path.Value, `"`)
			if forbidden(ip) {
				viols = append(viols, ip+" (in "+name+")")
			}
		}
	}
	return viols, nil
}

func transitiveViolations(pattern string, forbidden Forbidden) ([]string, error) {
	cfg := &packages.Config{Mode: packages.NeedName | packages.NeedImports | packages.NeedDeps}
	roots, err := packages.Load(cfg, pattern)
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	packages.Visit(roots, nil, func(p *packages.Package) {
		if forbidden(p.PkgPath) {
			seen[p.PkgPath] = true
		}
	})
	viols := make([]string, 0, len(seen))
	for path := range seen {
		viols = append(viols, path)
	}
	sort.Strings(viols)
	return viols, nil
}

type fatalLogger interface {
	Fatalf(format string, args ...any)
}

func failIfViolations(t fatalLogger, kind, reason string, viols []string) {
	if len(viols) > 0 {
		t.Fatalf("forbidden %s (%s):\n%s", kind, reason, strings.Join(viols, "\n"))
	}
}
