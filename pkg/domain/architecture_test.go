package domain

import (
	"testing"

	"rentapp/testutil"
)

// TestDomainStaysStorageFree keeps the shared property types independent of
// the repository, its drivers and the storage client libraries.
func TestDomainStaysStorageFree(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.ModuleInternal("rentapp"), testutil.StorageDriver),
		"domain types must not depend on internal packages or storage clients")
	testutil.AssertNoTransitiveImports(t, "rentapp/pkg/domain", testutil.StorageDriver,
		"domain types must not pull in storage clients")
}
