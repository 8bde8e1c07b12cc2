package metadata

import (
	"testing"

	"buildhealth/testutil"
)

func TestMetadataNeverTouchesTheResultStore(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.PackagesForbidden("buildhealth/internal/results", "buildhealth/internal/core"), "metadata is independent of results")
	testutil.AssertNoTransitiveDependency(t, "buildhealth/internal/metadata", testutil.DatabaseImportForbidden, "metadata reads documents only")
}
