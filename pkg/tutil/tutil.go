package tutil

import (
	"os"
	"strings"
	"testing"
)

// IsIntegrationTest reports whether MC_TEST selects the integration suite,
// which needs a live MySQL catalog described by the DB_* variables.
func IsIntegrationTest() bool {
	return strings.EqualFold(os.Getenv("MC_TEST"), "integration")
}

func SkipUnlessIntegration(t *testing.T) {
	t.Helper()
	if !IsIntegrationTest() {
		t.Skip("Set MC_TEST=integration to run against the MySQL catalog")
	}
}
