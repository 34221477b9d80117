// Package testing provides test helpers shared across packages.
package testing

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/aristath/coinvest/internal/database"
)

// NewTestDB creates a migrated SQLite database in a temporary directory.
// The connection is closed when the test finishes.
//
// Supported schema names:
//   - "snapshots" - applies snapshots_schema.sql
//
// Any other name fails the test.
func NewTestDB(t *testing.T, name string) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), fmt.Sprintf("%s.db", name)),
		Profile: database.ProfileCache,
		Name:    name,
	})
	if err != nil {
		t.Fatalf("Failed to create test database %s: %v", name, err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Warning: Failed to close test database %s: %v", name, err)
		}
	})

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database %s: %v", name, err)
	}

	return db
}
