package testutil

import (
	"testing"

	"netconf-go/internal/database"
	"netconf-go/internal/netconf"
)

// NewTestRunStore creates a new in-memory SQLite run store with schema applied.
// The store is automatically closed when the test completes.
func NewTestRunStore(t *testing.T) netconf.RunStore {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		t.Fatalf("failed to migrate database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})
	return db
}
