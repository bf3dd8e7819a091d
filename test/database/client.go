// Package database provides a migrated, seeded database client for tests.
package database

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/datamask/pkg/database"
	"github.com/codeready-toolchain/datamask/test/util"
	"github.com/stretchr/testify/require"
)

// NewTestClient creates a test database client with the sample tables and
// seed rows in place.
// In CI (when CI_DATABASE_URL is set): connects to external PostgreSQL service container.
// In local dev: uses a shared testcontainer with PostgreSQL.
// Schema drop and connection close are registered with t.Cleanup.
func NewTestClient(t *testing.T) *database.Client {
	t.Helper()

	db := util.SetupTestDatabase(t)

	err := database.Migrate(context.Background(), db, "test")
	require.NoError(t, err)

	return database.NewClientFromDB(db)
}
