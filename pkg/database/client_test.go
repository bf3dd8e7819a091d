package database_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/codeready-toolchain/datamask/pkg/database"
	testdb "github.com/codeready-toolchain/datamask/test/database"
	"github.com/codeready-toolchain/datamask/test/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseClient_MigrationsSeedSampleData(t *testing.T) {
	client := testdb.NewTestClient(t)
	ctx := context.Background()

	var employees, projects int
	require.NoError(t, client.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&employees))
	require.NoError(t, client.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&projects))
	assert.Equal(t, 5, employees)
	assert.Equal(t, 3, projects)

	var email string
	require.NoError(t, client.DB().QueryRowContext(ctx, `SELECT email FROM employees WHERE id = 1`).Scan(&email))
	assert.Equal(t, "zhang@company.com", email)

	// Sequences continue after the seeded ids.
	var id int
	require.NoError(t, client.DB().QueryRowContext(ctx,
		`INSERT INTO employees (name) VALUES ('new hire') RETURNING id`).Scan(&id))
	assert.Equal(t, 6, id)
}

func TestDatabaseClient_MigrateIsIdempotent(t *testing.T) {
	db := util.SetupTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, database.Migrate(ctx, db, "test"))
	require.NoError(t, database.Migrate(ctx, db, "test"))

	var employees int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM employees`).Scan(&employees))
	assert.Equal(t, 5, employees)
}

func TestHealth(t *testing.T) {
	client := testdb.NewTestClient(t)

	health, err := database.Health(context.Background(), client.DB())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, uint(2), health.SchemaVersion)
	assert.False(t, health.Dirty)
	assert.Greater(t, health.MaxOpenConns, 0)
}

func TestHealth_WithoutMigrationsIsDegraded(t *testing.T) {
	db := util.SetupTestDatabase(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `CREATE TABLE schema_migrations (version bigint NOT NULL, dirty boolean NOT NULL)`)
	require.NoError(t, err)

	health, err := database.Health(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, "degraded", health.Status)
}

func TestHealthStatus_JSONMilliseconds(t *testing.T) {
	client := testdb.NewTestClient(t)

	health, err := database.Health(context.Background(), client.DB())
	require.NoError(t, err)
	assert.Less(t, health.ResponseTime, int64(1000), "response time should be less than 1 second for a local ping")

	jsonBytes, err := json.Marshal(health)
	require.NoError(t, err)

	var jsonData map[string]any
	require.NoError(t, json.Unmarshal(jsonBytes, &jsonData))

	responseTime, ok := jsonData["response_time_ms"].(float64)
	require.True(t, ok, "response_time_ms should be a number")
	// Nanoseconds would be > 1,000,000 for anything above 1ms.
	assert.Less(t, responseTime, float64(1000000))

	_, ok = jsonData["wait_duration_ms"].(float64)
	assert.True(t, ok, "wait_duration_ms should be a number")
	assert.Equal(t, float64(2), jsonData["schema_version"])
}
