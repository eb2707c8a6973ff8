package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/peakform/coach-backend/generated/db"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDatabase wraps a real PostgreSQL database for testing
type TestDatabase struct {
	container testcontainers.Container
	pool      *pgxpool.Pool
	queries   *db.Queries
}

// NewTestDatabase creates a new test database using testcontainers
func NewTestDatabase(t *testing.T) *TestDatabase {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
				wait.ForListeningPort("5432/tcp").
					WithStartupTimeout(30*time.Second),
			),
		),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err, "Failed to create connection pool")

	require.NoError(t, pool.Ping(ctx), "Failed to ping database")

	return &TestDatabase{
		container: postgresContainer,
		pool:      pool,
		queries:   db.New(pool),
	}
}

// Queries returns the SQLC queries interface
func (tdb *TestDatabase) Queries() *db.Queries {
	return tdb.queries
}

// Pool returns the underlying connection pool
func (tdb *TestDatabase) Pool() *pgxpool.Pool {
	return tdb.pool
}

// RunMigrations runs the goose migrations once against the container
func (tdb *TestDatabase) RunMigrations(t *testing.T) {
	sqlDB := stdlib.OpenDBFromPool(tdb.pool)
	defer sqlDB.Close()

	goose.SetDialect("postgres")

	// Relative path from the package under test to the project root
	err := goose.Up(sqlDB, "../../db/migrations")
	require.NoError(t, err, "Failed to run goose migrations")
}

// Cleanup closes the database connection and terminates the container
func (tdb *TestDatabase) Cleanup() {
	ctx := context.Background()
	tdb.pool.Close()
	if err := tdb.container.Terminate(ctx); err != nil {
		// Log but don't fail tests on cleanup errors
	}
}

// CleanupDatabase resets mutable state for test isolation. The permission
// catalogue and system presets are seeded by migration, so those are
// restored rather than truncated.
func (tdb *TestDatabase) CleanupDatabase(t *testing.T) {
	ctx := context.Background()

	// Truncate in reverse dependency order
	tables := []string{
		"permission_audit_log",
		"notifications",
		"permission_requests",
		"invitations",
		"client_permissions",
		"relationships",
		"users",
	}

	for _, table := range tables {
		_, err := tdb.pool.Exec(ctx, "TRUNCATE TABLE "+table+" CASCADE")
		if err != nil {
			t.Logf("Failed to truncate table %s: %v", table, err)
		}
	}

	if _, err := tdb.pool.Exec(ctx, "DELETE FROM permission_presets WHERE NOT is_system"); err != nil {
		t.Logf("Failed to delete custom presets: %v", err)
	}

	if _, err := tdb.pool.Exec(ctx, "UPDATE permission_presets SET is_active = true WHERE is_system"); err != nil {
		t.Logf("Failed to restore system presets: %v", err)
	}

	// Restore seeded definition flags mutated by admin-toggle tests
	if _, err := tdb.pool.Exec(ctx, `
		UPDATE permission_definitions SET
			is_enabled = true,
			is_exclusive = slug IN ('set_nutrition_targets', 'set_weight_targets', 'assign_programmes', 'review_check_ins')
	`); err != nil {
		t.Logf("Failed to restore permission definitions: %v", err)
	}
}
