package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestStoreWithPostgres runs the login-log operations against a real
// PostgreSQL instance.
func TestStoreWithPostgres(t *testing.T) {
	// Skip if running short tests or Docker is not available
	if testing.Short() {
		t.Skip("Skipping PostgreSQL integration test in short mode")
	}

	// Recover from panic if Docker is not available
	defer func() {
		if r := recover(); r != nil {
			t.Skipf("Skipping PostgreSQL test: Docker not available (panic: %v)", r)
		}
	}()

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Skipf("Skipping PostgreSQL test: Docker not available (%v)", err)
		return
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	t.Run("BatchCreateAndPaginate", func(t *testing.T) {
		s := createPostgresStore(t, pgContainer)
		seedLoginLogs(t, s, 15)

		logs, pagination, err := s.GetLoginLogsPaginated(NewPaginationParams(1, 10), LoginLogFilters{})
		require.NoError(t, err)
		assert.Len(t, logs, 10)
		assert.Equal(t, int64(15), pagination.Total)
		assert.Equal(t, 2, pagination.TotalPages)
	})

	t.Run("DeleteOldLoginLogs", func(t *testing.T) {
		s := createPostgresStore(t, pgContainer)
		seedLoginLogs(t, s, 10)

		deleted, err := s.DeleteOldLoginLogs(time.Now().Add(-5*time.Minute - 30*time.Second))
		require.NoError(t, err)
		assert.Equal(t, int64(4), deleted)
	})

	t.Run("Health", func(t *testing.T) {
		s := createPostgresStore(t, pgContainer)
		assert.NoError(t, s.Health())
	})
}

// createPostgresStore creates a uniquely-named database in the container so
// subtests stay isolated.
func createPostgresStore(t *testing.T, pgContainer *postgres.PostgresContainer) *Store {
	t.Helper()

	dbName := "test_" + uuid.New().String()[:8]
	ctx := context.Background()

	createDBCmd := fmt.Sprintf("CREATE DATABASE %s", dbName)
	_, _, err := pgContainer.Exec(
		ctx,
		[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", createDBCmd},
	)
	require.NoError(t, err)

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)
	dsn := fmt.Sprintf(
		"host=%s port=%s user=testuser password=testpass dbname=%s sslmode=disable",
		host, port.Port(), dbName,
	)

	t.Cleanup(func() {
		dropDBCmd := fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)
		_, _, _ = pgContainer.Exec(
			context.Background(),
			[]string{"psql", "-U", "testuser", "-d", "testdb", "-c", dropDBCmd},
		)
	})

	s, err := New("postgres", dsn)
	require.NoError(t, err)
	return s
}
