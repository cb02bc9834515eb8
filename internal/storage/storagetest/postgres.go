// Package storagetest provisions throwaway PostgreSQL schemas for repository tests.
package storagetest

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/krsnavtr-code/gallery/internal/config"
	"github.com/krsnavtr-code/gallery/internal/storage"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// PostgresURLEnv names the connection string used by integration tests.
const PostgresURLEnv = "GALLERY_TEST_POSTGRES_URL"

// PostgresPool returns a pool bound to a fresh, migrated schema that is dropped
// when the test ends. The test is skipped when PostgresURLEnv is unset.
func PostgresPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(PostgresURLEnv)
	if url == "" {
		t.Skipf("%s not set", PostgresURLEnv)
	}
	ctx := context.Background()

	admin, err := storage.NewPostgresPool(ctx, config.PostgresConfig{URL: url})
	require.NoError(t, err, "connect to test database")

	schema := "gallery_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err, "create test schema")

	pool, err := storage.NewPostgresPool(ctx, config.PostgresConfig{URL: withSearchPath(url, schema)})
	require.NoError(t, err, "connect to test schema")

	t.Cleanup(func() {
		pool.Close()
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
		admin.Close()
	})

	require.NoError(t, storage.MigratePostgres(ctx, pool, zap.NewNop()), "migrate test schema")
	return pool
}

func withSearchPath(url, schema string) string {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		return url + sep + "search_path=" + schema
	}
	return url + " search_path=" + schema
}
