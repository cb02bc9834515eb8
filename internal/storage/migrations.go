package storage

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const migrationTimeout = 30 * time.Second

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigratePostgres applies the embedded schema files in name order. Every
// statement is idempotent so the set can be replayed on each start.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool, log *zap.Logger) error {
	names, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(ctx, migrationTimeout)
	defer cancel()

	for _, name := range names {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
		log.Info("migration applied", zap.String("file", name))
	}
	return nil
}
