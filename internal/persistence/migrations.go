package persistence

import (
	"context"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/roster-service/internal/repository"
)

const (
	createVersionsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
        version    TEXT PRIMARY KEY,
        applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`
	selectVersions = `SELECT version FROM schema_migrations`
	insertVersion  = `INSERT INTO schema_migrations (version) VALUES ($1) ON CONFLICT (version) DO NOTHING`
)

// RunMigrations applies the *.sql files of dir that schema_migrations has not recorded yet,
// ordered by file name. The version of a file is its name without the extension. Each file
// runs in its own transaction together with its schema_migrations row.
func RunMigrations(ctx context.Context, db repository.TxStarter, dir fs.FS, logger *zap.Logger) error {
	log := logger.Named("roster.migrations")

	files, err := fs.Glob(dir, "*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	if _, err := db.Exec(ctx, createVersionsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}
	applied, err := appliedVersions(ctx, db)
	if err != nil {
		return err
	}

	pending := 0
	for _, file := range files {
		version := strings.TrimSuffix(file, ".sql")
		if applied[version] {
			continue
		}
		pending++

		body, err := fs.ReadFile(dir, file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		err = repository.RunInTx(ctx, db, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(body)); err != nil {
				return fmt.Errorf("apply migration %s: %w", file, err)
			}
			if _, err := tx.Exec(ctx, insertVersion, version); err != nil {
				return fmt.Errorf("record migration %s: %w", file, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		log.Info("migration applied", zap.String("version", version))
	}

	log.Info("schema up to date", zap.Int("applied", pending), zap.Int("known", len(files)))
	return nil
}

func appliedVersions(ctx context.Context, db repository.DBTX) (map[string]bool, error) {
	rows, err := db.Query(ctx, selectVersions)
	if err != nil {
		return nil, fmt.Errorf("read schema_migrations: %w", err)
	}
	defer rows.Close()

	versions := map[string]bool{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions[v] = true
	}
	return versions, rows.Err()
}
