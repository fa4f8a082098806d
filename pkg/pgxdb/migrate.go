package pgxdb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	migrate "github.com/rubenv/sql-migrate"
)

// MigrationsTableName is where sql-migrate tracks applied migrations
const MigrationsTableName = "schema_migrations"

// ErrMigrationExecution is returned when migrations cannot be applied
var ErrMigrationExecution = errors.New("migration execution failed")

// MigrationSource returns the sql-migrate source and set for migrationsDir
func MigrationSource(migrationsDir string) (*migrate.FileMigrationSource, *migrate.MigrationSet) {
	return &migrate.FileMigrationSource{Dir: migrationsDir}, &migrate.MigrationSet{TableName: MigrationsTableName}
}

// ApplyMigrations applies database migrations using sql-migrate with the provided pgx pool.
// Returns the number of migrations applied.
func ApplyMigrations(pool *pgxpool.Pool, migrationsDir string) (int, error) {
	// Create sql.DB from the pgx pool for sql-migrate
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return applyMigrations(db, migrationsDir)
}

func applyMigrations(db *sql.DB, migrationsDir string) (int, error) {
	source, migrationSet := MigrationSource(migrationsDir)

	n, err := migrationSet.Exec(db, "postgres", source, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrMigrationExecution, err)
	}
	return n, nil
}
