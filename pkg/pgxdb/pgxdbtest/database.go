// Package pgxdbtest creates throwaway, migrated Postgres databases for acceptance tests
package pgxdbtest

import (
	"context"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for pgtestdb
	"github.com/peterldowns/pgtestdb"
	"github.com/peterldowns/pgtestdb/migrators/sqlmigrator"
	"github.com/stretchr/testify/require"

	"github.com/screwyprof/jupstaker/pkg/pgxdb"
)

// Config points pgtestdb at the Postgres server used for acceptance tests
type Config struct {
	User     string `env:"PGTEST_USER" envDefault:"jupstaker"`
	Password string `env:"PGTEST_PASSWORD" envDefault:"jupstaker"`
	Host     string `env:"PGTEST_HOST" envDefault:"localhost"`
	Port     string `env:"PGTEST_PORT" envDefault:"5432"`
	Options  string `env:"PGTEST_OPTIONS" envDefault:"sslmode=disable"`
}

// CreateTestDatabase creates a test database with migrations applied.
// Returns the connection pool and database URL for further connections.
func CreateTestDatabase(t *testing.T, migrationsDir string) (*pgxpool.Pool, string) {
	t.Helper()

	cfg, err := env.ParseAs[Config]()
	require.NoError(t, err)

	source, migrationSet := pgxdb.MigrationSource(migrationsDir)
	migrator := sqlmigrator.New(source, migrationSet)

	dbConfig := pgtestdb.Custom(t, pgtestdb.Config{
		DriverName: "pgx",
		User:       cfg.User,
		Password:   cfg.Password,
		Host:       cfg.Host,
		Port:       cfg.Port,
		Options:    cfg.Options,
	}, migrator)
	dbURL := dbConfig.URL()

	t.Logf("testdbconf: %s", dbURL)

	pool, err := createTestConnection(t.Context(), dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return pool, dbURL
}

// createTestConnection creates a small pool with short timeouts so broken setups fail fast
func createTestConnection(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connectionString)
	if err != nil {
		return nil, err
	}

	config.MinConns = 1
	config.MaxConns = 2
	config.MaxConnLifetime = 10 * time.Minute
	config.MaxConnIdleTime = time.Minute
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, config)
}
