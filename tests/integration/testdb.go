// Package integration runs the fund service against a real PostgreSQL
// started with testcontainers.
package integration

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/canoe/backend/internal/infrastructure/config"
	"github.com/canoe/backend/internal/infrastructure/logger"
	"github.com/canoe/backend/internal/infrastructure/migration"
	"github.com/canoe/backend/internal/infrastructure/persistence"
	"github.com/canoe/backend/tests/testutil"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// Shared container for all tests in the package
	sharedContainer    *tcpostgres.PostgresContainer
	sharedContainerMu  sync.Mutex
	sharedContainerURL string
)

// TestDB is a migrated connection to the shared container
type TestDB struct {
	*persistence.Database
	Config *config.DatabaseConfig
	t      *testing.T
}

// NewTestDB returns a connection to the shared PostgreSQL container, starting
// and migrating it on first use. Tests are skipped under -short.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}

	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	ctx := context.Background()
	cfg := &config.DatabaseConfig{
		MigrationsDir:   testutil.MigrationsDir(t),
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5,
	}

	if sharedContainer == nil {
		container, err := tcpostgres.Run(ctx,
			"postgres:16-alpine",
			tcpostgres.WithDatabase("canoe_test"),
			tcpostgres.WithUsername("postgres"),
			tcpostgres.WithPassword("admin123"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		require.NoError(t, err, "Failed to start PostgreSQL container")

		url, err := container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err, "Failed to get connection string")

		cfg.URL = url
		m, err := migration.Open(cfg, zap.NewNop())
		require.NoError(t, err, "Failed to open migrator")
		require.NoError(t, m.Up(), "Failed to run migrations")
		require.NoError(t, m.Close())

		sharedContainer = container
		sharedContainerURL = url
	}
	cfg.URL = sharedContainerURL

	var opts []persistence.Option
	// Enable query logging if TEST_DB_DEBUG is set
	if os.Getenv("TEST_DB_DEBUG") != "" {
		opts = append(opts, persistence.WithLogger(logger.NewGormLogger(zap.NewExample(), gormlogger.Info)))
	}
	db, err := persistence.NewDatabase(cfg, opts...)
	require.NoError(t, err, "Failed to connect to database")

	tdb := &TestDB{Database: db, Config: cfg, t: t}
	t.Cleanup(func() {
		_ = db.Close()
	})
	tdb.CleanTables()
	return tdb
}

// CleanTables empties the fund tables and restarts their sequences
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()
	err := tdb.DB.Exec("TRUNCATE TABLE aliases, funds RESTART IDENTITY CASCADE").Error
	require.NoError(tdb.t, err, "Failed to truncate tables")
}

// CleanupSharedContainer terminates the shared container.
// It is called from TestMain.
func CleanupSharedContainer() {
	sharedContainerMu.Lock()
	defer sharedContainerMu.Unlock()

	if sharedContainer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = sharedContainer.Terminate(ctx)
		sharedContainer = nil
		sharedContainerURL = ""
	}
}
