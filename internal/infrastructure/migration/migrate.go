package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/canoe/backend/internal/infrastructure/config"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// ErrMigrationsNotFound is returned when the migrations directory is missing
var ErrMigrationsNotFound = errors.New("migrations directory not found")

// Migrator applies the SQL migrations of one dialect to a database
type Migrator struct {
	migrate *migrate.Migrate
	logger  *zap.Logger
	path    string
	ownsDB  bool
}

// Open connects to the database of cfg on a connection owned by the Migrator.
// Postgres goes through lib/pq, sqlite through the sqlite3 driver.
func Open(cfg *config.DatabaseConfig, logger *zap.Logger) (*Migrator, error) {
	var (
		db  *sql.DB
		err error
	)
	switch dialect := cfg.Dialect(); dialect {
	case config.DialectPostgres:
		db, err = sql.Open("postgres", cfg.URL)
	case config.DialectSQLite:
		db, err = sql.Open("sqlite3", cfg.SQLitePath())
	default:
		return nil, fmt.Errorf("unsupported database url %q", cfg.URL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	m, err := New(db, cfg.Dialect(), cfg.MigrationsPath(), logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	m.ownsDB = true
	return m, nil
}

// Run applies every pending migration at startup.
// sqlite reuses db so an in-memory database is migrated in place; postgres
// gets a short lived connection of its own.
func Run(db *sql.DB, cfg *config.DatabaseConfig, logger *zap.Logger) error {
	var (
		m   *Migrator
		err error
	)
	if cfg.Dialect() == config.DialectSQLite {
		m, err = New(db, config.DialectSQLite, cfg.MigrationsPath(), logger)
	} else {
		m, err = Open(cfg, logger)
	}
	if err != nil {
		return err
	}
	defer m.Close()

	return m.Up()
}

// New creates a Migrator over a borrowed connection; Close leaves db open.
// dialect is config.DialectPostgres or config.DialectSQLite.
func New(db *sql.DB, dialect, migrationsPath string, logger *zap.Logger) (*Migrator, error) {
	if info, err := os.Stat(migrationsPath); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrMigrationsNotFound, migrationsPath)
	}

	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case config.DialectPostgres:
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case config.DialectSQLite:
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", dialect, err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsPath, dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return &Migrator{
		migrate: m,
		logger:  logger.Named("migrate"),
		path:    migrationsPath,
	}, nil
}

// run executes op and treats "no change" as success
func (m *Migrator) run(name string, op func() error, fields ...zap.Field) error {
	m.logger.Info("Running migration "+name, append(fields, zap.String("path", m.path))...)

	err := op()
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("Database schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration %s failed: %w", name, err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	m.logger.Info("Migration "+name+" completed",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
	)
	return nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	return m.run("up", m.migrate.Up)
}

// Down rolls back all migrations
func (m *Migrator) Down() error {
	return m.run("down", m.migrate.Down)
}

// Steps applies n migrations (positive = up, negative = down)
func (m *Migrator) Steps(n int) error {
	return m.run("steps", func() error { return m.migrate.Steps(n) }, zap.Int("steps", n))
}

// GoTo migrates to a specific version
func (m *Migrator) GoTo(version uint) error {
	return m.run("goto", func() error { return m.migrate.Migrate(version) }, zap.Uint("target_version", version))
}

// Version returns the current migration version; zero when none was applied
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the migration version without running migrations.
// It is meant for repairing a dirty schema.
func (m *Migrator) Force(version int) error {
	m.logger.Warn("Forcing migration version", zap.Int("version", version))
	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// Drop drops every table of the database
func (m *Migrator) Drop() error {
	m.logger.Warn("Dropping database - all data will be lost")
	if err := m.migrate.Drop(); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	return nil
}

// Close releases the connection when the Migrator owns it
func (m *Migrator) Close() error {
	if !m.ownsDB {
		return nil
	}
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}
