package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/canoe/backend/internal/infrastructure/config"
	"github.com/canoe/backend/internal/infrastructure/logger"
	"github.com/canoe/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

func main() {
	var (
		migrationsPath string
		logLevel       string
	)
	flag.StringVar(&migrationsPath, "path", "", "Migrations root, overrides MIGRATIONS_DIR")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage(os.Stderr)
		os.Exit(2)
	}
	name, args := args[0], args[1:]

	cmd, err := lookup(name, args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		printUsage(os.Stderr)
		os.Exit(2)
	}

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if migrationsPath != "" {
		cfg.Database.MigrationsDir = migrationsPath
	}
	if cfg.Database.MigrationsDir, err = filepath.Abs(cfg.Database.MigrationsDir); err != nil {
		log.Fatal("Failed to resolve migrations directory", zap.Error(err))
	}

	e := env{log: log, out: os.Stdout, dir: cfg.Database.MigrationsPath()}
	log.Info("Migration CLI started",
		zap.String("command", name),
		zap.String("dialect", cfg.Database.Dialect()),
		zap.String("migrations_path", e.dir),
	)

	if err := execute(cmd, e, &cfg.Database, args); err != nil {
		if errors.Is(err, errUsage) {
			printUsage(os.Stderr)
		}
		log.Fatal("Migration command failed", zap.String("command", name), zap.Error(err))
	}
}

func execute(cmd command, e env, db *config.DatabaseConfig, args []string) error {
	if cmd.files != nil {
		return cmd.files(e, args)
	}

	m, err := migration.Open(db, e.log)
	if err != nil {
		return fmt.Errorf("open migrator: %w", err)
	}
	defer m.Close()

	return cmd.db(e, m, args)
}
