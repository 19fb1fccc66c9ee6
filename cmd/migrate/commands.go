package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/canoe/backend/internal/infrastructure/migration"
	"go.uber.org/zap"
)

// schema is the part of *migration.Migrator the database commands use
type schema interface {
	Up() error
	Down() error
	Steps(n int) error
	GoTo(version uint) error
	Version() (uint, bool, error)
	Force(version int) error
	Drop() error
}

var _ schema = (*migration.Migrator)(nil)

var errUsage = errors.New("invalid arguments")

type env struct {
	log *zap.Logger
	out io.Writer
	dir string
}

type command struct {
	usage   string
	summary string
	minArgs int
	// files commands work on the migrations directory only and never connect.
	files func(e env, args []string) error
	db    func(e env, s schema, args []string) error
}

var commands = map[string]command{
	"up": {
		usage: "up", summary: "Apply all pending migrations",
		db: func(_ env, s schema, _ []string) error { return s.Up() },
	},
	"down": {
		usage: "down", summary: "Roll back all migrations",
		db: func(_ env, s schema, _ []string) error { return s.Down() },
	},
	"step": {
		usage: "step <n>", summary: "Apply n migrations, negative n rolls back", minArgs: 1,
		db: func(_ env, s schema, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil || n == 0 {
				return fmt.Errorf("%w: step count %q", errUsage, args[0])
			}
			return s.Steps(n)
		},
	},
	"goto": {
		usage: "goto <version>", summary: "Migrate up or down to a version", minArgs: 1,
		db: func(_ env, s schema, args []string) error {
			v, err := strconv.ParseUint(args[0], 10, 32)
			if err != nil {
				return fmt.Errorf("%w: version %q", errUsage, args[0])
			}
			return s.GoTo(uint(v))
		},
	},
	"version": {
		usage: "version", summary: "Show the applied version",
		db: func(e env, s schema, _ []string) error {
			v, dirty, err := s.Version()
			if err != nil {
				return err
			}
			if v == 0 {
				e.log.Info("No migrations applied")
				return nil
			}
			e.log.Info("Current migration version", zap.Uint("version", v), zap.Bool("dirty", dirty))
			return nil
		},
	},
	"force": {
		usage: "force <version>", summary: "Mark a version as applied without running it", minArgs: 1,
		db: func(e env, s schema, args []string) error {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("%w: version %q", errUsage, args[0])
			}
			e.log.Warn("Forcing migration version", zap.Int("version", v))
			return s.Force(v)
		},
	},
	"drop": {
		usage: "drop -confirm", summary: "Drop every table in the database",
		db: func(_ env, s schema, args []string) error {
			if !slices.Contains(args, "-confirm") && !slices.Contains(args, "--confirm") {
				return fmt.Errorf("%w: drop needs -confirm", errUsage)
			}
			return s.Drop()
		},
	},
	"create": {
		usage: "create <name> [desc]", summary: "Write a new up/down file pair", minArgs: 1,
		files: func(e env, args []string) error {
			desc := ""
			if len(args) > 1 {
				desc = args[1]
			}
			mf, err := migration.CreateMigration(e.dir, args[0], desc)
			if err != nil {
				return err
			}
			e.log.Info("Migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
			return nil
		},
	},
	"list": {
		usage: "list", summary: "List migration files",
		files: func(e env, _ []string) error {
			names, err := migration.ListMigrations(e.dir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				e.log.Info("No migrations found")
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(e.out, "  -", name)
			}
			return nil
		},
	},
}

// lookup resolves name and checks its argument count
func lookup(name string, args []string) (command, error) {
	cmd, ok := commands[name]
	if !ok {
		return command{}, fmt.Errorf("%w: unknown command %q", errUsage, name)
	}
	if len(args) < cmd.minArgs {
		return command{}, fmt.Errorf("%w: usage: migrate %s", errUsage, cmd.usage)
	}
	return cmd, nil
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, "Usage:\n  migrate [flags] <command> [arguments]\n\nCommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-22s%s\n", commands[name].usage, commands[name].summary)
	}
	fmt.Fprint(w, `
Flags:
  -path string          Migrations root holding postgres/ and sqlite/ (default: $MIGRATIONS_DIR)
  -log-level string     debug, info, warn or error (default: info)

Environment:
  DATABASE_URL          postgres://... or sqlite://path (default: sqlite://canoe.db)
  MIGRATIONS_DIR        Migrations root (default: migrations)
`)
}
