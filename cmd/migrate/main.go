// Команда migrate управляет схемой PostgreSQL вне сервера API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"novel-stella/internal/config"
	"novel-stella/internal/database"
	"novel-stella/pkg/migration"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func main() {
	log := newLogger()

	cmd := &cli.Command{
		Name:  "migrate",
		Usage: "database schema management for novel-stella",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dsn",
				Usage: "PostgreSQL DSN; by default built from DB_* variables",
				Value: os.Getenv("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file with DB_* variables",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withMigrator(ctx, cmd, log, func(m *migration.Migrator) error {
						return m.Up(ctx)
					})
				},
			},
			{
				Name:  "down",
				Usage: "roll back all migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withMigrator(ctx, cmd, log, func(m *migration.Migrator) error {
						return m.Down(ctx)
					})
				},
			},
			{
				Name:  "steps",
				Usage: "apply (n > 0) or roll back (n < 0) n migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "n", Usage: "number of steps", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withMigrator(ctx, cmd, log, func(m *migration.Migrator) error {
						return m.Steps(ctx, int(cmd.Int("n")))
					})
				},
			},
			{
				Name:  "force",
				Usage: "set schema version without running migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "version", Usage: "schema version", Required: true},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					v := cmd.Int("version")
					if v < 0 {
						return errors.New("version must not be negative")
					}
					return withMigrator(ctx, cmd, log, func(m *migration.Migrator) error {
						return m.ForceVersion(ctx, uint(v))
					})
				},
			},
			{
				Name:    "version",
				Aliases: []string{"status"},
				Usage:   "print current schema version",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withMigrator(ctx, cmd, log, func(m *migration.Migrator) error {
						st, err := m.Status(ctx)
						if err != nil {
							return err
						}
						if !st.Applied {
							fmt.Println("no migrations applied")
							return nil
						}
						fmt.Printf("version %d (dirty: %t)\n", st.Version, st.Dirty)
						return nil
					})
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("migrate failed")
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		level = lvl
	}
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(output).Level(level).With().Timestamp().Logger()
}

// resolveDSN: флаг --dsn или DATABASE_URL, иначе конфигурация сервера.
func resolveDSN(cmd *cli.Command) (string, error) {
	if dsn := cmd.String("dsn"); dsn != "" {
		return dsn, nil
	}
	cfg, err := config.LoadConfig(cmd.String("env-file"))
	if err != nil {
		return "", fmt.Errorf("no --dsn given and config failed to load: %w", err)
	}
	return cfg.GetDSN(), nil
}

func withMigrator(ctx context.Context, cmd *cli.Command, log zerolog.Logger, fn func(*migration.Migrator) error) error {
	dsn, err := resolveDSN(cmd)
	if err != nil {
		return err
	}
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, dsn)
	if err != nil {
		return fmt.Errorf("unable to create postgres connection pool: %w", err)
	}
	defer pool.Close()

	m := migration.NewMigrator(migration.Config{
		MigrationsFS:   database.MigrationsFS(),
		MigrationsPath: database.MigrationsPath,
	}, pool, log)
	return fn(m)
}
