// Package migration управляет схемой БД через golang-migrate.
// Используется утилитой cmd/migrate; сервер применяет миграции сам при старте.
package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// Config содержит источник миграций.
type Config struct {
	MigrationsPath string
	MigrationsFS   fs.FS
	LockTimeout    time.Duration
}

// Status - текущее состояние схемы.
type Status struct {
	Version uint
	Dirty   bool
	// Applied == false, если ни одна миграция еще не применялась.
	Applied bool
}

// Migrator выполняет миграции базы данных.
type Migrator struct {
	config Config
	pool   *pgxpool.Pool
	log    zerolog.Logger
}

// NewMigrator создает Migrator поверх пула pgx.
func NewMigrator(config Config, pool *pgxpool.Pool, log zerolog.Logger) *Migrator {
	if config.LockTimeout <= 0 {
		config.LockTimeout = 30 * time.Second
	}
	return &Migrator{config: config, pool: pool, log: log.With().Str("component", "migrator").Logger()}
}

// Up применяет все доступные миграции.
func (m *Migrator) Up(ctx context.Context) error {
	return m.run(ctx, "up", func(mg *migrate.Migrate) error { return mg.Up() })
}

// Down откатывает все миграции.
func (m *Migrator) Down(ctx context.Context) error {
	return m.run(ctx, "down", func(mg *migrate.Migrate) error { return mg.Down() })
}

// Steps применяет (n > 0) или откатывает (n < 0) n миграций.
func (m *Migrator) Steps(ctx context.Context, n int) error {
	if n == 0 {
		return errors.New("steps must not be zero")
	}
	return m.run(ctx, fmt.Sprintf("steps %d", n), func(mg *migrate.Migrate) error { return mg.Steps(n) })
}

// ForceVersion выставляет версию без выполнения SQL, снимая флаг dirty.
func (m *Migrator) ForceVersion(ctx context.Context, version uint) error {
	return m.run(ctx, fmt.Sprintf("force %d", version), func(mg *migrate.Migrate) error {
		return mg.Force(int(version))
	})
}

// Status возвращает текущую версию схемы.
func (m *Migrator) Status(ctx context.Context) (Status, error) {
	mg, db, err := m.open(ctx)
	if err != nil {
		return Status{}, err
	}
	defer closeMigrator(mg, db)

	version, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("failed to get migration version: %w", err)
	}
	return Status{Version: version, Dirty: dirty, Applied: true}, nil
}

func (m *Migrator) run(ctx context.Context, op string, fn func(*migrate.Migrate) error) error {
	mg, db, err := m.open(ctx)
	if err != nil {
		return err
	}
	defer closeMigrator(mg, db)

	started := time.Now()
	err = fn(mg)
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info().Str("op", op).Msg("schema is up to date")
		return nil
	}
	if err != nil {
		m.log.Error().Err(err).Str("op", op).Msg("migration failed")
		return fmt.Errorf("migration %s failed: %w", op, err)
	}
	m.log.Info().Str("op", op).Dur("took", time.Since(started)).Msg("migration finished")
	return nil
}

// open создает migrate.Migrate; sql.DB закрывается вместе с ним.
func (m *Migrator) open(ctx context.Context) (*migrate.Migrate, *sql.DB, error) {
	if err := m.pool.Ping(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}
	db := stdlib.OpenDBFromPool(m.pool)

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: "schema_migrations"})
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}
	source, err := iofs.New(m.config.MigrationsFS, m.config.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create source driver: %w", err)
	}
	mg, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	mg.LockTimeout = m.config.LockTimeout
	mg.Log = migrateLogger{m.log}
	return mg, db, nil
}

func closeMigrator(mg *migrate.Migrate, db *sql.DB) {
	_, _ = mg.Close()
	_ = db.Close()
}

// migrateLogger направляет вывод golang-migrate в zerolog.
type migrateLogger struct {
	log zerolog.Logger
}

func (l migrateLogger) Printf(format string, v ...interface{}) {
	l.log.Debug().Msgf(format, v...)
}

func (l migrateLogger) Verbose() bool {
	return l.log.GetLevel() <= zerolog.DebugLevel
}
