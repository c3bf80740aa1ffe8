package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"NewsFeedRanker/internal/config"
	"NewsFeedRanker/internal/domain"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const sqlitePragmas = "_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(10000)"

//go:embed migrations
var migrationsFS embed.FS

// Open connects to the configured database and verifies it answers.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrConfiguration, err)
	}

	return db, nil
}

func openDB(cfg config.DatabaseConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverSQLite, "":
		db, err := sql.Open(DriverSQLite, sqliteDSN(cfg.DSN))
		if err != nil {
			return nil, fmt.Errorf("%w: open sqlite: %w", domain.ErrConfiguration, err)
		}
		// A single writer avoids SQLITE_BUSY between the refresh and read paths.
		db.SetMaxOpenConns(1)
		return db, nil
	case DriverPostgres:
		db, err := sql.Open(DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: open postgres: %w", domain.ErrConfiguration, err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
		return db, nil
	default:
		return nil, fmt.Errorf("%w: unsupported database driver %q", domain.ErrConfiguration, cfg.Driver)
	}
}

func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "news_ingestion.db"
	}
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&" + sqlitePragmas
	}
	return dsn + "?" + sqlitePragmas
}

// Migrate applies every pending embedded migration for the configured driver.
// It uses its own connection so closing the migrator leaves callers' pools alone.
func Migrate(cfg config.DatabaseConfig, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}

	driverName := cfg.Driver
	if driverName == "" {
		driverName = DriverSQLite
	}

	var dbDriver database.Driver
	switch driverName {
	case DriverPostgres:
		dbDriver, err = migratepg.WithInstance(db, &migratepg.Config{})
	default:
		dbDriver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("create migration driver: %w", err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+driverName)
	if err != nil {
		_ = dbDriver.Close()
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, dbDriver)
	if err != nil {
		_ = src.Close()
		_ = dbDriver.Close()
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}

	logger.Info("migrations applied", "driver", driverName, "version", version, "dirty", dirty)
	return nil
}
