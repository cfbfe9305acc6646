package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/soaringjerry/Surveyor/internal/api"
	"github.com/soaringjerry/Surveyor/internal/config"
	dbstore "github.com/soaringjerry/Surveyor/internal/db"
)

// openStore builds the configured Store. The returned closer releases the
// database handle and is a no-op for the memory store.
func openStore(cfg *config.Config) (api.Store, func(), error) {
	var (
		dialect dbstore.Dialect
		dsn     string
	)
	switch cfg.Store {
	case "memory":
		slog.Warn("using in-memory store; data is lost on restart")
		return api.NewMemoryStore(), func() {}, nil
	case "sqlite":
		dialect, dsn = dbstore.DialectSQLite, cfg.SQLitePath
	case "postgres":
		dialect, dsn = dbstore.DialectPostgres, cfg.DatabaseURL
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}

	conn, err := dbstore.Open(dialect, dsn)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if cerr := conn.Close(); cerr != nil {
			slog.Warn("failed to close database", "error", cerr)
		}
	}
	if err := migrate(conn, dialect, cfg.MigrationsDir); err != nil {
		closer()
		return nil, nil, err
	}
	store, err := dbstore.NewStore(conn, dialect)
	if err != nil {
		closer()
		return nil, nil, fmt.Errorf("init %s store: %w", dialect, err)
	}
	slog.Info("database ready", "dialect", string(dialect))
	return store, closer, nil
}

func migrate(conn *sql.DB, dialect dbstore.Dialect, dir string) error {
	if err := dbstore.RunMigrations(conn, dialect, dir); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
