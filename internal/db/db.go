package db

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"surfsup-server/internal/config"

	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Open opens the climate dataset read-only and validates connectivity.
// With cfg.LogSQL every statement is logged at debug level through logger.
func Open(cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.LogSQL {
		drv, err := lookupDriver(cfg.Driver)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
		db = sql.OpenDB(NewLoggingConnector(drv, dsn, logger))
	} else {
		db, err = sql.Open(cfg.Driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

// lookupDriver returns the driver registered under name without connecting.
func lookupDriver(name string) (driver.Driver, error) {
	probe, err := sql.Open(name, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = probe.Close() }()
	return probe.Driver(), nil
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}

	path := strings.TrimPrefix(cfg.Path, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("dataset %q: %w", path, err)
	}

	// The dataset is never written by the server.
	params := []string{"mode=ro"}
	switch cfg.Driver {
	case "sqlite":
		params = append(params, "_pragma=busy_timeout(5000)")
	default:
		params = append(params, "_busy_timeout=5000")
	}

	if strings.HasPrefix(cfg.Path, "file:") {
		sep := "?"
		if strings.Contains(cfg.Path, "?") {
			sep = "&"
		}
		return cfg.Path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", cfg.Path, strings.Join(params, "&")), nil
}
