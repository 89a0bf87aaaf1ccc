// Command loader builds a climate dataset from the GHCN CSV exports:
//
//	loader -db Resources/hawaii.sqlite -stations hawaii_stations.csv -measurements hawaii_measurements.csv
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"surfsup-server/internal/config"
	"surfsup-server/internal/loader"
	"surfsup-server/internal/logging"
	"surfsup-server/internal/migrate"

	_ "github.com/mattn/go-sqlite3"
)

const appName = "loader"

var version = "dev"

func main() {
	dbPath := flag.String("db", "Resources/hawaii.sqlite", "dataset file to create or extend")
	stationsPath := flag.String("stations", "", "stations CSV (optional)")
	measurementsPath := flag.String("measurements", "", "measurements CSV (optional)")
	flag.Parse()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg, version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *dbPath, *stationsPath, *measurementsPath); err != nil {
		slog.Error("load failed", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, dbPath, stationsPath, measurementsPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	applied, err := migrate.Run(ctx, db)
	if err != nil {
		return err
	}
	slog.Info("migrations applied", "versions", applied)

	if stationsPath != "" {
		if err := loadFile(ctx, db, stationsPath, loader.LoadStations); err != nil {
			return err
		}
	}
	if measurementsPath != "" {
		if err := loadFile(ctx, db, measurementsPath, loader.LoadMeasurements); err != nil {
			return err
		}
	}
	return nil
}

func loadFile(
	ctx context.Context,
	db *sql.DB,
	path string,
	load func(context.Context, *sql.DB, io.Reader) (int, error),
) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := load(ctx, db, f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	slog.Info("file loaded", "path", path, "rows", n)
	return nil
}
