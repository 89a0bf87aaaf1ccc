// Package loader imports the GHCN CSV exports (hawaii_stations.csv,
// hawaii_measurements.csv) into a dataset whose schema was created by
// internal/migrate. Columns are matched by header name.
package loader

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"surfsup-server/internal/modules/climate/types"
)

var (
	stationColumns     = []string{"station", "name", "latitude", "longitude", "elevation"}
	measurementColumns = []string{"station", "date", "prcp", "tobs"}
)

const (
	insertStationSQL     = `INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?, ?, ?, ?, ?)`
	insertMeasurementSQL = `INSERT INTO measurement (station, date, prcp, tobs) VALUES (?, ?, ?, ?)`
)

// LoadStations inserts every row of r into station in one transaction and
// returns the number of rows inserted.
func LoadStations(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	return load(ctx, db, r, "stations", stationColumns, insertStationSQL, func(rec []string) ([]any, error) {
		st, err := parseStation(rec)
		if err != nil {
			return nil, err
		}
		return []any{st.ID, st.Name, st.Latitude, st.Longitude, st.Elevation}, nil
	})
}

// LoadMeasurements inserts every row of r into measurement in one
// transaction. An empty prcp cell is stored as NULL; tobs is required.
func LoadMeasurements(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	return load(ctx, db, r, "measurements", measurementColumns, insertMeasurementSQL, func(rec []string) ([]any, error) {
		obs, err := parseObservation(rec)
		if err != nil {
			return nil, err
		}
		return []any{obs.StationID, obs.Date, obs.Precipitation, obs.Temperature}, nil
	})
}

// parseStation reads a record already projected onto stationColumns.
func parseStation(rec []string) (types.Station, error) {
	lat, err := optionalFloat(rec[2])
	if err != nil {
		return types.Station{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := optionalFloat(rec[3])
	if err != nil {
		return types.Station{}, fmt.Errorf("longitude: %w", err)
	}
	elev, err := optionalFloat(rec[4])
	if err != nil {
		return types.Station{}, fmt.Errorf("elevation: %w", err)
	}
	return types.Station{
		ID:        strings.TrimSpace(rec[0]),
		Name:      rec[1],
		Latitude:  lat,
		Longitude: lon,
		Elevation: elev,
	}, nil
}

// parseObservation reads a record already projected onto measurementColumns.
func parseObservation(rec []string) (types.Observation, error) {
	prcp, err := optionalFloat(rec[2])
	if err != nil {
		return types.Observation{}, fmt.Errorf("prcp: %w", err)
	}
	tobs, err := strconv.ParseFloat(strings.TrimSpace(rec[3]), 64)
	if err != nil {
		return types.Observation{}, fmt.Errorf("tobs: %w", err)
	}
	return types.Observation{
		StationID:     strings.TrimSpace(rec[0]),
		Date:          strings.TrimSpace(rec[1]),
		Precipitation: prcp,
		Temperature:   tobs,
	}, nil
}

// load reads the header, then projects each record onto columns before
// handing it to toArgs.
func load(
	ctx context.Context,
	db *sql.DB,
	r io.Reader,
	kind string,
	columns []string,
	query string,
	toArgs func(rec []string) ([]any, error),
) (n int, err error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%s: empty file", kind)
		}
		return 0, fmt.Errorf("%s header: %w", kind, err)
	}
	index, err := columnIndex(header, columns)
	if err != nil {
		return 0, fmt.Errorf("%s header: %w", kind, err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s begin: %w", kind, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				slog.Error("loader rollback", "kind", kind, "error", rbErr)
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s prepare: %w", kind, err)
	}
	defer stmt.Close()

	projected := make([]string, len(columns))
	for {
		rec, readErr := cr.Read()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return 0, fmt.Errorf("%s: %w", kind, readErr)
		}
		for i, col := range index {
			projected[i] = rec[col]
		}
		args, convErr := toArgs(projected)
		if convErr != nil {
			line, _ := cr.FieldPos(0)
			return 0, fmt.Errorf("%s line %d: %w", kind, line, convErr)
		}
		if _, err = stmt.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("%s insert: %w", kind, err)
		}
		n++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s commit: %w", kind, err)
	}
	slog.Info("loaded rows", "kind", kind, "rows", n)
	return n, nil
}

func columnIndex(header []string, columns []string) ([]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	index := make([]int, len(columns))
	for i, col := range columns {
		p, ok := pos[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		index[i] = p
	}
	return index, nil
}

func optionalFloat(s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
