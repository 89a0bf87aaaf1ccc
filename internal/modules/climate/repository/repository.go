package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"surfsup-server/internal/modules/climate/types"
)

//go:embed sql/get-most-recent-date.sql
var getMostRecentDateSQL string

//go:embed sql/get-most-active-station.sql
var getMostActiveStationSQL string

//go:embed sql/get-station-name.sql
var getStationNameSQL string

//go:embed sql/get-station-ids.sql
var getStationIDsSQL string

//go:embed sql/get-precipitation-since.sql
var getPrecipitationSinceSQL string

//go:embed sql/get-temperature-observations.sql
var getTemperatureObservationsSQL string

//go:embed sql/get-temperature-stats.sql
var getTemperatureStatsSQL string

// ClimateRepository answers the dataset queries. Dates are "YYYY-MM-DD"
// strings and every comparison is lexical, so well-formed dates order
// chronologically and malformed ones are passed through untouched.
type ClimateRepository interface {
	MostRecentDate(ctx context.Context) (string, error)
	MostActiveStation(ctx context.Context) (types.ActiveStation, error)
	StationName(ctx context.Context, stationID string) (string, error)
	StationIDs(ctx context.Context) ([]string, error)
	PrecipitationSince(ctx context.Context, cutoff string) ([]types.PrecipitationRow, error)
	TemperatureObservations(ctx context.Context, stationID string, cutoff string) ([]types.TemperatureObservation, error)
	TemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureStats, error)
}

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repositoryImpl struct {
	db Querier
}

func NewRepository(db Querier) ClimateRepository {
	return &repositoryImpl{db: db}
}

// OneYearBefore subtracts exactly 365 days; leap days are not compensated.
func OneYearBefore(date string) (string, error) {
	t, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", date, err)
	}
	return t.AddDate(0, 0, -365).Format(types.DateLayout), nil
}

func (r *repositoryImpl) MostRecentDate(ctx context.Context) (string, error) {
	var date sql.NullString
	if err := r.db.QueryRowContext(ctx, getMostRecentDateSQL).Scan(&date); err != nil {
		return "", fmt.Errorf("most recent date: %w", err)
	}
	if !date.Valid {
		return "", fmt.Errorf("most recent date: no observations: %w", types.ErrNotFound)
	}
	return date.String, nil
}

func (r *repositoryImpl) MostActiveStation(ctx context.Context) (types.ActiveStation, error) {
	var s types.ActiveStation
	err := r.db.QueryRowContext(ctx, getMostActiveStationSQL).Scan(&s.ID, &s.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ActiveStation{}, fmt.Errorf("most active station: no observations: %w", types.ErrNotFound)
	}
	if err != nil {
		return types.ActiveStation{}, fmt.Errorf("most active station: %w", err)
	}
	return s, nil
}

func (r *repositoryImpl) StationName(ctx context.Context, stationID string) (string, error) {
	var name string
	err := r.db.QueryRowContext(ctx, getStationNameSQL, stationID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("station %q: %w", stationID, types.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("station %q: %w", stationID, err)
	}
	return name, nil
}

func (r *repositoryImpl) StationIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, getStationIDsSQL)
	if err != nil {
		return nil, fmt.Errorf("station ids: %w", err)
	}
	defer closeRows(rows, "station ids")

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) PrecipitationSince(ctx context.Context, cutoff string) ([]types.PrecipitationRow, error) {
	rows, err := r.db.QueryContext(ctx, getPrecipitationSinceSQL, cutoff)
	if err != nil {
		return nil, fmt.Errorf("precipitation since %s: %w", cutoff, err)
	}
	defer closeRows(rows, "precipitation")

	var out []types.PrecipitationRow
	for rows.Next() {
		var (
			row  types.PrecipitationRow
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&row.Date, &prcp); err != nil {
			return nil, err
		}
		row.Precipitation = nullableFloat(prcp)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) TemperatureObservations(ctx context.Context, stationID string, cutoff string) ([]types.TemperatureObservation, error) {
	rows, err := r.db.QueryContext(ctx, getTemperatureObservationsSQL, stationID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("temperature observations for %q: %w", stationID, err)
	}
	defer closeRows(rows, "temperature observations")

	out := []types.TemperatureObservation{}
	for rows.Next() {
		var obs types.TemperatureObservation
		if err := rows.Scan(&obs.Date, &obs.Tobs); err != nil {
			return nil, err
		}
		out = append(out, obs)
	}
	return out, rows.Err()
}

// TemperatureStats never returns ErrNotFound: an empty window yields nil
// aggregates.
func (r *repositoryImpl) TemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureStats, error) {
	var endArg any
	if end != nil {
		endArg = *end
	}
	var tmin, tavg, tmax sql.NullFloat64
	err := r.db.QueryRowContext(ctx, getTemperatureStatsSQL, start, endArg, endArg).Scan(&tmin, &tavg, &tmax)
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("temperature stats from %q: %w", start, err)
	}
	return types.TemperatureStats{
		TMin: nullableFloat(tmin),
		TAvg: nullableFloat(tavg),
		TMax: nullableFloat(tmax),
	}, nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close rows", "query", what, "error", err)
	}
}
