package service

import (
	"context"
	"errors"

	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
)

// UnknownStationName is shown when an observation's station has no row in
// the station table.
const UnknownStationName = "Unknown Station"

// ClimateService shapes dataset queries into response payloads. Every call
// runs in its own session and keeps no state between calls.
type ClimateService interface {
	MostActiveStation(ctx context.Context) (types.StationSummary, error)
	Precipitation(ctx context.Context) (map[string]*float64, error)
	Stations(ctx context.Context) ([]string, error)
	TemperatureObservations(ctx context.Context) ([]types.TemperatureObservation, error)
	TemperatureRange(ctx context.Context, start string, end *string) (types.TemperatureStats, error)
}

type Service struct {
	sessions repository.Sessions
}

func NewService(sessions repository.Sessions) *Service {
	return &Service{sessions: sessions}
}

// MostActiveStation returns the busiest station with its display name.
// A station missing from the station table gets UnknownStationName.
func (s *Service) MostActiveStation(ctx context.Context) (types.StationSummary, error) {
	var out types.StationSummary
	err := s.sessions.WithSession(ctx, func(repo repository.ClimateRepository) error {
		active, err := repo.MostActiveStation(ctx)
		if err != nil {
			return err
		}
		out.ID = active.ID

		name, err := repo.StationName(ctx, active.ID)
		switch {
		case errors.Is(err, types.ErrNotFound):
			out.Name = UnknownStationName
		case err != nil:
			return err
		default:
			out.Name = name
		}
		return nil
	})
	return out, err
}

// Precipitation maps date to precipitation for the last 365 days of data.
// Observations from different stations on the same date share one key and
// the last row in dataset order wins; the response is keyed by date only.
func (s *Service) Precipitation(ctx context.Context) (map[string]*float64, error) {
	var out map[string]*float64
	err := s.sessions.WithSession(ctx, func(repo repository.ClimateRepository) error {
		cutoff, err := lastYearCutoff(ctx, repo)
		if err != nil {
			return err
		}
		rows, err := repo.PrecipitationSince(ctx, cutoff)
		if err != nil {
			return err
		}
		out = make(map[string]*float64, len(rows))
		for _, row := range rows {
			out[row.Date] = row.Precipitation
		}
		return nil
	})
	return out, err
}

func (s *Service) Stations(ctx context.Context) ([]string, error) {
	var out []string
	err := s.sessions.WithSession(ctx, func(repo repository.ClimateRepository) error {
		ids, err := repo.StationIDs(ctx)
		out = ids
		return err
	})
	if out == nil && err == nil {
		out = []string{}
	}
	return out, err
}

// TemperatureObservations returns the last 365 days of tobs for the most
// active station, in dataset order.
func (s *Service) TemperatureObservations(ctx context.Context) ([]types.TemperatureObservation, error) {
	var out []types.TemperatureObservation
	err := s.sessions.WithSession(ctx, func(repo repository.ClimateRepository) error {
		active, err := repo.MostActiveStation(ctx)
		if err != nil {
			return err
		}
		cutoff, err := lastYearCutoff(ctx, repo)
		if err != nil {
			return err
		}
		out, err = repo.TemperatureObservations(ctx, active.ID, cutoff)
		return err
	})
	if out == nil && err == nil {
		out = []types.TemperatureObservation{}
	}
	return out, err
}

// TemperatureRange returns TMIN/TAVG/TMAX for start <= date (<= end when
// given). Dates are not validated.
func (s *Service) TemperatureRange(ctx context.Context, start string, end *string) (types.TemperatureStats, error) {
	var out types.TemperatureStats
	err := s.sessions.WithSession(ctx, func(repo repository.ClimateRepository) error {
		var err error
		out, err = repo.TemperatureStats(ctx, start, end)
		return err
	})
	return out, err
}

func lastYearCutoff(ctx context.Context, repo repository.ClimateRepository) (string, error) {
	latest, err := repo.MostRecentDate(ctx)
	if err != nil {
		return "", err
	}
	return repository.OneYearBefore(latest)
}
