package types

import "errors"

// DateLayout is the on-disk format of measurement.date.
const DateLayout = "2006-01-02"

// ErrNotFound is returned when a query has no rows to answer from.
var ErrNotFound = errors.New("not found")

// Observation is one measurement row.
type Observation struct {
	StationID     string   `json:"station"`
	Date          string   `json:"date"`
	Precipitation *float64 `json:"prcp"`
	Temperature   float64  `json:"tobs"`
}

// Station is one station row. The coordinates are nullable in the dataset.
type Station struct {
	ID        string   `json:"station"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Elevation *float64 `json:"elevation"`
}

// ActiveStation is a station id with its observation row count.
type ActiveStation struct {
	ID    string
	Count int
}

type StationSummary struct {
	ID   string
	Name string
}

type PrecipitationRow struct {
	Date          string
	Precipitation *float64
}

type TemperatureObservation struct {
	Date string  `json:"date"`
	Tobs float64 `json:"tobs"`
}

// TemperatureStats holds MIN/AVG/MAX of tobs. All three are nil when no
// observation matched the filter.
type TemperatureStats struct {
	TMin *float64 `json:"TMIN"`
	TAvg *float64 `json:"TAVG"`
	TMax *float64 `json:"TMAX"`
}
