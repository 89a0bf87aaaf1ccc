package controller

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/modules/climate/views"
	"surfsup-server/internal/utils"
)

func (c *climateControllerImpl) handleIndex(w http.ResponseWriter, r *http.Request) {
	station, err := c.service.MostActiveStation(r.Context())
	switch {
	case errors.Is(err, types.ErrNotFound):
		slog.Warn("index: dataset has no observations")
		station = types.StationSummary{Name: service.UnknownStationName}
	case err != nil:
		writeServiceError(w, r, "load most active station", err)
		return
	}

	data := &views.IndexData{
		StationID:   station.ID,
		StationName: station.Name,
		SampleStart: sampleRangeStart,
		SampleEnd:   sampleRangeEnd,
	}
	err = utils.WriteHTML(w, http.StatusOK, func(out io.Writer) error {
		return views.RenderIndex(out, data)
	})
	if err != nil {
		slog.Error("index template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	precipitation, err := c.service.Precipitation(r.Context())
	if err != nil {
		writeServiceError(w, r, "load precipitation", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, precipitation)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		writeServiceError(w, r, "load stations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTobs(w http.ResponseWriter, r *http.Request) {
	observations, err := c.service.TemperatureObservations(r.Context())
	if err != nil {
		writeServiceError(w, r, "load temperature observations", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, observations)
}

func (c *climateControllerImpl) handleTemperatureRange(w http.ResponseWriter, r *http.Request) {
	start, end := parseDateRange(r)
	stats, err := c.service.TemperatureRange(r.Context(), start, end)
	if err != nil {
		writeServiceError(w, r, "load temperature range", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
