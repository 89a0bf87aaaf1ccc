package controller

import (
	"net/http"

	"surfsup-server/internal/modules/climate/service"
)

type ClimateController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type climateControllerImpl struct {
	service service.ClimateService
}

func NewClimateController(service service.ClimateService) ClimateController {
	return &climateControllerImpl{service: service}
}

func (c *climateControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleIndex)
	mux.HandleFunc("GET /api/v1.0/precipitation", c.handlePrecipitation)
	mux.HandleFunc("GET /api/v1.0/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1.0/tobs", c.handleTobs)
	// Literal routes above win over these wildcards.
	mux.HandleFunc("GET /api/v1.0/{start}", c.handleTemperatureRange)
	mux.HandleFunc("GET /api/v1.0/{start}/{end}", c.handleTemperatureRange)
}
