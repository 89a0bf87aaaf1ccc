package climate

import (
	"database/sql"
	"net/http"

	"surfsup-server/internal/modules/climate/controller"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/service"
)

// RegisterFeature wires the climate routes onto mux. Each request borrows one
// pooled connection from db for its queries.
func RegisterFeature(mux *http.ServeMux, db *sql.DB) {
	sessions := repository.NewSessions(db)
	climateService := service.NewService(sessions)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
}
