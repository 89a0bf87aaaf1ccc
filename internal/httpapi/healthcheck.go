package httpapi

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"surfsup-server/internal/utils"
)

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	check func(ctx context.Context) error
}

func newHealthchecker(check func(ctx context.Context) error) healthchecker {
	return &healthcheckerImpl{check: check}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if err := h.check(r.Context()); err != nil {
		slog.Error("failed to check database connectivity", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to check database connectivity")
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SelectOne runs the same probe app.Run uses at startup.
func SelectOne(ctx context.Context, db *sql.DB) error {
	var ok int
	if err := db.QueryRowContext(ctx, `SELECT 1`).Scan(&ok); err != nil {
		return err
	}
	if ok != 1 {
		return errors.New("database connection failed")
	}
	return nil
}

func registerHealthcheck(mux *http.ServeMux, db *sql.DB) {
	healthchecker := newHealthchecker(func(ctx context.Context) error {
		return SelectOne(ctx, db)
	})
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
