package controller

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/utils"
)

// statusClientClosedRequest is nginx's non-standard code for a request the
// client abandoned before the response was written.
const statusClientClosedRequest = 499

// Example dates linked from the index page.
const (
	sampleRangeStart = "2017-01-01"
	sampleRangeEnd   = "2017-12-31"
)

// parseDateRange reads the {start} and optional {end} path values. Neither is
// validated: they are compared as strings against the stored dates.
func parseDateRange(r *http.Request) (start string, end *string) {
	start = r.PathValue("start")
	if e := r.PathValue("end"); e != "" {
		end = &e
	}
	return start, end
}

func writeServiceError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		slog.Warn(action+": not found", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusNotFound, "no observations in dataset")
	case errors.Is(err, context.Canceled):
		// The client is gone; the status only reaches the request log.
		slog.Debug(action+": request canceled", "path", r.URL.Path)
		w.WriteHeader(statusClientClosedRequest)
	default:
		slog.Error(action+" failed", "path", r.URL.Path, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to "+action)
	}
}
