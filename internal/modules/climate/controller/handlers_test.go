package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"surfsup-server/internal/modules/climate/types"
	"surfsup-server/internal/modules/climate/views"
)

type rangeCall struct {
	start string
	end   *string
}

type mockService struct {
	station       types.StationSummary
	stationErr    error
	precipitation map[string]*float64
	precipErr     error
	stations      []string
	stationsErr   error
	tobs          []types.TemperatureObservation
	tobsErr       error
	stats         types.TemperatureStats
	statsErr      error

	rangeCalls []rangeCall
}

func (m *mockService) MostActiveStation(context.Context) (types.StationSummary, error) {
	return m.station, m.stationErr
}

func (m *mockService) Precipitation(context.Context) (map[string]*float64, error) {
	return m.precipitation, m.precipErr
}

func (m *mockService) Stations(context.Context) ([]string, error) {
	return m.stations, m.stationsErr
}

func (m *mockService) TemperatureObservations(context.Context) ([]types.TemperatureObservation, error) {
	return m.tobs, m.tobsErr
}

func (m *mockService) TemperatureRange(_ context.Context, start string, end *string) (types.TemperatureStats, error) {
	m.rangeCalls = append(m.rangeCalls, rangeCall{start: start, end: end})
	return m.stats, m.statsErr
}

func f64(v float64) *float64 { return &v }

// serve routes req through a mux so path values are populated.
func serve(svc *mockService, method, target string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	NewClimateController(svc).RegisterRoutes(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	return body
}

func Test_handleIndex(t *testing.T) {
	if err := views.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}

	t.Run("renders most active station", func(t *testing.T) {
		svc := &mockService{station: types.StationSummary{ID: "USC00519281", Name: "WAIHEE 837.5, HI US"}}
		rec := serve(svc, http.MethodGet, "/")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q; want text/html; charset=utf-8", ct)
		}
		if body := rec.Body.String(); !strings.Contains(body, "WAIHEE 837.5, HI US (USC00519281)") {
			t.Errorf("body missing station; got %q", body)
		}
	})

	t.Run("empty dataset renders placeholder", func(t *testing.T) {
		svc := &mockService{stationErr: types.ErrNotFound}
		rec := serve(svc, http.MethodGet, "/")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), "Unknown Station") {
			t.Errorf("body missing placeholder")
		}
	})

	t.Run("service failure is 500", func(t *testing.T) {
		svc := &mockService{stationErr: errors.New("disk I/O error")}
		rec := serve(svc, http.MethodGet, "/")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		if body := decodeError(t, rec); body["message"] != "failed to load most active station" {
			t.Errorf("message = %q", body["message"])
		}
	})

	t.Run("unknown path is 404", func(t *testing.T) {
		rec := serve(&mockService{}, http.MethodGet, "/dashboard")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func Test_handlePrecipitation(t *testing.T) {
	t.Run("returns date map with nulls", func(t *testing.T) {
		svc := &mockService{precipitation: map[string]*float64{
			"2016-08-23": f64(1.79),
			"2016-08-24": nil,
		}}
		rec := serve(svc, http.MethodGet, "/api/v1.0/precipitation")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q", ct)
		}
		body := strings.TrimSpace(rec.Body.String())
		if body != `{"2016-08-23":1.79,"2016-08-24":null}` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("empty dataset is 404", func(t *testing.T) {
		rec := serve(&mockService{precipErr: types.ErrNotFound}, http.MethodGet, "/api/v1.0/precipitation")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
		if body := decodeError(t, rec); body["error"] != "Not Found" {
			t.Errorf("error = %q", body["error"])
		}
	})
}

func Test_handleStations(t *testing.T) {
	t.Run("returns station ids", func(t *testing.T) {
		svc := &mockService{stations: []string{"USC00519397", "USC00513117"}}
		rec := serve(svc, http.MethodGet, "/api/v1.0/stations")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var got []string
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got[0] != "USC00519397" || got[1] != "USC00513117" {
			t.Errorf("stations = %v", got)
		}
	})

	t.Run("empty list encodes as []", func(t *testing.T) {
		rec := serve(&mockService{stations: []string{}}, http.MethodGet, "/api/v1.0/stations")
		if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
			t.Errorf("body = %q; want []", body)
		}
	})

	t.Run("returns 500 when service fails", func(t *testing.T) {
		rec := serve(&mockService{stationsErr: errors.New("db error")}, http.MethodGet, "/api/v1.0/stations")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		body := decodeError(t, rec)
		if body["error"] != "Internal Server Error" || body["message"] != "failed to load stations" {
			t.Errorf("body = %v", body)
		}
	})

	t.Run("POST is not allowed", func(t *testing.T) {
		rec := serve(&mockService{}, http.MethodPost, "/api/v1.0/stations")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func Test_handleTobs(t *testing.T) {
	t.Run("returns date/tobs pairs", func(t *testing.T) {
		svc := &mockService{tobs: []types.TemperatureObservation{{Date: "2016-08-23", Tobs: 77}}}
		rec := serve(svc, http.MethodGet, "/api/v1.0/tobs")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != `[{"date":"2016-08-23","tobs":77}]` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("empty dataset is 404", func(t *testing.T) {
		rec := serve(&mockService{tobsErr: types.ErrNotFound}, http.MethodGet, "/api/v1.0/tobs")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func Test_handleTemperatureRange(t *testing.T) {
	t.Run("start only is open-ended", func(t *testing.T) {
		svc := &mockService{stats: types.TemperatureStats{TMin: f64(58), TAvg: f64(74.5), TMax: f64(87)}}
		rec := serve(svc, http.MethodGet, "/api/v1.0/2017-01-01")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if len(svc.rangeCalls) != 1 {
			t.Fatalf("TemperatureRange called %d times; want 1", len(svc.rangeCalls))
		}
		call := svc.rangeCalls[0]
		if call.start != "2017-01-01" || call.end != nil {
			t.Errorf("call = %q/%v; want 2017-01-01/nil", call.start, call.end)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != `{"TMIN":58,"TAVG":74.5,"TMAX":87}` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("start and end", func(t *testing.T) {
		svc := &mockService{stats: types.TemperatureStats{TMin: f64(58), TAvg: f64(74.5), TMax: f64(87)}}
		rec := serve(svc, http.MethodGet, "/api/v1.0/2017-01-01/2017-12-31")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		call := svc.rangeCalls[0]
		if call.start != "2017-01-01" || call.end == nil || *call.end != "2017-12-31" {
			t.Errorf("call = %q/%v; want 2017-01-01/2017-12-31", call.start, call.end)
		}
	})

	t.Run("empty window encodes nulls", func(t *testing.T) {
		rec := serve(&mockService{}, http.MethodGet, "/api/v1.0/2030-01-01")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if body := strings.TrimSpace(rec.Body.String()); body != `{"TMIN":null,"TAVG":null,"TMAX":null}` {
			t.Errorf("body = %s", body)
		}
	})

	t.Run("malformed dates are passed through", func(t *testing.T) {
		svc := &mockService{}
		rec := serve(svc, http.MethodGet, "/api/v1.0/01-01-2017")

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if svc.rangeCalls[0].start != "01-01-2017" {
			t.Errorf("start = %q; want raw path value", svc.rangeCalls[0].start)
		}
	})

	t.Run("literal routes win over {start}", func(t *testing.T) {
		svc := &mockService{stations: []string{"USC00519397"}}
		serve(svc, http.MethodGet, "/api/v1.0/stations")
		if len(svc.rangeCalls) != 0 {
			t.Errorf("stations request reached the range handler")
		}
	})

	t.Run("service failure is 500", func(t *testing.T) {
		rec := serve(&mockService{statsErr: errors.New("db error")}, http.MethodGet, "/api/v1.0/2017-01-01")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func Test_writeServiceError_canceled(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1.0/tobs", nil)

	writeServiceError(rec, req, "load temperature observations", context.Canceled)

	if rec.Code != statusClientClosedRequest {
		t.Errorf("status = %d; want %d", rec.Code, statusClientClosedRequest)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body = %q; want nothing written for a canceled request", rec.Body.String())
	}
}

func TestIdempotentResponses(t *testing.T) {
	svc := &mockService{stats: types.TemperatureStats{TMin: f64(58), TAvg: f64(74.5), TMax: f64(87)}}
	first := serve(svc, http.MethodGet, "/api/v1.0/2017-01-01/2017-12-31").Body.String()
	for i := 0; i < 3; i++ {
		if again := serve(svc, http.MethodGet, "/api/v1.0/2017-01-01/2017-12-31").Body.String(); again != first {
			t.Fatalf("response %d = %q; want %q", i, again, first)
		}
	}
}
