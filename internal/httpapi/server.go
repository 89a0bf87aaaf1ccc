package httpapi

import (
	"net/http"
	"time"

	"surfsup-server/internal/config"
)

// NewServer wraps mux with the rate limiter (when configured) and the request
// logger. Throttled requests are still logged.
func NewServer(cfg config.Config, mux *http.ServeMux) *http.Server {
	limiter := newLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           requestLogger(rateLimit(limiter, mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
