// Package middleware builds the request pipeline in front of every API
// route. Stock behaviour comes from chi and go-chi/cors; the pieces here
// add the envelope, the logger and operator auth on top
package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	"flexcode/internal/platform/config"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options shape the shared stack
type Options struct {
	Timeout     time.Duration
	Slow        time.Duration
	CORSOrigins []string
}

// FromConfig reads API_TIMEOUT, API_SLOW_REQUEST and API_CORS_ORIGINS
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("API_")
	return Options{
		Timeout:     c.MayDuration("TIMEOUT", 30*time.Second),
		Slow:        c.MayDuration("SLOW_REQUEST", 500*time.Millisecond),
		CORSOrigins: c.MayCSV("CORS_ORIGINS", nil),
	}
}

// Common is the stack for versioned routes, outermost first
func Common(o Options) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chimw.RequestID,
		chimw.RealIP,
		AccessLog(o.Slow),
		Recover,
		chimw.NoCache,
		CORS(o.CORSOrigins),
		chimw.Compress(flate.BestSpeed, "application/json"),
		chimw.StripSlashes,
		chimw.Timeout(o.Timeout),
	}
}

// CORS lets the listed origins call the API from a browser. No origins
// means same-origin only
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", chimw.RequestIDHeader},
		ExposedHeaders: []string{chimw.RequestIDHeader},
		MaxAge:         300,
	})
}

// Throttle caps in-flight requests at limit, queues up to backlog more for
// at most wait, and answers 429 beyond that
func Throttle(limit, backlog int, wait time.Duration) func(http.Handler) http.Handler {
	return chimw.ThrottleBacklog(limit, backlog, wait)
}
