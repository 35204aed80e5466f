// Package http serves the probe and info endpoints
package http

import (
	"context"
	"maps"
	"net/http"
	"slices"
	"time"

	"flexcode/internal/core/version"
	"flexcode/internal/modkit/httpkit"
	"flexcode/internal/platform/logger"
)

// Pinger is a dependency the readiness probe can reach
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies. Checks with a nil Pinger are reported
// as skipped
type Deps struct {
	Service   string
	StartedAt time.Time
	Checks    map[string]Pinger
	Pipeline  Pipeline
	Modules   func() []string
	Log       logger.Logger
	Now       func() time.Time
}

// Pipeline describes how messages are processed
type Pipeline struct {
	Extractor   string            `json:"extractor"`
	ConvertMode string            `json:"convert_mode"`
	Dedup       string            `json:"dedup_backend"`
	Source      string            `json:"source"`
	Platforms   []string          `json:"platforms"`
	Modules     []string          `json:"modules,omitempty"`
	Build       version.BuildInfo `json:"build"`
}

// Health is the liveness payload
type Health struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Started string `json:"started"`
	Now     string `json:"now"`
}

// Check is one dependency probe: ok, fail or skipped
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readiness is ok unless a check failed
type Readiness struct {
	Status string  `json:"status"`
	Checks []Check `json:"checks"`
	Now    string  `json:"now"`
}

// Uptime reports when the process started
type Uptime struct {
	Service string `json:"service"`
	Started string `json:"started"`
	Seconds int64  `json:"uptime_seconds"`
}

const probeTimeout = 2 * time.Second

type handlers struct{ Deps }

func newHandlers(d Deps) *handlers {
	if d.Now == nil {
		d.Now = time.Now
	}
	return &handlers{d}
}

// Register mounts the info routes
func Register(r httpkit.Router, d Deps) {
	h := newHandlers(d)
	httpkit.Get(r, "/health", h.health)
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.uptime)
	httpkit.Get(r, "/pipeline", h.pipeline)
}

// RegisterRoot mounts the unversioned liveness probe for load balancers
func RegisterRoot(r httpkit.Router, d Deps) {
	httpkit.Get(r, "/health", newHandlers(d).health)
}

func stamp(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func (h *handlers) health(*http.Request) (any, error) {
	return Health{OK: true, Service: h.Service, Started: stamp(h.StartedAt), Now: stamp(h.Now())}, nil
}

func (h *handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	out := Readiness{Status: "ok", Checks: []Check{}, Now: stamp(h.Now())}
	for _, name := range slices.Sorted(maps.Keys(h.Checks)) {
		c := Check{Name: name, Status: "skipped"}
		if p := h.Checks[name]; p != nil {
			c.Status = "ok"
			if err := p.Ping(ctx); err != nil {
				c.Status, c.Error = "fail", err.Error()
				out.Status = "fail"
				h.Log.Warn().Err(err).Str("check", name).Msg("readiness check failed")
			}
		}
		out.Checks = append(out.Checks, c)
	}
	if out.Status != "ok" {
		return httpkit.Response{Status: http.StatusServiceUnavailable, Body: out}, nil
	}
	return out, nil
}

func (h *handlers) version(*http.Request) (any, error) { return version.Info(), nil }

func (h *handlers) uptime(*http.Request) (any, error) {
	return Uptime{
		Service: h.Service,
		Started: stamp(h.StartedAt),
		Seconds: int64(h.Now().Sub(h.StartedAt) / time.Second),
	}, nil
}

func (h *handlers) pipeline(*http.Request) (any, error) {
	out := h.Pipeline
	out.Build = version.Info()
	if h.Modules != nil {
		out.Modules = h.Modules()
	}
	return out, nil
}
