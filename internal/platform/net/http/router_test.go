package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestAdaptChi_RoutesGroupsAndMiddleware(t *testing.T) {
	mux := chi.NewRouter()
	r := AdaptChi(mux)

	tag := func(v string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				w.Header().Add("X-Tag", v)
				next.ServeHTTP(w, req)
			})
		}
	}
	text := func(s string) Handler {
		return func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, s) }
	}

	r.Route("/api", func(api Router) {
		api.Use(tag("api"))
		api.Get("/status", text("status"))
		api.Group(func(g Router) {
			g.Use(tag("ops"))
			g.Post("/start", text("started"))
		})
		api.Handle("/raw", http.HandlerFunc(text("raw")))
	})

	cases := []struct {
		method, path, body string
		tags               int
		code               int
	}{
		{http.MethodGet, "/api/status", "status", 1, http.StatusOK},
		{http.MethodPost, "/api/start", "started", 2, http.StatusOK},
		{http.MethodGet, "/api/raw", "raw", 1, http.StatusOK},
		{http.MethodGet, "/api/start", "", 1, http.StatusMethodNotAllowed},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.code {
			t.Fatalf("%s %s = %d", tc.method, tc.path, rec.Code)
		}
		if tc.body != "" && rec.Body.String() != tc.body {
			t.Fatalf("%s %s body = %q", tc.method, tc.path, rec.Body.String())
		}
		if got := len(rec.Header().Values("X-Tag")); got != tc.tags {
			t.Fatalf("%s %s ran %d middlewares, want %d", tc.method, tc.path, got, tc.tags)
		}
	}
}

func TestMountProfiler(t *testing.T) {
	mux := chi.NewRouter()
	MountProfiler(AdaptChi(mux), "/debug", true)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("pprof = %d", rec.Code)
	}

	off := chi.NewRouter()
	MountProfiler(AdaptChi(off), "/debug", false)
	rec = httptest.NewRecorder()
	off.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/cmdline", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("disabled profiler = %d", rec.Code)
	}
}
