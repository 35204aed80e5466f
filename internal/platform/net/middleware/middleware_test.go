package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"flexcode/internal/platform/config"
	perr "flexcode/internal/platform/errors"
	"flexcode/internal/platform/logger"
	pnet "flexcode/internal/platform/net"
	phttp "flexcode/internal/platform/net/http"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	prev := logger.Get()
	var buf bytes.Buffer
	logger.Set(logger.New(logger.Options{Level: "debug", Format: "json", Writer: &buf}))
	t.Cleanup(func() { logger.Set(*prev) })
	return &buf
}

func TestCommon_RequestFlow(t *testing.T) {
	buf := captureLog(t)
	var seenID string
	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = pnet.RequestID(r.Context())
		logger.C(r.Context()).Info().Msg("inside")
		phttp.JSON(w, http.StatusOK, map[string]string{"body": strings.Repeat("flex", 200)})
	}), Common(Options{Timeout: time.Second})...)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bot/status/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || seenID == "" {
		t.Fatalf("code %d id %q", rec.Code, seenID)
	}
	if rec.Header().Get("X-Request-Id") != seenID {
		t.Fatalf("request id not echoed: %v", rec.Header())
	}
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("json body not compressed: %v", rec.Header())
	}
	if !strings.Contains(rec.Header().Get("Cache-Control"), "no-cache") {
		t.Fatalf("cache headers missing: %v", rec.Header())
	}
	out := buf.String()
	if strings.Count(out, `"request_id":"`+seenID+`"`) != 2 {
		t.Fatalf("handler and access lines should both carry the id:\n%s", out)
	}
}

func TestAccessLog_Levels(t *testing.T) {
	cases := []struct {
		name   string
		status int
		sleep  time.Duration
		level  string
	}{
		{"ok", http.StatusOK, 0, "info"},
		{"slow", http.StatusOK, 20 * time.Millisecond, "warn"},
		{"server error", http.StatusBadGateway, 0, "error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := captureLog(t)
			h := AccessLog(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				time.Sleep(tc.sleep)
				w.WriteHeader(tc.status)
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/x", nil))

			var line map[string]any
			if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
				t.Fatalf("decode %q: %v", buf.String(), err)
			}
			if line["level"] != tc.level || line["status"] != float64(tc.status) || line["method"] != "POST" {
				t.Fatalf("line = %v", line)
			}
		})
	}
}

func TestRecover(t *testing.T) {
	captureLog(t)
	h := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("nil map") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var env phttp.Envelope
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	if rec.Code != http.StatusInternalServerError || env.Code != perr.ErrorCodePanic || env.Error != "internal error" {
		t.Fatalf("code %d env %+v", rec.Code, env)
	}

	abort := Recover(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }))
	defer func() {
		if recover() != http.ErrAbortHandler {
			t.Fatal("abort should propagate")
		}
	}()
	abort.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

type portFunc func(*http.Request) (string, error)

func (f portFunc) Parse(r *http.Request) (string, error) { return f(r) }

func TestAuth(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = pnet.Operator(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	cases := []struct {
		name string
		port AuthPort
		code int
		op   string
	}{
		{"open", nil, http.StatusNoContent, ""},
		{"accepted", portFunc(func(*http.Request) (string, error) { return "admin", nil }), http.StatusNoContent, "admin"},
		{"coded reject", portFunc(func(*http.Request) (string, error) { return "", perr.Forbiddenf("read only") }), http.StatusForbidden, ""},
		{"plain reject", portFunc(func(*http.Request) (string, error) { return "", errors.New("bad") }), http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			seen = ""
			rec := httptest.NewRecorder()
			Auth(tc.port)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/bot/start", nil))
			if rec.Code != tc.code || seen != tc.op {
				t.Fatalf("code %d operator %q", rec.Code, seen)
			}
		})
	}
}

func TestThrottle_RejectsBeyondBacklog(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	h := Throttle(1, 0, 50*time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		entered <- struct{}{}
		<-release
	}))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))
	}()
	<-entered

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	close(release)
	wg.Wait()
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second request = %d", rec.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := CORS([]string{"https://ops.flexcode.app"})(http.NotFoundHandler())
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/bot/start", nil)
	req.Header.Set("Origin", "https://ops.flexcode.app")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://ops.flexcode.app" {
		t.Fatalf("headers = %v", rec.Header())
	}
}

func TestFromConfig(t *testing.T) {
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example")
	o := FromConfig(config.New())
	if o.Timeout != 5*time.Second || o.Slow != 500*time.Millisecond || len(o.CORSOrigins) != 2 {
		t.Fatalf("options = %+v", o)
	}
}
