package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server owns the root mux and the listener. Every request gets a server
// span before routing
type Server struct {
	mux   *chi.Mux
	srv   *http.Server
	grace time.Duration
	log   *logger.Logger
}

// NewServer reads API_PORT, API_READ_HEADER_TIMEOUT, API_IDLE_TIMEOUT and
// API_SHUTDOWN_GRACE
func NewServer(cfg config.Conf) *Server {
	c := cfg.Prefix("API_")
	mux := chi.NewRouter()
	return &Server{
		mux: mux,
		srv: &http.Server{
			Addr:              c.Addr("PORT", 4000),
			Handler:           otelhttp.NewHandler(mux, "http.server", otelhttp.WithSpanNameFormatter(spanName)),
			ReadHeaderTimeout: c.MayDuration("READ_HEADER_TIMEOUT", 10*time.Second),
			IdleTimeout:       c.MayDuration("IDLE_TIMEOUT", 2*time.Minute),
		},
		grace: c.MayDuration("SHUTDOWN_GRACE", 15*time.Second),
		log:   logger.Named("http"),
	}
}

func spanName(_ string, r *http.Request) string { return r.Method + " " + r.URL.Path }

// Router is the root of the route tree
func (s *Server) Router() Router { return AdaptChi(s.mux) }

// Addr is the configured listen address
func (s *Server) Addr() string { return s.srv.Addr }

// Run listens on Addr and serves until ctx ends
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then drains in-flight requests for up
// to the shutdown grace
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("http listening")
	done := make(chan error, 1)
	go func() { done <- s.srv.Serve(ln) }()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	err := s.srv.Shutdown(sctx)
	<-done
	s.log.Info().Err(err).Msg("http stopped")
	return err
}
