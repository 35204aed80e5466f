// Package telemetry installs the process-wide OpenTelemetry tracer provider
package telemetry

import (
	"context"
	"io"
	"os"
	"strings"

	"flexcode/internal/platform/config"
	"flexcode/internal/platform/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Options selects the span exporter
type Options struct {
	Service  string
	Exporter string // none | stdout
	Pretty   bool
	Writer   io.Writer
}

// FromConfig reads OTEL_TRACES and OTEL_PRETTY
func FromConfig(cfg config.Conf, service string) Options {
	c := cfg.Prefix("OTEL_")
	return Options{
		Service:  service,
		Exporter: c.MayEnum("TRACES", "none", "none", "stdout"),
		Pretty:   c.MayBool("PRETTY", false),
	}
}

// Shutdown flushes and stops the provider
type Shutdown func(context.Context) error

// InitTracer installs a tracer provider for o.Exporter. With "none" the
// global no-op provider stays in place and spans cost nothing
func InitTracer(o Options) (Shutdown, error) {
	if strings.EqualFold(o.Exporter, "none") || o.Exporter == "" {
		return func(context.Context) error { return nil }, nil
	}

	w := o.Writer
	if w == nil {
		w = os.Stderr
	}
	eopts := []stdouttrace.Option{stdouttrace.WithWriter(w)}
	if o.Pretty {
		eopts = append(eopts, stdouttrace.WithPrettyPrint())
	}
	exporter, err := stdouttrace.New(eopts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", semconv.ServiceName(o.Service)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	logger.Named("telemetry").Info().Str("service", o.Service).Str("exporter", o.Exporter).Msg("tracing initialized")
	return tp.Shutdown, nil
}
