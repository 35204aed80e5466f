package telemetry

import (
	"bytes"
	"context"
	"testing"

	"flexcode/internal/platform/testkit"

	"go.opentelemetry.io/otel"
)

func TestInitTracer_None(t *testing.T) {
	shutdown, err := InitTracer(Options{Service: "flexcode-test", Exporter: "none"})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestInitTracer_StdoutWritesSpans(t *testing.T) {
	prev := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	var buf bytes.Buffer
	shutdown, err := InitTracer(Options{Service: "flexcode-test", Exporter: "stdout", Writer: &buf})
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	_, span := otel.Tracer("test").Start(context.Background(), "pipeline.handle")
	span.End()
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	testkit.MustContain(t, buf.String(), "pipeline.handle")
	testkit.MustContain(t, buf.String(), "flexcode-test")
}
