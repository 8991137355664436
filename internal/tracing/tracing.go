// Package tracing installs the OpenTelemetry tracer provider of the
// interpreter.
package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/joseph-ayodele/order-interpreter/internal/common"
)

// ShutdownFunc flushes and stops the provider installed by Setup.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup makes an SDK tracer provider the global one when tracing is enabled.
// Spans are exported synchronously as JSON to w. With tracing disabled the
// global no-op provider stays in place.
func Setup(cfg common.TracingConfig, w io.Writer) (ShutdownFunc, error) {
	if !cfg.Enabled {
		return noop, nil
	}
	tp, err := NewProvider(cfg.ServiceName, w)
	if err != nil {
		return noop, err
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return tp.Shutdown, nil
}

// NewProvider builds a provider that writes every ended span to w.
func NewProvider(serviceName string, w io.Writer) (*sdktrace.TracerProvider, error) {
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("stdout trace exporter: %w", err)
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	return sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(res),
	), nil
}
