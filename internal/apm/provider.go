// Package apm wires OpenTelemetry tracing for the service.
package apm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"

	"github.com/fd1az/rangebet/internal/logger"
)

// Exporter names a span exporter backend.
type Exporter string

const (
	ZipkinExporter   Exporter = "zipkin"
	OTLPGRPCExporter Exporter = "otlp-grpc"
	OTLPHTTPExporter Exporter = "otlp-http"
	ConsoleExporter  Exporter = "console"
	NoneExporter     Exporter = "none"
)

const shutdownTimeout = 5 * time.Second

// Config selects and parameterises the span exporter.
type Config struct {
	ServiceName string
	Exporter    Exporter
	Endpoint    string
	// Headers is a comma separated list of key=value pairs.
	Headers string
}

// TraceProvider owns the global tracer provider and flushes it on Stop.
type TraceProvider interface {
	Exporter() Exporter
	Stop() error
}

type traceProvider struct {
	exporter Exporter
	tp       *sdktrace.TracerProvider
}

// NewTraceProvider installs a global tracer provider for cfg. The none
// exporter leaves the otel no-op provider in place.
func NewTraceProvider(ctx context.Context, cfg Config, log logger.LoggerInterface) (TraceProvider, error) {
	kind := Exporter(strings.ToLower(string(cfg.Exporter)))
	if kind == "" {
		kind = NoneExporter
	}

	exp, err := newExporter(ctx, kind, cfg)
	if err != nil {
		return nil, fmt.Errorf("trace exporter %s: %w", kind, err)
	}
	if exp == nil {
		return &traceProvider{exporter: NoneExporter}, nil
	}

	rsrc, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String(cfg.ServiceName),
			attribute.String("otel.exporter", string(kind)),
		))
	if err != nil {
		// Schema conflicts only lose the merged attributes.
		log.Warn(ctx, "trace resource merge failed", "error", err)
		rsrc = resource.Default()
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(rsrc),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))

	log.Info(ctx, "tracing enabled", "exporter", string(kind), "endpoint", cfg.Endpoint)

	return &traceProvider{exporter: kind, tp: tp}, nil
}

func newExporter(ctx context.Context, kind Exporter, cfg Config) (sdktrace.SpanExporter, error) {
	switch kind {
	case NoneExporter:
		return nil, nil
	case ConsoleExporter:
		return stdouttrace.New(stdouttrace.WithPrettyPrint())
	case ZipkinExporter:
		if cfg.Endpoint == "" {
			return nil, fmt.Errorf("endpoint is required")
		}
		return zipkin.New(cfg.Endpoint)
	case OTLPGRPCExporter:
		headers, err := ParseHeaders(cfg.Headers)
		if err != nil {
			return nil, err
		}
		opts := []otlptracegrpc.Option{otlptracegrpc.WithHeaders(headers)}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracegrpc.WithEndpointURL(cfg.Endpoint))
		}
		return otlptracegrpc.New(ctx, opts...)
	case OTLPHTTPExporter:
		headers, err := ParseHeaders(cfg.Headers)
		if err != nil {
			return nil, err
		}
		opts := []otlptracehttp.Option{otlptracehttp.WithHeaders(headers)}
		if cfg.Endpoint != "" {
			opts = append(opts, otlptracehttp.WithEndpointURL(cfg.Endpoint))
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unknown exporter")
	}
}

// ParseHeaders parses "k1=v1,k2=v2" into a map. Empty input yields an empty map.
func ParseHeaders(raw string) (map[string]string, error) {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid header %q, expected key=value", pair)
		}
		headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return headers, nil
}

func (p *traceProvider) Exporter() Exporter {
	return p.exporter
}

func (p *traceProvider) Stop() error {
	if p.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return p.tp.Shutdown(ctx)
}
