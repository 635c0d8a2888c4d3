// Package metrics installs the global OpenTelemetry meter provider.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.10.0"
)

// Reader names a metric export path.
type Reader string

const (
	PrometheusReader Reader = "prometheus"
	OTLPReader       Reader = "otlp"
)

// ReaderCfg configures one reader.
type ReaderCfg struct {
	Reader   Reader
	Endpoint string
	Headers  map[string]string
	Insecure bool
}

// Config lists the readers a provider exports through.
type Config struct {
	ServiceName string
	Readers     []ReaderCfg
}

// MetricProvider is the installed meter provider plus its scrape handler.
type MetricProvider interface {
	Meter(name string, options ...metric.MeterOption) metric.Meter
	// Handler serves the Prometheus exposition, or 404 when no prometheus reader is configured.
	Handler() http.Handler
	Shutdown(ctx context.Context) error
}

type provider struct {
	*sdkmetric.MeterProvider
	handler http.Handler
}

// NewMetricProvider builds readers from cfg and installs the provider globally.
// Prometheus readers register on a private registry so tests can build several.
func NewMetricProvider(ctx context.Context, cfg Config) (MetricProvider, error) {
	var (
		opts    []sdkmetric.Option
		handler http.Handler = http.NotFoundHandler()
	)

	for _, rc := range cfg.Readers {
		switch rc.Reader {
		case PrometheusReader:
			registry := promclient.NewRegistry()
			exp, err := prometheus.New(prometheus.WithRegisterer(registry))
			if err != nil {
				return nil, fmt.Errorf("prometheus reader: %w", err)
			}
			opts = append(opts, sdkmetric.WithReader(exp))
			handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
		case OTLPReader:
			grpcOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithHeaders(rc.Headers)}
			if rc.Endpoint != "" {
				grpcOpts = append(grpcOpts, otlpmetricgrpc.WithEndpointURL(rc.Endpoint))
			}
			if rc.Insecure {
				grpcOpts = append(grpcOpts, otlpmetricgrpc.WithInsecure())
			}
			exp, err := otlpmetricgrpc.New(ctx, grpcOpts...)
			if err != nil {
				return nil, fmt.Errorf("otlp reader: %w", err)
			}
			opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)))
		default:
			return nil, fmt.Errorf("unknown metric reader %q", rc.Reader)
		}
	}

	if cfg.ServiceName != "" {
		opts = append(opts, sdkmetric.WithResource(
			resource.NewSchemaless(semconv.ServiceNameKey.String(cfg.ServiceName)),
		))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)

	return &provider{MeterProvider: mp, handler: handler}, nil
}

func (p *provider) Handler() http.Handler {
	return p.handler
}
