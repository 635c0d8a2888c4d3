// Package httpclient provides a JSON HTTP client instrumented with OTEL tracing and metrics.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptrace"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/httptrace/otelhttptrace"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// Default connection pool settings
	defaultDialKeepAlive         = 10 * time.Second
	defaultRequestTimeout        = 10 * time.Second
	defaultMaxConnsPerHost       = 5
	defaultIdleConnTimeout       = 2 * time.Minute
	defaultExpectContinueTimeout = 100 * time.Millisecond

	// bodies larger than this are truncated in error messages
	maxErrorBody = 512

	metricRequestCounter = "http_client_requests_total"
	metricRequestLatency = "http_client_request_latency_ms"
)

type options struct {
	baseURL       string
	headers       map[string]string
	providerName  string
	timeout       time.Duration
	roundTripper  http.RoundTripper
	meterProvider metric.MeterProvider
	tracer        trace.Tracer
}

// Option configures a Client.
type Option func(*options)

// WithBaseURL sets the base URL relative paths are resolved against.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithHeaders sets default headers for all requests.
func WithHeaders(headers map[string]string) Option {
	return func(o *options) { o.headers = headers }
}

// WithProviderName sets the provider name for metrics and traces.
func WithProviderName(name string) Option {
	return func(o *options) { o.providerName = name }
}

// WithRequestTimeout sets the per-request timeout.
func WithRequestTimeout(timeout time.Duration) Option {
	return func(o *options) { o.timeout = timeout }
}

// WithRoundTripper sets a custom HTTP transport.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *options) { o.roundTripper = rt }
}

// WithMeterProvider sets the OTEL meter provider.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// WithTracer sets the tracer used for request spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) { o.tracer = tracer }
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("http status %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from err, or 0 when err is not a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}

// Client issues JSON requests against a single upstream.
type Client struct {
	http     *http.Client
	baseURL  string
	headers  map[string]string
	provider string
	tracer   trace.Tracer

	requests metric.Int64Counter
	latency  metric.Float64Histogram
}

// New creates an instrumented client.
func New(opts ...Option) (*Client, error) {
	o := &options{timeout: defaultRequestTimeout, providerName: "default"}
	for _, opt := range opts {
		opt(o)
	}

	transport := o.roundTripper
	if transport == nil {
		transport = &http.Transport{
			DialContext: (&net.Dialer{
				KeepAlive: defaultDialKeepAlive,
			}).DialContext,
			MaxConnsPerHost:       defaultMaxConnsPerHost,
			IdleConnTimeout:       defaultIdleConnTimeout,
			ExpectContinueTimeout: defaultExpectContinueTimeout,
		}
	}

	httpClient := &http.Client{
		Timeout: o.timeout,
		Transport: otelhttp.NewTransport(
			transport,
			otelhttp.WithClientTrace(func(ctx context.Context) *httptrace.ClientTrace {
				return otelhttptrace.NewClientTrace(ctx)
			}),
		),
	}

	mp := o.meterProvider
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(
		"instrumented_http_client",
		metric.WithInstrumentationAttributes(attribute.String("provider", o.providerName)),
	)

	requests, err := meter.Int64Counter(
		metricRequestCounter,
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}
	latency, err := meter.Float64Histogram(
		metricRequestLatency,
		metric.WithDescription("HTTP request latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	tracer := o.tracer
	if tracer == nil {
		tracer = otel.Tracer("instrumented_http_client")
	}

	return &Client{
		http:     httpClient,
		baseURL:  strings.TrimSuffix(o.baseURL, "/"),
		headers:  o.headers,
		provider: o.providerName,
		tracer:   tracer,
		requests: requests,
		latency:  latency,
	}, nil
}

// GetJSON issues a GET and decodes a 2xx JSON body into out (which may be nil).
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// PostJSON issues a POST with body encoded as JSON and decodes the reply into out.
func (c *Client) PostJSON(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) resolve(path string, query url.Values) string {
	full := path
	if c.baseURL != "" && !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		full = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(full, "?") {
			sep = "&"
		}
		full += sep + query.Encode()
	}
	return full
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.resolve(path, query)

	ctx, span := c.tracer.Start(ctx, "http.request",
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
			attribute.String("provider", c.provider),
		),
	)
	defer span.End()

	start := time.Now()
	status, err := c.roundTrip(ctx, method, target, body, out)

	attrs := metric.WithAttributes(
		attribute.String("provider", c.provider),
		attribute.String("method", method),
		attribute.Bool("success", err == nil),
	)
	c.requests.Add(ctx, 1, attrs)
	c.latency.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)

	if status != 0 {
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			span.SetAttributes(attribute.Bool("request.timeout", true))
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, target string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(data) > maxErrorBody {
			data = data[:maxErrorBody]
		}
		return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
