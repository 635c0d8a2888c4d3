package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/circuitbreaker"
	"github.com/fd1az/rangebet/internal/httpclient"
	"github.com/fd1az/rangebet/internal/logger"
)

const (
	tracerName = "feed"
	meterName  = "feed"

	defaultHTTPTimeout = 5 * time.Second
)

// HTTPClientConfig holds configuration for the snapshot REST client.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
	Breaker circuitbreaker.Config
}

// HTTPClient fetches market snapshots over REST behind a circuit breaker.
type HTTPClient struct {
	client  *httpclient.Client
	breaker *circuitbreaker.CircuitBreaker[*domain.Market]
	logger  logger.LoggerInterface
	tracer  trace.Tracer
}

// NewHTTPClient creates a snapshot REST client.
func NewHTTPClient(cfg HTTPClientConfig, log logger.LoggerInterface) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("feed http url is required"))
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	tracer := otel.Tracer(tracerName)

	client, err := httpclient.New(
		httpclient.WithProviderName("feed"),
		httpclient.WithBaseURL(cfg.BaseURL),
		httpclient.WithRequestTimeout(timeout),
		httpclient.WithTracer(tracer),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	bcfg := cfg.Breaker
	if bcfg.Name == "" {
		bcfg = circuitbreaker.DefaultConfig("feed-http")
	}
	// A missing market is an answer, not an upstream failure.
	bcfg.IsSuccessful = func(err error) bool {
		return err == nil || apperror.HasCode(err, apperror.CodeMarketNotFound)
	}
	bcfg.OnStateChange = func(name string, from, to gobreaker.State) {
		log.Warn(context.Background(), "feed circuit state changed", "breaker", name, "from", from.String(), "to", to.String())
	}

	return &HTTPClient{
		client:  client,
		breaker: circuitbreaker.New[*domain.Market](bcfg),
		logger:  log,
		tracer:  tracer,
	}, nil
}

// FetchMarket retrieves and validates GET /markets/{id}.
func (c *HTTPClient) FetchMarket(ctx context.Context, marketID string) (*domain.Market, error) {
	ctx, span := c.tracer.Start(ctx, "feed.fetch_market",
		trace.WithAttributes(attribute.String("market.id", marketID)),
	)
	defer span.End()

	m, err := c.breaker.Execute(func() (*domain.Market, error) {
		var dto MarketDTO
		if err := c.client.GetJSON(ctx, "/markets/"+url.PathEscape(marketID), nil, &dto); err != nil {
			if httpclient.StatusCode(err) == http.StatusNotFound {
				return nil, apperror.New(apperror.CodeMarketNotFound, apperror.WithContext(marketID))
			}
			return nil, apperror.External(apperror.CodeFeedUnavailable, marketID, err)
		}
		return dto.ToDomain()
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("bins", len(m.Bins)))
	return m, nil
}

// BreakerState reports the circuit state for health checks.
func (c *HTTPClient) BreakerState() gobreaker.State {
	return c.breaker.State()
}
