package feed

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/rangebet/business/market/app"
	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/cache"
	"github.com/fd1az/rangebet/internal/logger"
)

// Ensure Provider implements SnapshotProvider.
var _ app.SnapshotProvider = (*Provider)(nil)

// ProviderConfig holds configuration for the snapshot provider.
type ProviderConfig struct {
	StaleTimeout time.Duration // how old stream data may be before REST is consulted
	CacheTTL     time.Duration // lifetime of REST results
}

// DefaultProviderConfig returns sensible defaults.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		StaleTimeout: 10 * time.Second,
		CacheTTL:     2 * time.Second,
	}
}

// Provider serves snapshots from the stream while it is fresh and falls back to
// REST otherwise. Either source may be nil, but not both.
type Provider struct {
	config ProviderConfig
	logger logger.LoggerInterface
	stream *Stream
	http   *HTTPClient
	cache  *cache.Cache[string, *domain.Market]
	tracer trace.Tracer
}

// NewProvider creates a Provider.
func NewProvider(cfg ProviderConfig, stream *Stream, httpClient *HTTPClient, log logger.LoggerInterface) (*Provider, error) {
	if stream == nil && httpClient == nil {
		return nil, apperror.New(apperror.CodeConfigurationError, apperror.WithContext("feed needs a stream or an http source"))
	}
	if cfg.StaleTimeout <= 0 {
		cfg.StaleTimeout = DefaultProviderConfig().StaleTimeout
	}

	return &Provider{
		config: cfg,
		logger: log,
		stream: stream,
		http:   httpClient,
		cache:  cache.New[string, *domain.Market](time.Minute),
		tracer: otel.Tracer(tracerName),
	}, nil
}

// Connect starts the stream, if any.
func (p *Provider) Connect(ctx context.Context) error {
	if p.stream == nil {
		return nil
	}
	return p.stream.Connect(ctx)
}

// Close stops the stream and the cache janitor.
func (p *Provider) Close() error {
	p.cache.Close()
	if p.stream == nil {
		return nil
	}
	return p.stream.Close()
}

// Snapshot returns the freshest available snapshot of marketID.
func (p *Provider) Snapshot(ctx context.Context, marketID string) (*domain.Market, error) {
	ctx, span := p.tracer.Start(ctx, "feed.snapshot",
		trace.WithAttributes(attribute.String("market.id", marketID)),
	)
	defer span.End()

	var (
		streamed *domain.Market
		age      time.Duration
	)
	if p.stream != nil {
		if m, seenAt, ok := p.stream.Latest(marketID); ok {
			streamed = m
			age = time.Since(seenAt)
			if age <= p.config.StaleTimeout {
				span.SetAttributes(attribute.String("source", "websocket"))
				return m, nil
			}
		}
	}

	if p.http == nil {
		span.SetAttributes(attribute.Bool("stale", streamed != nil))
		if streamed != nil {
			return nil, apperror.New(apperror.CodeSnapshotStale,
				apperror.WithContextf("market %s last seen %s ago", marketID, age.Round(time.Millisecond)))
		}
		return nil, apperror.New(apperror.CodeMarketNotFound, apperror.WithContext(marketID))
	}

	if m, ok := p.cache.Get(ctx, marketID); ok {
		span.SetAttributes(attribute.String("source", "cache"))
		return m, nil
	}

	p.logger.Debug(ctx, "stream snapshot unavailable, using HTTP fallback", "market", marketID, "streamed", streamed != nil)
	m, err := p.http.FetchMarket(ctx, marketID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if p.config.CacheTTL > 0 {
		p.cache.Set(ctx, marketID, m, p.config.CacheTTL)
	}

	span.SetAttributes(attribute.String("source", "http_fallback"))
	return m, nil
}

// HealthCheck reports feed freshness for the health server.
func (p *Provider) HealthCheck(markets []string) func(ctx context.Context) (bool, string) {
	return func(ctx context.Context) (bool, string) {
		if p.stream != nil && p.stream.IsConnected() {
			for _, id := range markets {
				if _, seenAt, ok := p.stream.Latest(id); !ok || time.Since(seenAt) > p.config.StaleTimeout {
					return p.http != nil, fmt.Sprintf("market %s stale on stream", id)
				}
			}
			return true, "stream fresh"
		}
		if p.http != nil {
			state := p.http.BreakerState().String()
			return state != "open", "http fallback, circuit " + state
		}
		return false, "stream disconnected"
	}
}
