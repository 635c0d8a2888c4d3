// Package market implements the market snapshot and quoting bounded context.
package market

import (
	"context"
	"time"

	curveDI "github.com/fd1az/rangebet/business/curve/di"
	"github.com/fd1az/rangebet/business/market/app"
	marketDI "github.com/fd1az/rangebet/business/market/di"
	"github.com/fd1az/rangebet/business/market/infra/api"
	"github.com/fd1az/rangebet/business/market/infra/feed"
	"github.com/fd1az/rangebet/business/market/infra/journal"
	"github.com/fd1az/rangebet/internal/circuitbreaker"
	"github.com/fd1az/rangebet/internal/config"
	"github.com/fd1az/rangebet/internal/di"
	"github.com/fd1az/rangebet/internal/logger"
	"github.com/fd1az/rangebet/internal/monolith"
)

const (
	connectTimeout = 10 * time.Second
	retryInterval  = 5 * time.Second
)

// Module implements the market bounded context.
type Module struct{}

// RegisterServices registers all market services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register FeedStream (private - nil without a websocket url)
	di.RegisterToken(c, marketDI.FeedStream, func(sr di.ServiceRegistry) *feed.Stream {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		if cfg.Feed.WebSocketURL == "" {
			return nil
		}

		stream, err := feed.NewStream(feed.StreamConfig{
			URL:            cfg.Feed.WebSocketURL,
			Markets:        cfg.Feed.Markets,
			InitialBackoff: cfg.Feed.InitialBackoff,
			MaxBackoff:     cfg.Feed.MaxBackoff,
		}, log)
		if err != nil {
			panic("failed to create feed stream: " + err.Error())
		}
		return stream
	})

	// Register FeedHTTP (private - nil without an http url)
	di.RegisterToken(c, marketDI.FeedHTTP, func(sr di.ServiceRegistry) *feed.HTTPClient {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		if cfg.Feed.HTTPURL == "" {
			return nil
		}

		client, err := feed.NewHTTPClient(feed.HTTPClientConfig{
			BaseURL: cfg.Feed.HTTPURL,
			Timeout: cfg.Feed.RequestTimeout,
			Breaker: circuitbreaker.DefaultConfig("feed-http"),
		}, log)
		if err != nil {
			panic("failed to create feed http client: " + err.Error())
		}
		return client
	})

	// Register Provider (private - stream first, http fallback)
	di.RegisterToken(c, marketDI.Provider, func(sr di.ServiceRegistry) *feed.Provider {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		provider, err := feed.NewProvider(feed.ProviderConfig{
			StaleTimeout: cfg.Feed.StaleTimeout,
			CacheTTL:     cfg.Feed.CacheTTL,
		}, marketDI.GetFeedStream(sr), marketDI.GetFeedHTTP(sr), log)
		if err != nil {
			panic("failed to create snapshot provider: " + err.Error())
		}
		return provider
	})

	// Register Journal (private - nil when disabled)
	di.RegisterToken(c, marketDI.Journal, func(sr di.ServiceRegistry) *journal.SqliteStore {
		cfg := sr.Get("config").(*config.Config)
		if !cfg.Journal.Enabled {
			return nil
		}

		store, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			panic("failed to open quote journal: " + err.Error())
		}
		return store
	})

	// Register QuoteService (public - used by the API and the TUI)
	di.RegisterToken(c, marketDI.QuoteService, func(sr di.ServiceRegistry) *app.QuoteService {
		log := sr.Get("logger").(logger.LoggerInterface)

		var quoteJournal app.QuoteJournal
		if store := marketDI.GetJournal(sr); store != nil {
			quoteJournal = store
		}

		svc, err := app.NewQuoteService(marketDI.GetProvider(sr), curveDI.GetPricer(sr), quoteJournal, log)
		if err != nil {
			panic("failed to create quote service: " + err.Error())
		}
		return svc
	})

	// Register APIServer (private)
	di.RegisterToken(c, marketDI.APIServer, func(sr di.ServiceRegistry) *api.Server {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		handlers := api.NewHandlers(marketDI.GetQuoteService(sr), curveDI.GetWideIntAdapter(sr), cfg.API.MaxBins, log)
		return api.NewServer(api.Config{
			Port:              cfg.API.Port,
			RequestsPerSecond: cfg.API.RequestsPerSecond,
			Burst:             cfg.API.Burst,
		}, handlers, log)
	})

	return nil
}

// Startup connects the feed, registers health checks and starts the API.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()
	cfg := mono.Config()
	sr := mono.Services()

	provider := marketDI.GetProvider(sr)
	mono.OnClose(func(context.Context) error { return provider.Close() })
	mono.Health().RegisterCheck("feed", provider.HealthCheck(cfg.Feed.Markets))

	if stream := marketDI.GetFeedStream(sr); stream != nil {
		// Don't fail startup on a dead feed, the http fallback may still serve.
		connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := provider.Connect(connectCtx)
		cancel()
		if err != nil {
			log.Warn(ctx, "feed stream connection failed, will retry in background", "error", err)
			go retryConnect(ctx, provider, log)
		}
	}

	if store := marketDI.GetJournal(sr); store != nil {
		mono.OnClose(func(context.Context) error { return store.Close() })
		mono.Health().RegisterCheck("journal", func(ctx context.Context) (bool, string) {
			if err := store.Ping(ctx); err != nil {
				return false, err.Error()
			}
			return true, cfg.Journal.Path
		})
	}

	// Resolve eagerly so wiring errors surface at boot.
	marketDI.GetQuoteService(sr)

	if cfg.API.Enabled && !cfg.App.TUIMode {
		server := marketDI.GetAPIServer(sr)
		if err := server.Start(ctx); err != nil {
			return err
		}
		mono.OnClose(server.Stop)
	}

	log.Info(ctx, "market module started", "markets", cfg.Feed.Markets, "journal", cfg.Journal.Enabled)
	return nil
}

func retryConnect(ctx context.Context, provider *feed.Provider, log logger.LoggerInterface) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryInterval):
			if err := provider.Connect(ctx); err != nil {
				log.Warn(ctx, "feed stream retry failed", "error", err)
				continue
			}
			log.Info(ctx, "feed stream connected")
			return
		}
	}
}
