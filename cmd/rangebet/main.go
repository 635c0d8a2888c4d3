// Package main is the entry point for the rangebet pricing engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/rangebet/business/curve"
	curveapp "github.com/fd1az/rangebet/business/curve/app"
	curveDI "github.com/fd1az/rangebet/business/curve/di"
	curvedomain "github.com/fd1az/rangebet/business/curve/domain"
	"github.com/fd1az/rangebet/business/market"
	marketapp "github.com/fd1az/rangebet/business/market/app"
	marketDI "github.com/fd1az/rangebet/business/market/di"
	"github.com/fd1az/rangebet/internal/apm"
	"github.com/fd1az/rangebet/internal/config"
	"github.com/fd1az/rangebet/internal/logger"
	"github.com/fd1az/rangebet/internal/metrics"
	"github.com/fd1az/rangebet/internal/monolith"
	"github.com/fd1az/rangebet/pkg/ui"
)

const defaultShutdownTimeout = 5 * time.Second

var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	configPath := flag.String("config", "", "Path to configuration file")
	cliMode := flag.Bool("cli", false, "Run headless with logs and the quote API (no TUI)")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("rangebet %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	// The explorer is the default, CLI mode serves the API
	tuiMode := !*cliMode

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		if !tuiMode {
			fmt.Fprintf(os.Stderr, "received shutdown signal: %v\n", sig)
		}
		cancel()
	}()

	if err := run(ctx, *configPath, tuiMode); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, tuiMode bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg.App.TUIMode = tuiMode

	// In TUI mode logs would corrupt the screen
	var out io.Writer = os.Stderr
	if tuiMode {
		out = io.Discard
	}
	log := logger.New(out, logger.ParseLevel(cfg.App.LogLevel), cfg.App.Name, nil)
	log.Info(ctx, "starting rangebet",
		"version", version,
		"environment", cfg.App.Environment,
		"precision", cfg.Curve.Precision,
	)

	mono := monolith.New(cfg, log, version)
	defer func() {
		timeout := cfg.API.ShutdownTimeout
		if timeout <= 0 {
			timeout = defaultShutdownTimeout
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := mono.Close(shutdownCtx); err != nil {
			log.Error(shutdownCtx, "shutdown incomplete", "error", err)
		}
	}()

	if err := setupTelemetry(ctx, cfg, mono, log); err != nil {
		return err
	}

	modules := []monolith.Module{
		&curve.Module{},  // Pricer, needed by market
		&market.Module{}, // Feed, journal, quotes and API
	}

	if err := mono.RegisterModules(modules...); err != nil {
		return fmt.Errorf("failed to register modules: %w", err)
	}
	if err := mono.StartModules(ctx, modules...); err != nil {
		return fmt.Errorf("failed to start modules: %w", err)
	}

	if err := mono.Health().Start(ctx); err != nil {
		log.Warn(ctx, "failed to start health server", "error", err)
	}

	if tuiMode {
		sources, err := explorerSources(mono, log)
		if err != nil {
			return err
		}
		return ui.Run(ctx, ui.New(ctx, cfg.Feed.Markets[0], sources))
	}

	log.Info(ctx, "all modules started, serving quotes")
	<-ctx.Done()
	log.Info(context.Background(), "shutting down")
	return nil
}

// setupTelemetry installs tracing and metrics. Metrics are always collected so
// /metrics on the health port works without an OTLP collector.
func setupTelemetry(ctx context.Context, cfg *config.Config, mono monolith.Monolith, log logger.LoggerInterface) error {
	metricsCfg := metrics.Config{
		ServiceName: cfg.Telemetry.ServiceName,
		Readers:     []metrics.ReaderCfg{{Reader: metrics.PrometheusReader}},
	}

	if cfg.Telemetry.Enabled {
		tp, err := apm.NewTraceProvider(ctx, apm.Config{
			ServiceName: cfg.Telemetry.ServiceName,
			Exporter:    apm.Exporter(cfg.Telemetry.TraceExporter),
			Endpoint:    cfg.Telemetry.OTLPEndpoint,
			Headers:     cfg.Telemetry.OTLPHeaders,
		}, log)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		mono.OnClose(func(context.Context) error { return tp.Stop() })

		if cfg.Telemetry.MetricsOTLP {
			headers, err := apm.ParseHeaders(cfg.Telemetry.OTLPHeaders)
			if err != nil {
				return fmt.Errorf("invalid otlp headers: %w", err)
			}
			metricsCfg.Readers = append(metricsCfg.Readers, metrics.ReaderCfg{
				Reader:   metrics.OTLPReader,
				Endpoint: cfg.Telemetry.OTLPEndpoint,
				Headers:  headers,
				Insecure: cfg.Telemetry.OTLPInsecure,
			})
		}
	}

	mp, err := metrics.NewMetricProvider(ctx, metricsCfg)
	if err != nil {
		return fmt.Errorf("failed to init metrics: %w", err)
	}
	mono.OnClose(mp.Shutdown)
	mono.Health().Mount("/metrics", mp.Handler())

	log.Info(ctx, "telemetry ready", "tracing", cfg.Telemetry.Enabled, "otlp_metrics", cfg.Telemetry.MetricsOTLP)
	return nil
}

// explorerSources pairs the configured quote service with one priced at the
// other precision so the explorer can compare them. The comparison source does
// not journal.
func explorerSources(mono monolith.Monolith, log logger.LoggerInterface) ([]ui.Source, error) {
	sr := mono.Services()
	pricer := curveDI.GetPricer(sr)
	sources := []ui.Source{{
		Precision: string(pricer.Precision()),
		Quoter:    marketDI.GetQuoteService(sr),
	}}

	for _, p := range []curvedomain.Precision{curvedomain.PrecisionFloat64, curvedomain.PrecisionDecimal} {
		if p == pricer.Precision() {
			continue
		}
		curveCfg := mono.Config().Curve
		curveCfg.Precision = string(p)

		c, err := curve.NewCurveFromConfig(curveCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s curve: %w", p, err)
		}
		alt, err := curveapp.NewPricingService(c, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s pricer: %w", p, err)
		}
		quotes, err := marketapp.NewQuoteService(marketDI.GetProvider(sr), alt, nil, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s quote service: %w", p, err)
		}
		sources = append(sources, ui.Source{Precision: string(p), Quoter: quotes})
	}
	return sources, nil
}
