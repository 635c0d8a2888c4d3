package market

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/fd1az/rangebet/business/curve"
	marketDI "github.com/fd1az/rangebet/business/market/di"
	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/business/market/infra/feed"
	"github.com/fd1az/rangebet/internal/config"
	"github.com/fd1az/rangebet/internal/logger"
	"github.com/fd1az/rangebet/internal/monolith"
)

func TestModule_WiresQuotingEndToEnd(t *testing.T) {
	feedServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets/1" {
			http.NotFound(w, r)
			return
		}
		m := &domain.Market{ID: "1", MinTick: 0, MaxTick: 20, TickSpacing: 10, Bins: []uint64{60, 40, 0}, Total: 100}
		json.NewEncoder(w).Encode(feed.MarketToDTO(m))
	}))
	defer feedServer.Close()

	cfg := &config.Config{
		App:     config.AppConfig{Name: "test"},
		Curve:   config.CurveConfig{Precision: "float64", DecimalDigits: 30, ExpansionSteps: 64},
		Feed:    config.FeedConfig{HTTPURL: feedServer.URL, Markets: []string{"1"}, StaleTimeout: time.Second, CacheTTL: time.Second},
		Journal: config.JournalConfig{Enabled: true, Path: filepath.Join(t.TempDir(), "quotes.db")},
	}
	log := logger.New(io.Discard, logger.LevelError, "test", nil)
	mono := monolith.New(cfg, log, "test")
	mods := []monolith.Module{&curve.Module{}, &Module{}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := mono.RegisterModules(mods...); err != nil {
		t.Fatalf("RegisterModules: %v", err)
	}
	if err := mono.StartModules(ctx, mods...); err != nil {
		t.Fatalf("StartModules: %v", err)
	}
	defer mono.Close(context.Background())

	if marketDI.GetFeedStream(mono.Services()) != nil {
		t.Error("no websocket url configured, stream should be nil")
	}

	svc := marketDI.GetQuoteService(mono.Services())
	q, err := svc.QuoteBuy(ctx, "1", 10, 5)
	if err != nil {
		t.Fatalf("QuoteBuy: %v", err)
	}
	if q.Cost == 0 || q.Total != 100 {
		t.Errorf("quote = %+v", q)
	}

	recent, err := svc.RecentQuotes(ctx, "1", 10)
	if err != nil {
		t.Fatalf("RecentQuotes: %v", err)
	}
	if len(recent) != 1 || recent[0].ID != q.ID {
		t.Errorf("journal holds %d quotes, want the one just priced", len(recent))
	}
}
