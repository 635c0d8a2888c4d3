package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewMetricProvider_PrometheusHandler(t *testing.T) {
	ctx := context.Background()
	mp, err := NewMetricProvider(ctx, Config{
		ServiceName: "rangebet-test",
		Readers:     []ReaderCfg{{Reader: PrometheusReader}},
	})
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	defer mp.Shutdown(ctx)

	counter, err := mp.Meter("test").Int64Counter("quotes_served_total")
	if err != nil {
		t.Fatalf("Int64Counter: %v", err)
	}
	counter.Add(ctx, 3)

	rec := httptest.NewRecorder()
	mp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "quotes_served_total") {
		t.Errorf("exposition missing counter:\n%s", body)
	}
}

func TestNewMetricProvider_NoReaders(t *testing.T) {
	ctx := context.Background()
	mp, err := NewMetricProvider(ctx, Config{})
	if err != nil {
		t.Fatalf("NewMetricProvider: %v", err)
	}
	defer mp.Shutdown(ctx)

	rec := httptest.NewRecorder()
	mp.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 without a prometheus reader", rec.Code)
	}
}

func TestNewMetricProvider_UnknownReader(t *testing.T) {
	if _, err := NewMetricProvider(context.Background(), Config{Readers: []ReaderCfg{{Reader: "statsd"}}}); err == nil {
		t.Error("unknown reader should fail")
	}
}
