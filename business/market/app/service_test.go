package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	curveapp "github.com/fd1az/rangebet/business/curve/app"
	curvedomain "github.com/fd1az/rangebet/business/curve/domain"
	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/logger"
)

// mockLogger implements logger.LoggerInterface for testing.
type mockLogger struct {
	mu    sync.Mutex
	warns int
}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any) {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any) {
	m.mu.Lock()
	m.warns++
	m.mu.Unlock()
}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

type staticSnapshots map[string]*domain.Market

func (s staticSnapshots) Snapshot(ctx context.Context, id string) (*domain.Market, error) {
	m, ok := s[id]
	if !ok {
		return nil, apperror.New(apperror.CodeMarketNotFound, apperror.WithContext(id))
	}
	return m, nil
}

type memJournal struct {
	quotes []*domain.Quote
	err    error
}

func (j *memJournal) Record(ctx context.Context, q *domain.Quote) error {
	if j.err != nil {
		return j.err
	}
	j.quotes = append(j.quotes, q)
	return nil
}

func (j *memJournal) Recent(ctx context.Context, id string, limit int) ([]*domain.Quote, error) {
	var out []*domain.Quote
	for i := len(j.quotes) - 1; i >= 0 && len(out) < limit; i-- {
		if j.quotes[i].MarketID == id {
			out = append(out, j.quotes[i])
		}
	}
	return out, nil
}

// testMarket: ticks 0..40 step 10, bins [500, 0, 200, 300, 0], total 1000.
func testMarket() *domain.Market {
	return &domain.Market{
		ID: "1", MinTick: 0, MaxTick: 40, TickSpacing: 10,
		Bins:  []uint64{500, 0, 200, 300, 0},
		Total: 1000,
	}
}

func newTestQuoteService(t *testing.T, journal QuoteJournal) (*QuoteService, *mockLogger) {
	t.Helper()
	log := &mockLogger{}
	pricer, err := curveapp.NewPricingService(curvedomain.Curve{}, log)
	if err != nil {
		t.Fatalf("NewPricingService: %v", err)
	}
	svc, err := NewQuoteService(staticSnapshots{"1": testMarket()}, pricer, journal, log)
	if err != nil {
		t.Fatalf("NewQuoteService: %v", err)
	}
	return svc, log
}

func TestQuoteService_SingleBin(t *testing.T) {
	journal := &memJournal{}
	svc, _ := newTestQuoteService(t, journal)
	ctx := context.Background()

	buy, err := svc.QuoteBuy(ctx, "1", 0, 100)
	if err != nil {
		t.Fatalf("QuoteBuy: %v", err)
	}
	want, _ := curvedomain.BuyCost(100, 500, 1000)
	if buy.Cost != want {
		t.Errorf("buy cost = %d, want %d", buy.Cost, want)
	}
	if buy.Total != 1000 || buy.Precision != "float64" || buy.Side != domain.SideBuy {
		t.Errorf("quote metadata = %+v", buy)
	}

	sell, err := svc.QuoteSell(ctx, "1", 0, 100)
	if err != nil {
		t.Fatalf("QuoteSell: %v", err)
	}
	if want, _ := curvedomain.SellCost(100, 500, 1000); sell.Cost != want {
		t.Errorf("sell revenue = %d, want %d", sell.Cost, want)
	}

	if len(journal.quotes) != 2 {
		t.Errorf("journaled %d quotes, want 2", len(journal.quotes))
	}
}

func TestQuoteService_Errors(t *testing.T) {
	svc, _ := newTestQuoteService(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want apperror.Code
	}{
		{"unknown market", func() error { _, err := svc.QuoteBuy(ctx, "9", 0, 1); return err }, apperror.CodeMarketNotFound},
		{"off-grid tick", func() error { _, err := svc.QuoteBuy(ctx, "1", 5, 1); return err }, apperror.CodeBinIndexOutOfRange},
		{"sell empty bin", func() error { _, err := svc.QuoteSell(ctx, "1", 10, 1); return err }, apperror.CodeCannotSellFromEmptyBin},
		{"sell more than bin", func() error { _, err := svc.QuoteSell(ctx, "1", 20, 201); return err }, apperror.CodeCannotSellMoreThanBin},
		{"range empty", func() error { _, err := svc.QuoteRangeBuy(ctx, "1", nil, 1, 0); return err }, apperror.CodeNoTokensToBuy},
		{"range duplicate", func() error { _, err := svc.QuoteRangeBuy(ctx, "1", []int64{0, 0}, 1, 0); return err }, apperror.CodeInvalidInput},
		{"range over collateral", func() error { _, err := svc.QuoteRangeBuy(ctx, "1", []int64{0, 10}, 100, 10); return err }, apperror.CodeCostExceedsMaxCollateral},
		{"range sell over bin", func() error { _, err := svc.QuoteRangeSell(ctx, "1", []int64{0, 10}, 1); return err }, apperror.CodeCannotSellMoreThanBin},
		{"basket mismatch", func() error { _, err := svc.QuoteBasket(ctx, "1", []int64{0}, []uint64{1, 2}, 0); return err }, apperror.CodeArrayLengthMismatch},
		{"basket empty", func() error { _, err := svc.QuoteBasket(ctx, "1", nil, nil, 0); return err }, apperror.CodeNoTokensToBuy},
		{"basket over collateral", func() error {
			_, err := svc.QuoteBasket(ctx, "1", []int64{0, 10}, []uint64{100, 100}, 1)
			return err
		}, apperror.CodeCostExceedsMaxCollateral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !apperror.HasCode(err, tt.want) {
				t.Errorf("error = %v, want %s", err, tt.want)
			}
		})
	}
}

func TestQuoteService_RangeMatchesCurve(t *testing.T) {
	svc, _ := newTestQuoteService(t, nil)
	ctx := context.Background()
	ticks := []int64{0, 10, 20}
	qs := []uint64{500, 0, 200}

	buy, err := svc.QuoteRangeBuy(ctx, "1", ticks, 50, 0)
	if err != nil {
		t.Fatalf("QuoteRangeBuy: %v", err)
	}
	if want, _ := curvedomain.MultiBuyCost(50, qs, 1000); buy.Cost != want {
		t.Errorf("range buy = %d, want %d", buy.Cost, want)
	}
	if len(buy.Amounts) != 3 || buy.Amounts[2] != 50 {
		t.Errorf("amounts = %v", buy.Amounts)
	}

	sell, err := svc.QuoteRangeSell(ctx, "1", []int64{0, 20, 30}, 100)
	if err != nil {
		t.Fatalf("QuoteRangeSell: %v", err)
	}
	if want, _ := curvedomain.MultiSellCost(100, []uint64{500, 200, 300}, 1000); sell.Cost != want {
		t.Errorf("range sell = %d, want %d", sell.Cost, want)
	}
}

func TestQuoteService_Basket(t *testing.T) {
	svc, _ := newTestQuoteService(t, nil)
	ctx := context.Background()

	q, err := svc.QuoteBasket(ctx, "1", []int64{0, 10, 0, 20}, []uint64{100, 0, 50, 10}, 0)
	if err != nil {
		t.Fatalf("QuoteBasket: %v", err)
	}

	// Legs are priced in order; the zero leg is skipped and the repeated tick sees 600.
	c1, _ := curvedomain.BuyCost(100, 500, 1000)
	c2, _ := curvedomain.BuyCost(50, 600, 1100)
	c3, _ := curvedomain.BuyCost(10, 200, 1150)
	if want := c1 + c2 + c3; q.Cost != want {
		t.Errorf("basket cost = %d, want %d", q.Cost, want)
	}

	equal, err := svc.QuoteBasket(ctx, "1", []int64{0, 10}, []uint64{50, 50}, 0)
	if err != nil {
		t.Fatalf("QuoteBasket: %v", err)
	}
	rng, _ := svc.QuoteRangeBuy(ctx, "1", []int64{0, 10}, 50, 0)
	if equal.Cost != rng.Cost {
		t.Errorf("uniform basket = %d, range = %d; should agree", equal.Cost, rng.Cost)
	}
}

func TestQuoteService_Budget(t *testing.T) {
	svc, _ := newTestQuoteService(t, nil)
	ctx := context.Background()
	ticks := []int64{0, 20}

	q, err := svc.QuoteBudget(ctx, "1", ticks, 200)
	if err != nil {
		t.Fatalf("QuoteBudget: %v", err)
	}
	x := q.Amounts[0]
	if x == 0 {
		t.Fatal("budget 200 should buy something")
	}
	if q.Cost > 200 {
		t.Errorf("cost %d exceeds budget", q.Cost)
	}
	next, err := curvedomain.MultiBuyCost(x+1, []uint64{500, 200}, 1000)
	if err == nil && next <= 200 {
		t.Errorf("x=%d is not maximal: x+1 costs %d", x, next)
	}
	if q.Budget != 200 {
		t.Errorf("Budget = %d, want 200", q.Budget)
	}

	zero, err := svc.QuoteBudget(ctx, "1", ticks, 0)
	if err != nil {
		t.Fatalf("QuoteBudget(0): %v", err)
	}
	if zero.Amounts[0] != 0 || zero.Cost != 0 {
		t.Errorf("zero budget quote = %+v", zero)
	}
}

func TestQuoteService_AmountForCost(t *testing.T) {
	svc, _ := newTestQuoteService(t, nil)

	q, err := svc.QuoteAmountForCost(context.Background(), "1", 20, 100)
	if err != nil {
		t.Fatalf("QuoteAmountForCost: %v", err)
	}
	x := q.Amounts[0]
	if want := (curvedomain.Curve{}).AmountForCost(100, 200, 1000); x != want {
		t.Errorf("amount = %d, want %d", x, want)
	}
	if q.Cost > 100 {
		t.Errorf("cost %d exceeds budget", q.Cost)
	}
}

func TestQuoteService_JournalBestEffort(t *testing.T) {
	journal := &memJournal{err: errors.New("disk full")}
	svc, log := newTestQuoteService(t, journal)

	if _, err := svc.QuoteBuy(context.Background(), "1", 0, 10); err != nil {
		t.Fatalf("QuoteBuy should survive journal failure: %v", err)
	}
	if log.warns != 1 {
		t.Errorf("warns = %d, want 1", log.warns)
	}
}

func TestQuoteService_RecentQuotes(t *testing.T) {
	journal := &memJournal{}
	svc, _ := newTestQuoteService(t, journal)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.QuoteBuy(ctx, "1", 0, uint64(10*(i+1))); err != nil {
			t.Fatal(err)
		}
	}

	recent, err := svc.RecentQuotes(ctx, "1", 2)
	if err != nil {
		t.Fatalf("RecentQuotes: %v", err)
	}
	if len(recent) != 2 || recent[0].Amounts[0] != 30 {
		t.Errorf("recent = %d quotes, first amount %v", len(recent), recent[0].Amounts)
	}

	noJournal, _ := newTestQuoteService(t, nil)
	empty, err := noJournal.RecentQuotes(ctx, "1", 0)
	if err != nil || len(empty) != 0 {
		t.Errorf("RecentQuotes without journal = %v, %v", empty, err)
	}
}
