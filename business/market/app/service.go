package app

import (
	"context"
	"fmt"
	"time"

	gmath "github.com/ethereum/go-ethereum/common/math"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	curveapp "github.com/fd1az/rangebet/business/curve/app"
	"github.com/fd1az/rangebet/business/market/domain"
	"github.com/fd1az/rangebet/internal/apm"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/logger"
)

const (
	tracerName = "market"
	meterName  = "market"

	// DefaultRecentLimit bounds RecentQuotes when the caller passes no limit.
	DefaultRecentLimit = 50
	maxRecentLimit     = 500
)

// quoteMetrics holds OTEL metric instruments.
type quoteMetrics struct {
	quotes  metric.Int64Counter
	errors  metric.Int64Counter
	latency metric.Float64Histogram
}

// QuoteService prices trades against live market snapshots.
type QuoteService struct {
	snapshots SnapshotProvider
	pricer    curveapp.Pricer
	journal   QuoteJournal // nil disables journaling
	logger    logger.LoggerInterface

	tracer  apm.Tracer
	metrics *quoteMetrics
}

// NewQuoteService creates a QuoteService. journal may be nil.
func NewQuoteService(snapshots SnapshotProvider, pricer curveapp.Pricer, journal QuoteJournal, log logger.LoggerInterface) (*QuoteService, error) {
	s := &QuoteService{
		snapshots: snapshots,
		pricer:    pricer,
		journal:   journal,
		logger:    log,
		tracer:    apm.NewTracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return s, nil
}

func (s *QuoteService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &quoteMetrics{}

	s.metrics.quotes, err = meter.Int64Counter(
		"quotes_total",
		metric.WithDescription("Quotes issued by kind and side"),
	)
	if err != nil {
		return err
	}

	s.metrics.errors, err = meter.Int64Counter(
		"quote_errors_total",
		metric.WithDescription("Quote requests rejected by error code"),
	)
	if err != nil {
		return err
	}

	s.metrics.latency, err = meter.Float64Histogram(
		"quote_latency_ms",
		metric.WithDescription("Quote latency including snapshot fetch"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Market returns the current snapshot of marketID.
func (s *QuoteService) Market(ctx context.Context, marketID string) (*domain.Market, error) {
	return s.snapshots.Snapshot(ctx, marketID)
}

// QuoteBuy prices buying amount tokens in the bin at tick.
func (s *QuoteService) QuoteBuy(ctx context.Context, marketID string, tick int64, amount uint64) (*domain.Quote, error) {
	return s.quote(ctx, marketID, domain.SideBuy, domain.KindSingle, func(ctx context.Context, m *domain.Market) (*domain.Quote, error) {
		q, err := m.Quantity(tick)
		if err != nil {
			return nil, err
		}
		cost, err := s.pricer.BuyCost(ctx, amount, q, m.Total)
		if err != nil {
			return nil, err
		}
		return domain.NewQuote(m.ID, domain.SideBuy, domain.KindSingle, []int64{tick}, []uint64{amount}, cost), nil
	})
}

// QuoteSell prices selling amount tokens out of the bin at tick.
func (s *QuoteService) QuoteSell(ctx context.Context, marketID string, tick int64, amount uint64) (*domain.Quote, error) {
	return s.quote(ctx, marketID, domain.SideSell, domain.KindSingle, func(ctx context.Context, m *domain.Market) (*domain.Quote, error) {
		q, err := m.Quantity(tick)
		if err != nil {
			return nil, err
		}
		if q == 0 {
			return nil, apperror.New(apperror.CodeCannotSellFromEmptyBin, apperror.WithContextf("tick=%d", tick))
		}
		revenue, err := s.pricer.SellCost(ctx, amount, q, m.Total)
		if err != nil {
			return nil, err
		}
		return domain.NewQuote(m.ID, domain.SideSell, domain.KindSingle, []int64{tick}, []uint64{amount}, revenue), nil
	})
}

// QuoteRangeBuy prices buying amount tokens in each bin of ticks, in order.
// A non-zero maxCollateral rejects quotes costing more.
func (s *QuoteService) QuoteRangeBuy(ctx context.Context, marketID string, ticks []int64, amount, maxCollateral uint64) (*domain.Quote, error) {
	return s.quote(ctx, marketID, domain.SideBuy, domain.KindRange, func(ctx context.Context, m *domain.Market) (*domain.Quote, error) {
		qs, err := rangeQuantities(m, ticks)
		if err != nil {
			return nil, err
		}
		cost, err := s.pricer.MultiBuyCost(ctx, amount, qs, m.Total)
		if err != nil {
			return nil, err
		}
		if err := checkCollateral(cost, maxCollateral); err != nil {
			return nil, err
		}
		return domain.NewQuote(m.ID, domain.SideBuy, domain.KindRange, ticks, repeat(amount, len(ticks)), cost), nil
	})
}

// QuoteRangeSell prices selling amount tokens out of each bin of ticks.
func (s *QuoteService) QuoteRangeSell(ctx context.Context, marketID string, ticks []int64, amount uint64) (*domain.Quote, error) {
	return s.quote(ctx, marketID, domain.SideSell, domain.KindRange, func(ctx context.Context, m *domain.Market) (*domain.Quote, error) {
		qs, err := rangeQuantities(m, ticks)
		if err != nil {
			return nil, err
		}
		revenue, err := s.pricer.MultiSellCost(ctx, amount, qs, m.Total)
		if err != nil {
			return nil, err
		}
		return domain.NewQuote(m.ID, domain.SideSell, domain.KindRange, ticks, repeat(amount, len(ticks)), revenue), nil
	})
}

// QuoteBasket prices buying amounts[i] in the bin at ticks[i]. Zero legs are skipped;
// a tick appearing twice is priced against the quantity left by the earlier leg.
func (s *QuoteService) QuoteBasket(ctx context.Context, marketID string, ticks []int64, amounts []uint64, maxCollateral uint64) (*domain.Quote, error) {
	return s.quote(ctx, marketID, domain.SideBuy, domain.KindBasket, func(ctx context.Context, m *domain.Market) (*domain.Quote, error) {
		cost, err := s.basketCost(ctx, m, ticks, amounts)
		if err != nil {
			return nil, err
		}
		if err := checkCollateral(cost, maxCollateral); err != nil {
			return nil, err
		}
		return domain.NewQuote(m.ID, domain.SideBuy, domain.KindBasket, ticks, amounts, cost), nil
	})
}

func (s *QuoteService) basketCost(ctx context.Context, m *domain.Market, ticks []int64, amounts []uint64) (uint64, error) {
	if len(ticks) != len(amounts) {
		return 0, apperror.Validation(apperror.CodeArrayLengthMismatch,
			fmt.Sprintf("ticks=%d amounts=%d", len(ticks), len(amounts)))
	}
	if len(ticks) == 0 {
		return 0, apperror.Validation(apperror.CodeNoTokensToBuy, "empty basket")
	}

	bins := make(map[int]uint64, len(ticks))
	for _, tick := range ticks {
		idx, err := m.BinIndex(tick)
		if err != nil {
			return 0, err
		}
		bins[idx] = m.Bins[idx]
	}

	var (
		total    uint64
		t        = m.Total
		overflow bool
	)
	for i, tick := range ticks {
		x := amounts[i]
		if x == 0 {
			continue
		}
		idx, _ := m.BinIndex(tick)

		cost, err := s.pricer.BuyCost(ctx, x, bins[idx], t)
		if err != nil {
			return 0, err
		}
		if total, overflow = gmath.SafeAdd(total, cost); overflow {
			return 0, apperror.New(apperror.CodeMathOverflow, apperror.WithContext("basket cost"))
		}
		if bins[idx], overflow = gmath.SafeAdd(bins[idx], x); overflow {
			return 0, apperror.New(apperror.CodeMathOverflow, apperror.WithContextf("tick=%d", tick))
		}
		if t, overflow = gmath.SafeAdd(t, x); overflow {
			return 0, apperror.New(apperror.CodeMathOverflow, apperror.WithContext("market total"))
		}
	}
	return total, nil
}

// QuoteBudget finds the largest per-bin amount over ticks whose cost fits budget.
// A budget too small for one token yields a zero-amount quote.
func (s *QuoteService) QuoteBudget(ctx context.Context, marketID string, ticks []int64, budget uint64) (*domain.Quote, error) {
	return s.quote(ctx, marketID, domain.SideBuy, domain.KindBudget, func(ctx context.Context, m *domain.Market) (*domain.Quote, error) {
		qs, err := rangeQuantities(m, ticks)
		if err != nil {
			return nil, err
		}
		x := s.pricer.XForBudget(ctx, budget, qs, m.Total)
		var cost uint64
		if x > 0 {
			if cost, err = s.pricer.MultiBuyCost(ctx, x, qs, m.Total); err != nil {
				return nil, err
			}
		}
		quote := domain.NewQuote(m.ID, domain.SideBuy, domain.KindBudget, ticks, repeat(x, len(ticks)), cost)
		quote.Budget = budget
		return quote, nil
	})
}

// QuoteAmountForCost finds the largest amount purchasable in one bin for budget.
func (s *QuoteService) QuoteAmountForCost(ctx context.Context, marketID string, tick int64, budget uint64) (*domain.Quote, error) {
	return s.quote(ctx, marketID, domain.SideBuy, domain.KindAmountForCost, func(ctx context.Context, m *domain.Market) (*domain.Quote, error) {
		q, err := m.Quantity(tick)
		if err != nil {
			return nil, err
		}
		x := s.pricer.XForBudget(ctx, budget, []uint64{q}, m.Total)
		var cost uint64
		if x > 0 {
			if cost, err = s.pricer.BuyCost(ctx, x, q, m.Total); err != nil {
				return nil, err
			}
		}
		quote := domain.NewQuote(m.ID, domain.SideBuy, domain.KindAmountForCost, []int64{tick}, []uint64{x}, cost)
		quote.Budget = budget
		return quote, nil
	})
}

// RecentQuotes lists journaled quotes for marketID, newest first. Without a
// journal the list is empty.
func (s *QuoteService) RecentQuotes(ctx context.Context, marketID string, limit int) ([]*domain.Quote, error) {
	if s.journal == nil {
		return []*domain.Quote{}, nil
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	return s.journal.Recent(ctx, marketID, limit)
}

type priceFn func(ctx context.Context, m *domain.Market) (*domain.Quote, error)

// quote runs price against a fresh snapshot with tracing, metrics and journaling.
func (s *QuoteService) quote(ctx context.Context, marketID string, side domain.Side, kind domain.Kind, price priceFn) (*domain.Quote, error) {
	ctx, span := s.tracer.Start(ctx, "market.quote",
		trace.WithAttributes(
			attribute.String("market.id", marketID),
			attribute.String("quote.side", string(side)),
			attribute.String("quote.kind", string(kind)),
		),
	)
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("side", string(side)),
		attribute.String("kind", string(kind)),
	}
	start := time.Now()
	defer func() {
		s.metrics.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, metric.WithAttributes(attrs...))
	}()

	quote, err := s.priceSnapshot(ctx, marketID, price)
	if err != nil {
		code := apperror.GetCode(err)
		s.metrics.errors.Add(ctx, 1, metric.WithAttributes(append(attrs, attribute.String("code", string(code)))...))
		span.Fail(err)
		s.logger.Debug(ctx, "quote rejected", "market", marketID, "kind", kind, "side", side, "code", code)
		return nil, err
	}

	s.metrics.quotes.Add(ctx, 1, metric.WithAttributes(attrs...))
	span.SetAttributes(
		attribute.String("quote.id", quote.ID.String()),
		attribute.Int64("quote.legs", int64(len(quote.Ticks))),
	)
	span.Succeed()

	if s.journal != nil {
		if err := s.journal.Record(ctx, quote); err != nil {
			// The quote stands even when the journal is unavailable.
			s.logger.Warn(ctx, "failed to journal quote", "quote", quote.ID.String(), "error", err)
		}
	}
	return quote, nil
}

func (s *QuoteService) priceSnapshot(ctx context.Context, marketID string, price priceFn) (*domain.Quote, error) {
	m, err := s.snapshots.Snapshot(ctx, marketID)
	if err != nil {
		return nil, err
	}
	quote, err := price(ctx, m)
	if err != nil {
		return nil, err
	}
	quote.Total = m.Total
	quote.Precision = string(s.pricer.Precision())
	return quote, nil
}

// rangeQuantities resolves distinct ticks to bin quantities.
func rangeQuantities(m *domain.Market, ticks []int64) ([]uint64, error) {
	if len(ticks) == 0 {
		return nil, apperror.Validation(apperror.CodeNoTokensToBuy, "empty range")
	}
	seen := make(map[int64]struct{}, len(ticks))
	for _, tick := range ticks {
		if _, dup := seen[tick]; dup {
			return nil, apperror.Validation(apperror.CodeInvalidInput, fmt.Sprintf("duplicate tick %d", tick))
		}
		seen[tick] = struct{}{}
	}
	return m.Quantities(ticks)
}

func checkCollateral(cost, maxCollateral uint64) error {
	if maxCollateral > 0 && cost > maxCollateral {
		return apperror.New(apperror.CodeCostExceedsMaxCollateral,
			apperror.WithContextf("cost=%d max=%d", cost, maxCollateral))
	}
	return nil
}

func repeat(v uint64, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
