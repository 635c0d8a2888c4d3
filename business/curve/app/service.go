package app

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/rangebet/business/curve/domain"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/logger"
)

const (
	tracerName = "curve"
	meterName  = "curve"
)

// Ensure PricingService implements Pricer.
var _ Pricer = (*PricingService)(nil)

// serviceMetrics holds OTEL metric instruments.
type serviceMetrics struct {
	evaluations metric.Int64Counter
	errors      metric.Int64Counter
	latency     metric.Float64Histogram
}

// PricingService wraps a domain.Curve with tracing, metrics and debug logging.
type PricingService struct {
	curve  domain.Curve
	logger logger.LoggerInterface

	tracer  trace.Tracer
	metrics *serviceMetrics
}

// NewPricingService creates a PricingService evaluating with curve.
func NewPricingService(curve domain.Curve, log logger.LoggerInterface) (*PricingService, error) {
	s := &PricingService{
		curve:  curve,
		logger: log,
		tracer: otel.Tracer(tracerName),
	}

	if err := s.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return s, nil
}

func (s *PricingService) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	s.metrics = &serviceMetrics{}

	s.metrics.evaluations, err = meter.Int64Counter(
		"curve_evaluations_total",
		metric.WithDescription("Total curve evaluations by operation"),
	)
	if err != nil {
		return err
	}

	s.metrics.errors, err = meter.Int64Counter(
		"curve_evaluation_errors_total",
		metric.WithDescription("Curve evaluations rejected by error code"),
	)
	if err != nil {
		return err
	}

	s.metrics.latency, err = meter.Float64Histogram(
		"curve_evaluation_latency_us",
		metric.WithDescription("Curve evaluation latency in microseconds"),
		metric.WithUnit("us"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Precision reports the evaluation strategy in use.
func (s *PricingService) Precision() domain.Precision {
	return s.curve.Precision()
}

// BuyCost prices a single-bin purchase.
func (s *PricingService) BuyCost(ctx context.Context, x, q, t uint64) (uint64, error) {
	return s.evaluate(ctx, "buy_cost", func() (uint64, error) {
		return s.curve.BuyCost(x, q, t)
	}, u64Attr("x", x), u64Attr("q", q), u64Attr("t", t))
}

// SellCost prices a single-bin sale.
func (s *PricingService) SellCost(ctx context.Context, x, q, t uint64) (uint64, error) {
	return s.evaluate(ctx, "sell_cost", func() (uint64, error) {
		return s.curve.SellCost(x, q, t)
	}, u64Attr("x", x), u64Attr("q", q), u64Attr("t", t))
}

// MultiBuyCost prices a purchase across bins.
func (s *PricingService) MultiBuyCost(ctx context.Context, x uint64, qs []uint64, t uint64) (uint64, error) {
	return s.evaluate(ctx, "multi_buy_cost", func() (uint64, error) {
		return s.curve.MultiBuyCost(x, qs, t)
	}, u64Attr("x", x), attribute.Int("bins", len(qs)), u64Attr("t", t))
}

// MultiSellCost prices a sale across bins.
func (s *PricingService) MultiSellCost(ctx context.Context, x uint64, qs []uint64, t uint64) (uint64, error) {
	return s.evaluate(ctx, "multi_sell_cost", func() (uint64, error) {
		return s.curve.MultiSellCost(x, qs, t)
	}, u64Attr("x", x), attribute.Int("bins", len(qs)), u64Attr("t", t))
}

// XForBudget inverts a multi-bin purchase. It never fails.
func (s *PricingService) XForBudget(ctx context.Context, budget uint64, qs []uint64, t uint64) uint64 {
	x, _ := s.evaluate(ctx, "x_for_budget", func() (uint64, error) {
		return s.curve.XForBudget(budget, qs, t), nil
	}, u64Attr("budget", budget), attribute.Int("bins", len(qs)), u64Attr("t", t))
	return x
}

func (s *PricingService) evaluate(ctx context.Context, op string, fn func() (uint64, error), attrs ...attribute.KeyValue) (uint64, error) {
	ctx, span := s.tracer.Start(ctx, "curve."+op,
		trace.WithAttributes(attrs...),
		trace.WithAttributes(attribute.String("precision", string(s.curve.Precision()))),
	)
	defer span.End()

	opAttr := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("precision", string(s.curve.Precision())),
	)

	start := time.Now()
	result, err := fn()
	s.metrics.latency.Record(ctx, float64(time.Since(start).Microseconds()), opAttr)
	s.metrics.evaluations.Add(ctx, 1, opAttr)

	if err != nil {
		code := apperror.GetCode(err)
		s.metrics.errors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("op", op),
			attribute.String("code", string(code)),
		))
		span.RecordError(err)
		span.SetStatus(codes.Error, string(code))
		s.logger.Debug(ctx, "curve evaluation rejected", "op", op, "code", code, "error", err)
		return 0, err
	}

	span.SetAttributes(u64Attr("result", result))
	span.SetStatus(codes.Ok, "")
	return result, nil
}

func u64Attr(key string, v uint64) attribute.KeyValue {
	return attribute.String(key, strconv.FormatUint(v, 10))
}
