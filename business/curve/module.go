// Package curve implements the bonding-curve pricing bounded context.
package curve

import (
	"context"

	"github.com/fd1az/rangebet/business/curve/app"
	curveDI "github.com/fd1az/rangebet/business/curve/di"
	"github.com/fd1az/rangebet/business/curve/domain"
	"github.com/fd1az/rangebet/business/curve/infra/wideint"
	"github.com/fd1az/rangebet/internal/config"
	"github.com/fd1az/rangebet/internal/di"
	"github.com/fd1az/rangebet/internal/logger"
	"github.com/fd1az/rangebet/internal/monolith"
)

// Module implements the curve bounded context.
type Module struct{}

// NewCurveFromConfig builds the evaluation strategy selected in cfg.
func NewCurveFromConfig(cfg config.CurveConfig) (domain.Curve, error) {
	p, err := domain.ParsePrecision(cfg.Precision)
	if err != nil {
		return domain.Curve{}, err
	}
	return domain.NewCurve(p,
		domain.WithDecimalDigits(cfg.DecimalDigits),
		domain.WithExpansionSteps(cfg.ExpansionSteps),
	)
}

// RegisterServices registers all curve services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Register Curve (private - evaluation strategy)
	di.RegisterToken(c, curveDI.Curve, func(sr di.ServiceRegistry) domain.Curve {
		cfg := sr.Get("config").(*config.Config)

		curve, err := NewCurveFromConfig(cfg.Curve)
		if err != nil {
			panic("failed to build curve: " + err.Error())
		}
		return curve
	})

	// Register Pricer (public - used by the market context)
	di.RegisterToken(c, curveDI.Pricer, func(sr di.ServiceRegistry) app.Pricer {
		log := sr.Get("logger").(logger.LoggerInterface)

		svc, err := app.NewPricingService(curveDI.GetCurve(sr), log)
		if err != nil {
			panic("failed to create pricing service: " + err.Error())
		}
		return svc
	})

	// Register WideIntAdapter (public - decimal string boundary)
	di.RegisterToken(c, curveDI.WideIntAdapter, func(sr di.ServiceRegistry) *wideint.Adapter {
		return wideint.NewAdapter(curveDI.GetPricer(sr))
	})

	return nil
}

// Startup resolves the pricer eagerly so a bad curve config fails at boot.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	pricer := curveDI.GetPricer(mono.Services())

	log.Info(ctx, "curve module started", "precision", string(pricer.Precision()))
	return nil
}
