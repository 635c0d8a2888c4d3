// Package di contains dependency injection tokens for the curve context.
package di

import (
	"github.com/fd1az/rangebet/business/curve/app"
	"github.com/fd1az/rangebet/business/curve/domain"
	"github.com/fd1az/rangebet/business/curve/infra/wideint"
	"github.com/fd1az/rangebet/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Pricer         = di.NewToken[app.Pricer]("curve.Pricer")
	WideIntAdapter = di.NewToken[*wideint.Adapter]("curve.WideIntAdapter")
)

// Private dependency tokens - internal to curve module
var (
	Curve = di.NewToken[domain.Curve]("curve:curve")
)

func GetPricer(c di.ServiceRegistry) app.Pricer {
	return di.GetToken(c, Pricer)
}

func GetWideIntAdapter(c di.ServiceRegistry) *wideint.Adapter {
	return di.GetToken(c, WideIntAdapter)
}

func GetCurve(c di.ServiceRegistry) domain.Curve {
	return di.GetToken(c, Curve)
}
