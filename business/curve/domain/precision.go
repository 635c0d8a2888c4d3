// Package domain implements the logarithmic bonding curve that prices bin outcome tokens.
//
// A bin holding q tokens of a market whose total supply is t prices a purchase of x
// tokens at the integral of (q+s)/(t+s) over s in [0, x]:
//
//	cost    = x − (t−q)·ln((t+x)/t)
//	revenue = x − (t−q)·ln(t/(t−x))
//
// Every function is pure. A Curve carries only immutable evaluation settings and may be
// shared across goroutines.
package domain

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/rangebet/internal/apperror"
)

// Precision selects how the logarithmic term is evaluated.
type Precision string

const (
	// PrecisionFloat64 evaluates in IEEE-754 double precision.
	PrecisionFloat64 Precision = "float64"
	// PrecisionDecimal evaluates in arbitrary-precision decimal arithmetic. Results are
	// bit-identical on every platform.
	PrecisionDecimal Precision = "decimal"
)

const (
	// DefaultDecimalDigits is the number of fractional digits kept by the decimal strategy.
	DefaultDecimalDigits int32 = 30
	// DefaultExpansionSteps caps the additive growth phase of budget inversion.
	DefaultExpansionSteps = 64
)

// ParsePrecision maps a config value to a Precision. Empty selects float64.
func ParsePrecision(s string) (Precision, error) {
	switch Precision(strings.ToLower(strings.TrimSpace(s))) {
	case "", PrecisionFloat64:
		return PrecisionFloat64, nil
	case PrecisionDecimal:
		return PrecisionDecimal, nil
	default:
		return "", apperror.New(apperror.CodeUnsupportedPrecision, apperror.WithContext(s))
	}
}

// Curve evaluates the pricing functions with a fixed precision strategy.
// The zero value is a float64 curve with default settings.
type Curve struct {
	precision      Precision
	digits         int32
	expansionSteps int
}

// Option customizes a Curve.
type Option func(*Curve)

// WithDecimalDigits sets the fractional digits used by the decimal strategy.
func WithDecimalDigits(digits int32) Option {
	return func(c *Curve) {
		if digits > 0 {
			c.digits = digits
		}
	}
}

// WithExpansionSteps sets how many additive growth steps budget inversion may take
// before it falls back to doubling.
func WithExpansionSteps(steps int) Option {
	return func(c *Curve) {
		if steps > 0 {
			c.expansionSteps = steps
		}
	}
}

// NewCurve builds a Curve for the given precision.
func NewCurve(p Precision, opts ...Option) (Curve, error) {
	if p == "" {
		p = PrecisionFloat64
	}
	if p != PrecisionFloat64 && p != PrecisionDecimal {
		return Curve{}, apperror.New(apperror.CodeUnsupportedPrecision, apperror.WithContext(string(p)))
	}

	c := Curve{
		precision:      p,
		digits:         DefaultDecimalDigits,
		expansionSteps: DefaultExpansionSteps,
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c, nil
}

// Precision reports the evaluation strategy.
func (c Curve) Precision() Precision {
	if c.precision == "" {
		return PrecisionFloat64
	}
	return c.precision
}

// String implements fmt.Stringer.
func (c Curve) String() string {
	if c.Precision() == PrecisionDecimal {
		return fmt.Sprintf("decimal(%d)", c.decimalDigits())
	}
	return string(PrecisionFloat64)
}

func (c Curve) decimalDigits() int32 {
	if c.digits <= 0 {
		return DefaultDecimalDigits
	}
	return c.digits
}

func (c Curve) steps() int {
	if c.expansionSteps <= 0 {
		return DefaultExpansionSteps
	}
	return c.expansionSteps
}

// curveValue evaluates x − w·ln(ratio) where w = t−q, and ratio is (t+x)/t for
// purchases and t/(t−x) for sales. Callers have already handled x == 0, t == 0 and q == t.
func (c Curve) curveValue(x, w, t uint64, sell bool) (uint64, error) {
	if c.Precision() == PrecisionDecimal {
		return decimalValue(x, w, t, sell, c.decimalDigits())
	}
	return floatValue(x, w, t, sell)
}

func floatValue(x, w, t uint64, sell bool) (uint64, error) {
	xf, wf, tf := float64(x), float64(w), float64(t)

	var ratio float64
	if sell {
		rest := tf - xf
		if rest <= 0 {
			return 0, apperror.New(apperror.CodeSellCalculationUnderflow,
				apperror.WithContextf("x=%d t=%d", x, t))
		}
		ratio = tf / rest
	} else {
		ratio = (tf + xf) / tf
	}

	reduction := wf * math.Log(ratio)
	if reduction > xf {
		return 1, nil
	}
	return settleFloat(xf-reduction, x), nil
}

// settleFloat rounds half up, floors at one unit and never exceeds x.
func settleFloat(v float64, x uint64) uint64 {
	if !(v > 0) {
		return 1
	}
	r := math.Floor(v + 0.5)
	if r >= float64(x) {
		return x
	}
	if r < 1 {
		return 1
	}
	return uint64(r)
}

// extra digits carried through the ratio and logarithm before the final rounding
const decimalGuardDigits = 8

var decimalOne = decimal.NewFromInt(1)

func decimalFromUint64(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}

func decimalValue(x, w, t uint64, sell bool, digits int32) (uint64, error) {
	dx, dt := decimalFromUint64(x), decimalFromUint64(t)

	var num, den decimal.Decimal
	if sell {
		num, den = dt, dt.Sub(dx)
	} else {
		num, den = dt.Add(dx), dt
	}
	if !den.IsPositive() {
		return 0, apperror.New(apperror.CodeSellCalculationUnderflow,
			apperror.WithContextf("x=%d t=%d", x, t))
	}

	prec := digits + decimalGuardDigits
	ln, err := num.DivRound(den, prec).Ln(prec)
	if err != nil {
		return 0, apperror.New(apperror.CodeDeterministicEvaluationError, apperror.WithCause(err))
	}

	reduction := decimalFromUint64(w).Mul(ln).Round(digits)
	if reduction.GreaterThan(dx) {
		return 1, nil
	}

	v := dx.Sub(reduction)
	if !v.IsPositive() {
		return 1, nil
	}
	r := v.Round(0)
	if r.GreaterThanOrEqual(dx) {
		return x, nil
	}
	if r.LessThan(decimalOne) {
		return 1, nil
	}
	return r.BigInt().Uint64(), nil
}
