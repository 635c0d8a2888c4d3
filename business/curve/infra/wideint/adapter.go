// Package wideint exposes the curve over decimal strings that may encode 256-bit unsigned
// integers. Values outside the 64-bit range are rejected before the curve is consulted.
package wideint

import (
	"context"
	"math"
	"strings"

	"github.com/holiman/uint256"

	"github.com/fd1az/rangebet/business/curve/app"
	"github.com/fd1az/rangebet/internal/apperror"
)

var maxU64 = new(uint256.Int).SetUint64(math.MaxUint64).Dec()

// MaxU64 returns the largest accepted value, "18446744073709551615".
func MaxU64() string {
	return maxU64
}

// IsWithinU64Range reports whether s is a decimal integer no larger than MaxU64.
func IsWithinU64Range(s string) bool {
	if s == "" {
		return false
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return false
	}
	return v.IsUint64()
}

// ParseU64 parses a decimal string into a uint64. field names the argument in errors.
func ParseU64(field, s string) (uint64, error) {
	if s == "" {
		return 0, apperror.New(apperror.CodeInvalidDecimalString, apperror.WithContextf("%s is empty", field))
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		if isDigits(strings.TrimPrefix(s, "+")) {
			// Syntactically fine, only wider than 256 bits.
			return 0, outOfRange(field, s)
		}
		return 0, apperror.New(apperror.CodeInvalidDecimalString,
			apperror.WithContextf("%s=%q", field, s), apperror.WithCause(err))
	}
	if !v.IsUint64() {
		return 0, outOfRange(field, s)
	}
	return v.Uint64(), nil
}

// ParseU64Slice parses every element of ss.
func ParseU64Slice(field string, ss []string) ([]uint64, error) {
	out := make([]uint64, len(ss))
	for i, s := range ss {
		v, err := ParseU64(field, s)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// FormatU64 renders v as a decimal string.
func FormatU64(v uint64) string {
	return new(uint256.Int).SetUint64(v).Dec()
}

func outOfRange(field, s string) error {
	return apperror.New(apperror.CodeValueOutOfU64Range,
		apperror.WithContextf("%s=%s exceeds %s", field, s, maxU64))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Adapter evaluates the curve on decimal-string arguments.
type Adapter struct {
	pricer app.Pricer
}

// NewAdapter creates an Adapter backed by pricer.
func NewAdapter(pricer app.Pricer) *Adapter {
	return &Adapter{pricer: pricer}
}

// BuyCost is the string form of Pricer.BuyCost.
func (a *Adapter) BuyCost(ctx context.Context, x, q, t string) (string, error) {
	xv, qv, tv, err := parseTriple(x, q, t)
	if err != nil {
		return "", err
	}
	cost, err := a.pricer.BuyCost(ctx, xv, qv, tv)
	if err != nil {
		return "", err
	}
	return FormatU64(cost), nil
}

// SellCost is the string form of Pricer.SellCost.
func (a *Adapter) SellCost(ctx context.Context, x, q, t string) (string, error) {
	xv, qv, tv, err := parseTriple(x, q, t)
	if err != nil {
		return "", err
	}
	revenue, err := a.pricer.SellCost(ctx, xv, qv, tv)
	if err != nil {
		return "", err
	}
	return FormatU64(revenue), nil
}

// MultiBuyCost is the string form of Pricer.MultiBuyCost.
func (a *Adapter) MultiBuyCost(ctx context.Context, x string, qs []string, t string) (string, error) {
	xv, qvs, tv, err := parseMulti("x", x, qs, t)
	if err != nil {
		return "", err
	}
	cost, err := a.pricer.MultiBuyCost(ctx, xv, qvs, tv)
	if err != nil {
		return "", err
	}
	return FormatU64(cost), nil
}

// MultiSellCost is the string form of Pricer.MultiSellCost.
func (a *Adapter) MultiSellCost(ctx context.Context, x string, qs []string, t string) (string, error) {
	xv, qvs, tv, err := parseMulti("x", x, qs, t)
	if err != nil {
		return "", err
	}
	revenue, err := a.pricer.MultiSellCost(ctx, xv, qvs, tv)
	if err != nil {
		return "", err
	}
	return FormatU64(revenue), nil
}

// XForBudget is the string form of Pricer.XForBudget. Only argument parsing can fail.
func (a *Adapter) XForBudget(ctx context.Context, budget string, qs []string, t string) (string, error) {
	bv, qvs, tv, err := parseMulti("budget", budget, qs, t)
	if err != nil {
		return "", err
	}
	return FormatU64(a.pricer.XForBudget(ctx, bv, qvs, tv)), nil
}

func parseTriple(x, q, t string) (uint64, uint64, uint64, error) {
	xv, err := ParseU64("x", x)
	if err != nil {
		return 0, 0, 0, err
	}
	qv, err := ParseU64("q", q)
	if err != nil {
		return 0, 0, 0, err
	}
	tv, err := ParseU64("t", t)
	if err != nil {
		return 0, 0, 0, err
	}
	return xv, qv, tv, nil
}

func parseMulti(lead, v string, qs []string, t string) (uint64, []uint64, uint64, error) {
	lv, err := ParseU64(lead, v)
	if err != nil {
		return 0, nil, 0, err
	}
	qvs, err := ParseU64Slice("qs", qs)
	if err != nil {
		return 0, nil, 0, err
	}
	tv, err := ParseU64("t", t)
	if err != nil {
		return 0, nil, 0, err
	}
	return lv, qvs, tv, nil
}
