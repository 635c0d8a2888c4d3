package domain

import (
	"github.com/fd1az/rangebet/internal/apperror"
)

// float64Curve backs the package-level functions.
var float64Curve = Curve{
	precision:      PrecisionFloat64,
	digits:         DefaultDecimalDigits,
	expansionSteps: DefaultExpansionSteps,
}

// BuyCost prices buying x tokens in a bin holding q of a market total t.
//
// The result lies in [1, x] for x > 0. A purchase into an empty market (t == 0) or into
// a bin that already holds the whole supply (q == t) costs exactly x.
func (c Curve) BuyCost(x, q, t uint64) (uint64, error) {
	if q > t {
		return 0, invalidBinState(q, t)
	}
	if x == 0 {
		return 0, nil
	}
	if t == 0 || q == t {
		return x, nil
	}
	return c.curveValue(x, t-q, t, false)
}

// SellCost prices selling x tokens out of a bin holding q of a market total t.
//
// Selling the whole market supply (x == t) is only legal from a bin that holds all of
// it and returns t. Otherwise x must not exceed q, and q must not exceed t.
func (c Curve) SellCost(x, q, t uint64) (uint64, error) {
	if x == 0 {
		return 0, nil
	}

	if x == t {
		if q > t {
			return 0, invalidBinState(q, t)
		}
		if q != t {
			return 0, apperror.New(apperror.CodeCanOnlySellEntireSupply,
				apperror.WithContextf("x=%d q=%d t=%d", x, q, t))
		}
		return t, nil
	}

	if x > q {
		return 0, cannotSellMoreThanBin(x, q)
	}
	if q > t {
		return 0, invalidBinState(q, t)
	}
	if q == t {
		return x, nil
	}
	return c.curveValue(x, t-q, t, true)
}

// SpotPrice is the marginal price of the next token in a bin, q/t. An empty market
// prices at 1.
func SpotPrice(q, t uint64) float64 {
	if t == 0 {
		return 1
	}
	if q >= t {
		return 1
	}
	return float64(q) / float64(t)
}

// BuyCost prices a purchase with the float64 curve.
func BuyCost(x, q, t uint64) (uint64, error) {
	return float64Curve.BuyCost(x, q, t)
}

// SellCost prices a sale with the float64 curve.
func SellCost(x, q, t uint64) (uint64, error) {
	return float64Curve.SellCost(x, q, t)
}
