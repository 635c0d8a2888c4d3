package domain

import (
	gmath "github.com/ethereum/go-ethereum/common/math"

	"github.com/fd1az/rangebet/internal/apperror"
)

// MultiBuyCost prices buying x tokens in each bin of qs in order. The market total grows
// by x after every bin, so later bins are priced against the supply earlier legs created.
// Any failing leg rejects the whole operation.
func (c Curve) MultiBuyCost(x uint64, qs []uint64, t uint64) (uint64, error) {
	if len(qs) == 0 || x == 0 {
		return 0, nil
	}

	var total uint64
	current := t
	for _, q := range qs {
		cost, err := c.BuyCost(x, q, current)
		if err != nil {
			return 0, err
		}

		var over bool
		if total, over = gmath.SafeAdd(total, cost); over {
			return 0, overflow("multi buy: total cost")
		}
		if current, over = gmath.SafeAdd(current, x); over {
			return 0, overflow("multi buy: market total")
		}
	}
	return total, nil
}

// MultiSellCost prices selling x tokens from each bin of qs in order, shrinking the
// market total by x after every bin. Bin and supply limits are checked for the whole
// operation before any leg is priced.
func (c Curve) MultiSellCost(x uint64, qs []uint64, t uint64) (uint64, error) {
	if len(qs) == 0 || x == 0 {
		return 0, nil
	}

	for _, q := range qs {
		if x > q {
			return 0, cannotSellMoreThanBin(x, q)
		}
	}

	totalX, over := gmath.SafeMul(x, uint64(len(qs)))
	if over {
		return 0, overflow("multi sell: total amount")
	}
	if totalX > t {
		return 0, apperror.New(apperror.CodeCannotSellMoreThanSupply,
			apperror.WithContextf("amount=%d t=%d", totalX, t))
	}

	var total uint64
	current := t
	for _, q := range qs {
		revenue, err := c.SellCost(x, q, current)
		if err != nil {
			return 0, err
		}

		if total, over = gmath.SafeAdd(total, revenue); over {
			return 0, overflow("multi sell: total revenue")
		}
		if current, over = gmath.SafeSub(current, x); over {
			return 0, overflow("multi sell: market total")
		}
	}
	return total, nil
}

// MultiBuyCost prices a multi-bin purchase with the float64 curve.
func MultiBuyCost(x uint64, qs []uint64, t uint64) (uint64, error) {
	return float64Curve.MultiBuyCost(x, qs, t)
}

// MultiSellCost prices a multi-bin sale with the float64 curve.
func MultiSellCost(x uint64, qs []uint64, t uint64) (uint64, error) {
	return float64Curve.MultiSellCost(x, qs, t)
}
