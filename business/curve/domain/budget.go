package domain

import (
	"math"
)

// XForBudget returns the largest per-bin quantity x whose MultiBuyCost over qs fits in
// budget. It never fails: pricing errors at a candidate mean the candidate is too large,
// and 0 means no positive quantity fits.
//
// The search grows an upper bound from 1 (doubling, then adding budget per step once the
// bound passes budget/2, then doubling again after the additive steps run out) and
// bisects between the last fitting and the first failing quantity. Work is bounded by
// roughly 128 + expansion steps cost evaluations for any 64-bit input.
func (c Curve) XForBudget(budget uint64, qs []uint64, t uint64) uint64 {
	if budget == 0 || len(qs) == 0 {
		return 0
	}

	fits := func(x uint64) bool {
		cost, err := c.MultiBuyCost(x, qs, t)
		return err == nil && cost <= budget
	}

	var left uint64
	right := uint64(1)
	additive := 0
	for fits(right) {
		left = right
		if right > budget/2 && additive < c.steps() {
			right = saturatingAdd(right, budget)
			additive++
		} else {
			right = saturatingAdd(right, right)
		}
		if right == left {
			break
		}
	}

	for left+1 < right {
		mid := left + (right-left)/2
		if fits(mid) {
			left = mid
		} else {
			right = mid
		}
	}

	if !fits(left) {
		return 0
	}
	return left
}

// AmountForCost returns the largest quantity of a single bin purchasable for budget.
func (c Curve) AmountForCost(budget, q, t uint64) uint64 {
	return c.XForBudget(budget, []uint64{q}, t)
}

// XForBudget inverts a multi-bin purchase with the float64 curve.
func XForBudget(budget uint64, qs []uint64, t uint64) uint64 {
	return float64Curve.XForBudget(budget, qs, t)
}

func saturatingAdd(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
