// Package app contains application services and port definitions for the curve context.
package app

import (
	"context"

	"github.com/fd1az/rangebet/business/curve/domain"
)

// Pricer evaluates the bonding curve. Implementations are safe for concurrent use.
type Pricer interface {
	// BuyCost prices buying x tokens in a bin holding q of a market total t.
	BuyCost(ctx context.Context, x, q, t uint64) (uint64, error)

	// SellCost prices selling x tokens out of a bin holding q of a market total t.
	SellCost(ctx context.Context, x, q, t uint64) (uint64, error)

	// MultiBuyCost prices buying x tokens in every bin of qs.
	MultiBuyCost(ctx context.Context, x uint64, qs []uint64, t uint64) (uint64, error)

	// MultiSellCost prices selling x tokens out of every bin of qs.
	MultiSellCost(ctx context.Context, x uint64, qs []uint64, t uint64) (uint64, error)

	// XForBudget finds the largest per-bin quantity affordable with budget.
	XForBudget(ctx context.Context, budget uint64, qs []uint64, t uint64) uint64

	// Precision reports the evaluation strategy in use.
	Precision() domain.Precision
}
