package domain

import (
	"math"
	"time"

	gmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/google/uuid"
)

// Side is the direction of a quoted trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Kind identifies which pricing operation produced a quote.
type Kind string

const (
	KindSingle        Kind = "single"
	KindRange         Kind = "range"
	KindBasket        Kind = "basket"
	KindBudget        Kind = "budget"
	KindAmountForCost Kind = "amount_for_cost"
)

// Quote is the priced outcome of a hypothetical trade against a snapshot.
// For buys Cost is the collateral charged, for sells the collateral returned.
type Quote struct {
	ID        uuid.UUID `json:"id"`
	MarketID  string    `json:"marketId"`
	Side      Side      `json:"side"`
	Kind      Kind      `json:"kind"`
	Ticks     []int64   `json:"ticks"`
	Amounts   []uint64  `json:"amounts"`
	Budget    uint64    `json:"budget,omitempty"`
	Cost      uint64    `json:"cost"`
	Total     uint64    `json:"total"` // market total the quote was priced against
	Precision string    `json:"precision"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewQuote stamps a fresh id and creation time.
func NewQuote(marketID string, side Side, kind Kind, ticks []int64, amounts []uint64, cost uint64) *Quote {
	return &Quote{
		ID:        uuid.New(),
		MarketID:  marketID,
		Side:      side,
		Kind:      kind,
		Ticks:     ticks,
		Amounts:   amounts,
		Cost:      cost,
		CreatedAt: time.Now().UTC(),
	}
}

// Quantity returns the total token amount across legs, saturating at MaxUint64.
func (q *Quote) Quantity() uint64 {
	var sum uint64
	for _, a := range q.Amounts {
		next, overflow := gmath.SafeAdd(sum, a)
		if overflow {
			return math.MaxUint64
		}
		sum = next
	}
	return sum
}

// AveragePrice is cost per token, or 0 for an empty quote.
func (q *Quote) AveragePrice() float64 {
	n := q.Quantity()
	if n == 0 {
		return 0
	}
	return float64(q.Cost) / float64(n)
}
