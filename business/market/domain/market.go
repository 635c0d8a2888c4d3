// Package domain contains the core domain types for the market context.
package domain

import (
	"fmt"
	"time"

	gmath "github.com/ethereum/go-ethereum/common/math"
	"github.com/shopspring/decimal"

	"github.com/fd1az/rangebet/internal/apperror"
)

// MaxBinCount bounds the grid size of a market.
const MaxBinCount = 1 << 16

// Market is a point-in-time view of a bin market: a tick grid and the outcome
// token supply held in each bin. Bins[i] belongs to tick MinTick + i*TickSpacing.
type Market struct {
	ID          string    `json:"id"`
	MinTick     int64     `json:"minTick"`
	MaxTick     int64     `json:"maxTick"`
	TickSpacing int64     `json:"tickSpacing"`
	Bins        []uint64  `json:"bins"`
	Total       uint64    `json:"total"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// NewMarket creates an empty market over [minTick, maxTick].
func NewMarket(id string, minTick, maxTick, tickSpacing int64) (*Market, error) {
	if err := validateGrid(minTick, maxTick, tickSpacing); err != nil {
		return nil, err
	}
	m := &Market{
		ID:          id,
		MinTick:     minTick,
		MaxTick:     maxTick,
		TickSpacing: tickSpacing,
		UpdatedAt:   time.Now(),
	}
	m.Bins = make([]uint64, m.BinCount())
	return m, nil
}

func validateGrid(minTick, maxTick, tickSpacing int64) error {
	if tickSpacing <= 0 {
		return apperror.Validation(apperror.CodeInvalidTickSpacing, fmt.Sprintf("spacing=%d", tickSpacing))
	}
	if minTick%tickSpacing != 0 {
		return apperror.Validation(apperror.CodeMinTickNotMultiple, fmt.Sprintf("min=%d spacing=%d", minTick, tickSpacing))
	}
	if maxTick%tickSpacing != 0 {
		return apperror.Validation(apperror.CodeMaxTickNotMultiple, fmt.Sprintf("max=%d spacing=%d", maxTick, tickSpacing))
	}
	if minTick >= maxTick {
		return apperror.Validation(apperror.CodeMinTickGreaterThanMax, fmt.Sprintf("min=%d max=%d", minTick, maxTick))
	}
	if steps := gridSteps(minTick, maxTick, tickSpacing); steps >= MaxBinCount {
		return apperror.Validation(apperror.CodeTooManyBins,
			fmt.Sprintf("min=%d max=%d spacing=%d limit=%d", minTick, maxTick, tickSpacing, MaxBinCount))
	}
	return nil
}

// gridSteps is the number of spacings between minTick and maxTick, one less than
// the bin count. The span is taken in uint64 so the full int64 range does not wrap.
func gridSteps(minTick, maxTick, tickSpacing int64) uint64 {
	return (uint64(maxTick) - uint64(minTick)) / uint64(tickSpacing)
}

// BinCount returns the number of bins on the grid, or 0 for an invalid grid.
func (m *Market) BinCount() int {
	if validateGrid(m.MinTick, m.MaxTick, m.TickSpacing) != nil {
		return 0
	}
	return int(gridSteps(m.MinTick, m.MaxTick, m.TickSpacing)) + 1
}

// BinIndex maps a tick to its bin position.
func (m *Market) BinIndex(tick int64) (int, error) {
	if m.TickSpacing <= 0 || tick < m.MinTick || tick > m.MaxTick {
		return 0, m.tickOutOfRange(tick)
	}
	offset := uint64(tick) - uint64(m.MinTick)
	i := offset / uint64(m.TickSpacing)
	if offset%uint64(m.TickSpacing) != 0 || i >= uint64(len(m.Bins)) {
		return 0, m.tickOutOfRange(tick)
	}
	return int(i), nil
}

func (m *Market) tickOutOfRange(tick int64) error {
	return apperror.Validation(apperror.CodeBinIndexOutOfRange,
		fmt.Sprintf("tick=%d grid=[%d,%d]/%d", tick, m.MinTick, m.MaxTick, m.TickSpacing))
}

// TickAt returns the lower tick of bin i.
func (m *Market) TickAt(i int) int64 {
	return m.MinTick + int64(i)*m.TickSpacing
}

// SpotPrice is the marginal price of bin i, Bins[i]/Total rounded to places.
// An empty market prices every bin at 1.
func (m *Market) SpotPrice(i int, places int32) decimal.Decimal {
	if m.Total == 0 || m.Bins[i] >= m.Total {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromUint64(m.Bins[i]).DivRound(decimal.NewFromUint64(m.Total), places)
}

// Quantity returns the supply held in the bin at tick.
func (m *Market) Quantity(tick int64) (uint64, error) {
	i, err := m.BinIndex(tick)
	if err != nil {
		return 0, err
	}
	return m.Bins[i], nil
}

// Quantities resolves several ticks in order.
func (m *Market) Quantities(ticks []int64) ([]uint64, error) {
	qs := make([]uint64, len(ticks))
	for i, tick := range ticks {
		q, err := m.Quantity(tick)
		if err != nil {
			return nil, err
		}
		qs[i] = q
	}
	return qs, nil
}

// Validate checks that the bins match the grid and add up to Total.
func (m *Market) Validate() error {
	if err := validateGrid(m.MinTick, m.MaxTick, m.TickSpacing); err != nil {
		return err
	}
	if len(m.Bins) != m.BinCount() {
		return apperror.New(apperror.CodeInconsistentSnapshot,
			apperror.WithContextf("market=%s bins=%d grid=%d", m.ID, len(m.Bins), m.BinCount()))
	}
	var sum uint64
	for _, q := range m.Bins {
		var overflow bool
		if sum, overflow = gmath.SafeAdd(sum, q); overflow {
			return apperror.New(apperror.CodeMathOverflow, apperror.WithContextf("market=%s bin sum", m.ID))
		}
	}
	if sum != m.Total {
		return apperror.New(apperror.CodeInconsistentSnapshot,
			apperror.WithContextf("market=%s sum=%d total=%d", m.ID, sum, m.Total))
	}
	return nil
}

// Clone returns a deep copy.
func (m *Market) Clone() *Market {
	c := *m
	c.Bins = append([]uint64(nil), m.Bins...)
	return &c
}

// WithBuy returns a copy with amounts[i] added to the bin at ticks[i].
func (m *Market) WithBuy(ticks []int64, amounts []uint64) (*Market, error) {
	if err := checkLegs(ticks, amounts); err != nil {
		return nil, err
	}
	next := m.Clone()
	for i, tick := range ticks {
		idx, err := next.BinIndex(tick)
		if err != nil {
			return nil, err
		}
		var overflow bool
		if next.Bins[idx], overflow = gmath.SafeAdd(next.Bins[idx], amounts[i]); overflow {
			return nil, apperror.New(apperror.CodeMathOverflow, apperror.WithContextf("tick=%d", tick))
		}
		if next.Total, overflow = gmath.SafeAdd(next.Total, amounts[i]); overflow {
			return nil, apperror.New(apperror.CodeMathOverflow, apperror.WithContext("market total"))
		}
	}
	next.UpdatedAt = time.Now()
	return next, nil
}

// WithSell returns a copy with amounts[i] removed from the bin at ticks[i].
func (m *Market) WithSell(ticks []int64, amounts []uint64) (*Market, error) {
	if err := checkLegs(ticks, amounts); err != nil {
		return nil, err
	}
	next := m.Clone()
	for i, tick := range ticks {
		idx, err := next.BinIndex(tick)
		if err != nil {
			return nil, err
		}
		if amounts[i] > next.Bins[idx] {
			return nil, apperror.New(apperror.CodeCannotSellMoreThanBin,
				apperror.WithContextf("tick=%d x=%d q=%d", tick, amounts[i], next.Bins[idx]))
		}
		next.Bins[idx] -= amounts[i]
		next.Total -= amounts[i]
	}
	next.UpdatedAt = time.Now()
	return next, nil
}

func checkLegs(ticks []int64, amounts []uint64) error {
	if len(ticks) != len(amounts) {
		return apperror.Validation(apperror.CodeArrayLengthMismatch,
			fmt.Sprintf("ticks=%d amounts=%d", len(ticks), len(amounts)))
	}
	if len(ticks) == 0 {
		return apperror.Validation(apperror.CodeNoTokensToBuy, "no legs")
	}
	return nil
}
