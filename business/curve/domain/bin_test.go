package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestBuyCost(t *testing.T) {
	tests := []struct {
		name    string
		x, q, t uint64
		want    uint64
		wantErr error
	}{
		{name: "zero amount", x: 0, q: 100, t: 1000, want: 0},
		{name: "bin holds whole market", x: 100, q: 1000, t: 1000, want: 100},
		{name: "first purchase", x: 250, q: 0, t: 0, want: 250},
		{name: "half-full bin", x: 100, q: 500, t: 1000, want: 52},
		{name: "tiny purchase floors at one unit", x: 1, q: 0, t: 1_000_000, want: 1},
		{name: "tiny purchase in huge market", x: 1, q: 0, t: math.MaxUint64 / 1000, want: 1},
		{name: "bin above total", x: 10, q: 1001, t: 1000, wantErr: ErrInvalidBinState},
		{name: "bin above total with zero amount", x: 0, q: 1001, t: 1000, wantErr: ErrInvalidBinState},
		{name: "whole u64 range", x: math.MaxUint64, q: 0, t: 1, want: math.MaxUint64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuyCost(tt.x, tt.q, tt.t)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("BuyCost(%d, %d, %d) error = %v, want %v", tt.x, tt.q, tt.t, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("BuyCost(%d, %d, %d) unexpected error: %v", tt.x, tt.q, tt.t, err)
			}
			if got != tt.want {
				t.Errorf("BuyCost(%d, %d, %d) = %d, want %d", tt.x, tt.q, tt.t, got, tt.want)
			}
		})
	}
}

func TestSellCost(t *testing.T) {
	tests := []struct {
		name    string
		x, q, t uint64
		want    uint64
		wantErr error
	}{
		{name: "zero amount", x: 0, q: 500, t: 1000, want: 0},
		{name: "zero amount ignores state", x: 0, q: 5000, t: 1, want: 0},
		{name: "half-full bin", x: 100, q: 500, t: 1000, want: 47},
		{name: "bin holds whole market", x: 100, q: 1000, t: 1000, want: 100},
		{name: "entire supply from full bin", x: 1000, q: 1000, t: 1000, want: 1000},
		{name: "more than bin", x: 600, q: 500, t: 1000, wantErr: ErrCannotSellMoreThanBin},
		{name: "more than bin and bad state", x: 600, q: 500, t: 400, wantErr: ErrCannotSellMoreThanBin},
		{name: "bad state", x: 100, q: 500, t: 400, wantErr: ErrInvalidBinState},
		{name: "entire supply from partial bin", x: 1000, q: 500, t: 1000, wantErr: ErrCanOnlySellEntireSupply},
		{name: "entire supply with bad state", x: 1000, q: 1200, t: 1000, wantErr: ErrInvalidBinState},
		{name: "sell from empty market", x: 1, q: 0, t: 0, wantErr: ErrCannotSellMoreThanBin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SellCost(tt.x, tt.q, tt.t)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("SellCost(%d, %d, %d) error = %v, want %v", tt.x, tt.q, tt.t, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SellCost(%d, %d, %d) unexpected error: %v", tt.x, tt.q, tt.t, err)
			}
			if got != tt.want {
				t.Errorf("SellCost(%d, %d, %d) = %d, want %d", tt.x, tt.q, tt.t, got, tt.want)
			}
		})
	}
}

func TestSellCost_Float64CollapsedRemainder(t *testing.T) {
	is := is.New(t)

	// t−x is 1 exactly but float64 cannot represent t, so the remainder collapses to 0.
	const x = uint64(1) << 60
	_, err := SellCost(x, x, x+1)
	is.True(errors.Is(err, ErrSellCalculationUnderflow))

	dec, err := NewCurve(PrecisionDecimal)
	is.NoErr(err)
	got, err := dec.SellCost(x, x, x+1)
	is.NoErr(err)
	is.True(got < x)
	is.True(got > x-100)
}

func TestBuyCost_Properties(t *testing.T) {
	is := is.New(t)
	totals := []uint64{1, 7, 100, 1000, 123_456, 10_000_000}

	for _, total := range totals {
		qs := []uint64{0, total / 3, total / 2, total - 1, total}
		for _, q := range qs {
			prev := uint64(0)
			for _, x := range []uint64{1, 2, 5, 10, 100, 1000, 50_000, 1_000_000} {
				cost, err := BuyCost(x, q, total)
				is.NoErr(err)

				is.True(cost >= 1)    // floor
				is.True(cost <= x)    // bound
				is.True(cost >= prev) // monotone in x
				prev = cost

				if q == total {
					is.Equal(cost, x) // edge identity
				}
			}
		}
	}
}

func TestBuyCost_StrictlyIncreasingInX(t *testing.T) {
	is := is.New(t)
	prev := uint64(0)
	for x := uint64(1); x <= 2000; x += 10 {
		cost, err := BuyCost(x, 400, 1000)
		is.NoErr(err)
		is.True(cost > prev)
		prev = cost
	}
}

func TestBuyCost_MonotoneInQ(t *testing.T) {
	is := is.New(t)
	const x, total = 500, 10_000
	prev := uint64(0)
	for q := uint64(0); q <= total; q += 250 {
		cost, err := BuyCost(x, q, total)
		is.NoErr(err)
		is.True(cost >= prev)
		prev = cost
	}
	is.Equal(prev, uint64(x))

	low, _ := BuyCost(x, 1000, total)
	high, _ := BuyCost(x, 9000, total)
	is.True(low < high)
}

func TestSellCost_Properties(t *testing.T) {
	is := is.New(t)
	const total = 100_000

	for _, q := range []uint64{10, 1000, 50_000, 99_999, total} {
		prev := uint64(0)
		for _, x := range []uint64{1, 5, 10, 100, 1000, 10_000} {
			if x > q {
				continue
			}
			revenue, err := SellCost(x, q, total)
			is.NoErr(err)
			is.True(revenue >= 1)
			is.True(revenue <= x)
			is.True(revenue >= prev)
			prev = revenue
			if q == total {
				is.Equal(revenue, x)
			}
		}
	}

	prev := uint64(0)
	for q := uint64(1000); q <= total; q += 9000 {
		revenue, err := SellCost(1000, q, total)
		is.NoErr(err)
		is.True(revenue >= prev) // monotone in q
		prev = revenue
	}
}

func TestRoundTrip_NearInverse(t *testing.T) {
	is := is.New(t)
	cases := []struct{ x, q, t uint64 }{
		{100, 500, 1000},
		{1000, 20_000, 100_000},
		{5000, 0, 1_000_000},
		{123_456, 7_000_000, 9_000_000},
	}
	for _, c := range cases {
		buy, err := BuyCost(c.x, c.q, c.t)
		is.NoErr(err)
		sell, err := SellCost(c.x, c.q+c.x, c.t+c.x)
		is.NoErr(err)

		diff := math.Abs(float64(buy) - float64(sell))
		is.True(diff <= math.Max(1, 0.01*float64(buy)))
	}
}

func TestScenarios(t *testing.T) {
	is := is.New(t)

	cost, err := BuyCost(0, 100, 1000)
	is.NoErr(err)
	is.Equal(cost, uint64(0))

	cost, err = BuyCost(100, 1000, 1000)
	is.NoErr(err)
	is.Equal(cost, uint64(100))

	cost, err = BuyCost(100, 500, 1000)
	is.NoErr(err)
	is.True(cost > 1 && cost < 100)

	_, err = SellCost(600, 500, 1000)
	is.True(errors.Is(err, ErrCannotSellMoreThanBin))
}

func TestSpotPrice(t *testing.T) {
	tests := []struct {
		q, t uint64
		want float64
	}{
		{0, 0, 1},
		{250, 1000, 0.25},
		{1000, 1000, 1},
		{0, 1000, 0},
	}
	for _, tt := range tests {
		if got := SpotPrice(tt.q, tt.t); got != tt.want {
			t.Errorf("SpotPrice(%d, %d) = %v, want %v", tt.q, tt.t, got, tt.want)
		}
	}
}

func BenchmarkBuyCost(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = BuyCost(uint64(i%10_000)+1, 40_000, 100_000)
	}
}

func BenchmarkSellCost(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = SellCost(uint64(i%10_000)+1, 40_000, 100_000)
	}
}
