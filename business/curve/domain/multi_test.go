package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestMultiBuyCost(t *testing.T) {
	tests := []struct {
		name    string
		x       uint64
		qs      []uint64
		t       uint64
		wantErr error
	}{
		{name: "no bins", x: 100, qs: nil, t: 1000},
		{name: "zero amount", x: 0, qs: []uint64{1, 2}, t: 1000},
		{name: "single bin", x: 100, qs: []uint64{500}, t: 1000},
		{name: "two bins", x: 100, qs: []uint64{500, 500}, t: 1000},
		{name: "empty market", x: 40, qs: []uint64{0, 0, 0}, t: 0},
		{name: "bad first leg", x: 10, qs: []uint64{2000, 1}, t: 1000, wantErr: ErrInvalidBinState},
		{name: "market total overflows", x: math.MaxUint64, qs: []uint64{0}, t: 1, wantErr: ErrMathOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MultiBuyCost(tt.x, tt.qs, tt.t)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MultiBuyCost error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MultiBuyCost unexpected error: %v", err)
			}

			want := sequentialBuy(t, tt.x, tt.qs, tt.t)
			if got != want {
				t.Errorf("MultiBuyCost(%d, %v, %d) = %d, want %d", tt.x, tt.qs, tt.t, got, want)
			}
		})
	}
}

func TestMultiBuyCost_MoreBinsCostMore(t *testing.T) {
	is := is.New(t)

	one, err := MultiBuyCost(100, []uint64{500}, 1000)
	is.NoErr(err)
	two, err := MultiBuyCost(100, []uint64{500, 500}, 1000)
	is.NoErr(err)

	is.Equal(one, uint64(52))
	is.True(two > one)
	is.True(two <= 200)
}

func TestMultiBuyCost_EmptyMarketChargesFace(t *testing.T) {
	is := is.New(t)

	// The first leg is free-form, later legs see the supply it created.
	got, err := MultiBuyCost(40, []uint64{0}, 0)
	is.NoErr(err)
	is.Equal(got, uint64(40))

	got, err = MultiBuyCost(40, []uint64{0, 0}, 0)
	is.NoErr(err)
	second, _ := BuyCost(40, 0, 40)
	is.Equal(got, 40+second)
}

func TestMultiSellCost(t *testing.T) {
	tests := []struct {
		name    string
		x       uint64
		qs      []uint64
		t       uint64
		wantErr error
	}{
		{name: "no bins", x: 100, qs: []uint64{}, t: 1000},
		{name: "zero amount", x: 0, qs: []uint64{0, 0}, t: 0},
		{name: "two bins", x: 100, qs: []uint64{500, 400}, t: 1000},
		{name: "last leg drains market", x: 500, qs: []uint64{500, 500}, t: 1000},
		{name: "more than one bin", x: 100, qs: []uint64{500, 50}, t: 1000, wantErr: ErrCannotSellMoreThanBin},
		{name: "more than supply", x: 400, qs: []uint64{500, 500, 500}, t: 1000, wantErr: ErrCannotSellMoreThanSupply},
		{name: "amount times bins overflows", x: math.MaxUint64/2 + 1, qs: []uint64{math.MaxUint64, math.MaxUint64}, t: math.MaxUint64, wantErr: ErrMathOverflow},
		{name: "bad bin state", x: 10, qs: []uint64{900}, t: 800, wantErr: ErrInvalidBinState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MultiSellCost(tt.x, tt.qs, tt.t)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MultiSellCost error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MultiSellCost unexpected error: %v", err)
			}

			want := sequentialSell(t, tt.x, tt.qs, tt.t)
			if got != want {
				t.Errorf("MultiSellCost(%d, %v, %d) = %d, want %d", tt.x, tt.qs, tt.t, got, want)
			}
		})
	}
}

func TestMultiSellCost_DrainingLegReturnsRemainder(t *testing.T) {
	is := is.New(t)

	first, err := SellCost(500, 500, 1000)
	is.NoErr(err)

	got, err := MultiSellCost(500, []uint64{500, 500}, 1000)
	is.NoErr(err)
	is.Equal(got, first+500)
}

func TestMultiCost_SingleBinMatchesBinPricer(t *testing.T) {
	is := is.New(t)

	for _, x := range []uint64{1, 17, 250, 999} {
		buy, err := MultiBuyCost(x, []uint64{300}, 1000)
		is.NoErr(err)
		single, err := BuyCost(x, 300, 1000)
		is.NoErr(err)
		is.Equal(buy, single)

		sell, err := MultiSellCost(x, []uint64{1000}, 2000)
		is.NoErr(err)
		single, err = SellCost(x, 1000, 2000)
		is.NoErr(err)
		is.Equal(sell, single)
	}
}

func sequentialBuy(t *testing.T, x uint64, qs []uint64, total uint64) uint64 {
	t.Helper()
	if x == 0 {
		return 0
	}
	var sum uint64
	for _, q := range qs {
		cost, err := BuyCost(x, q, total)
		if err != nil {
			t.Fatalf("BuyCost(%d, %d, %d): %v", x, q, total, err)
		}
		sum += cost
		total += x
	}
	return sum
}

func sequentialSell(t *testing.T, x uint64, qs []uint64, total uint64) uint64 {
	t.Helper()
	if x == 0 {
		return 0
	}
	var sum uint64
	for _, q := range qs {
		revenue, err := SellCost(x, q, total)
		if err != nil {
			t.Fatalf("SellCost(%d, %d, %d): %v", x, q, total, err)
		}
		sum += revenue
		total -= x
	}
	return sum
}

func BenchmarkMultiBuyCost(b *testing.B) {
	qs := []uint64{1000, 2000, 3000, 4000, 5000, 6000, 7000, 8000}
	for i := 0; i < b.N; i++ {
		_, _ = MultiBuyCost(uint64(i%1000)+1, qs, 50_000)
	}
}
