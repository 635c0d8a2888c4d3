package domain

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/fd1az/rangebet/internal/apperror"
)

func TestParsePrecision(t *testing.T) {
	tests := []struct {
		in      string
		want    Precision
		wantErr bool
	}{
		{"", PrecisionFloat64, false},
		{"float64", PrecisionFloat64, false},
		{" Decimal ", PrecisionDecimal, false},
		{"DECIMAL", PrecisionDecimal, false},
		{"float32", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePrecision(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePrecision(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePrecision(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewCurve(t *testing.T) {
	is := is.New(t)

	c, err := NewCurve("")
	is.NoErr(err)
	is.Equal(c.Precision(), PrecisionFloat64)
	is.Equal(c.String(), "float64")

	c, err = NewCurve(PrecisionDecimal, WithDecimalDigits(12), WithExpansionSteps(8))
	is.NoErr(err)
	is.Equal(c.String(), "decimal(12)")
	is.Equal(c.steps(), 8)

	// Non-positive option values keep the defaults.
	c, err = NewCurve(PrecisionDecimal, WithDecimalDigits(0), WithExpansionSteps(-1))
	is.NoErr(err)
	is.Equal(c.decimalDigits(), DefaultDecimalDigits)
	is.Equal(c.steps(), DefaultExpansionSteps)

	_, err = NewCurve("bigfloat")
	is.True(apperror.HasCode(err, apperror.CodeUnsupportedPrecision))
}

func TestCurve_ZeroValueIsFloat64(t *testing.T) {
	is := is.New(t)

	var zero Curve
	is.Equal(zero.Precision(), PrecisionFloat64)

	got, err := zero.BuyCost(100, 500, 1000)
	is.NoErr(err)
	want, _ := BuyCost(100, 500, 1000)
	is.Equal(got, want)
	is.Equal(zero.XForBudget(1000, []uint64{100}, 1000), XForBudget(1000, []uint64{100}, 1000))
}

func TestDecimalCurve_AgreesWithFloat64(t *testing.T) {
	is := is.New(t)
	dec, err := NewCurve(PrecisionDecimal)
	is.NoErr(err)

	cases := []struct{ x, q, t uint64 }{
		{1, 0, 1_000_000},
		{100, 500, 1000},
		{250, 10, 1000},
		{9999, 12_345, 1_000_000},
		{1_000_000, 1, 3},
	}
	for _, c := range cases {
		fb, err := BuyCost(c.x, c.q, c.t)
		is.NoErr(err)
		db, err := dec.BuyCost(c.x, c.q, c.t)
		is.NoErr(err)
		is.True(absDiff(fb, db) <= 1)

		if c.x > c.q {
			continue
		}
		fs, err := SellCost(c.x, c.q, c.t)
		is.NoErr(err)
		ds, err := dec.SellCost(c.x, c.q, c.t)
		is.NoErr(err)
		is.True(absDiff(fs, ds) <= 1)
	}
}

func TestDecimalCurve_Deterministic(t *testing.T) {
	is := is.New(t)
	dec, err := NewCurve(PrecisionDecimal, WithDecimalDigits(24))
	is.NoErr(err)

	first, err := dec.MultiBuyCost(777, []uint64{10, 20, 30}, 100)
	is.NoErr(err)
	for i := 0; i < 5; i++ {
		again, err := dec.MultiBuyCost(777, []uint64{10, 20, 30}, 100)
		is.NoErr(err)
		is.Equal(again, first)
	}
}

func TestDecimalCurve_Preconditions(t *testing.T) {
	is := is.New(t)
	dec, err := NewCurve(PrecisionDecimal)
	is.NoErr(err)

	cost, err := dec.BuyCost(100, 1000, 1000)
	is.NoErr(err)
	is.Equal(cost, uint64(100))

	_, err = dec.SellCost(600, 500, 1000)
	is.True(errors.Is(err, ErrCannotSellMoreThanBin))

	_, err = dec.MultiSellCost(400, []uint64{500, 500, 500}, 1000)
	is.True(errors.Is(err, ErrCannotSellMoreThanSupply))
}

func TestSettleFloat(t *testing.T) {
	tests := []struct {
		v    float64
		x    uint64
		want uint64
	}{
		{0, 10, 1},
		{-3, 10, 1},
		{0.49, 10, 1},
		{2.5, 10, 3},
		{2.49, 10, 2},
		{9.7, 10, 10},
		{12, 10, 10},
	}
	for _, tt := range tests {
		if got := settleFloat(tt.v, tt.x); got != tt.want {
			t.Errorf("settleFloat(%v, %d) = %d, want %d", tt.v, tt.x, got, tt.want)
		}
	}
}

func absDiff(a, b uint64) uint64 {
	if a > b {
		return a - b
	}
	return b - a
}
