package wideint

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/fd1az/rangebet/business/curve/app"
	"github.com/fd1az/rangebet/business/curve/domain"
	"github.com/fd1az/rangebet/internal/apperror"
	"github.com/fd1az/rangebet/internal/logger"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Info(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Warn(ctx context.Context, msg string, args ...any)               {}
func (m *mockLogger) Error(ctx context.Context, msg string, args ...any)              {}
func (m *mockLogger) Debugc(ctx context.Context, caller int, msg string, args ...any) {}
func (m *mockLogger) Infoc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Warnc(ctx context.Context, caller int, msg string, args ...any)  {}
func (m *mockLogger) Errorc(ctx context.Context, caller int, msg string, args ...any) {}

var _ logger.LoggerInterface = (*mockLogger)(nil)

func newTestAdapter(t *testing.T) *Adapter {
	t.Helper()
	svc, err := app.NewPricingService(domain.Curve{}, &mockLogger{})
	if err != nil {
		t.Fatalf("NewPricingService: %v", err)
	}
	return NewAdapter(svc)
}

func TestMaxU64(t *testing.T) {
	if got := MaxU64(); got != "18446744073709551615" {
		t.Errorf("MaxU64() = %s, want 18446744073709551615", got)
	}
}

func TestIsWithinU64Range(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"42", true},
		{"18446744073709551615", true},
		{"18446744073709551616", false},
		{"115792089237316195423570985008687907853269984665640564039457584007913129639935", false},
		{"", false},
		{"-1", false},
		{"12a", false},
		{"0x10", false},
	}
	for _, tt := range tests {
		if got := IsWithinU64Range(tt.in); got != tt.want {
			t.Errorf("IsWithinU64Range(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseU64(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		want     uint64
		wantCode apperror.Code
	}{
		{name: "zero", in: "0", want: 0},
		{name: "max", in: "18446744073709551615", want: 18446744073709551615},
		{name: "just above max", in: "18446744073709551616", wantCode: apperror.CodeValueOutOfU64Range},
		{name: "wider than 256 bits", in: "1" + strings.Repeat("0", 80), wantCode: apperror.CodeValueOutOfU64Range},
		{name: "letters", in: "ten", wantCode: apperror.CodeInvalidDecimalString},
		{name: "empty", in: "", wantCode: apperror.CodeInvalidDecimalString},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseU64("x", tt.in)
			if tt.wantCode != "" {
				if !apperror.HasCode(err, tt.wantCode) {
					t.Fatalf("ParseU64(%q) error = %v, want code %s", tt.in, err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseU64(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseU64(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestAdapter_MatchesCurve(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()

	buy, err := a.BuyCost(ctx, "100", "500", "1000")
	if err != nil {
		t.Fatalf("BuyCost: %v", err)
	}
	want, _ := domain.BuyCost(100, 500, 1000)
	if buy != strconv.FormatUint(want, 10) {
		t.Errorf("BuyCost = %s, want %d", buy, want)
	}

	sell, err := a.SellCost(ctx, "100", "500", "1000")
	if err != nil {
		t.Fatalf("SellCost: %v", err)
	}
	want, _ = domain.SellCost(100, 500, 1000)
	if sell != strconv.FormatUint(want, 10) {
		t.Errorf("SellCost = %s, want %d", sell, want)
	}

	multi, err := a.MultiBuyCost(ctx, "100", []string{"500", "500"}, "1000")
	if err != nil {
		t.Fatalf("MultiBuyCost: %v", err)
	}
	want, _ = domain.MultiBuyCost(100, []uint64{500, 500}, 1000)
	if multi != strconv.FormatUint(want, 10) {
		t.Errorf("MultiBuyCost = %s, want %d", multi, want)
	}

	multiSell, err := a.MultiSellCost(ctx, "100", []string{"500", "400"}, "1000")
	if err != nil {
		t.Fatalf("MultiSellCost: %v", err)
	}
	want, _ = domain.MultiSellCost(100, []uint64{500, 400}, 1000)
	if multiSell != strconv.FormatUint(want, 10) {
		t.Errorf("MultiSellCost = %s, want %d", multiSell, want)
	}

	x, err := a.XForBudget(ctx, "1000", []string{"100", "200", "300"}, "1000")
	if err != nil {
		t.Fatalf("XForBudget: %v", err)
	}
	if want := domain.XForBudget(1000, []uint64{100, 200, 300}, 1000); x != strconv.FormatUint(want, 10) {
		t.Errorf("XForBudget = %s, want %d", x, want)
	}
}

func TestAdapter_RejectsBeforePricing(t *testing.T) {
	a := newTestAdapter(t)
	ctx := context.Background()
	tooBig := "18446744073709551616"

	tests := []struct {
		name string
		call func() error
		code apperror.Code
	}{
		{"buy x", func() error { _, err := a.BuyCost(ctx, tooBig, "1", "2"); return err }, apperror.CodeValueOutOfU64Range},
		{"sell t", func() error { _, err := a.SellCost(ctx, "1", "1", tooBig); return err }, apperror.CodeValueOutOfU64Range},
		{"multi qs", func() error { _, err := a.MultiBuyCost(ctx, "1", []string{"1", tooBig}, "2"); return err }, apperror.CodeValueOutOfU64Range},
		{"budget", func() error { _, err := a.XForBudget(ctx, "1.5", nil, "2"); return err }, apperror.CodeInvalidDecimalString},
		{"curve error passes through", func() error { _, err := a.SellCost(ctx, "600", "500", "1000"); return err }, apperror.CodeCannotSellMoreThanBin},
		{"multi sell supply", func() error {
			_, err := a.MultiSellCost(ctx, "400", []string{"500", "500", "500"}, "1000")
			return err
		}, apperror.CodeCannotSellMoreThanSupply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !apperror.HasCode(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFormatU64(t *testing.T) {
	if got := FormatU64(0); got != "0" {
		t.Errorf("FormatU64(0) = %s, want 0", got)
	}
	if got := FormatU64(18446744073709551615); got != MaxU64() {
		t.Errorf("FormatU64(max) = %s, want %s", got, MaxU64())
	}
}
