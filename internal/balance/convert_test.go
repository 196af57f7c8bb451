package balance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"foyer/internal/core"
)

type fakeConverter struct {
	rate    decimal.Decimal
	failAll bool
}

func (f *fakeConverter) Convert(_ context.Context, amount decimal.Decimal, _, _ string, _ time.Time) (decimal.Decimal, error) {
	if f.failAll {
		return decimal.Zero, errors.New("rates unavailable")
	}
	return amount.Mul(f.rate), nil
}

func TestConvertSeries_AppliesRatePerPoint(t *testing.T) {
	points := []Point{
		{Date: core.NewDate(2024, 6, 1), Balance: decimal.RequireFromString("100")},
		{Date: core.NewDate(2024, 6, 2), Balance: decimal.RequireFromString("200")},
	}
	conv := &fakeConverter{rate: decimal.RequireFromString("1.1")}

	got := ConvertSeries(context.Background(), points, "EUR", "USD", conv)
	if got[0].Balance.String() != "110" || got[1].Balance.String() != "220" {
		t.Errorf("converted balances = %s, %s", got[0].Balance, got[1].Balance)
	}
	// Input series untouched.
	if points[0].Balance.String() != "100" {
		t.Errorf("input series mutated: %s", points[0].Balance)
	}
}

func TestConvertSeries_FailureKeepsNativeValue(t *testing.T) {
	points := []Point{
		{Date: core.NewDate(2024, 6, 1), Balance: decimal.RequireFromString("100")},
	}
	got := ConvertSeries(context.Background(), points, "EUR", "USD", &fakeConverter{failAll: true})
	if got[0].Balance.String() != "100" {
		t.Errorf("balance = %s, want native 100", got[0].Balance)
	}
}

func TestConvertSeries_SameCurrencyIsNoop(t *testing.T) {
	points := []Point{
		{Date: core.NewDate(2024, 6, 1), Balance: decimal.RequireFromString("100")},
	}
	conv := &fakeConverter{rate: decimal.RequireFromString("2")}
	got := ConvertSeries(context.Background(), points, "EUR", "EUR", conv)
	if got[0].Balance.String() != "100" {
		t.Errorf("balance = %s, want 100", got[0].Balance)
	}
}
