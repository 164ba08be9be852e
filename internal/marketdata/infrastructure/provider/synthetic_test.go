package provider

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticQuoteKnownSymbol(t *testing.T) {
	p := NewSyntheticProvider()
	snap, err := p.Quote(context.Background(), "NVDA")
	require.NoError(t, err)
	assert.True(t, snap.Price.Equal(decimal.RequireFromString("875.50")))
	assert.True(t, snap.Degraded)
	assert.Equal(t, "USD", snap.Currency)
}

func TestSyntheticQuoteUnknownSymbolUsesDefault(t *testing.T) {
	p := NewSyntheticProvider()
	snap, err := p.Quote(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.True(t, snap.Price.Equal(decimal.RequireFromString("100.0")))
}

func TestSyntheticQuoteLocalListingCurrency(t *testing.T) {
	p := NewSyntheticProvider()

	tests := []struct {
		symbol   string
		currency string
	}{
		{"ASML.AS", "EUR"},
		{"TEP.PA", "EUR"},
		{"WPP.L", "GBP"},
		{"MSFT", "USD"},
	}
	for _, tt := range tests {
		snap, err := p.Quote(context.Background(), tt.symbol)
		require.NoError(t, err)
		assert.Equal(t, tt.currency, snap.Currency, tt.symbol)
	}
}

func TestStaticRates(t *testing.T) {
	r := NewStaticRates()
	ctx := context.Background()

	rate, err := r.Rate(ctx, "USD", "EUR")
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.92")))

	inverse, err := r.Rate(ctx, "EUR", "USD")
	require.NoError(t, err)
	assert.True(t, rate.Mul(inverse).Sub(decimal.NewFromInt(1)).Abs().LessThan(decimal.RequireFromString("0.0001")))

	same, err := r.Rate(ctx, "CHF", "CHF")
	require.NoError(t, err)
	assert.True(t, same.Equal(decimal.NewFromInt(1)))

	_, err = r.Rate(ctx, "USD", "JPY")
	require.Error(t, err)
}

func TestStaticRatesCrossViaUSD(t *testing.T) {
	r := NewStaticRates()
	rate, err := r.Rate(context.Background(), "EUR", "GBP")
	require.NoError(t, err)
	// 0.79 / 0.92
	want := decimal.RequireFromString("0.79").Div(decimal.RequireFromString("0.92"))
	assert.True(t, rate.Equal(want))
}
