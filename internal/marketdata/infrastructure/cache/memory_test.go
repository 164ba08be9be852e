package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

func snapshot(symbol, price string) *domain.PriceSnapshot {
	return &domain.PriceSnapshot{
		Symbol:   symbol,
		Price:    decimal.RequireFromString(price),
		Currency: "USD",
		Source:   domain.SourceFMP,
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, snapshot("NVDA", "875.50"), time.Minute))

	got, err := c.Get(ctx, "NVDA")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("875.50")))
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache()
	got, err := c.Get(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	now := time.Now()
	c.SetClock(func() time.Time { return now })
	require.NoError(t, c.Set(ctx, snapshot("NVDA", "875.50"), 2*time.Minute))

	now = now.Add(3 * time.Minute)
	got, err := c.Get(ctx, "NVDA")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryCacheReturnsCopy(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, snapshot("NVDA", "875.50"), time.Minute))
	first, err := c.Get(ctx, "NVDA")
	require.NoError(t, err)
	first.Price = decimal.Zero

	second, err := c.Get(ctx, "NVDA")
	require.NoError(t, err)
	assert.True(t, second.Price.IsPositive())
}
