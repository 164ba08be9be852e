package application

import (
	"context"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mddomain "github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
	refinfra "github.com/franksiereveld/rationalmarkets/internal/referencedata/infrastructure"
	"github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
	"github.com/franksiereveld/rationalmarkets/internal/strategy/infrastructure"
)

type fakeMarketData struct {
	prices   map[string]string
	currency map[string]string
	degraded map[string]bool
	rates    map[string]string
	calls    int
}

func (f *fakeMarketData) Snapshots(_ context.Context, reqs []mddomain.QuoteRequest) ([]*mddomain.PriceSnapshot, error) {
	f.calls++
	out := make([]*mddomain.PriceSnapshot, len(reqs))
	for i, req := range reqs {
		raw, ok := f.prices[req.Symbol]
		if !ok {
			out[i] = nil
			continue
		}
		currency := f.currency[req.Symbol]
		if currency == "" {
			currency = "USD"
		}
		out[i] = &mddomain.PriceSnapshot{
			Ticker:   req.Ticker,
			Symbol:   req.Symbol,
			Price:    decimal.RequireFromString(raw),
			Currency: currency,
			Source:   mddomain.SourceFMP,
			Degraded: f.degraded[req.Symbol],
		}
	}
	return out, nil
}

func (f *fakeMarketData) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	raw, ok := f.rates[from+"/"+to]
	if !ok {
		return decimal.Zero, mddomain.ErrRateUnavailable
	}
	return decimal.RequireFromString(raw), nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testStrategy() *domain.StrategyVersion {
	return &domain.StrategyVersion{
		Name:         "test-long-short",
		Version:      "1",
		BaseCurrency: "USD",
		LongShare:    d("0.60"),
		ShortShare:   d("0.40"),
		Positions: []domain.TargetPosition{
			{Ticker: "NVDA", Side: domain.SideLong, Weight: d("0.5")},
			{Ticker: "MSFT", Side: domain.SideLong, Weight: d("0.5")},
			{Ticker: "HRB", Side: domain.SideShort, Weight: d("0.5")},
			{Ticker: "UBER", Side: domain.SideShort, Weight: d("0.5")},
		},
	}
}

func newTestService(t *testing.T, md MarketData) *AllocationService {
	t.Helper()
	catalog, err := infrastructure.NewCatalog()
	require.NoError(t, err)
	require.NoError(t, catalog.Register(testStrategy()))

	registry, err := refinfra.NewDefaultRegistry()
	require.NoError(t, err)

	return NewAllocationService(catalog, registry, md, nil, slog.Default())
}

func TestAllocateSplitsCapitalAcrossSides(t *testing.T) {
	md := &fakeMarketData{prices: map[string]string{
		"NVDA": "100", "MSFT": "100", "HRB": "100", "UBER": "100",
	}}
	svc := newTestService(t, md)

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "test-long-short",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("50"),
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 4)
	assert.Empty(t, result.Warnings)
	assert.False(t, result.Degraded)

	// 50000 投入，多头 60% = 30000，空头 40% = 20000，各两仓均分。
	assert.True(t, result.Orders[0].Quantity.Equal(d("150")), "long qty %s", result.Orders[0].Quantity)
	assert.True(t, result.Orders[1].Quantity.Equal(d("150")))
	assert.True(t, result.Orders[2].Quantity.Equal(d("100")), "short qty %s", result.Orders[2].Quantity)
	assert.True(t, result.Orders[3].Quantity.Equal(d("100")))

	assert.Equal(t, domain.OrderBuy, result.Orders[0].Side)
	assert.Equal(t, domain.OrderSell, result.Orders[2].Side)

	// 名义金额合计不超过投入资金。
	assert.True(t, result.AllocatedCapital.LessThanOrEqual(d("50000")))
}

func TestAllocateOrdersFollowStrategyOrder(t *testing.T) {
	md := &fakeMarketData{prices: map[string]string{
		"NVDA": "100", "MSFT": "100", "HRB": "100", "UBER": "100",
	}}
	svc := newTestService(t, md)

	cmd := AllocateCommand{
		Strategy:      "test-long-short",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("50"),
	}
	first, err := svc.Allocate(context.Background(), cmd)
	require.NoError(t, err)
	second, err := svc.Allocate(context.Background(), cmd)
	require.NoError(t, err)

	// 相同输入得到完全相同的输出。
	require.Equal(t, len(first.Orders), len(second.Orders))
	for i := range first.Orders {
		assert.Equal(t, first.Orders[i].Ticker, second.Orders[i].Ticker)
		assert.True(t, first.Orders[i].Quantity.Equal(second.Orders[i].Quantity))
	}
	assert.Equal(t, []string{"NVDA", "MSFT", "HRB", "UBER"}, orderTickers(first))
}

func orderTickers(result *domain.AllocationResult) []string {
	out := make([]string, 0, len(result.Orders))
	for _, o := range result.Orders {
		out = append(out, o.Ticker)
	}
	return out
}

func TestAllocateRejectsNonPositiveCapital(t *testing.T) {
	md := &fakeMarketData{}
	svc := newTestService(t, md)

	for _, capital := range []string{"0", "-5000"} {
		_, err := svc.Allocate(context.Background(), AllocateCommand{
			Strategy:      "test-long-short",
			Broker:        refdomain.BrokerAlpaca,
			TotalCapital:  d(capital),
			InvestPercent: d("50"),
		})
		require.Error(t, err, "capital %s", capital)
	}
	// 校验失败时不允许发生任何行情调用。
	assert.Zero(t, md.calls)
}

func TestAllocateZeroPercentReturnsEmptySuccess(t *testing.T) {
	md := &fakeMarketData{}
	svc := newTestService(t, md)

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "test-long-short",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("0"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Orders)
	assert.Empty(t, result.Warnings)
	assert.Zero(t, md.calls)
}

func TestAllocateSkipsPositionWithoutPrice(t *testing.T) {
	md := &fakeMarketData{prices: map[string]string{
		"NVDA": "100", "MSFT": "100", "HRB": "100",
		// UBER 缺价。
	}}
	svc := newTestService(t, md)

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "test-long-short",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("50"),
	})
	require.NoError(t, err)
	assert.Len(t, result.Orders, 3)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "UBER", result.Warnings[0].Ticker)
}

func TestAllocateSkipsUnmappedTicker(t *testing.T) {
	// 内置映射里 TEP 没有 alpaca 行。
	strat := &domain.StrategyVersion{
		Name:         "unmapped",
		BaseCurrency: "USD",
		LongShare:    d("0.60"),
		ShortShare:   d("0.40"),
		Positions: []domain.TargetPosition{
			{Ticker: "NVDA", Side: domain.SideLong, Weight: d("1")},
			{Ticker: "TEP", Side: domain.SideShort, Weight: d("0.5")},
			{Ticker: "HRB", Side: domain.SideShort, Weight: d("0.5")},
		},
	}
	catalog, err := infrastructure.NewCatalog()
	require.NoError(t, err)
	require.NoError(t, catalog.Register(strat))
	registry, err := refinfra.NewDefaultRegistry()
	require.NoError(t, err)
	md := &fakeMarketData{prices: map[string]string{"NVDA": "100", "HRB": "100"}}
	svc := NewAllocationService(catalog, registry, md, nil, slog.Default())

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "unmapped",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("100"),
	})
	require.NoError(t, err)
	assert.Len(t, result.Orders, 2)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "TEP", result.Warnings[0].Ticker)
}

func TestAllocateWholeSharesForSwissquote(t *testing.T) {
	md := &fakeMarketData{
		prices:   map[string]string{"NVDA": "333.33", "MSFT": "100", "HRB": "100", "UBER": "100"},
		currency: map[string]string{},
	}
	svc := newTestService(t, md)

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "test-long-short",
		Broker:        refdomain.BrokerSwissquote,
		TotalCapital:  d("100000"),
		InvestPercent: d("50"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Orders)

	// Swissquote 不支持碎股，数量必须是整数。
	for _, o := range result.Orders {
		assert.True(t, o.Quantity.Equal(o.Quantity.Floor()), "qty %s not whole", o.Quantity)
	}
	// 15000 / 333.33 = 45.000450... → 45。
	assert.True(t, result.Orders[0].Quantity.Equal(d("45")), "got %s", result.Orders[0].Quantity)
}

func TestAllocateFractionalSharesForAlpaca(t *testing.T) {
	md := &fakeMarketData{prices: map[string]string{
		"NVDA": "333.33", "MSFT": "100", "HRB": "100", "UBER": "100",
	}}
	svc := newTestService(t, md)

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "test-long-short",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("50"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Orders)

	// 碎股保留六位小数，且只舍不入：15000 / 333.33 = 45.000450...。
	qty := result.Orders[0].Quantity
	assert.True(t, qty.Equal(d("45.00045")), "got %s", qty)
	assert.True(t, qty.Mul(d("333.33")).LessThanOrEqual(d("15000")))
}

func TestAllocateConvertsCurrency(t *testing.T) {
	strat := &domain.StrategyVersion{
		Name:         "eur-leg",
		BaseCurrency: "USD",
		LongShare:    d("1"),
		ShortShare:   d("0"),
		Positions: []domain.TargetPosition{
			{Ticker: "ASML", Side: domain.SideLong, Weight: d("1")},
		},
	}
	catalog, err := infrastructure.NewCatalog()
	require.NoError(t, err)
	require.NoError(t, catalog.Register(strat))
	registry, err := refinfra.NewDefaultRegistry()
	require.NoError(t, err)
	md := &fakeMarketData{
		prices:   map[string]string{"ASML.AS": "650"},
		currency: map[string]string{"ASML.AS": "EUR"},
		rates:    map[string]string{"USD/EUR": "0.92"},
	}
	svc := NewAllocationService(catalog, registry, md, nil, slog.Default())

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "eur-leg",
		Broker:        refdomain.BrokerSwissquote,
		TotalCapital:  d("65000"),
		InvestPercent: d("100"),
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)

	// 65000 USD × 0.92 = 59800 EUR，/650 = 92 股。
	assert.True(t, result.Orders[0].Quantity.Equal(d("92")), "got %s", result.Orders[0].Quantity)
	assert.Equal(t, "EUR", result.Orders[0].Currency)
	// 名义金额保持基准货币口径。
	assert.True(t, result.Orders[0].DollarAmount.Equal(d("65000")))
}

func TestAllocateMissingRateSkipsPosition(t *testing.T) {
	strat := &domain.StrategyVersion{
		Name:         "no-rate",
		BaseCurrency: "USD",
		LongShare:    d("1"),
		ShortShare:   d("0"),
		Positions: []domain.TargetPosition{
			{Ticker: "ASML", Side: domain.SideLong, Weight: d("1")},
		},
	}
	catalog, err := infrastructure.NewCatalog()
	require.NoError(t, err)
	require.NoError(t, catalog.Register(strat))
	registry, err := refinfra.NewDefaultRegistry()
	require.NoError(t, err)
	md := &fakeMarketData{
		prices:   map[string]string{"ASML.AS": "650"},
		currency: map[string]string{"ASML.AS": "EUR"},
	}
	svc := NewAllocationService(catalog, registry, md, nil, slog.Default())

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "no-rate",
		Broker:        refdomain.BrokerSwissquote,
		TotalCapital:  d("65000"),
		InvestPercent: d("100"),
	})
	require.NoError(t, err)
	assert.Empty(t, result.Orders)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "ASML", result.Warnings[0].Ticker)
	// 只剩一个仓位且被跳过，结果降级。
	assert.True(t, result.Degraded)
}

func TestAllocateMarksDegradedFromSnapshots(t *testing.T) {
	md := &fakeMarketData{
		prices:   map[string]string{"NVDA": "100", "MSFT": "100", "HRB": "100", "UBER": "100"},
		degraded: map[string]bool{"NVDA": true},
	}
	svc := newTestService(t, md)

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "test-long-short",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("50"),
	})
	require.NoError(t, err)
	assert.Len(t, result.Orders, 4)
	assert.True(t, result.Degraded)
}

func TestAllocateUnknownStrategy(t *testing.T) {
	svc := newTestService(t, &fakeMarketData{})
	_, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "missing",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("1000"),
		InvestPercent: d("50"),
	})
	require.Error(t, err)
}

func TestBuiltinStrategyAllocates(t *testing.T) {
	prices := map[string]string{
		"NVDA": "875.50", "MSFT": "415.25", "ASML": "950.80", "GOOGL": "142.80",
		"TSM": "105.30", "HRB": "45.20", "NWSA": "26.75", "WPP": "45.60", "UBER": "62.40",
	}
	md := &fakeMarketData{prices: prices}
	catalog, err := infrastructure.NewCatalog()
	require.NoError(t, err)
	registry, err := refinfra.NewDefaultRegistry()
	require.NoError(t, err)
	svc := NewAllocationService(catalog, registry, md, nil, slog.Default())

	result, err := svc.Allocate(context.Background(), AllocateCommand{
		Strategy:      "global-ai-long-short",
		Broker:        refdomain.BrokerAlpaca,
		TotalCapital:  d("100000"),
		InvestPercent: d("100"),
	})
	require.NoError(t, err)

	// TEP 在 alpaca 无映射，其余九仓全部成单。
	assert.Len(t, result.Orders, 9)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "TEP", result.Warnings[0].Ticker)
	assert.True(t, result.AllocatedCapital.LessThanOrEqual(d("100000")))
}
