package provider

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

// referencePrices 演示环境的基准价格表，覆盖内置策略涉及的全部符号。
var referencePrices = map[string]string{
	"NVDA":    "875.50",
	"MSFT":    "415.25",
	"GOOGL":   "142.80",
	"TSM":     "105.30",
	"ASML":    "950.80",
	"ASML.AS": "650.80",
	"TEP":     "285.40",
	"TEP.PA":  "285.40",
	"HRB":     "45.20",
	"NWSA":    "26.75",
	"WPP":     "45.60",
	"WPP.L":   "8.50",
	"UBER":    "62.40",
}

const defaultReferencePrice = "100.0"

// SyntheticProvider 在所有真实数据源不可用时提供基准价格，永不失败。
type SyntheticProvider struct {
	now func() time.Time
}

// NewSyntheticProvider 构建兜底数据源。
func NewSyntheticProvider() *SyntheticProvider {
	return &SyntheticProvider{now: time.Now}
}

// Name 返回数据源标识。
func (p *SyntheticProvider) Name() domain.SnapshotSource { return domain.SourceSynthetic }

// Quote 返回符号的基准价格快照。
func (p *SyntheticProvider) Quote(_ context.Context, symbol string) (*domain.PriceSnapshot, error) {
	raw, ok := referencePrices[strings.ToUpper(symbol)]
	if !ok {
		raw = defaultReferencePrice
	}
	price, _ := decimal.NewFromString(raw)
	currency := "USD"
	switch {
	case strings.HasSuffix(symbol, ".AS"), strings.HasSuffix(symbol, ".PA"):
		currency = "EUR"
	case strings.HasSuffix(symbol, ".L"):
		currency = "GBP"
	}
	return &domain.PriceSnapshot{
		Symbol:   symbol,
		Price:    price,
		Currency: currency,
		AsOf:     p.now(),
		Source:   domain.SourceSynthetic,
		Degraded: true,
	}, nil
}

// DailyCloses 兜底数据源没有历史序列。
func (p *SyntheticProvider) DailyCloses(context.Context, string, int) ([]decimal.NullDecimal, error) {
	return nil, domain.ErrPriceUnavailable
}
