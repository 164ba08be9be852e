package provider

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

// StaticRates 演示环境使用的固定汇率表。
// 仅维护相对 USD 的汇率，其余币种对通过 USD 中转换算。
type StaticRates struct {
	perUSD map[string]decimal.Decimal
}

// NewStaticRates 构建固定汇率源。
func NewStaticRates() *StaticRates {
	return &StaticRates{
		perUSD: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.RequireFromString("0.92"),
			"GBP": decimal.RequireFromString("0.79"),
			"CHF": decimal.RequireFromString("0.88"),
		},
	}
}

// Rate 返回 from→to 的汇率，未知币种返回 ErrRateUnavailable。
func (r *StaticRates) Rate(_ context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	fromUSD, ok := r.perUSD[from]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrRateUnavailable, from)
	}
	toUSD, ok := r.perUSD[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrRateUnavailable, to)
	}
	return toUSD.Div(fromUSD), nil
}
