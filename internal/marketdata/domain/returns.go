package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// SixMonthReturn 按窗口内首尾两个非空收盘价计算区间收益率（百分比）。
// 非空收盘价不足两个时返回 0，不报错。
func SixMonthReturn(closes []decimal.NullDecimal) decimal.Decimal {
	var first, last decimal.Decimal
	count := 0
	for _, c := range closes {
		if !c.Valid {
			continue
		}
		if count == 0 {
			first = c.Decimal
		}
		last = c.Decimal
		count++
	}
	if count < 2 || first.IsZero() {
		return decimal.Zero
	}
	return last.Sub(first).Div(first).Mul(hundred)
}
