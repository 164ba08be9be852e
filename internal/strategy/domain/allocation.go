package domain

import (
	"github.com/shopspring/decimal"
)

// OrderSide 订单买卖方向。多头开仓为 buy，空头开仓为 sell。
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// Order 分配产生的一条目标订单。
type Order struct {
	Ticker       string          `json:"ticker"`
	BrokerSymbol string          `json:"broker_symbol"`
	Side         OrderSide       `json:"side"`
	Quantity     decimal.Decimal `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	DollarAmount decimal.Decimal `json:"dollar_amount"`
	Weight       decimal.Decimal `json:"weight"`
	Currency     string          `json:"currency"`
	Rationale    string          `json:"rationale,omitempty"`
	PriceSource  string          `json:"price_source"`
}

// Warning 某个仓位被跳过的原因。
type Warning struct {
	Ticker string `json:"ticker"`
	Reason string `json:"reason"`
}

// AllocationResult 一次分配的完整输出。
// Orders 的顺序与策略定义的仓位顺序一致，结果可复算。
type AllocationResult struct {
	Strategy         string          `json:"strategy"`
	Broker           string          `json:"broker"`
	BaseCurrency     string          `json:"base_currency"`
	TotalCapital     decimal.Decimal `json:"total_capital"`
	AllocatedCapital decimal.Decimal `json:"allocated_capital"`
	Orders           []Order         `json:"orders"`
	Warnings         []Warning       `json:"warnings"`
	Degraded         bool            `json:"degraded"`
}

// NotionalSum 返回所有订单的名义金额合计（基准货币）。
func (r *AllocationResult) NotionalSum() decimal.Decimal {
	sum := decimal.Zero
	for _, o := range r.Orders {
		sum = sum.Add(o.DollarAmount)
	}
	return sum
}
