// Package domain 市场数据上下文的领域模型：价格快照、数据源层级、提供方契约。
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SnapshotSource 快照的数据来源层级。
type SnapshotSource string

const (
	// SourceFMP Financial Modeling Prep，计量付费层。
	SourceFMP SnapshotSource = "fmp"
	// SourceYahoo Yahoo Finance 公共接口，免费层。
	SourceYahoo SnapshotSource = "yahoo"
	// SourceCache 缓存命中，未发起网络调用。
	SourceCache SnapshotSource = "cache"
	// SourceSynthetic 全部真实数据源耗尽后的确定性兜底数据。
	SourceSynthetic SnapshotSource = "synthetic"
)

// Fundamentals 基本面指标，估值倍数允许缺失。
type Fundamentals struct {
	PE               decimal.NullDecimal `json:"pe"`
	PS               decimal.NullDecimal `json:"ps"`
	PB               decimal.NullDecimal `json:"pb"`
	EVEbitda         decimal.NullDecimal `json:"ev_ebitda"`
	MarketCap        decimal.Decimal     `json:"market_cap"`
	FiftyTwoWeekHigh decimal.NullDecimal `json:"fifty_two_week_high"`
	FiftyTwoWeekLow  decimal.NullDecimal `json:"fifty_two_week_low"`
	Volume           int64               `json:"volume"`
}

// PriceSnapshot 某一标的在某一时刻的价格与基本面快照。
// 快照由缓存条目持有，调用方拿到的永远是副本。
type PriceSnapshot struct {
	// Ticker 规范代码。
	Ticker string `json:"ticker"`
	// Symbol 实际查询行情时使用的券商/场所符号。
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	AsOf     time.Time       `json:"as_of"`
	Source   SnapshotSource  `json:"source"`
	// Degraded 为真表示该快照来自兜底数据，下游应展示演示模式标识。
	Degraded     bool          `json:"degraded"`
	Fundamentals *Fundamentals `json:"fundamentals,omitempty"`
}

// Clone 返回深拷贝，保证缓存内的快照不会被并发请求修改。
func (s *PriceSnapshot) Clone() *PriceSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.Fundamentals != nil {
		f := *s.Fundamentals
		out.Fundamentals = &f
	}
	return &out
}

// Complete 校验快照结构完整：存在正的最新价。
func (s *PriceSnapshot) Complete() bool {
	return s != nil && s.Price.IsPositive()
}

// QuoteRequest 批量取价时描述单个标的。
type QuoteRequest struct {
	Ticker string
	Symbol string
}
