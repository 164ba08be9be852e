package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrRateLimited 提供方返回限流信号，调用方应进入冷却而不是重试。
	ErrRateLimited = errors.New("provider rate limited")
	// ErrPriceUnavailable 提供方返回了结构不完整的行情（无最新价）。
	ErrPriceUnavailable = errors.New("price unavailable")
	// ErrRateUnavailable 汇率源无法给出所需货币对。
	ErrRateUnavailable = errors.New("fx rate unavailable")
)

// QuoteProvider 外部行情数据源。按优先级顺序被依次尝试。
type QuoteProvider interface {
	Name() SnapshotSource
	// Quote 返回符号的当前快照。限流时返回包装了 ErrRateLimited 的错误。
	Quote(ctx context.Context, symbol string) (*PriceSnapshot, error)
	// DailyCloses 返回最近 days 个交易日的收盘价，缺数据的交易日为 null。
	DailyCloses(ctx context.Context, symbol string, days int) ([]decimal.NullDecimal, error)
}

// RateSource 汇率源。
type RateSource interface {
	// Rate 返回 1 单位 from 货币兑 to 货币的汇率。
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// SnapshotCache 快照缓存。键为查询符号，过期由实现负责，读写并发安全。
type SnapshotCache interface {
	// Get 未命中或已过期时返回 (nil, nil)。
	Get(ctx context.Context, symbol string) (*PriceSnapshot, error)
	Set(ctx context.Context, snapshot *PriceSnapshot, ttl time.Duration) error
}

// SnapshotHistoryRepository 成功抓取的快照落库，供历史查询。
type SnapshotHistoryRepository interface {
	Save(ctx context.Context, snapshot *PriceSnapshot) error
	History(ctx context.Context, ticker string, limit int) ([]*PriceSnapshot, error)
}
