// Package consumer 外部价格事件的 Kafka 入口。
package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

// PriceEventHandler 把外部价格事件写入快照缓存，作为又一个价格来源。
type PriceEventHandler struct {
	cache domain.SnapshotCache
	ttl   time.Duration
}

// NewPriceEventHandler 创建价格事件处理器。
func NewPriceEventHandler(cache domain.SnapshotCache, ttl time.Duration) *PriceEventHandler {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &PriceEventHandler{cache: cache, ttl: ttl}
}

// HandleMarketPrice 处理一条价格事件。坏消息记日志后丢弃，不阻塞消费。
func (h *PriceEventHandler) HandleMarketPrice(ctx context.Context, msg kafkago.Message) error {
	var event struct {
		Symbol    string `json:"symbol"`
		Price     string `json:"price"`
		Currency  string `json:"currency"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		slog.Warn("Dropping malformed price event", "error", err)
		return nil
	}

	price, err := decimal.NewFromString(event.Price)
	if err != nil || !price.IsPositive() || event.Symbol == "" {
		slog.Warn("Dropping unusable price event", "symbol", event.Symbol, "price", event.Price)
		return nil
	}
	currency := event.Currency
	if currency == "" {
		currency = "USD"
	}

	snap := &domain.PriceSnapshot{
		Ticker:   event.Symbol,
		Symbol:   event.Symbol,
		Price:    price,
		Currency: currency,
		AsOf:     time.Unix(event.Timestamp, 0),
		Source:   domain.SourceCache,
	}
	return h.cache.Set(ctx, snap, h.ttl)
}
