// Package infrastructure 提供符号注册表的静态表实现。
// 新增券商只需要追加映射行，不需要修改任何查询逻辑。
package infrastructure

import (
	"fmt"
	"sort"

	"github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

type mappingKey struct {
	ticker string
	broker domain.Broker
}

// StaticRegistry 基于内存表的符号注册表。加载后不可变。
type StaticRegistry struct {
	instruments []domain.CanonicalInstrument
	mappings    map[mappingKey]domain.BrokerSymbolMapping
	byTicker    map[string][]domain.BrokerSymbolMapping
}

// NewStaticRegistry 从映射行构建注册表，加载时校验 (ticker, broker) 唯一性。
func NewStaticRegistry(instruments []domain.CanonicalInstrument, rows []domain.BrokerSymbolMapping) (*StaticRegistry, error) {
	r := &StaticRegistry{
		instruments: instruments,
		mappings:    make(map[mappingKey]domain.BrokerSymbolMapping, len(rows)),
		byTicker:    make(map[string][]domain.BrokerSymbolMapping),
	}
	for _, row := range rows {
		if !row.Broker.Valid() {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownBroker, row.Broker)
		}
		key := mappingKey{ticker: row.Ticker, broker: row.Broker}
		if _, exists := r.mappings[key]; exists {
			return nil, fmt.Errorf("%w: %s/%s", domain.ErrDuplicateMapping, row.Ticker, row.Broker)
		}
		r.mappings[key] = row
		r.byTicker[row.Ticker] = append(r.byTicker[row.Ticker], row)
	}
	return r, nil
}

// NewDefaultRegistry 构建内置全球 AI 多空策略标的的注册表。
func NewDefaultRegistry() (*StaticRegistry, error) {
	return NewStaticRegistry(defaultInstruments, defaultMappings)
}

func (r *StaticRegistry) Resolve(ticker string, broker domain.Broker) (domain.BrokerSymbolMapping, error) {
	if !broker.Valid() {
		return domain.BrokerSymbolMapping{}, fmt.Errorf("%w: %s", domain.ErrUnknownBroker, broker)
	}
	m, ok := r.mappings[mappingKey{ticker: ticker, broker: broker}]
	if !ok {
		return domain.BrokerSymbolMapping{}, fmt.Errorf("%w: %s/%s", domain.ErrUnmappedInstrument, ticker, broker)
	}
	return m, nil
}

func (r *StaticRegistry) Mappings(ticker string) []domain.BrokerSymbolMapping {
	rows := r.byTicker[ticker]
	out := make([]domain.BrokerSymbolMapping, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Broker < out[j].Broker })
	return out
}

func (r *StaticRegistry) Instruments() []domain.CanonicalInstrument {
	out := make([]domain.CanonicalInstrument, len(r.instruments))
	copy(out, r.instruments)
	return out
}

// 内置标的表。美股在两家券商使用同一符号；欧股在 Swissquote 使用本地上市符号。
var defaultInstruments = []domain.CanonicalInstrument{
	{Ticker: "NVDA", DisplayName: "NVIDIA Corporation"},
	{Ticker: "MSFT", DisplayName: "Microsoft Corporation"},
	{Ticker: "ASML", DisplayName: "ASML Holding NV"},
	{Ticker: "GOOGL", DisplayName: "Alphabet Inc."},
	{Ticker: "TSM", DisplayName: "Taiwan Semiconductor Manufacturing"},
	{Ticker: "TEP", DisplayName: "Teleperformance SE"},
	{Ticker: "HRB", DisplayName: "H&R Block Inc."},
	{Ticker: "NWSA", DisplayName: "News Corporation"},
	{Ticker: "WPP", DisplayName: "WPP plc"},
	{Ticker: "UBER", DisplayName: "Uber Technologies Inc."},
}

var defaultMappings = []domain.BrokerSymbolMapping{
	{Ticker: "NVDA", Broker: domain.BrokerAlpaca, BrokerSymbol: "NVDA", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "NVDA", Broker: domain.BrokerSwissquote, BrokerSymbol: "NVDA", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "MSFT", Broker: domain.BrokerAlpaca, BrokerSymbol: "MSFT", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "MSFT", Broker: domain.BrokerSwissquote, BrokerSymbol: "MSFT", Currency: "USD", Venue: "NASDAQ"},
	// ASML 在 Alpaca 走美股 ADR，在 Swissquote 走阿姆斯特丹上市。
	{Ticker: "ASML", Broker: domain.BrokerAlpaca, BrokerSymbol: "ASML", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "ASML", Broker: domain.BrokerSwissquote, BrokerSymbol: "ASML.AS", Currency: "EUR", Venue: "AMS"},
	{Ticker: "GOOGL", Broker: domain.BrokerAlpaca, BrokerSymbol: "GOOGL", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "GOOGL", Broker: domain.BrokerSwissquote, BrokerSymbol: "GOOGL", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "TSM", Broker: domain.BrokerAlpaca, BrokerSymbol: "TSM", Currency: "USD", Venue: "NYSE"},
	{Ticker: "TSM", Broker: domain.BrokerSwissquote, BrokerSymbol: "TSM", Currency: "USD", Venue: "NYSE"},
	// Teleperformance 没有美股 ADR 映射，Alpaca 渠道下应解析失败。
	{Ticker: "TEP", Broker: domain.BrokerSwissquote, BrokerSymbol: "TEP.PA", Currency: "EUR", Venue: "PAR"},
	{Ticker: "HRB", Broker: domain.BrokerAlpaca, BrokerSymbol: "HRB", Currency: "USD", Venue: "NYSE"},
	{Ticker: "HRB", Broker: domain.BrokerSwissquote, BrokerSymbol: "HRB", Currency: "USD", Venue: "NYSE"},
	{Ticker: "NWSA", Broker: domain.BrokerAlpaca, BrokerSymbol: "NWSA", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "NWSA", Broker: domain.BrokerSwissquote, BrokerSymbol: "NWSA", Currency: "USD", Venue: "NASDAQ"},
	{Ticker: "WPP", Broker: domain.BrokerAlpaca, BrokerSymbol: "WPP", Currency: "USD", Venue: "NYSE"},
	{Ticker: "WPP", Broker: domain.BrokerSwissquote, BrokerSymbol: "WPP.L", Currency: "GBP", Venue: "LSE"},
	{Ticker: "UBER", Broker: domain.BrokerAlpaca, BrokerSymbol: "UBER", Currency: "USD", Venue: "NYSE"},
	{Ticker: "UBER", Broker: domain.BrokerSwissquote, BrokerSymbol: "UBER", Currency: "USD", Venue: "NYSE"},
}
