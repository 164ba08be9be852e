// Package domain 参考数据上下文的领域模型：规范代码、券商符号映射。
package domain

import "errors"

// Broker 标识一个支持的券商渠道。
type Broker string

const (
	// BrokerAlpaca 美国券商，支持碎股。
	BrokerAlpaca Broker = "alpaca"
	// BrokerSwissquote 欧洲券商，整股交易。
	BrokerSwissquote Broker = "swissquote"
)

// Valid 判断券商标识是否受支持。
func (b Broker) Valid() bool {
	switch b {
	case BrokerAlpaca, BrokerSwissquote:
		return true
	default:
		return false
	}
}

// FractionalShares 返回该券商是否接受碎股数量（最多 6 位小数）。
func (b Broker) FractionalShares() bool {
	return b == BrokerAlpaca
}

// CanonicalInstrument 策略内部使用的规范标的，键为 Ticker。
type CanonicalInstrument struct {
	Ticker      string `json:"ticker"`
	DisplayName string `json:"display_name"`
}

// BrokerSymbolMapping 规范代码到券商符号的映射。
// 每个 (ticker, broker) 组合有且只有一行；进程启动后不再变更。
type BrokerSymbolMapping struct {
	Ticker       string `json:"ticker"`
	Broker       Broker `json:"broker"`
	BrokerSymbol string `json:"broker_symbol"`
	// Currency 结算货币，ISO 4217。
	Currency string `json:"currency"`
	// Venue 上市交易所代码。
	Venue string `json:"venue"`
}

var (
	// ErrUnmappedInstrument 规范代码在目标券商下没有映射。
	ErrUnmappedInstrument = errors.New("instrument has no mapping for broker")
	// ErrDuplicateMapping 同一 (ticker, broker) 出现多行。
	ErrDuplicateMapping = errors.New("duplicate mapping for (ticker, broker)")
	// ErrUnknownBroker 不支持的券商标识。
	ErrUnknownBroker = errors.New("unknown broker")
)

// Registry 符号注册表接口。加载后只读，纯查询，无 I/O。
type Registry interface {
	// Resolve 返回 (ticker, broker) 对应的映射，缺失时返回 ErrUnmappedInstrument。
	Resolve(ticker string, broker Broker) (BrokerSymbolMapping, error)
	// Mappings 返回某个规范代码在所有券商下的映射。
	Mappings(ticker string) []BrokerSymbolMapping
	// Instruments 返回全部规范标的。
	Instruments() []CanonicalInstrument
}
