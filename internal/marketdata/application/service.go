package application

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

// SnapshotDTO 快照的对外表示。
type SnapshotDTO struct {
	Ticker      string `json:"ticker"`
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	Currency    string `json:"currency"`
	AsOf        string `json:"as_of"`
	Source      string `json:"source"`
	Degraded    bool   `json:"degraded"`
	MarketCap   string `json:"market_cap,omitempty"`
	PERatio     string `json:"pe_ratio,omitempty"`
	PSRatio     string `json:"ps_ratio,omitempty"`
	SixMonthRet string `json:"six_month_return,omitempty"`
}

// MarketDataService 对外的行情查询服务。
type MarketDataService struct {
	fetcher  *Fetcher
	registry refdomain.Registry
	history  domain.SnapshotHistoryRepository
}

// NewMarketDataService 构建行情查询服务。
func NewMarketDataService(fetcher *Fetcher, registry refdomain.Registry, history domain.SnapshotHistoryRepository) *MarketDataService {
	return &MarketDataService{fetcher: fetcher, registry: registry, history: history}
}

// Price 查询单个标的的当前价格快照。
func (s *MarketDataService) Price(ctx context.Context, ticker string, broker refdomain.Broker) (*SnapshotDTO, error) {
	symbol := ticker
	if broker != "" {
		mapping, err := s.registry.Resolve(ticker, broker)
		if err != nil {
			return nil, err
		}
		symbol = mapping.BrokerSymbol
	}

	snap, err := s.fetcher.Snapshot(ctx, domain.QuoteRequest{Ticker: ticker, Symbol: symbol})
	if err != nil {
		return nil, err
	}
	dto := toSnapshotDTO(snap)
	return &dto, nil
}

// Return 查询标的最近六个月的区间收益率。
func (s *MarketDataService) Return(ctx context.Context, ticker string) (string, error) {
	ret, err := s.fetcher.SixMonthReturn(ctx, ticker)
	if err != nil {
		return "", err
	}
	return ret.StringFixed(2), nil
}

// History 查询标的最近的快照落库记录。
func (s *MarketDataService) History(ctx context.Context, ticker string, limit int) ([]SnapshotDTO, error) {
	if s.history == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	snaps, err := s.history.History(ctx, ticker, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SnapshotDTO, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toSnapshotDTO(snap))
	}
	return out, nil
}

func toSnapshotDTO(snap *domain.PriceSnapshot) SnapshotDTO {
	dto := SnapshotDTO{
		Ticker:   snap.Ticker,
		Symbol:   snap.Symbol,
		Price:    snap.Price.String(),
		Currency: snap.Currency,
		AsOf:     snap.AsOf.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Source:   string(snap.Source),
		Degraded: snap.Degraded,
	}
	if f := snap.Fundamentals; f != nil {
		if f.MarketCap.IsPositive() {
			dto.MarketCap = FormatMarketCap(f.MarketCap)
		}
		if f.PE.Valid {
			dto.PERatio = f.PE.Decimal.StringFixed(2)
		}
		if f.PS.Valid {
			dto.PSRatio = f.PS.Decimal.StringFixed(2)
		}
	}
	return dto
}

var (
	trillion = decimal.New(1, 12)
	billion  = decimal.New(1, 9)
	million  = decimal.New(1, 6)
)

// FormatMarketCap 把市值格式化成 $1.23T 这类便于阅读的字符串。
func FormatMarketCap(v decimal.Decimal) string {
	switch {
	case v.GreaterThanOrEqual(trillion):
		return "$" + v.Div(trillion).StringFixed(2) + "T"
	case v.GreaterThanOrEqual(billion):
		return "$" + v.Div(billion).StringFixed(2) + "B"
	case v.GreaterThanOrEqual(million):
		return "$" + v.Div(million).StringFixed(2) + "M"
	default:
		return "$" + v.StringFixed(0)
	}
}
