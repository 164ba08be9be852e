// Package provider 各行情数据源的接入实现。
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/httpclient"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

const fmpBaseURL = "https://financialmodelingprep.com/stable"

// FMPProvider 接入 Financial Modeling Prep 的稳定版接口。
// 该接口需要 API key，额度耗尽时返回 429。
type FMPProvider struct {
	client  *httpclient.Client
	apiKey  string
	baseURL string
}

// NewFMPProvider 构建 FMP 数据源。
func NewFMPProvider(client *httpclient.Client, apiKey string) *FMPProvider {
	return &FMPProvider{client: client, apiKey: apiKey, baseURL: fmpBaseURL}
}

// Name 返回数据源标识。
func (p *FMPProvider) Name() domain.SnapshotSource { return domain.SourceFMP }

type fmpQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	MarketCap decimal.Decimal `json:"marketCap"`
	Volume    int64           `json:"volume"`
}

type fmpRatios struct {
	PriceToEarningsRatio decimal.NullDecimal `json:"priceToEarningsRatioTTM"`
	PriceToSalesRatio    decimal.NullDecimal `json:"priceToSalesRatioTTM"`
	PriceToBookRatio     decimal.NullDecimal `json:"priceToBookRatioTTM"`
	EVToEBITDA           decimal.NullDecimal `json:"enterpriseValueMultipleTTM"`
}

// Quote 拉取报价与估值指标。估值指标拉取失败不算错误，快照仍然可用。
func (p *FMPProvider) Quote(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	var quotes []fmpQuote
	if err := p.getJSON(ctx, "/quote", url.Values{"symbol": {symbol}}, &quotes); err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: empty quote for %s", domain.ErrPriceUnavailable, symbol)
	}
	q := quotes[0]

	snap := &domain.PriceSnapshot{
		Symbol:   symbol,
		Price:    q.Price,
		Currency: "USD",
		AsOf:     time.Now(),
		Source:   domain.SourceFMP,
		Fundamentals: &domain.Fundamentals{
			MarketCap: q.MarketCap,
			Volume:    q.Volume,
		},
	}

	var ratios []fmpRatios
	if err := p.getJSON(ctx, "/ratios-ttm", url.Values{"symbol": {symbol}}, &ratios); err == nil && len(ratios) > 0 {
		r := ratios[0]
		snap.Fundamentals.PE = r.PriceToEarningsRatio
		snap.Fundamentals.PS = r.PriceToSalesRatio
		snap.Fundamentals.PB = r.PriceToBookRatio
		snap.Fundamentals.EVEbitda = r.EVToEBITDA
	}
	return snap, nil
}

type fmpHistorical struct {
	Date  string              `json:"date"`
	Close decimal.NullDecimal `json:"close"`
}

// DailyCloses 拉取最近 days 个交易日的收盘价，按时间升序返回。
func (p *FMPProvider) DailyCloses(ctx context.Context, symbol string, days int) ([]decimal.NullDecimal, error) {
	var rows []fmpHistorical
	query := url.Values{"symbol": {symbol}}
	if err := p.getJSON(ctx, "/historical-price-eod/light", query, &rows); err != nil {
		return nil, err
	}
	// 接口按时间倒序返回。
	if len(rows) > days {
		rows = rows[:days]
	}
	closes := make([]decimal.NullDecimal, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		closes = append(closes, rows[i].Close)
	}
	return closes, nil
}

func (p *FMPProvider) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	query.Set("apikey", p.apiKey)
	endpoint := p.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build fmp request: %w", err)
	}
	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("call fmp: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return domain.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("fmp status %d for %s", resp.StatusCode, path)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode fmp payload: %w", err)
	}
	return nil
}
