package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/httpclient"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider 接入 Yahoo Finance 的 chart 接口，无需凭证。
// 匿名调用频率有限，触发限流后进入冷却由上层处理。
type YahooProvider struct {
	client  *httpclient.Client
	baseURL string
}

// NewYahooProvider 构建 Yahoo 数据源。
func NewYahooProvider(client *httpclient.Client) *YahooProvider {
	return &YahooProvider{client: client, baseURL: yahooBaseURL}
}

// Name 返回数据源标识。
func (p *YahooProvider) Name() domain.SnapshotSource { return domain.SourceYahoo }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice decimal.Decimal `json:"regularMarketPrice"`
				Currency           string          `json:"currency"`
			} `json:"meta"`
			Indicators struct {
				Quote []struct {
					Close []decimal.NullDecimal `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Quote 取最近一个交易日的常规行情价格。
func (p *YahooProvider) Quote(ctx context.Context, symbol string) (*domain.PriceSnapshot, error) {
	chart, err := p.fetchChart(ctx, symbol, "1d")
	if err != nil {
		return nil, err
	}
	meta := chart.Chart.Result[0].Meta
	currency := meta.Currency
	if currency == "" {
		currency = "USD"
	}
	return &domain.PriceSnapshot{
		Symbol:   symbol,
		Price:    meta.RegularMarketPrice,
		Currency: currency,
		AsOf:     time.Now(),
		Source:   domain.SourceYahoo,
	}, nil
}

// DailyCloses 取最近六个月的日线收盘序列，停牌日保留为空值。
func (p *YahooProvider) DailyCloses(ctx context.Context, symbol string, days int) ([]decimal.NullDecimal, error) {
	chart, err := p.fetchChart(ctx, symbol, "6mo")
	if err != nil {
		return nil, err
	}
	quotes := chart.Chart.Result[0].Indicators.Quote
	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no close series for %s", domain.ErrPriceUnavailable, symbol)
	}
	closes := quotes[0].Close
	if len(closes) > days {
		closes = closes[len(closes)-days:]
	}
	return closes, nil
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, window string) (*yahooChart, error) {
	endpoint := fmt.Sprintf("%s/%s?range=%s&interval=1d", p.baseURL, symbol, window)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build yahoo request: %w", err)
	}
	// Yahoo 对缺省 UA 的请求直接拒绝。
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; rationalmarkets/1.0)")

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("call yahoo: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		return nil, domain.ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("yahoo status %d for %s", resp.StatusCode, symbol)
	}

	var chart yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode yahoo payload: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error %s: %s", chart.Chart.Error.Code, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: empty chart for %s", domain.ErrPriceUnavailable, symbol)
	}
	return &chart, nil
}
