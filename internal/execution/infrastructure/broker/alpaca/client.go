// Package alpaca Alpaca 券商通道。paper 与 live 走不同域名，鉴权用静态 API key。
package alpaca

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wyfcoding/pkg/httpclient"

	conndomain "github.com/franksiereveld/rationalmarkets/internal/connectivity/domain"
	"github.com/franksiereveld/rationalmarkets/internal/execution/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

const (
	paperBaseURL = "https://paper-api.alpaca.markets"
	liveBaseURL  = "https://api.alpaca.markets"
)

// Client Alpaca REST 客户端。
type Client struct {
	http    *httpclient.Client
	creds   conndomain.Credentials
	baseURL string
}

// NewClient 构建 Alpaca 客户端。
func NewClient(http *httpclient.Client, creds conndomain.Credentials) *Client {
	base := paperBaseURL
	if creds.Mode == conndomain.ModeLive {
		base = liveBaseURL
	}
	return &Client{http: http, creds: creds, baseURL: base}
}

// Broker 返回券商标识。
func (c *Client) Broker() refdomain.Broker { return refdomain.BrokerAlpaca }

// Probe 通过账户接口确认凭证有效。
func (c *Client) Probe(ctx context.Context, creds conndomain.Credentials) error {
	if !creds.Configured() {
		return fmt.Errorf("alpaca credentials not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/account", nil)
	if err != nil {
		return err
	}
	c.authorize(req, creds)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("alpaca account probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("alpaca account probe status %d", resp.StatusCode)
	}
	return nil
}

type orderPayload struct {
	Symbol      string `json:"symbol"`
	Qty         string `json:"qty"`
	Side        string `json:"side"`
	Type        string `json:"type"`
	TimeInForce string `json:"time_in_force"`
}

type orderResponse struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// SubmitOrder 提交一笔市价单。
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	payload := orderPayload{
		Symbol:      req.Symbol,
		Qty:         req.Quantity.String(),
		Side:        req.Side,
		Type:        "market",
		TimeInForce: "day",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("marshal alpaca order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/orders", bytes.NewReader(body))
	if err != nil {
		return domain.OrderAck{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.authorize(httpReq, c.creds)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("call alpaca: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.OrderAck{}, fmt.Errorf("alpaca order status %d: %s", resp.StatusCode, raw)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.OrderAck{}, fmt.Errorf("decode alpaca order: %w", err)
	}
	return domain.OrderAck{
		OrderID:     out.ID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Status:      domain.StatusSubmitted,
		SubmittedAt: out.SubmittedAt,
	}, nil
}

func (c *Client) authorize(req *http.Request, creds conndomain.Credentials) {
	req.Header.Set("APCA-API-KEY-ID", creds.APIKey)
	req.Header.Set("APCA-API-SECRET-KEY", creds.APISecret)
}
