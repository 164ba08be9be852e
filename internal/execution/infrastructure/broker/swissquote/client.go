// Package swissquote Swissquote 券商通道。OAuth2 客户端凭证授权，访问令牌进程内缓存。
package swissquote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/wyfcoding/pkg/httpclient"

	conndomain "github.com/franksiereveld/rationalmarkets/internal/connectivity/domain"
	"github.com/franksiereveld/rationalmarkets/internal/execution/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

const (
	defaultTokenURL = "https://bankingapi.swissquote.ch/oauth2/token"
	defaultAPIURL   = "https://bankingapi.swissquote.ch/trading/v1"
)

// Client Swissquote REST 客户端。
type Client struct {
	http     *httpclient.Client
	creds    conndomain.Credentials
	tokenURL string
	apiURL   string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient 构建 Swissquote 客户端。
func NewClient(http *httpclient.Client, creds conndomain.Credentials) *Client {
	return &Client{
		http:     http,
		creds:    creds,
		tokenURL: defaultTokenURL,
		apiURL:   defaultAPIURL,
	}
}

// Broker 返回券商标识。
func (c *Client) Broker() refdomain.Broker { return refdomain.BrokerSwissquote }

// Probe 先换取访问令牌，再用账户接口确认可达。
func (c *Client) Probe(ctx context.Context, creds conndomain.Credentials) error {
	if !creds.Configured() {
		return fmt.Errorf("swissquote credentials not configured")
	}
	token, err := c.token(ctx, creds)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/accounts", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("swissquote account probe: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("swissquote account probe status %d", resp.StatusCode)
	}
	return nil
}

type orderPayload struct {
	Instrument string `json:"instrument"`
	Side       string `json:"side"`
	Quantity   string `json:"quantity"`
	OrderType  string `json:"orderType"`
}

type orderResponse struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// SubmitOrder 提交一笔市价单。
func (c *Client) SubmitOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderAck, error) {
	token, err := c.token(ctx, c.creds)
	if err != nil {
		return domain.OrderAck{}, err
	}

	payload := orderPayload{
		Instrument: req.Symbol,
		Side:       strings.ToUpper(req.Side),
		Quantity:   req.Quantity.String(),
		OrderType:  "MARKET",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("marshal swissquote order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return domain.OrderAck{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(ctx, httpReq)
	if err != nil {
		return domain.OrderAck{}, fmt.Errorf("call swissquote: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return domain.OrderAck{}, fmt.Errorf("swissquote order status %d: %s", resp.StatusCode, raw)
	}

	var out orderResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.OrderAck{}, fmt.Errorf("decode swissquote order: %w", err)
	}
	return domain.OrderAck{
		OrderID:     out.OrderID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Status:      domain.StatusSubmitted,
		SubmittedAt: time.Now(),
	}, nil
}

// token 返回有效的访问令牌，过期前 30 秒开始换新。
func (c *Client) token(ctx context.Context, creds conndomain.Credentials) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.accessToken, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {creds.ClientID},
		"client_secret": {creds.ClientSecret},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("swissquote token exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("swissquote token status %d", resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode swissquote token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("swissquote token response missing access_token")
	}
	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
