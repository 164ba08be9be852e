// Package domain 券商连接管理的领域模型。
package domain

import (
	"context"
	"time"

	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

// Mode 连接运行模式。
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// Credentials 券商凭证。字段按券商不同部分留空。
type Credentials struct {
	APIKey       string `json:"api_key"`
	APISecret    string `json:"api_secret"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Mode         Mode   `json:"mode"`
}

// Configured 凭证是否足以发起真实调用。
func (c Credentials) Configured() bool {
	return (c.APIKey != "" && c.APISecret != "") || (c.ClientID != "" && c.ClientSecret != "")
}

// ConnectionState 单个券商连接的当前状态。
type ConnectionState struct {
	Broker             refdomain.Broker `json:"broker"`
	Connected          bool             `json:"connected"`
	Mode               Mode             `json:"mode"`
	CredentialsPresent bool             `json:"credentials_present"`
	Detail             string           `json:"detail"`
	LastCheckedAt      time.Time        `json:"last_checked_at"`
}

// Prober 探测券商可达性。券商客户端实现该接口。
type Prober interface {
	Broker() refdomain.Broker
	Probe(ctx context.Context, creds Credentials) error
}
