// Package domain 订单执行的领域模型。
package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
)

// Status 单笔订单提交的结果状态。
type Status string

const (
	// StatusSubmitted 已提交到真实券商。
	StatusSubmitted Status = "submitted"
	// StatusSimulated 在演示模式下本地模拟成交。
	StatusSimulated Status = "simulated"
	// StatusFailed 提交失败。
	StatusFailed Status = "failed"
)

// OrderRequest 提交给券商的一笔市价单。
type OrderRequest struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Quantity decimal.Decimal `json:"quantity"`
	Notional decimal.Decimal `json:"notional"`
	Currency string          `json:"currency"`
}

// OrderAck 单笔订单的提交回执。
type OrderAck struct {
	OrderID     string          `json:"order_id"`
	Symbol      string          `json:"symbol"`
	Side        string          `json:"side"`
	Quantity    decimal.Decimal `json:"quantity"`
	Status      Status          `json:"status"`
	Message     string          `json:"message,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}

// ExecutionResult 一个批次的执行结果。单笔失败不影响其余订单。
type ExecutionResult struct {
	Broker    string     `json:"broker"`
	Simulated bool       `json:"simulated"`
	Acks      []OrderAck `json:"acks"`
	Submitted int        `json:"submitted"`
	Failed    int        `json:"failed"`
}

// BrokerClient 券商下单通道。
type BrokerClient interface {
	Broker() refdomain.Broker
	SubmitOrder(ctx context.Context, req OrderRequest) (OrderAck, error)
}

// OrdersExecutedEvent 批次执行完成事件
type OrdersExecutedEvent struct {
	Broker    string    `json:"broker"`
	Strategy  string    `json:"strategy"`
	Simulated bool      `json:"simulated"`
	Submitted int       `json:"submitted"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishOrdersExecuted 发布批次执行完成事件
	PublishOrdersExecuted(event OrdersExecutedEvent) error
}
