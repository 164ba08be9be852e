// Package messaging 执行事件的 Kafka 发布实现。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/franksiereveld/rationalmarkets/internal/execution/domain"
)

// kafkaPublisher 基于 Kafka 的事件发布者实现
type kafkaPublisher struct {
	producer *kafka.Producer
	timeout  time.Duration
}

// NewKafkaPublisher 创建 Kafka 事件发布者。
func NewKafkaPublisher(producer *kafka.Producer) domain.EventPublisher {
	return &kafkaPublisher{producer: producer, timeout: 5 * time.Second}
}

// PublishOrdersExecuted 发布批次执行完成事件。
func (p *kafkaPublisher) PublishOrdersExecuted(event domain.OrdersExecutedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal execution event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.producer.Publish(ctx, []byte(event.Broker), payload)
}
