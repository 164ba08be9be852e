// Package messaging 策略事件的 Kafka 发布实现。
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wyfcoding/pkg/messagequeue/kafka"

	"github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
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

// PublishAllocationComputed 发布分配计算完成事件。
func (p *kafkaPublisher) PublishAllocationComputed(event domain.AllocationComputedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal allocation event: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	return p.producer.Publish(ctx, []byte(event.Strategy), payload)
}
