package domain

import "time"

// AllocationComputedEvent 分配计算完成事件
type AllocationComputedEvent struct {
	Strategy     string    `json:"strategy"`
	Broker       string    `json:"broker"`
	TotalCapital string    `json:"total_capital"`
	OrderCount   int       `json:"order_count"`
	SkippedCount int       `json:"skipped_count"`
	Degraded     bool      `json:"degraded"`
	Timestamp    time.Time `json:"timestamp"`
}

// EventPublisher 事件发布者接口
type EventPublisher interface {
	// PublishAllocationComputed 发布分配计算完成事件
	PublishAllocationComputed(event AllocationComputedEvent) error
}

// Store 策略目录的读接口。
type Store interface {
	Get(name string) (*StrategyVersion, error)
	List() []*StrategyVersion
}
