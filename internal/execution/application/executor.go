// Package application 订单执行的应用服务：真实券商提交与演示模式模拟。
package application

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/wyfcoding/pkg/xerrors"

	"github.com/franksiereveld/rationalmarkets/internal/execution/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
	strategydomain "github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
)

// ConnectionChecker 回答某个券商当前是否已连通。
type ConnectionChecker interface {
	Connected(broker refdomain.Broker) bool
}

// ExecutionService 把分配结果提交到券商，未连通时本地模拟。
type ExecutionService struct {
	clients     map[refdomain.Broker]domain.BrokerClient
	connections ConnectionChecker
	publisher   domain.EventPublisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewExecutionService 构建执行服务。publisher 可为 nil。
func NewExecutionService(
	clients map[refdomain.Broker]domain.BrokerClient,
	connections ConnectionChecker,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *ExecutionService {
	return &ExecutionService{
		clients:     clients,
		connections: connections,
		publisher:   publisher,
		logger:      logger,
		now:         time.Now,
	}
}

// Execute 提交一批目标订单。
// 券商未连通时整批走模拟路径；已连通时逐笔提交，单笔失败只标记该笔。
func (s *ExecutionService) Execute(ctx context.Context, broker refdomain.Broker, strategy string, orders []strategydomain.Order) (*domain.ExecutionResult, error) {
	if !broker.Valid() {
		return nil, xerrors.InvalidArg("unknown broker: " + string(broker))
	}

	result := &domain.ExecutionResult{
		Broker: string(broker),
		Acks:   make([]domain.OrderAck, 0, len(orders)),
	}

	client, hasClient := s.clients[broker]
	live := hasClient && s.connections != nil && s.connections.Connected(broker)
	result.Simulated = !live

	for _, order := range orders {
		req := domain.OrderRequest{
			Symbol:   order.BrokerSymbol,
			Side:     string(order.Side),
			Quantity: order.Quantity,
			Notional: order.DollarAmount,
			Currency: order.Currency,
		}

		var ack domain.OrderAck
		if live {
			submitted, err := client.SubmitOrder(ctx, req)
			if err != nil {
				s.logger.WarnContext(ctx, "order submit failed",
					"broker", broker, "symbol", req.Symbol, "error", err)
				ack = domain.OrderAck{
					Symbol:      req.Symbol,
					Side:        req.Side,
					Quantity:    req.Quantity,
					Status:      domain.StatusFailed,
					Message:     err.Error(),
					SubmittedAt: s.now(),
				}
			} else {
				ack = submitted
			}
		} else {
			ack = s.simulate(req)
		}

		if ack.Status == domain.StatusFailed {
			result.Failed++
		} else {
			result.Submitted++
		}
		result.Acks = append(result.Acks, ack)
	}

	s.publish(result, strategy)
	return result, nil
}

// simulate 生成确定性的演示订单号，同一符号总是得到同一编号。
func (s *ExecutionService) simulate(req domain.OrderRequest) domain.OrderAck {
	h := fnv.New32a()
	h.Write([]byte(req.Symbol))
	return domain.OrderAck{
		OrderID:     fmt.Sprintf("demo-%s-%04d", req.Symbol, h.Sum32()%10000),
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		Status:      domain.StatusSimulated,
		Message:     "demo mode, no broker connection",
		SubmittedAt: s.now(),
	}
}

func (s *ExecutionService) publish(result *domain.ExecutionResult, strategy string) {
	if s.publisher == nil {
		return
	}
	event := domain.OrdersExecutedEvent{
		Broker:    result.Broker,
		Strategy:  strategy,
		Simulated: result.Simulated,
		Submitted: result.Submitted,
		Failed:    result.Failed,
		Timestamp: s.now(),
	}
	if err := s.publisher.PublishOrdersExecuted(event); err != nil {
		s.logger.Warn("execution event publish failed", "broker", result.Broker, "error", err)
	}
}
