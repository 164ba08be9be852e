// Package application 资金分配的应用服务：把策略权重换算成可下单的目标订单。
package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/xerrors"

	mddomain "github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
	refdomain "github.com/franksiereveld/rationalmarkets/internal/referencedata/domain"
	"github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
)

// MarketData 分配所需的行情能力。
type MarketData interface {
	Snapshots(ctx context.Context, reqs []mddomain.QuoteRequest) ([]*mddomain.PriceSnapshot, error)
	Rate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// AllocateCommand 一次分配请求。
type AllocateCommand struct {
	Strategy      string           `json:"strategy"`
	Broker        refdomain.Broker `json:"broker"`
	TotalCapital  decimal.Decimal  `json:"total_capital"`
	InvestPercent decimal.Decimal  `json:"allocation_percent"`
}

// fractionalPrecision 支持碎股的券商保留的数量小数位。
const fractionalPrecision = 6

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.RequireFromString("0.5")
)

// AllocationService 资金分配服务。
type AllocationService struct {
	catalog    domain.Store
	registry   refdomain.Registry
	marketData MarketData
	publisher  domain.EventPublisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewAllocationService 构建分配服务。publisher 可为 nil。
func NewAllocationService(
	catalog domain.Store,
	registry refdomain.Registry,
	marketData MarketData,
	publisher domain.EventPublisher,
	logger *slog.Logger,
) *AllocationService {
	return &AllocationService{
		catalog:    catalog,
		registry:   registry,
		marketData: marketData,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// Allocate 把策略权重换算成目标订单。
// 入参校验在任何行情调用之前完成；单个仓位解析失败只会被跳过并告警，
// 不会使整次分配失败。相同输入与相同行情下输出确定。
func (s *AllocationService) Allocate(ctx context.Context, cmd AllocateCommand) (*domain.AllocationResult, error) {
	if !cmd.TotalCapital.IsPositive() {
		return nil, xerrors.InvalidArg("total capital must be positive")
	}
	if cmd.InvestPercent.IsNegative() || cmd.InvestPercent.GreaterThan(hundred) {
		return nil, xerrors.InvalidArg("invest percent must be within [0, 100]")
	}
	if !cmd.Broker.Valid() {
		return nil, xerrors.InvalidArg("unknown broker: " + string(cmd.Broker))
	}

	strat, err := s.catalog.Get(cmd.Strategy)
	if err != nil {
		if errors.Is(err, domain.ErrStrategyNotFound) {
			return nil, xerrors.NotFound("strategy not found: " + cmd.Strategy)
		}
		return nil, err
	}

	result := &domain.AllocationResult{
		Strategy:     strat.Name,
		Broker:       string(cmd.Broker),
		BaseCurrency: strat.BaseCurrency,
		TotalCapital: cmd.TotalCapital,
		Orders:       []domain.Order{},
		Warnings:     []domain.Warning{},
	}

	pool := cmd.TotalCapital.Mul(cmd.InvestPercent).Div(hundred)
	if pool.IsZero() {
		s.publish(result, len(strat.Positions))
		return result, nil
	}
	longPool := pool.Mul(strat.LongShare)
	shortPool := pool.Mul(strat.ShortShare)

	// 先解析符号映射，未映射的仓位在行情抓取前就跳过。
	type resolved struct {
		position domain.TargetPosition
		mapping  refdomain.BrokerSymbolMapping
	}
	resolvedPositions := make([]resolved, 0, len(strat.Positions))
	for _, p := range strat.Positions {
		mapping, err := s.registry.Resolve(p.Ticker, cmd.Broker)
		if err != nil {
			result.Warnings = append(result.Warnings, domain.Warning{
				Ticker: p.Ticker,
				Reason: "no symbol mapping for broker " + string(cmd.Broker),
			})
			continue
		}
		resolvedPositions = append(resolvedPositions, resolved{position: p, mapping: mapping})
	}

	reqs := make([]mddomain.QuoteRequest, len(resolvedPositions))
	for i, rp := range resolvedPositions {
		reqs[i] = mddomain.QuoteRequest{Ticker: rp.position.Ticker, Symbol: rp.mapping.BrokerSymbol}
	}
	snaps, err := s.marketData.Snapshots(ctx, reqs)
	if err != nil {
		return nil, err
	}

	fractional := cmd.Broker.FractionalShares()
	for i, rp := range resolvedPositions {
		snap := snaps[i]
		if snap == nil || !snap.Price.IsPositive() {
			result.Warnings = append(result.Warnings, domain.Warning{
				Ticker: rp.position.Ticker,
				Reason: "no usable price",
			})
			continue
		}
		if snap.Degraded {
			result.Degraded = true
		}

		sidePool := longPool
		side := domain.OrderBuy
		if rp.position.Side == domain.SideShort {
			sidePool = shortPool
			side = domain.OrderSell
		}
		dollarAmount := sidePool.Mul(rp.position.Weight)

		localAmount := dollarAmount
		if snap.Currency != strat.BaseCurrency {
			rate, err := s.marketData.Rate(ctx, strat.BaseCurrency, snap.Currency)
			if err != nil {
				result.Warnings = append(result.Warnings, domain.Warning{
					Ticker: rp.position.Ticker,
					Reason: "no fx rate " + strat.BaseCurrency + "/" + snap.Currency,
				})
				continue
			}
			localAmount = dollarAmount.Mul(rate)
		}

		qty := localAmount.Div(snap.Price)
		if fractional {
			qty = qty.RoundDown(fractionalPrecision)
		} else {
			qty = qty.Floor()
		}
		if !qty.IsPositive() {
			result.Warnings = append(result.Warnings, domain.Warning{
				Ticker: rp.position.Ticker,
				Reason: "allocation below one share",
			})
			continue
		}

		result.Orders = append(result.Orders, domain.Order{
			Ticker:       rp.position.Ticker,
			BrokerSymbol: rp.mapping.BrokerSymbol,
			Side:         side,
			Quantity:     qty,
			Price:        snap.Price,
			DollarAmount: dollarAmount,
			Weight:       rp.position.Weight,
			Currency:     snap.Currency,
			Rationale:    rp.position.Rationale,
			PriceSource:  string(snap.Source),
		})
	}
	result.AllocatedCapital = result.NotionalSum()

	if len(strat.Positions) > 0 {
		droppedRatio := decimal.NewFromInt(int64(len(result.Warnings))).
			Div(decimal.NewFromInt(int64(len(strat.Positions))))
		if droppedRatio.GreaterThan(half) {
			result.Degraded = true
			s.logger.WarnContext(ctx, "allocation dropped majority of positions",
				"strategy", strat.Name,
				"dropped", len(result.Warnings),
				"total", len(strat.Positions))
		}
	}

	s.publish(result, len(strat.Positions))
	return result, nil
}

// publish 事件发布失败不影响分配结果。
func (s *AllocationService) publish(result *domain.AllocationResult, total int) {
	if s.publisher == nil {
		return
	}
	event := domain.AllocationComputedEvent{
		Strategy:     result.Strategy,
		Broker:       result.Broker,
		TotalCapital: result.TotalCapital.String(),
		OrderCount:   len(result.Orders),
		SkippedCount: len(result.Warnings),
		Degraded:     result.Degraded,
		Timestamp:    s.now(),
	}
	if err := s.publisher.PublishAllocationComputed(event); err != nil {
		s.logger.Warn("allocation event publish failed", "strategy", result.Strategy, "error", err)
	}
}
