// Package infrastructure 策略目录与事件发布的基础设施实现。
package infrastructure

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
)

func w(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// GlobalAILongShort 内置的全球 AI 多空策略：六成资金做多 AI 供应链，
// 四成资金做空受 AI 冲击的传统业务。
func GlobalAILongShort() *domain.StrategyVersion {
	return &domain.StrategyVersion{
		Name:         "global-ai-long-short",
		Version:      "2024.1",
		Description:  "Long AI infrastructure leaders, short AI-disrupted incumbents",
		BaseCurrency: "USD",
		LongShare:    w("0.60"),
		ShortShare:   w("0.40"),
		Positions: []domain.TargetPosition{
			{Ticker: "NVDA", Side: domain.SideLong, Weight: w("0.25"), Confidence: w("0.9"), Rationale: "AI compute monopoly"},
			{Ticker: "MSFT", Side: domain.SideLong, Weight: w("0.20"), Confidence: w("0.85"), Rationale: "Azure AI platform"},
			{Ticker: "ASML", Side: domain.SideLong, Weight: w("0.20"), Confidence: w("0.85"), Rationale: "Lithography chokepoint"},
			{Ticker: "GOOGL", Side: domain.SideLong, Weight: w("0.15"), Confidence: w("0.8"), Rationale: "Search plus frontier models"},
			{Ticker: "TSM", Side: domain.SideLong, Weight: w("0.20"), Confidence: w("0.85"), Rationale: "Advanced node fabrication"},
			{Ticker: "TEP", Side: domain.SideShort, Weight: w("0.25"), Confidence: w("0.7"), Rationale: "Customer-experience outsourcing displaced by AI agents"},
			{Ticker: "HRB", Side: domain.SideShort, Weight: w("0.20"), Confidence: w("0.65"), Rationale: "Tax preparation automated away"},
			{Ticker: "NWSA", Side: domain.SideShort, Weight: w("0.20"), Confidence: w("0.6"), Rationale: "Publishing economics eroded by generative search"},
			{Ticker: "WPP", Side: domain.SideShort, Weight: w("0.20"), Confidence: w("0.65"), Rationale: "Creative agency work commoditized"},
			{Ticker: "UBER", Side: domain.SideShort, Weight: w("0.15"), Confidence: w("0.55"), Rationale: "Autonomy compresses ride margins"},
		},
	}
}

// Catalog 内存中的策略目录，启动时加载并校验内置策略。
type Catalog struct {
	mu         sync.RWMutex
	strategies map[string]*domain.StrategyVersion
}

// NewCatalog 创建策略目录并注册内置策略。
func NewCatalog() (*Catalog, error) {
	c := &Catalog{strategies: make(map[string]*domain.StrategyVersion)}
	if err := c.Register(GlobalAILongShort()); err != nil {
		return nil, err
	}
	return c, nil
}

// Register 注册一个策略，注册前执行一致性校验。
func (c *Catalog) Register(s *domain.StrategyVersion) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("strategy %s invalid: %w", s.Name, err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategies[s.Name] = s
	return nil
}

// Get 按名称取策略。
func (c *Catalog) Get(name string) (*domain.StrategyVersion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStrategyNotFound, name)
	}
	return s, nil
}

// List 返回全部策略，按名称排序。
func (c *Catalog) List() []*domain.StrategyVersion {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*domain.StrategyVersion, 0, len(c.strategies))
	for _, s := range c.strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
