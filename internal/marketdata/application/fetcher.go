// Package application 市场数据抓取的应用服务：分级数据源、缓存、限流冷却与兜底降级。
package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/franksiereveld/rationalmarkets/internal/marketdata/domain"
	"github.com/shopspring/decimal"
)

// FetcherConfig 抓取器的运行参数。
type FetcherConfig struct {
	// PriceTTL 价格快照缓存时长。
	PriceTTL time.Duration
	// CallTimeout 单次提供方调用的超时。
	CallTimeout time.Duration
	// MaxConcurrent 批量抓取的并发上限。
	MaxConcurrent int
	// CooldownBase 限流冷却起始时长，连续限流按指数增长。
	CooldownBase time.Duration
	// CooldownMax 冷却时长上限。
	CooldownMax time.Duration
}

// DefaultFetcherConfig 返回默认参数。
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		PriceTTL:      2 * time.Minute,
		CallTimeout:   5 * time.Second,
		MaxConcurrent: 4,
		CooldownBase:  30 * time.Second,
		CooldownMax:   15 * time.Minute,
	}
}

type cooldown struct {
	until   time.Time
	backoff time.Duration
}

// Fetcher 按固定优先级遍历行情提供方，带缓存与限流冷却。
// 缓存与冷却表是仅有的跨请求共享可变状态，均在锁内更新。
type Fetcher struct {
	cfg       FetcherConfig
	providers []domain.QuoteProvider
	fallback  domain.QuoteProvider
	cache     domain.SnapshotCache
	history   domain.SnapshotHistoryRepository
	rates     domain.RateSource
	logger    *slog.Logger

	mu        sync.Mutex
	cooldowns map[domain.SnapshotSource]cooldown
	now       func() time.Time
}

// NewFetcher 构建抓取器。providers 按优先级排列；fallback 永不失败。
func NewFetcher(
	cfg FetcherConfig,
	providers []domain.QuoteProvider,
	fallback domain.QuoteProvider,
	cache domain.SnapshotCache,
	rates domain.RateSource,
	logger *slog.Logger,
) *Fetcher {
	if cfg.PriceTTL <= 0 {
		cfg = DefaultFetcherConfig()
	}
	return &Fetcher{
		cfg:       cfg,
		providers: providers,
		fallback:  fallback,
		cache:     cache,
		rates:     rates,
		logger:    logger,
		cooldowns: make(map[domain.SnapshotSource]cooldown),
		now:       time.Now,
	}
}

// SetHistory 注入快照历史仓储，可选。
func (f *Fetcher) SetHistory(repo domain.SnapshotHistoryRepository) {
	f.history = repo
}

// SetClock 注入时钟，测试用。
func (f *Fetcher) SetClock(now func() time.Time) {
	f.now = now
}

// Snapshot 解析单个标的的价格快照。
// 顺序：缓存 → 提供方链 → 兜底。该方法不返回抓取类错误，
// 只有调用方取消 / 超时会作为错误向上传播。
func (f *Fetcher) Snapshot(ctx context.Context, req domain.QuoteRequest) (*domain.PriceSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	symbol := req.Symbol
	if symbol == "" {
		symbol = req.Ticker
	}

	if cached, err := f.cache.Get(ctx, symbol); err == nil && cached != nil {
		snap := cached.Clone()
		snap.Ticker = req.Ticker
		snap.Source = domain.SourceCache
		return snap, nil
	} else if err != nil {
		f.logger.WarnContext(ctx, "snapshot cache read failed", "symbol", symbol, "error", err)
	}

	for _, p := range f.providers {
		if f.inCooldown(p.Name()) {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
		snap, err := p.Quote(callCtx, symbol)
		cancel()

		switch {
		case err == nil && snap.Complete():
			f.clearCooldown(p.Name())
			snap.Ticker = req.Ticker
			snap.Symbol = symbol
			snap.Degraded = false
			if cacheErr := f.cache.Set(ctx, snap, f.cfg.PriceTTL); cacheErr != nil {
				f.logger.WarnContext(ctx, "snapshot cache write failed", "symbol", symbol, "error", cacheErr)
			}
			f.record(ctx, snap)
			return snap.Clone(), nil
		case err == nil:
			f.logger.WarnContext(ctx, "provider returned incomplete payload",
				"provider", p.Name(), "symbol", symbol)
		case errors.Is(err, domain.ErrRateLimited):
			f.markRateLimited(p.Name())
			f.logger.WarnContext(ctx, "provider rate limited, entering cooldown",
				"provider", p.Name(), "symbol", symbol)
		case errors.Is(err, context.Canceled) && ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			// 网络错误、超时、坏报文：记录后换下一级，不在本次调用内重试。
			f.logger.WarnContext(ctx, "provider call failed",
				"provider", p.Name(), "symbol", symbol, "error", err)
		}
	}

	return f.synthesize(ctx, req, symbol), nil
}

// Snapshots 并发解析一批标的，结果按入参位置对齐。
// 单个标的降级不影响批次，调用方取消会传播到所有在途调用。
func (f *Fetcher) Snapshots(ctx context.Context, reqs []domain.QuoteRequest) ([]*domain.PriceSnapshot, error) {
	results := make([]*domain.PriceSnapshot, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.cfg.MaxConcurrent)
	for i, req := range reqs {
		g.Go(func() error {
			snap, err := f.Snapshot(gctx, req)
			if err != nil {
				return err
			}
			results[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SixMonthReturn 解析符号最近六个月的区间收益率（百分比）。
func (f *Fetcher) SixMonthReturn(ctx context.Context, symbol string) (decimal.Decimal, error) {
	const tradingDays = 126

	for _, p := range f.providers {
		if f.inCooldown(p.Name()) {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, f.cfg.CallTimeout)
		closes, err := p.DailyCloses(callCtx, symbol, tradingDays)
		cancel()
		if err == nil {
			f.clearCooldown(p.Name())
			return domain.SixMonthReturn(closes), nil
		}
		if errors.Is(err, domain.ErrRateLimited) {
			f.markRateLimited(p.Name())
			continue
		}
		f.logger.WarnContext(ctx, "daily closes fetch failed",
			"provider", p.Name(), "symbol", symbol, "error", err)
	}
	return decimal.Zero, nil
}

// Rate 返回当前汇率。
func (f *Fetcher) Rate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	return f.rates.Rate(ctx, from, to)
}

// synthesize 构造兜底快照。兜底数据不入缓存，下一次调用仍会尝试真实数据源。
func (f *Fetcher) synthesize(ctx context.Context, req domain.QuoteRequest, symbol string) *domain.PriceSnapshot {
	var snap *domain.PriceSnapshot
	if f.fallback != nil {
		if s, err := f.fallback.Quote(ctx, symbol); err == nil && s != nil {
			snap = s
		}
	}
	if snap == nil {
		snap = &domain.PriceSnapshot{Price: decimal.Zero, Currency: "USD"}
	}
	snap.Ticker = req.Ticker
	snap.Symbol = symbol
	snap.AsOf = f.now()
	snap.Source = domain.SourceSynthetic
	snap.Degraded = true
	return snap
}

func (f *Fetcher) record(ctx context.Context, snap *domain.PriceSnapshot) {
	if f.history == nil {
		return
	}
	if err := f.history.Save(ctx, snap.Clone()); err != nil {
		f.logger.WarnContext(ctx, "snapshot history write failed", "ticker", snap.Ticker, "error", err)
	}
}

func (f *Fetcher) inCooldown(name domain.SnapshotSource) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	cd, ok := f.cooldowns[name]
	return ok && f.now().Before(cd.until)
}

func (f *Fetcher) markRateLimited(name domain.SnapshotSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	backoff := f.cfg.CooldownBase
	if cd, ok := f.cooldowns[name]; ok && cd.backoff > 0 {
		backoff = cd.backoff * 2
		if backoff > f.cfg.CooldownMax {
			backoff = f.cfg.CooldownMax
		}
	}
	f.cooldowns[name] = cooldown{until: f.now().Add(backoff), backoff: backoff}
}

func (f *Fetcher) clearCooldown(name domain.SnapshotSource) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cooldowns, name)
}
