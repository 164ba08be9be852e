// Package domain 策略与资金分配的领域模型。
package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Side 表示目标仓位方向。
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Valid 校验方向取值。
func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

var (
	// ErrInvalidCapital 表示投入资金不是正数。
	ErrInvalidCapital = errors.New("total capital must be positive")
	// ErrInvalidPercent 表示投资比例超出 [0, 100]。
	ErrInvalidPercent = errors.New("invest percent must be within [0, 100]")
	// ErrStrategyNotFound 表示策略不存在。
	ErrStrategyNotFound = errors.New("strategy not found")
)

// weightTolerance 权重和校验允许的误差。
var weightTolerance = decimal.New(1, -6)

// TargetPosition 策略中的一个目标仓位。
type TargetPosition struct {
	Ticker     string          `json:"ticker"`
	Side       Side            `json:"side"`
	Weight     decimal.Decimal `json:"weight"`
	Confidence decimal.Decimal `json:"confidence"`
	Rationale  string          `json:"rationale"`
}

// StrategyVersion 一个完整的策略定义。仓位顺序即分配输出顺序。
type StrategyVersion struct {
	Name         string           `json:"name"`
	Version      string           `json:"version"`
	Description  string           `json:"description"`
	BaseCurrency string           `json:"base_currency"`
	LongShare    decimal.Decimal  `json:"long_share"`
	ShortShare   decimal.Decimal  `json:"short_share"`
	Positions    []TargetPosition `json:"positions"`
}

// Validate 校验策略自身的一致性：
// 多空占比合计为 1，多头权重和与空头权重和各自为 1，标的不重复。
func (s *StrategyVersion) Validate() error {
	if s.Name == "" {
		return errors.New("strategy name is required")
	}
	one := decimal.NewFromInt(1)
	if !withinTolerance(s.LongShare.Add(s.ShortShare), one) {
		return fmt.Errorf("long/short shares must sum to 1, got %s", s.LongShare.Add(s.ShortShare))
	}

	longSum, shortSum := decimal.Zero, decimal.Zero
	seen := make(map[string]struct{}, len(s.Positions))
	for _, p := range s.Positions {
		if p.Ticker == "" {
			return errors.New("position ticker is required")
		}
		if !p.Side.Valid() {
			return fmt.Errorf("position %s has invalid side %q", p.Ticker, p.Side)
		}
		if !p.Weight.IsPositive() || p.Weight.GreaterThan(one) {
			return fmt.Errorf("position %s weight must be in (0, 1], got %s", p.Ticker, p.Weight)
		}
		key := p.Ticker + "/" + string(p.Side)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate position %s", key)
		}
		seen[key] = struct{}{}
		if p.Side == SideLong {
			longSum = longSum.Add(p.Weight)
		} else {
			shortSum = shortSum.Add(p.Weight)
		}
	}
	// 占比为零的一侧允许没有仓位。
	if (s.LongShare.IsPositive() || !longSum.IsZero()) && !withinTolerance(longSum, one) {
		return fmt.Errorf("long weights must sum to 1, got %s", longSum)
	}
	if (s.ShortShare.IsPositive() || !shortSum.IsZero()) && !withinTolerance(shortSum, one) {
		return fmt.Errorf("short weights must sum to 1, got %s", shortSum)
	}
	return nil
}

// LongPositions 返回多头仓位，保持定义顺序。
func (s *StrategyVersion) LongPositions() []TargetPosition {
	return s.bySide(SideLong)
}

// ShortPositions 返回空头仓位，保持定义顺序。
func (s *StrategyVersion) ShortPositions() []TargetPosition {
	return s.bySide(SideShort)
}

func (s *StrategyVersion) bySide(side Side) []TargetPosition {
	out := make([]TargetPosition, 0, len(s.Positions))
	for _, p := range s.Positions {
		if p.Side == side {
			out = append(out, p)
		}
	}
	return out
}

func withinTolerance(got, want decimal.Decimal) bool {
	return got.Sub(want).Abs().LessThanOrEqual(weightTolerance)
}
