package application

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/xerrors"

	"github.com/franksiereveld/rationalmarkets/internal/strategy/domain"
)

// PositionDTO 策略仓位的对外表示。
type PositionDTO struct {
	Ticker     string `json:"ticker"`
	Side       string `json:"side"`
	Weight     string `json:"weight"`
	Confidence string `json:"confidence"`
	Rationale  string `json:"rationale"`
}

// StrategySummaryDTO 策略摘要。
type StrategySummaryDTO struct {
	Name          string        `json:"name"`
	Version       string        `json:"version"`
	Description   string        `json:"description"`
	BaseCurrency  string        `json:"base_currency"`
	LongShare     string        `json:"long_share"`
	ShortShare    string        `json:"short_share"`
	LongCount     int           `json:"long_count"`
	ShortCount    int           `json:"short_count"`
	AvgConfidence string        `json:"avg_confidence"`
	Currencies    []string      `json:"currencies"`
	Positions     []PositionDTO `json:"positions"`
}

// Summary 返回策略摘要。
func (s *AllocationService) Summary(name string) (*StrategySummaryDTO, error) {
	strat, err := s.catalog.Get(name)
	if err != nil {
		if errors.Is(err, domain.ErrStrategyNotFound) {
			return nil, xerrors.NotFound("strategy not found: " + name)
		}
		return nil, err
	}
	dto := &StrategySummaryDTO{
		Name:         strat.Name,
		Version:      strat.Version,
		Description:  strat.Description,
		BaseCurrency: strat.BaseCurrency,
		LongShare:    strat.LongShare.String(),
		ShortShare:   strat.ShortShare.String(),
		LongCount:    len(strat.LongPositions()),
		ShortCount:   len(strat.ShortPositions()),
		Positions:    make([]PositionDTO, 0, len(strat.Positions)),
	}
	confSum := decimal.Zero
	currencySet := make(map[string]struct{})
	for _, p := range strat.Positions {
		confSum = confSum.Add(p.Confidence)
		for _, m := range s.registry.Mappings(p.Ticker) {
			currencySet[m.Currency] = struct{}{}
		}
		dto.Positions = append(dto.Positions, PositionDTO{
			Ticker:     p.Ticker,
			Side:       string(p.Side),
			Weight:     p.Weight.String(),
			Confidence: p.Confidence.String(),
			Rationale:  p.Rationale,
		})
	}
	if n := len(strat.Positions); n > 0 {
		dto.AvgConfidence = confSum.Div(decimal.NewFromInt(int64(n))).StringFixed(2)
	}
	dto.Currencies = make([]string, 0, len(currencySet))
	for c := range currencySet {
		dto.Currencies = append(dto.Currencies, c)
	}
	sort.Strings(dto.Currencies)
	return dto, nil
}

// ListStrategies 返回全部策略摘要。
func (s *AllocationService) ListStrategies() []*StrategySummaryDTO {
	all := s.catalog.List()
	out := make([]*StrategySummaryDTO, 0, len(all))
	for _, strat := range all {
		dto, err := s.Summary(strat.Name)
		if err != nil {
			continue
		}
		out = append(out, dto)
	}
	return out
}
