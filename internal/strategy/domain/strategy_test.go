package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func validStrategy() *StrategyVersion {
	return &StrategyVersion{
		Name:         "test",
		BaseCurrency: "USD",
		LongShare:    d("0.6"),
		ShortShare:   d("0.4"),
		Positions: []TargetPosition{
			{Ticker: "NVDA", Side: SideLong, Weight: d("0.5")},
			{Ticker: "MSFT", Side: SideLong, Weight: d("0.5")},
			{Ticker: "HRB", Side: SideShort, Weight: d("1")},
		},
	}
}

func TestStrategyValidate(t *testing.T) {
	require.NoError(t, validStrategy().Validate())
}

func TestStrategyValidateRejectsBadShares(t *testing.T) {
	s := validStrategy()
	s.LongShare = d("0.7")
	assert.Error(t, s.Validate())
}

func TestStrategyValidateRejectsBadWeightSum(t *testing.T) {
	s := validStrategy()
	s.Positions[0].Weight = d("0.6")
	assert.Error(t, s.Validate())
}

func TestStrategyValidateToleratesTinyWeightError(t *testing.T) {
	s := validStrategy()
	s.Positions[0].Weight = d("0.5000000001")
	assert.NoError(t, s.Validate())
}

func TestStrategyValidateRejectsDuplicateTicker(t *testing.T) {
	s := validStrategy()
	s.Positions = append(s.Positions, TargetPosition{Ticker: "NVDA", Side: SideLong, Weight: d("0.1")})
	assert.Error(t, s.Validate())
}

func TestStrategyValidateRejectsZeroWeight(t *testing.T) {
	s := validStrategy()
	s.Positions[0].Weight = d("0")
	assert.Error(t, s.Validate())
}

func TestStrategyValidateRejectsInvalidSide(t *testing.T) {
	s := validStrategy()
	s.Positions[0].Side = "hedge"
	assert.Error(t, s.Validate())
}

func TestStrategyValidateRejectsEmptyName(t *testing.T) {
	s := validStrategy()
	s.Name = ""
	assert.Error(t, s.Validate())
}

func TestPositionsBySideKeepOrder(t *testing.T) {
	s := validStrategy()
	longs := s.LongPositions()
	require.Len(t, longs, 2)
	assert.Equal(t, "NVDA", longs[0].Ticker)
	assert.Equal(t, "MSFT", longs[1].Ticker)
	require.Len(t, s.ShortPositions(), 1)
}
