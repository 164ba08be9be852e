package application

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMarketCap(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2150000000000", "$2.15T"},
		{"45600000000", "$45.60B"},
		{"820000000", "$820.00M"},
		{"950000", "$950000"},
	}
	for _, tt := range tests {
		got := FormatMarketCap(decimal.RequireFromString(tt.raw))
		assert.Equal(t, tt.want, got, tt.raw)
	}
}
