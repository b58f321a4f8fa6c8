package chain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"royalty-engine/internal/domain"
)

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		chain  domain.Chain
		amount string
		want   string
	}{
		{domain.ChainPolygon, "1", "1000000000000000000"},
		{domain.ChainBase, "0.95", "950000000000000000"},
		{domain.ChainSolana, "0.1", "100000000"},
		{domain.ChainSolana, "2.5", "2500000000"},
		{domain.ChainPolygon, "0.01", "10000000000000000"},
	}

	for _, tt := range tests {
		got := ToMinorUnits(tt.chain, decimal.RequireFromString(tt.amount))
		want, _ := new(big.Int).SetString(tt.want, 10)
		assert.Zero(t, got.Cmp(want), "%s %s: got %s want %s", tt.chain, tt.amount, got, want)
	}
}

func TestFromMinorUnitsRoundTrip(t *testing.T) {
	for _, c := range []domain.Chain{domain.ChainPolygon, domain.ChainBase, domain.ChainSolana} {
		amount := decimal.RequireFromString("12.34")
		back := FromMinorUnits(c, ToMinorUnits(c, amount))
		assert.True(t, back.Equal(amount), "%s: %s", c, back)
	}
}
