package chain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"royalty-engine/internal/domain"
)

// Native asset decimals per chain family.
const (
	evmDecimals    = 18 // wei per native token
	solanaDecimals = 9  // lamports per SOL
)

// Decimals returns the number of minor-unit decimals for the chain's
// native asset.
func Decimals(c domain.Chain) int32 {
	if c == domain.ChainSolana {
		return solanaDecimals
	}
	return evmDecimals
}

// ToMinorUnits converts a token-denominated amount to the chain's integer
// minor units, truncating any precision beyond what the chain represents.
// Monetary values are rounded to 2 decimal places long before this point,
// so truncation never loses value in practice.
func ToMinorUnits(c domain.Chain, amount decimal.Decimal) *big.Int {
	return amount.Shift(Decimals(c)).Truncate(0).BigInt()
}

// FromMinorUnits converts integer minor units back to a token amount.
func FromMinorUnits(c domain.Chain, units *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(units, 0).Shift(-Decimals(c))
}
