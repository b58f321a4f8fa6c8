package payout

import (
	"regexp"

	"github.com/shopspring/decimal"

	"royalty-engine/internal/domain"
	"royalty-engine/internal/solanarpc"
)

var evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

var hundred = decimal.NewFromInt(100)

// ValidateAddress checks that addr is well-formed for the given chain.
// EVM chains take a 0x-prefixed 20-byte hex address; Solana takes a base58
// string decoding to exactly 32 bytes.
func ValidateAddress(chain domain.Chain, addr string) error {
	if addr == "" {
		return domain.NewValidationError("recipientAddress", "must not be empty")
	}

	switch {
	case chain.IsEVM():
		if !evmAddressRe.MatchString(addr) {
			return domain.NewValidationError("recipientAddress", "not a valid EVM address")
		}
	case chain == domain.ChainSolana:
		if _, err := solanarpc.DecodeAddress(addr); err != nil {
			return domain.NewValidationError("recipientAddress", "not a valid Solana address")
		}
	default:
		return domain.NewValidationError("chain", "unsupported chain")
	}
	return nil
}

// validateRequest checks a payout request before any chain interaction.
func validateRequest(req domain.PayoutRequest) error {
	if req.ManuscriptID == "" {
		return domain.NewValidationError("manuscriptId", "must not be empty")
	}
	if req.UserID == "" {
		return domain.NewValidationError("userId", "must not be empty")
	}
	if !req.Chain.Valid() {
		return domain.NewValidationError("chain", "unsupported chain")
	}
	if !req.Amount.IsPositive() {
		return domain.NewValidationError("amount", "must be greater than zero")
	}
	if req.RoyaltyShare.IsNegative() || req.RoyaltyShare.GreaterThan(hundred) {
		return domain.NewValidationError("royaltyShare", "must be between 0 and 100")
	}
	return ValidateAddress(req.Chain, req.RecipientAddress)
}
