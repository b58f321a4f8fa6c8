package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Chain identifies a blockchain network used for payouts.
type Chain string

const (
	ChainPolygon Chain = "POLYGON"
	ChainBase    Chain = "BASE"
	ChainSolana  Chain = "SOLANA"
)

// IsEVM reports whether the chain belongs to the EVM family.
func (c Chain) IsEVM() bool {
	return c == ChainPolygon || c == ChainBase
}

// Valid reports whether the chain is one this system supports.
func (c Chain) Valid() bool {
	switch c {
	case ChainPolygon, ChainBase, ChainSolana:
		return true
	}
	return false
}

// TxType classifies a persisted blockchain transaction.
type TxType string

const (
	TxTypeRoyaltyPayout      TxType = "ROYALTY_PAYOUT"
	TxTypeRightsRegistration TxType = "RIGHTS_REGISTRATION"
	TxTypePlatformFee        TxType = "PLATFORM_FEE"
)

// TxStatus is the lifecycle state of a transaction record.
// PENDING transitions exactly once to CONFIRMED or FAILED and never reverts.
type TxStatus string

const (
	TxStatusPending   TxStatus = "PENDING"
	TxStatusConfirmed TxStatus = "CONFIRMED"
	TxStatusFailed    TxStatus = "FAILED"
)

// Terminal reports whether the status is final.
func (s TxStatus) Terminal() bool {
	return s == TxStatusConfirmed || s == TxStatusFailed
}

// FailureReason records why a transaction ended up FAILED.
// TIMEOUT means the confirmation budget was exhausted without a definitive
// on-chain answer; REJECTED means the chain itself reported failure.
type FailureReason string

const (
	FailureNone     FailureReason = ""
	FailureTimeout  FailureReason = "TIMEOUT"
	FailureRejected FailureReason = "REJECTED"
)

// TxMetadata carries payout-specific details persisted with a transaction.
type TxMetadata struct {
	PlatformFee      decimal.Decimal
	RoyaltyShare     decimal.Decimal
	RecipientAddress string

	// FeeTxHash is the hash of the paired platform-fee transfer on EVM
	// chains, where the fee leg is a separate transaction. Empty for
	// Solana (both legs share one atomic transaction) and when the fee
	// leg could not be submitted.
	FeeTxHash string
}

// Transaction is a persisted on-chain payment record. It is owned by the
// orchestration subsystem; the rest of the system reads it only.
type Transaction struct {
	ID           string
	UserID       string
	ManuscriptID string
	TxHash       string
	Chain        Chain
	Type         TxType
	// Amount is what actually moved to the recipient. For payouts that is
	// the net author amount; the fee leg lives in Metadata.PlatformFee.
	Amount decimal.Decimal
	Status        TxStatus
	FailureReason FailureReason
	Metadata      TxMetadata
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
