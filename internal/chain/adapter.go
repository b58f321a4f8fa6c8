// Package chain defines the adapter interface the payout engine uses to
// talk to a blockchain family, plus the shared submission/status types.
// Adapters never retry: each call is a single best-effort attempt that
// either returns a pending reference or fails synchronously.
package chain

import (
	"context"
	"math/big"

	"royalty-engine/internal/domain"
)

// Payout is a fund-splitting transfer: the author amount goes to the
// recipient, the platform fee to the platform wallet. Amounts are in the
// chain's minor units (wei, lamports).
type Payout struct {
	Recipient      string
	AuthorAmount   *big.Int
	PlatformWallet string
	FeeAmount      *big.Int
}

// Submission is the result of a successful payout submission. TxHash is the
// reference tracked by the monitor. FeeTxHash is set only on EVM chains,
// where the fee leg is an independent transaction; empty means the fee leg
// shares TxHash (Solana) or could not be submitted.
type Submission struct {
	TxHash    string
	FeeTxHash string
}

// RegistrationCollaborator is one share-holder in a rights registration.
type RegistrationCollaborator struct {
	WalletAddress string
	ShareBps      uint64 // royalty share in basis points
}

// Registration is an on-chain IP rights registration request.
type Registration struct {
	ManuscriptID  string
	Title         string
	Collaborators []RegistrationCollaborator
	Fee           *big.Int // registration fee in minor units
}

// Status is a point-in-time view of a submitted transaction.
type Status struct {
	State         domain.TxStatus
	Confirmations uint64
	BlockRef      string
	// Reason is FailureRejected when the chain definitively rejected the
	// transaction, as opposed to it merely not being visible yet.
	Reason domain.FailureReason
}

// Adapter submits transfers to one chain and reports their status.
type Adapter interface {
	// Chain returns the network this adapter targets.
	Chain() domain.Chain

	// SubmitPayout submits the author and platform-fee transfers. On EVM
	// chains these are two independent transactions; on Solana they are
	// two instructions in one atomic transaction.
	SubmitPayout(ctx context.Context, p Payout) (*Submission, error)

	// SubmitRegistration submits a rights registration and returns its
	// transaction reference.
	SubmitRegistration(ctx context.Context, r Registration) (string, error)

	// Status reports the current state of a submitted transaction.
	Status(ctx context.Context, txHash string) (*Status, error)
}
