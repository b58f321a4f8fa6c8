// Package solanarpc provides the minimal Solana JSON-RPC surface the payout
// engine needs: fetching a recent blockhash, submitting a signed
// transaction, and polling signature statuses. It also carries the native
// transaction wire format and platform keypair handling.
package solanarpc

import "context"

// Commitment levels reported by getSignatureStatuses.
const (
	CommitmentProcessed = "processed"
	CommitmentConfirmed = "confirmed"
	CommitmentFinalized = "finalized"
)

// SignatureStatus is the chain's view of one submitted signature.
type SignatureStatus struct {
	Slot               uint64
	Confirmations      *uint64 // nil once rooted
	ConfirmationStatus string
	// Err is non-nil when the transaction was processed and failed.
	Err any
}

// Confirmed reports whether the signature reached at least the confirmed
// commitment level.
func (s *SignatureStatus) Confirmed() bool {
	return s.ConfirmationStatus == CommitmentConfirmed || s.ConfirmationStatus == CommitmentFinalized
}

// Client defines the Solana RPC methods used by the engine.
type Client interface {
	// GetLatestBlockhash returns a recent blockhash for transaction assembly.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a base64-encoded signed transaction and
	// returns its signature. Never retried internally: a duplicate submit
	// would duplicate the transfer.
	SendTransaction(ctx context.Context, txBase64 string) (string, error)

	// GetSignatureStatuses returns the status for each signature, nil for
	// signatures the cluster does not know about.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]*SignatureStatus, error)
}
