// Package solana implements the chain.Adapter for Solana. Payout splits
// ride in a single transaction carrying two SystemProgram transfer
// instructions, so both legs land atomically; rights registration is a
// flat fee transfer to the platform wallet acting as the registration
// signal.
package solana

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/domain"
	"royalty-engine/internal/solanarpc"
)

// Adapter submits transfers on Solana via the platform keypair.
type Adapter struct {
	client         solanarpc.Client
	keypair        *solanarpc.Keypair
	platformWallet string
	logger         *log.Logger
}

// Compile-time interface check.
var _ chain.Adapter = (*Adapter)(nil)

// Options configures a Solana adapter.
type Options struct {
	Client solanarpc.Client
	// Keypair is the platform signing keypair funding all transfers.
	Keypair *solanarpc.Keypair
	// PlatformWallet receives platform fees and registration payments.
	PlatformWallet string
	Logger         *log.Logger
}

// New creates a Solana adapter.
func New(opts Options) (*Adapter, error) {
	if opts.Client == nil {
		return nil, fmt.Errorf("rpc client is required")
	}
	if opts.Keypair == nil {
		return nil, fmt.Errorf("keypair is required")
	}
	if _, err := solanarpc.DecodeAddress(opts.PlatformWallet); err != nil {
		return nil, fmt.Errorf("platform wallet: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Adapter{
		client:         opts.Client,
		keypair:        opts.Keypair,
		platformWallet: opts.PlatformWallet,
		logger:         logger,
	}, nil
}

// Chain returns domain.ChainSolana.
func (a *Adapter) Chain() domain.Chain {
	return domain.ChainSolana
}

// SubmitPayout submits one transaction carrying the author transfer and,
// when a fee is due, the platform-fee transfer as a second instruction.
func (a *Adapter) SubmitPayout(ctx context.Context, p chain.Payout) (*chain.Submission, error) {
	author, err := lamports(p.AuthorAmount)
	if err != nil {
		return nil, chain.NewSubmissionError(domain.ChainSolana, "payout", fmt.Errorf("author amount: %w", err))
	}

	transfers := []solanarpc.Transfer{{To: p.Recipient, Lamports: author}}
	if p.FeeAmount != nil && p.FeeAmount.Sign() > 0 {
		fee, err := lamports(p.FeeAmount)
		if err != nil {
			return nil, chain.NewSubmissionError(domain.ChainSolana, "payout", fmt.Errorf("fee amount: %w", err))
		}
		transfers = append(transfers, solanarpc.Transfer{To: p.PlatformWallet, Lamports: fee})
	}

	sig, err := a.submit(ctx, "payout", transfers)
	if err != nil {
		return nil, err
	}
	// Both legs share one atomic transaction; no separate fee hash.
	return &chain.Submission{TxHash: sig}, nil
}

// SubmitRegistration submits the flat registration fee transfer.
func (a *Adapter) SubmitRegistration(ctx context.Context, r chain.Registration) (string, error) {
	fee, err := lamports(r.Fee)
	if err != nil {
		return "", chain.NewSubmissionError(domain.ChainSolana, "registration", fmt.Errorf("fee: %w", err))
	}
	return a.submit(ctx, "registration", []solanarpc.Transfer{{To: a.platformWallet, Lamports: fee}})
}

// Status maps getSignatureStatuses onto the adapter status model. An
// unknown signature is PENDING; a processed signature with a transaction
// error is a definitive rejection.
func (a *Adapter) Status(ctx context.Context, txHash string) (*chain.Status, error) {
	statuses, err := a.client.GetSignatureStatuses(ctx, []string{txHash})
	if err != nil {
		return nil, chain.NewQueryError(domain.ChainSolana, err)
	}
	if len(statuses) == 0 || statuses[0] == nil {
		return &chain.Status{State: domain.TxStatusPending}, nil
	}

	st := statuses[0]
	blockRef := fmt.Sprintf("%d", st.Slot)

	if st.Err != nil {
		return &chain.Status{
			State:    domain.TxStatusFailed,
			BlockRef: blockRef,
			Reason:   domain.FailureRejected,
		}, nil
	}
	if !st.Confirmed() {
		return &chain.Status{State: domain.TxStatusPending, BlockRef: blockRef}, nil
	}

	var confirmations uint64
	if st.Confirmations != nil {
		confirmations = *st.Confirmations
	} else {
		confirmations = 1 // rooted; the node stops counting
	}
	return &chain.Status{
		State:         domain.TxStatusConfirmed,
		Confirmations: confirmations,
		BlockRef:      blockRef,
	}, nil
}

func (a *Adapter) submit(ctx context.Context, op string, transfers []solanarpc.Transfer) (string, error) {
	blockhash, err := a.client.GetLatestBlockhash(ctx)
	if err != nil {
		return "", chain.NewSubmissionError(domain.ChainSolana, op, fmt.Errorf("blockhash: %w", err))
	}

	tx, err := solanarpc.BuildTransfer(a.keypair, blockhash, transfers)
	if err != nil {
		return "", chain.NewSubmissionError(domain.ChainSolana, op, fmt.Errorf("build transaction: %w", err))
	}

	sig, err := a.client.SendTransaction(ctx, tx.Base64)
	if err != nil {
		return "", chain.NewSubmissionError(domain.ChainSolana, op, err)
	}
	return sig, nil
}

// lamports converts a minor-unit amount to uint64 lamports.
func lamports(v *big.Int) (uint64, error) {
	if v == nil || v.Sign() <= 0 {
		return 0, fmt.Errorf("amount must be positive")
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("amount overflows lamports")
	}
	return v.Uint64(), nil
}
