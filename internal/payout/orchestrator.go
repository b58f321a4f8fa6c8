// Package payout orchestrates royalty payouts: validation, fee splitting,
// chain submission, persistence and confirmation monitoring.
package payout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/domain"
	"royalty-engine/internal/observability"
	"royalty-engine/internal/royalty"
	"royalty-engine/internal/storage"
)

// Watcher tracks a submitted transaction until it reaches a terminal status.
type Watcher interface {
	Watch(adapter chain.Adapter, txID, txHash string)
}

// Options configures an Orchestrator.
type Options struct {
	Adapters []chain.Adapter
	Store    storage.TransactionStore
	Watcher  Watcher

	// PlatformWallets maps each chain to the wallet receiving the platform
	// fee on that chain.
	PlatformWallets map[domain.Chain]string

	Logger *log.Logger
}

// Orchestrator processes payout requests end to end. Submission is a single
// attempt: on chain error nothing is persisted and the caller may retry.
type Orchestrator struct {
	adapters        map[domain.Chain]chain.Adapter
	store           storage.TransactionStore
	watcher         Watcher
	platformWallets map[domain.Chain]string
	feePercent      decimal.Decimal
	logger          *log.Logger
}

// New creates an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if len(opts.Adapters) == 0 {
		return nil, errors.New("payout: at least one chain adapter is required")
	}
	if opts.Store == nil {
		return nil, errors.New("payout: store is required")
	}
	if opts.Watcher == nil {
		return nil, errors.New("payout: watcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	adapters := make(map[domain.Chain]chain.Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		if err := ValidateAddress(a.Chain(), opts.PlatformWallets[a.Chain()]); err != nil {
			return nil, fmt.Errorf("payout: platform wallet for %s: %w", a.Chain(), err)
		}
		adapters[a.Chain()] = a
	}

	return &Orchestrator{
		adapters:        adapters,
		store:           opts.Store,
		watcher:         opts.Watcher,
		platformWallets: opts.PlatformWallets,
		feePercent:      decimal.NewFromInt(royalty.PlatformFeePercent),
		logger:          opts.Logger,
	}, nil
}

// Adapter returns the adapter registered for the given chain, or nil.
func (o *Orchestrator) Adapter(c domain.Chain) chain.Adapter {
	return o.adapters[c]
}

// ProcessPayout validates the request, splits the amount into an author leg
// and a platform-fee leg, submits both to the chain, persists a PENDING
// record and starts confirmation monitoring.
func (o *Orchestrator) ProcessPayout(ctx context.Context, req domain.PayoutRequest) (*domain.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	adapter, ok := o.adapters[req.Chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedChain, req.Chain)
	}

	fee := req.Amount.Mul(o.feePercent).Div(hundred).Round(2)
	authorAmount := req.Amount.Sub(fee)

	submission, err := adapter.SubmitPayout(ctx, chain.Payout{
		Recipient:      req.RecipientAddress,
		AuthorAmount:   chain.ToMinorUnits(req.Chain, authorAmount),
		PlatformWallet: o.platformWallets[req.Chain],
		FeeAmount:      chain.ToMinorUnits(req.Chain, fee),
	})
	if err != nil {
		observability.RecordSubmissionError(string(req.Chain))
		return nil, err
	}

	now := time.Now().UTC()
	tx := &domain.Transaction{
		ID:           uuid.NewString(),
		UserID:       req.UserID,
		ManuscriptID: req.ManuscriptID,
		TxHash:       submission.TxHash,
		Chain:        req.Chain,
		Type:         domain.TxTypeRoyaltyPayout,
		Amount:       authorAmount,
		Status:       domain.TxStatusPending,
		Metadata: domain.TxMetadata{
			PlatformFee:      fee,
			RoyaltyShare:     req.RoyaltyShare,
			RecipientAddress: req.RecipientAddress,
			FeeTxHash:        submission.FeeTxHash,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := o.store.Insert(ctx, tx); err != nil {
		// The transfer is already on chain; losing the record needs
		// operator attention.
		o.logger.Printf("payout: submitted but not recorded tx_hash=%s chain=%s user=%s: %v",
			submission.TxHash, req.Chain, req.UserID, err)
		return nil, fmt.Errorf("record payout: %w", err)
	}

	observability.RecordPayoutSubmitted(string(req.Chain))
	o.logger.Printf("payout: submitted id=%s chain=%s amount=%s fee=%s tx_hash=%s",
		tx.ID, req.Chain, req.Amount, fee, submission.TxHash)

	o.watcher.Watch(adapter, tx.ID, tx.TxHash)
	return tx, nil
}
