// Package rights handles on-chain IP rights registration for manuscripts.
package rights

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
	"royalty-engine/internal/payout"
	"royalty-engine/internal/storage"
)

// RegistrationFee is the flat fee, in the chain's native currency, charged
// for registering manuscript rights. The same nominal amount applies on
// every supported chain.
var RegistrationFee = decimal.RequireFromString("0.1")

var hundred = decimal.NewFromInt(100)

// Options configures a Registrar.
type Options struct {
	Adapters []chain.Adapter
	Store    storage.TransactionStore
	Watcher  payout.Watcher
	Logger   *log.Logger
}

// Registrar submits rights registrations and tracks their confirmation.
type Registrar struct {
	adapters map[domain.Chain]chain.Adapter
	store    storage.TransactionStore
	watcher  payout.Watcher
	logger   *log.Logger
}

// New creates a Registrar.
func New(opts Options) (*Registrar, error) {
	if len(opts.Adapters) == 0 {
		return nil, errors.New("rights: at least one chain adapter is required")
	}
	if opts.Store == nil {
		return nil, errors.New("rights: store is required")
	}
	if opts.Watcher == nil {
		return nil, errors.New("rights: watcher is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	adapters := make(map[domain.Chain]chain.Adapter, len(opts.Adapters))
	for _, a := range opts.Adapters {
		adapters[a.Chain()] = a
	}

	return &Registrar{
		adapters: adapters,
		store:    opts.Store,
		watcher:  opts.Watcher,
		logger:   opts.Logger,
	}, nil
}

// Register validates the request, submits the registration with the flat
// fee attached, persists a PENDING record and starts confirmation
// monitoring.
func (r *Registrar) Register(ctx context.Context, req domain.RegistrationRequest) (*domain.Transaction, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	adapter, ok := r.adapters[req.Chain]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedChain, req.Chain)
	}

	collaborators := make([]chain.RegistrationCollaborator, len(req.Collaborators))
	for i, c := range req.Collaborators {
		collaborators[i] = chain.RegistrationCollaborator{
			WalletAddress: c.WalletAddress,
			ShareBps:      shareToBps(c.RoyaltyShare),
		}
	}

	txHash, err := adapter.SubmitRegistration(ctx, chain.Registration{
		ManuscriptID:  req.ManuscriptID,
		Title:         req.Title,
		Collaborators: collaborators,
		Fee:           chain.ToMinorUnits(req.Chain, RegistrationFee),
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
		TxHash:       txHash,
		Chain:        req.Chain,
		Type:         domain.TxTypeRightsRegistration,
		Amount:       RegistrationFee,
		Status:       domain.TxStatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.store.Insert(ctx, tx); err != nil {
		r.logger.Printf("rights: submitted but not recorded tx_hash=%s chain=%s manuscript=%s: %v",
			txHash, req.Chain, req.ManuscriptID, err)
		return nil, fmt.Errorf("record registration: %w", err)
	}

	observability.RecordRegistrationSubmitted(string(req.Chain))
	r.logger.Printf("rights: submitted id=%s chain=%s manuscript=%s collaborators=%d tx_hash=%s",
		tx.ID, req.Chain, req.ManuscriptID, len(collaborators), txHash)

	r.watcher.Watch(adapter, tx.ID, tx.TxHash)
	return tx, nil
}

// shareToBps converts a percentage share to basis points, truncating
// fractions finer than a hundredth of a percent.
func shareToBps(share decimal.Decimal) uint64 {
	return uint64(share.Mul(hundred).IntPart())
}

func validateRequest(req domain.RegistrationRequest) error {
	if req.ManuscriptID == "" {
		return domain.NewValidationError("manuscriptId", "must not be empty")
	}
	if req.UserID == "" {
		return domain.NewValidationError("userId", "must not be empty")
	}
	if req.Title == "" {
		return domain.NewValidationError("title", "must not be empty")
	}
	if !req.Chain.Valid() {
		return domain.NewValidationError("chain", "unsupported chain")
	}
	if len(req.Collaborators) == 0 {
		return domain.NewValidationError("collaborators", "must not be empty")
	}

	total := decimal.Zero
	for _, c := range req.Collaborators {
		if err := payout.ValidateAddress(req.Chain, c.WalletAddress); err != nil {
			return domain.NewValidationError("collaborators", "wallet "+c.WalletAddress+" is not valid for "+string(req.Chain))
		}
		if !c.RoyaltyShare.IsPositive() {
			return domain.NewValidationError("collaborators", "royalty share must be greater than zero")
		}
		total = total.Add(c.RoyaltyShare)
	}
	if total.GreaterThan(hundred) {
		return domain.NewValidationError("collaborators", "royalty shares exceed 100%")
	}
	return nil
}
