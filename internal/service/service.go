// Package service is the application facade: it ties the royalty
// calculator, payout orchestrator, rights registrar and transaction store
// behind one API consumed by the HTTP layer.
package service

import (
	"context"
	"errors"
	"log"

	"royalty-engine/internal/domain"
	"royalty-engine/internal/observability"
	"royalty-engine/internal/payout"
	"royalty-engine/internal/rights"
	"royalty-engine/internal/royalty"
	"royalty-engine/internal/storage"
)

// Options configures a Service.
type Options struct {
	Calculator   *royalty.Calculator
	Orchestrator *payout.Orchestrator
	Registrar    *rights.Registrar
	Store        storage.TransactionStore
	Logger       *log.Logger
}

// Service exposes the engine's operations to transport layers.
type Service struct {
	calculator   *royalty.Calculator
	orchestrator *payout.Orchestrator
	registrar    *rights.Registrar
	store        storage.TransactionStore
	logger       *log.Logger
}

// New creates a Service.
func New(opts Options) (*Service, error) {
	if opts.Calculator == nil {
		return nil, errors.New("service: calculator is required")
	}
	if opts.Orchestrator == nil {
		return nil, errors.New("service: orchestrator is required")
	}
	if opts.Registrar == nil {
		return nil, errors.New("service: registrar is required")
	}
	if opts.Store == nil {
		return nil, errors.New("service: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Service{
		calculator:   opts.Calculator,
		orchestrator: opts.Orchestrator,
		registrar:    opts.Registrar,
		store:        opts.Store,
		logger:       opts.Logger,
	}, nil
}

// CalculateRoyalties computes per-sale earnings and sales projections for a
// price point. Pure computation, no chain or store access.
func (s *Service) CalculateRoyalties(req domain.RoyaltyRequest) (*domain.RoyaltyResult, error) {
	result, err := s.calculator.Calculate(req)
	if err != nil {
		var verr *domain.ValidationError
		var cerr *domain.ConfigurationError
		switch {
		case errors.As(err, &verr):
			observability.RecordCalculationError("validation")
		case errors.As(err, &cerr):
			observability.RecordCalculationError("configuration")
		default:
			observability.RecordCalculationError("internal")
		}
		return nil, err
	}
	observability.RecordCalculation(string(req.Platform))
	return result, nil
}

// ProcessRoyaltyPayout sends a royalty payout on-chain and returns the
// PENDING transaction record being monitored.
func (s *Service) ProcessRoyaltyPayout(ctx context.Context, req domain.PayoutRequest) (*domain.Transaction, error) {
	return s.orchestrator.ProcessPayout(ctx, req)
}

// SecureRights registers manuscript IP rights on-chain and returns the
// PENDING transaction record being monitored.
func (s *Service) SecureRights(ctx context.Context, req domain.RegistrationRequest) (*domain.Transaction, error) {
	return s.registrar.Register(ctx, req)
}

// GetTransactionStatus returns the current record for a transaction id.
func (s *Service) GetTransactionStatus(ctx context.Context, id string) (*domain.Transaction, error) {
	if id == "" {
		return nil, domain.NewValidationError("id", "must not be empty")
	}
	return s.store.GetByID(ctx, id)
}

// ListTransactions returns a user's transactions, newest first.
func (s *Service) ListTransactions(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	if userID == "" {
		return nil, domain.NewValidationError("userId", "must not be empty")
	}
	return s.store.GetByUserID(ctx, userID)
}
