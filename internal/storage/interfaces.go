package storage

import (
	"context"

	"royalty-engine/internal/domain"
)

// TransactionStore persists blockchain transaction records. The write that
// creates a PENDING record must be durable before the caller's request
// returns; status reads may be eventually consistent.
type TransactionStore interface {
	// Insert adds a new transaction. Returns ErrDuplicateKey if the id or
	// tx hash already exists.
	Insert(ctx context.Context, tx *domain.Transaction) error

	// GetByID retrieves a transaction by id. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)

	// GetByUserID retrieves all transactions for a user, newest first.
	GetByUserID(ctx context.Context, userID string) ([]*domain.Transaction, error)

	// UpdateStatus transitions a PENDING transaction to the given status
	// and returns the updated record. When the record is already in a
	// terminal state the call is an idempotent no-op: the stored record
	// is returned unchanged and no error is raised. Returns ErrNotFound
	// if the id does not exist.
	UpdateStatus(ctx context.Context, id string, status domain.TxStatus, reason domain.FailureReason) (*domain.Transaction, error)
}
