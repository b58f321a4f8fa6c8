// Package memory provides in-memory storage implementations for tests and
// the --use-memory server mode.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"royalty-engine/internal/domain"
	"royalty-engine/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.Transaction // keyed by id
	hashes map[string]struct{}            // tx hash uniqueness
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{
		data:   make(map[string]*domain.Transaction),
		hashes: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// Insert adds a new transaction. Returns ErrDuplicateKey if the id or tx
// hash exists.
func (s *TransactionStore) Insert(_ context.Context, tx *domain.Transaction) error {
	if tx == nil || tx.ID == "" || tx.TxHash == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[tx.ID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.hashes[tx.TxHash]; exists {
		return storage.ErrDuplicateKey
	}

	copy := *tx
	s.data[tx.ID] = &copy
	s.hashes[tx.TxHash] = struct{}{}
	return nil
}

// GetByID retrieves a transaction by id. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	copy := *tx
	return &copy, nil
}

// GetByUserID retrieves all transactions for a user, newest first.
func (s *TransactionStore) GetByUserID(_ context.Context, userID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, tx := range s.data {
		if tx.UserID == userID {
			copy := *tx
			result = append(result, &copy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// UpdateStatus transitions a PENDING transaction. Terminal records are
// returned unchanged: re-applying a terminal status is a no-op.
func (s *TransactionStore) UpdateStatus(_ context.Context, id string, status domain.TxStatus, reason domain.FailureReason) (*domain.Transaction, error) {
	if !status.Terminal() {
		return nil, storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	if !tx.Status.Terminal() {
		tx.Status = status
		tx.FailureReason = reason
		tx.UpdatedAt = time.Now().UTC()
	}

	copy := *tx
	return &copy, nil
}
