package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"royalty-engine/internal/domain"
	"royalty-engine/internal/observability"
	"royalty-engine/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

const txColumns = `
	id, user_id, manuscript_id, tx_hash, chain, tx_type,
	amount::text, status, failure_reason,
	platform_fee::text, royalty_share::text, recipient_address, fee_tx_hash,
	created_at, updated_at
`

// Insert adds a new transaction. Returns ErrDuplicateKey if the id or tx
// hash exists.
func (s *TransactionStore) Insert(ctx context.Context, tx *domain.Transaction) (err error) {
	if tx == nil || tx.ID == "" || tx.TxHash == "" {
		return storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observability.RecordDBQuery("insert", time.Since(start).Seconds(), err) }()

	query := `
		INSERT INTO transactions (
			id, user_id, manuscript_id, tx_hash, chain, tx_type,
			amount, status, failure_reason,
			platform_fee, royalty_share, recipient_address, fee_tx_hash,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12, $13,
			$14, $15
		)
	`

	_, err = s.pool.Exec(ctx, query,
		tx.ID, tx.UserID, tx.ManuscriptID, tx.TxHash, string(tx.Chain), string(tx.Type),
		tx.Amount.String(), string(tx.Status), string(tx.FailureReason),
		tx.Metadata.PlatformFee.String(), tx.Metadata.RoyaltyShare.String(),
		tx.Metadata.RecipientAddress, tx.Metadata.FeeTxHash,
		tx.CreatedAt, tx.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by id. Returns ErrNotFound if not exists.
func (s *TransactionStore) GetByID(ctx context.Context, id string) (_ *domain.Transaction, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("get_by_id", time.Since(start).Seconds(), err) }()

	query := `SELECT ` + txColumns + ` FROM transactions WHERE id = $1`

	tx, err := scanTransaction(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// GetByUserID retrieves all transactions for a user, newest first.
func (s *TransactionStore) GetByUserID(ctx context.Context, userID string) (_ []*domain.Transaction, err error) {
	start := time.Now()
	defer func() { observability.RecordDBQuery("get_by_user_id", time.Since(start).Seconds(), err) }()

	query := `SELECT ` + txColumns + ` FROM transactions WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var result []*domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	return result, rows.Err()
}

// UpdateStatus transitions a PENDING transaction. The WHERE guard makes
// terminal records immutable; re-applying a terminal status is a no-op
// that returns the stored record.
func (s *TransactionStore) UpdateStatus(ctx context.Context, id string, status domain.TxStatus, reason domain.FailureReason) (_ *domain.Transaction, err error) {
	if !status.Terminal() {
		return nil, storage.ErrInvalidInput
	}

	start := time.Now()
	defer func() { observability.RecordDBQuery("update_status", time.Since(start).Seconds(), err) }()

	query := `
		UPDATE transactions
		SET status = $2, failure_reason = $3, updated_at = now()
		WHERE id = $1 AND status = $4
	`

	if _, err := s.pool.Exec(ctx, query, id, string(status), string(reason), string(domain.TxStatusPending)); err != nil {
		return nil, fmt.Errorf("update transaction status: %w", err)
	}

	// Zero rows updated means either missing or already terminal; GetByID
	// distinguishes the two.
	return s.GetByID(ctx, id)
}

// rowScanner abstracts pgx.Row and pgx.Rows for scanning.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*domain.Transaction, error) {
	var (
		tx                                domain.Transaction
		chain, txType, status, reason     string
		amount, platformFee, royaltyShare string
	)

	err := row.Scan(
		&tx.ID, &tx.UserID, &tx.ManuscriptID, &tx.TxHash, &chain, &txType,
		&amount, &status, &reason,
		&platformFee, &royaltyShare, &tx.Metadata.RecipientAddress, &tx.Metadata.FeeTxHash,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tx.Chain = domain.Chain(chain)
	tx.Type = domain.TxType(txType)
	tx.Status = domain.TxStatus(status)
	tx.FailureReason = domain.FailureReason(reason)

	if tx.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if tx.Metadata.PlatformFee, err = decimal.NewFromString(platformFee); err != nil {
		return nil, fmt.Errorf("parse platform fee %q: %w", platformFee, err)
	}
	if tx.Metadata.RoyaltyShare, err = decimal.NewFromString(royaltyShare); err != nil {
		return nil, fmt.Errorf("parse royalty share %q: %w", royaltyShare, err)
	}
	return &tx, nil
}
