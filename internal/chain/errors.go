package chain

import (
	"fmt"

	"royalty-engine/internal/domain"
)

// SubmissionError means the adapter could not submit a transaction: RPC
// unreachable, signing failure, insufficient signer balance. No record is
// persisted when this is returned, so the request is retry-safe.
type SubmissionError struct {
	Chain domain.Chain
	Op    string
	Err   error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s %s submission failed: %v", e.Chain, e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// NewSubmissionError wraps err as a SubmissionError.
func NewSubmissionError(chain domain.Chain, op string, err error) *SubmissionError {
	return &SubmissionError{Chain: chain, Op: op, Err: err}
}

// QueryError means a status poll failed. The monitor treats it as
// transient: it only contributes to a timeout, never fails a transaction
// by itself.
type QueryError struct {
	Chain domain.Chain
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s status query failed: %v", e.Chain, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// NewQueryError wraps err as a QueryError.
func NewQueryError(chain domain.Chain, err error) *QueryError {
	return &QueryError{Chain: chain, Err: err}
}
