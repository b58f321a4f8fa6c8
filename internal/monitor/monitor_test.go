package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/domain"
	"royalty-engine/internal/storage/memory"
)

type statusResult struct {
	status *chain.Status
	err    error
}

// stubAdapter returns scripted status results in order; the last one repeats.
type stubAdapter struct {
	chainID domain.Chain

	mu      sync.Mutex
	results []statusResult
	calls   int
}

func (a *stubAdapter) Chain() domain.Chain { return a.chainID }

func (a *stubAdapter) SubmitPayout(ctx context.Context, p chain.Payout) (*chain.Submission, error) {
	return nil, errors.New("not implemented")
}

func (a *stubAdapter) SubmitRegistration(ctx context.Context, r chain.Registration) (string, error) {
	return "", errors.New("not implemented")
}

func (a *stubAdapter) Status(ctx context.Context, txHash string) (*chain.Status, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	idx := a.calls
	if idx >= len(a.results) {
		idx = len(a.results) - 1
	}
	a.calls++
	r := a.results[idx]
	return r.status, r.err
}

func (a *stubAdapter) statusCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func pending() statusResult {
	return statusResult{status: &chain.Status{State: domain.TxStatusPending}}
}

func confirmed() statusResult {
	return statusResult{status: &chain.Status{State: domain.TxStatusConfirmed, Confirmations: 3}}
}

func rejected() statusResult {
	return statusResult{status: &chain.Status{State: domain.TxStatusFailed, Reason: domain.FailureRejected}}
}

func queryError() statusResult {
	return statusResult{err: chain.NewQueryError(domain.ChainPolygon, errors.New("rpc unavailable"))}
}

func insertPending(t *testing.T, store *memory.TransactionStore, id string) {
	t.Helper()
	err := store.Insert(context.Background(), &domain.Transaction{
		ID:     id,
		UserID: "user-1",
		TxHash: "hash-" + id,
		Chain:  domain.ChainPolygon,
		Type:   domain.TxTypeRoyaltyPayout,
		Amount: decimal.NewFromInt(10),
		Status: domain.TxStatusPending,
	})
	require.NoError(t, err)
}

func newTestMonitor(t *testing.T, store *memory.TransactionStore, maxAttempts int, notifiers map[domain.Chain]Notifier) *Monitor {
	t.Helper()
	m, err := New(Options{
		Store:        store,
		InitialDelay: time.Millisecond,
		PollInterval: time.Millisecond,
		MaxAttempts:  maxAttempts,
		Notifiers:    notifiers,
	})
	require.NoError(t, err)
	return m
}

func waitForStatus(t *testing.T, store *memory.TransactionStore, id string, want domain.TxStatus) *domain.Transaction {
	t.Helper()

	var got *domain.Transaction
	require.Eventually(t, func() bool {
		tx, err := store.GetByID(context.Background(), id)
		if err != nil {
			return false
		}
		got = tx
		return tx.Status == want
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestMonitor_ConfirmsAfterPolling(t *testing.T) {
	store := memory.NewTransactionStore()
	insertPending(t, store, "tx-1")

	adapter := &stubAdapter{chainID: domain.ChainPolygon, results: []statusResult{pending(), pending(), confirmed()}}
	m := newTestMonitor(t, store, 10, nil)

	m.Watch(adapter, "tx-1", "hash-tx-1")

	tx := waitForStatus(t, store, "tx-1", domain.TxStatusConfirmed)
	assert.Equal(t, domain.FailureNone, tx.FailureReason)
	assert.Equal(t, 3, adapter.statusCalls())
}

func TestMonitor_RecordsRejection(t *testing.T) {
	store := memory.NewTransactionStore()
	insertPending(t, store, "tx-2")

	adapter := &stubAdapter{chainID: domain.ChainPolygon, results: []statusResult{pending(), rejected()}}
	m := newTestMonitor(t, store, 10, nil)

	m.Watch(adapter, "tx-2", "hash-tx-2")

	tx := waitForStatus(t, store, "tx-2", domain.TxStatusFailed)
	assert.Equal(t, domain.FailureRejected, tx.FailureReason)
}

func TestMonitor_TimesOutAfterMaxAttempts(t *testing.T) {
	store := memory.NewTransactionStore()
	insertPending(t, store, "tx-3")

	adapter := &stubAdapter{chainID: domain.ChainPolygon, results: []statusResult{pending()}}
	m := newTestMonitor(t, store, 4, nil)

	m.Watch(adapter, "tx-3", "hash-tx-3")

	tx := waitForStatus(t, store, "tx-3", domain.TxStatusFailed)
	assert.Equal(t, domain.FailureTimeout, tx.FailureReason)
	assert.Equal(t, 4, adapter.statusCalls())
}

func TestMonitor_AbsorbsQueryErrors(t *testing.T) {
	store := memory.NewTransactionStore()
	insertPending(t, store, "tx-4")

	adapter := &stubAdapter{chainID: domain.ChainPolygon, results: []statusResult{queryError(), queryError(), confirmed()}}
	m := newTestMonitor(t, store, 10, nil)

	m.Watch(adapter, "tx-4", "hash-tx-4")

	tx := waitForStatus(t, store, "tx-4", domain.TxStatusConfirmed)
	assert.Equal(t, domain.TxStatusConfirmed, tx.Status)
}

type stubNotifier struct {
	fire chan error
}

func (n *stubNotifier) WaitForSignature(ctx context.Context, signature string) error {
	select {
	case err := <-n.fire:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestMonitor_NotifierWakesPollerEarly(t *testing.T) {
	store := memory.NewTransactionStore()
	insertPending(t, store, "tx-5")

	adapter := &stubAdapter{chainID: domain.ChainSolana, results: []statusResult{confirmed()}}
	notifier := &stubNotifier{fire: make(chan error, 1)}

	// The initial delay is far longer than the test allows; only the
	// notifier can wake the poller in time.
	m, err := New(Options{
		Store:        store,
		InitialDelay: time.Hour,
		PollInterval: time.Hour,
		MaxAttempts:  3,
		Notifiers:    map[domain.Chain]Notifier{domain.ChainSolana: notifier},
	})
	require.NoError(t, err)

	m.Watch(adapter, "tx-5", "hash-tx-5")
	notifier.fire <- nil

	tx := waitForStatus(t, store, "tx-5", domain.TxStatusConfirmed)
	assert.Equal(t, domain.TxStatusConfirmed, tx.Status)
}

// blockingNotifier never fires; it returns only when its context ends.
type blockingNotifier struct {
	released chan struct{}
}

func (n *blockingNotifier) WaitForSignature(ctx context.Context, signature string) error {
	<-ctx.Done()
	close(n.released)
	return ctx.Err()
}

func TestMonitor_NotifierReleasedWhenWatchEnds(t *testing.T) {
	store := memory.NewTransactionStore()
	insertPending(t, store, "tx-7")

	// The subscription never fires; the watch resolves by polling and must
	// still tear the notifier down instead of leaving it blocked until
	// process shutdown.
	adapter := &stubAdapter{chainID: domain.ChainSolana, results: []statusResult{confirmed()}}
	notifier := &blockingNotifier{released: make(chan struct{})}
	m := newTestMonitor(t, store, 3, map[domain.Chain]Notifier{domain.ChainSolana: notifier})

	m.Watch(adapter, "tx-7", "hash-tx-7")
	waitForStatus(t, store, "tx-7", domain.TxStatusConfirmed)

	select {
	case <-notifier.released:
	case <-time.After(time.Second):
		t.Fatal("notifier still blocked after the watch completed")
	}
}

func TestMonitor_ShutdownLeavesPending(t *testing.T) {
	store := memory.NewTransactionStore()
	insertPending(t, store, "tx-6")

	adapter := &stubAdapter{chainID: domain.ChainPolygon, results: []statusResult{pending()}}
	m, err := New(Options{
		Store:        store,
		InitialDelay: time.Hour,
		PollInterval: time.Hour,
		MaxAttempts:  30,
	})
	require.NoError(t, err)

	m.Watch(adapter, "tx-6", "hash-tx-6")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))

	tx, err := store.GetByID(context.Background(), "tx-6")
	require.NoError(t, err)
	assert.Equal(t, domain.TxStatusPending, tx.Status)
}

func TestMonitor_DefaultsApplied(t *testing.T) {
	m, err := New(Options{Store: memory.NewTransactionStore()})
	require.NoError(t, err)
	assert.Equal(t, DefaultInitialDelay, m.initialDelay)
	assert.Equal(t, DefaultPollInterval, m.pollInterval)
	assert.Equal(t, DefaultMaxAttempts, m.maxAttempts)

	_, err = New(Options{})
	assert.Error(t, err)
}
