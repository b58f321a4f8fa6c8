// Package monitor tracks submitted transactions until they reach a terminal
// status. Each watched transaction gets its own polling goroutine; the store
// enforces that the PENDING record transitions at most once.
package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/domain"
	"royalty-engine/internal/observability"
	"royalty-engine/internal/storage"
)

const (
	// DefaultInitialDelay is how long to wait before the first status poll,
	// giving the chain time to include the transaction in a block.
	DefaultInitialDelay = 30 * time.Second

	// DefaultPollInterval is the pause between consecutive status polls.
	DefaultPollInterval = 10 * time.Second

	// DefaultMaxAttempts is the number of polls before giving up and
	// marking the transaction FAILED with reason TIMEOUT.
	DefaultMaxAttempts = 30
)

// Notifier is an optional push-based confirmation source. WaitForSignature
// blocks until the transaction reaches a terminal state or the context is
// cancelled; a nil return only wakes the poller early, the authoritative
// status still comes from the adapter.
type Notifier interface {
	WaitForSignature(ctx context.Context, signature string) error
}

// Options configures a Monitor.
type Options struct {
	Store storage.TransactionStore

	// InitialDelay, PollInterval and MaxAttempts default to the package
	// constants when zero.
	InitialDelay time.Duration
	PollInterval time.Duration
	MaxAttempts  int

	// Notifiers maps a chain to its push-based confirmation source.
	// Chains without an entry rely on polling alone.
	Notifiers map[domain.Chain]Notifier

	Logger *log.Logger
}

// Monitor polls chain adapters for transaction confirmations and records
// terminal statuses in the store.
type Monitor struct {
	store        storage.TransactionStore
	initialDelay time.Duration
	pollInterval time.Duration
	maxAttempts  int
	notifiers    map[domain.Chain]Notifier
	logger       *log.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a Monitor with defaults applied.
func New(opts Options) (*Monitor, error) {
	if opts.Store == nil {
		return nil, errors.New("monitor: store is required")
	}
	if opts.InitialDelay <= 0 {
		opts.InitialDelay = DefaultInitialDelay
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		store:        opts.Store,
		initialDelay: opts.InitialDelay,
		pollInterval: opts.PollInterval,
		maxAttempts:  opts.MaxAttempts,
		notifiers:    opts.Notifiers,
		logger:       opts.Logger,
		baseCtx:      ctx,
		cancel:       cancel,
	}, nil
}

// Watch starts tracking a submitted transaction in the background. The
// record identified by txID must already exist with status PENDING.
func (m *Monitor) Watch(adapter chain.Adapter, txID, txHash string) {
	m.wg.Add(1)
	observability.MonitorStarted()

	go func() {
		defer m.wg.Done()
		defer observability.MonitorFinished()
		m.watch(adapter, txID, txHash)
	}()
}

func (m *Monitor) watch(adapter chain.Adapter, txID, txHash string) {
	chainName := string(adapter.Chain())
	startedAt := time.Now()

	// The notifier lives no longer than this watch: cancelling here tears
	// down its subscription and connection once the watch ends.
	watchCtx, cancelWatch := context.WithCancel(m.baseCtx)
	defer cancelWatch()

	// Push notifications wake the poller early but never replace a poll.
	var notifyCh chan error
	if n, ok := m.notifiers[adapter.Chain()]; ok && n != nil {
		notifyCh = make(chan error, 1)
		go func() {
			notifyCh <- n.WaitForSignature(watchCtx, txHash)
		}()
	}

	if !m.sleep(watchCtx, m.initialDelay, notifyCh) {
		return
	}

	for attempt := 1; attempt <= m.maxAttempts; attempt++ {
		status, err := adapter.Status(watchCtx, txHash)
		observability.RecordPoll(chainName, err)
		if err != nil {
			// Query errors are transient; the next poll retries.
			m.logger.Printf("monitor: status poll failed tx=%s chain=%s attempt=%d/%d: %v",
				txID, chainName, attempt, m.maxAttempts, err)
		} else if status.State.Terminal() {
			m.finish(txID, chainName, status.State, status.Reason, startedAt)
			return
		}

		if attempt < m.maxAttempts && !m.sleep(watchCtx, m.pollInterval, notifyCh) {
			return
		}
	}

	m.logger.Printf("monitor: confirmation budget exhausted tx=%s chain=%s attempts=%d",
		txID, chainName, m.maxAttempts)
	m.finish(txID, chainName, domain.TxStatusFailed, domain.FailureTimeout, startedAt)
}

// sleep waits for d, waking early on a notifier event. Returns false when
// the watch is cancelled.
func (m *Monitor) sleep(ctx context.Context, d time.Duration, notifyCh chan error) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case err := <-notifyCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Printf("monitor: notifier error, falling back to polling: %v", err)
		}
		return ctx.Err() == nil
	case <-timer.C:
		return true
	}
}

func (m *Monitor) finish(txID, chainName string, status domain.TxStatus, reason domain.FailureReason, startedAt time.Time) {
	elapsed := time.Since(startedAt).Seconds()

	ctx, cancel := context.WithTimeout(m.baseCtx, 10*time.Second)
	defer cancel()

	if _, err := m.store.UpdateStatus(ctx, txID, status, reason); err != nil {
		m.logger.Printf("monitor: failed to record terminal status tx=%s status=%s: %v", txID, status, err)
		return
	}

	switch status {
	case domain.TxStatusConfirmed:
		observability.RecordConfirmed(chainName, elapsed)
		m.logger.Printf("monitor: confirmed tx=%s chain=%s after %.1fs", txID, chainName, elapsed)
	case domain.TxStatusFailed:
		observability.RecordFailed(chainName, string(reason), elapsed)
		m.logger.Printf("monitor: failed tx=%s chain=%s reason=%s after %.1fs", txID, chainName, reason, elapsed)
	}
}

// Shutdown stops all watchers and waits for them to exit. Transactions that
// have not reached a terminal status stay PENDING in the store.
func (m *Monitor) Shutdown(ctx context.Context) error {
	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
