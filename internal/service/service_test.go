package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/domain"
	"royalty-engine/internal/payout"
	"royalty-engine/internal/rights"
	"royalty-engine/internal/royalty"
	"royalty-engine/internal/storage"
	"royalty-engine/internal/storage/memory"
)

const (
	recipient      = "0x1111111111111111111111111111111111111111"
	platformWallet = "0x2222222222222222222222222222222222222222"
)

// fakeAdapter submits instantly with predictable hashes.
type fakeAdapter struct {
	n int
}

func (a *fakeAdapter) Chain() domain.Chain { return domain.ChainPolygon }

func (a *fakeAdapter) SubmitPayout(ctx context.Context, p chain.Payout) (*chain.Submission, error) {
	a.n++
	return &chain.Submission{TxHash: "0xhash" + string(rune('0'+a.n))}, nil
}

func (a *fakeAdapter) SubmitRegistration(ctx context.Context, r chain.Registration) (string, error) {
	a.n++
	return "0xreg" + string(rune('0'+a.n)), nil
}

func (a *fakeAdapter) Status(ctx context.Context, txHash string) (*chain.Status, error) {
	return &chain.Status{State: domain.TxStatusPending}, nil
}

type noopWatcher struct{}

func (noopWatcher) Watch(adapter chain.Adapter, txID, txHash string) {}

func newTestService(t *testing.T) (*Service, *memory.TransactionStore) {
	t.Helper()

	store := memory.NewTransactionStore()
	adapter := &fakeAdapter{}

	orch, err := payout.New(payout.Options{
		Adapters:        []chain.Adapter{adapter},
		Store:           store,
		Watcher:         noopWatcher{},
		PlatformWallets: map[domain.Chain]string{domain.ChainPolygon: platformWallet},
	})
	require.NoError(t, err)

	registrar, err := rights.New(rights.Options{
		Adapters: []chain.Adapter{adapter},
		Store:    store,
		Watcher:  noopWatcher{},
	})
	require.NoError(t, err)

	svc, err := New(Options{
		Calculator:   royalty.NewCalculator(nil),
		Orchestrator: orch,
		Registrar:    registrar,
		Store:        store,
	})
	require.NoError(t, err)
	return svc, store
}

func TestService_CalculateRoyalties(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.CalculateRoyalties(domain.RoyaltyRequest{
		Platform: domain.PlatformNeuralBooks,
		Format:   domain.FormatEbook,
		Price:    decimal.RequireFromString("10.00"),
	})
	require.NoError(t, err)

	assert.True(t, result.PlatformFee.Equal(decimal.RequireFromString("0.50")))
	assert.True(t, result.AuthorEarnings.Equal(decimal.RequireFromString("8.00")))
}

func TestService_CalculateRoyaltiesError(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CalculateRoyalties(domain.RoyaltyRequest{
		Platform: "UNKNOWN",
		Format:   domain.FormatEbook,
		Price:    decimal.NewFromInt(10),
	})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestService_PayoutAndLookup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx, err := svc.ProcessRoyaltyPayout(ctx, domain.PayoutRequest{
		ManuscriptID:     "ms-1",
		UserID:           "user-1",
		Amount:           decimal.NewFromInt(50),
		Chain:            domain.ChainPolygon,
		RecipientAddress: recipient,
		RoyaltyShare:     decimal.NewFromInt(85),
	})
	require.NoError(t, err)

	got, err := svc.GetTransactionStatus(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, got.ID)
	assert.Equal(t, domain.TxStatusPending, got.Status)

	list, err := svc.ListTransactions(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestService_SecureRights(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	tx, err := svc.SecureRights(ctx, domain.RegistrationRequest{
		ManuscriptID: "ms-2",
		UserID:       "user-2",
		Chain:        domain.ChainPolygon,
		Title:        "Collected Works",
		Collaborators: []domain.Collaborator{
			{UserID: "user-2", WalletAddress: recipient, RoyaltyShare: decimal.NewFromInt(100)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TxTypeRightsRegistration, tx.Type)

	stored, err := store.GetByID(ctx, tx.ID)
	require.NoError(t, err)
	assert.True(t, stored.Amount.Equal(rights.RegistrationFee))
}

func TestService_LookupValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.GetTransactionStatus(ctx, "")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.ListTransactions(ctx, "")
	assert.ErrorAs(t, err, &verr)

	_, err = svc.GetTransactionStatus(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
