// Package evm implements the chain.Adapter for EVM-compatible networks
// (Polygon, Base) using native-asset transfers signed by a platform-held
// key. Generic account transfers cannot be composed into one atomic unit
// without a custom contract, so payouts are submitted as two independent
// transactions; the author-amount transfer is the recorded main hash.
package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/domain"
)

// Gas limits: plain value transfer, and the rights-registration call.
const (
	transferGasLimit     = 21000
	registrationGasLimit = 500000
)

// rightsABI is the registration entrypoint of the rights contract.
const rightsABI = `[{"inputs":[{"name":"manuscriptId","type":"string"},{"name":"title","type":"string"},{"name":"collaborators","type":"address[]"},{"name":"shares","type":"uint256[]"}],"name":"registerRights","outputs":[{"name":"","type":"uint256"}],"stateMutability":"payable","type":"function"}]`

// Backend is the subset of ethclient.Client the adapter needs.
type Backend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Adapter submits native transfers and rights registrations on one EVM
// network.
type Adapter struct {
	chainName      domain.Chain
	backend        Backend
	key            *ecdsa.PrivateKey
	from           common.Address
	signer         types.Signer
	rightsContract common.Address
	hasContract    bool
	registerABI    abi.ABI
	logger         *log.Logger

	// submitMu serializes nonce allocation: each submission reads the
	// pending nonce and sends against it, so concurrent submissions from
	// the same key would otherwise race to the same nonce.
	submitMu sync.Mutex
}

// Compile-time interface check.
var _ chain.Adapter = (*Adapter)(nil)

// Options configures an EVM adapter.
type Options struct {
	Chain   domain.Chain
	Backend Backend
	// PrivateKeyHex is the platform signing key, hex without 0x prefix.
	PrivateKeyHex string
	ChainID       *big.Int
	// RightsContract is the rights-registration contract address.
	// Optional: registration fails with a ConfigurationError when unset.
	RightsContract string
	Logger         *log.Logger
}

// New creates an EVM adapter.
func New(opts Options) (*Adapter, error) {
	if !opts.Chain.IsEVM() {
		return nil, fmt.Errorf("chain %s is not EVM-compatible", opts.Chain)
	}
	if opts.Backend == nil {
		return nil, fmt.Errorf("backend is required")
	}
	if opts.ChainID == nil || opts.ChainID.Sign() <= 0 {
		return nil, fmt.Errorf("chain id is required")
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(opts.PrivateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse platform key: %w", err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(rightsABI))
	if err != nil {
		return nil, fmt.Errorf("parse rights abi: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	a := &Adapter{
		chainName:   opts.Chain,
		backend:     opts.Backend,
		key:         key,
		from:        crypto.PubkeyToAddress(key.PublicKey),
		signer:      types.LatestSignerForChainID(opts.ChainID),
		registerABI: parsedABI,
		logger:      logger,
	}
	if opts.RightsContract != "" {
		if !common.IsHexAddress(opts.RightsContract) {
			return nil, fmt.Errorf("invalid rights contract address %q", opts.RightsContract)
		}
		a.rightsContract = common.HexToAddress(opts.RightsContract)
		a.hasContract = true
	}
	return a, nil
}

// Chain returns the network this adapter targets.
func (a *Adapter) Chain() domain.Chain {
	return a.chainName
}

// SubmitPayout sends the author transfer, then the platform-fee transfer.
// The legs are independent transactions: if the fee leg fails after the
// author leg was accepted, the payout is still reported as submitted with
// an empty FeeTxHash, and the failure is logged for reconciliation.
func (a *Adapter) SubmitPayout(ctx context.Context, p chain.Payout) (*chain.Submission, error) {
	if !common.IsHexAddress(p.Recipient) {
		return nil, chain.NewSubmissionError(a.chainName, "payout", fmt.Errorf("invalid recipient address %q", p.Recipient))
	}
	if !common.IsHexAddress(p.PlatformWallet) {
		return nil, chain.NewSubmissionError(a.chainName, "payout", fmt.Errorf("invalid platform wallet %q", p.PlatformWallet))
	}

	a.submitMu.Lock()
	defer a.submitMu.Unlock()

	nonce, err := a.backend.PendingNonceAt(ctx, a.from)
	if err != nil {
		return nil, chain.NewSubmissionError(a.chainName, "payout", fmt.Errorf("nonce: %w", err))
	}
	gasPrice, err := a.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, chain.NewSubmissionError(a.chainName, "payout", fmt.Errorf("gas price: %w", err))
	}

	authorHash, err := a.sendTransfer(ctx, nonce, gasPrice, common.HexToAddress(p.Recipient), p.AuthorAmount)
	if err != nil {
		return nil, chain.NewSubmissionError(a.chainName, "payout", err)
	}

	sub := &chain.Submission{TxHash: authorHash}

	if p.FeeAmount != nil && p.FeeAmount.Sign() > 0 {
		feeHash, err := a.sendTransfer(ctx, nonce+1, gasPrice, common.HexToAddress(p.PlatformWallet), p.FeeAmount)
		if err != nil {
			a.logger.Printf("ERROR: %s platform-fee leg failed after author transfer %s: %v (needs reconciliation)",
				a.chainName, authorHash, err)
			return sub, nil
		}
		sub.FeeTxHash = feeHash
	}
	return sub, nil
}

// SubmitRegistration calls registerRights on the configured contract,
// paying the registration fee as the call value.
func (a *Adapter) SubmitRegistration(ctx context.Context, r chain.Registration) (string, error) {
	if !a.hasContract {
		return "", domain.NewConfigurationError("no rights contract configured for %s", a.chainName)
	}

	addrs := make([]common.Address, len(r.Collaborators))
	shares := make([]*big.Int, len(r.Collaborators))
	for i, c := range r.Collaborators {
		if !common.IsHexAddress(c.WalletAddress) {
			return "", chain.NewSubmissionError(a.chainName, "registration",
				fmt.Errorf("invalid collaborator address %q", c.WalletAddress))
		}
		addrs[i] = common.HexToAddress(c.WalletAddress)
		shares[i] = new(big.Int).SetUint64(c.ShareBps)
	}

	data, err := a.registerABI.Pack("registerRights", r.ManuscriptID, r.Title, addrs, shares)
	if err != nil {
		return "", chain.NewSubmissionError(a.chainName, "registration", fmt.Errorf("pack call: %w", err))
	}

	a.submitMu.Lock()
	defer a.submitMu.Unlock()

	nonce, err := a.backend.PendingNonceAt(ctx, a.from)
	if err != nil {
		return "", chain.NewSubmissionError(a.chainName, "registration", fmt.Errorf("nonce: %w", err))
	}
	gasPrice, err := a.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", chain.NewSubmissionError(a.chainName, "registration", fmt.Errorf("gas price: %w", err))
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &a.rightsContract,
		Value:    r.Fee,
		Gas:      registrationGasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := types.SignTx(tx, a.signer, a.key)
	if err != nil {
		return "", chain.NewSubmissionError(a.chainName, "registration", fmt.Errorf("sign: %w", err))
	}
	if err := a.backend.SendTransaction(ctx, signed); err != nil {
		return "", chain.NewSubmissionError(a.chainName, "registration", err)
	}
	return signed.Hash().Hex(), nil
}

// Status reports receipt-based confirmation. A missing receipt is PENDING;
// a receipt with failed status is a definitive on-chain rejection.
func (a *Adapter) Status(ctx context.Context, txHash string) (*chain.Status, error) {
	receipt, err := a.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return &chain.Status{State: domain.TxStatusPending}, nil
		}
		return nil, chain.NewQueryError(a.chainName, err)
	}

	if receipt.Status == types.ReceiptStatusFailed {
		return &chain.Status{
			State:    domain.TxStatusFailed,
			BlockRef: receipt.BlockNumber.String(),
			Reason:   domain.FailureRejected,
		}, nil
	}

	head, err := a.backend.BlockNumber(ctx)
	if err != nil {
		return nil, chain.NewQueryError(a.chainName, err)
	}

	block := receipt.BlockNumber.Uint64()
	if head < block {
		// Stale head, likely a reorg in progress.
		return &chain.Status{State: domain.TxStatusPending}, nil
	}

	confirmations := head - block + 1
	return &chain.Status{
		State:         domain.TxStatusConfirmed,
		Confirmations: confirmations,
		BlockRef:      receipt.BlockNumber.String(),
	}, nil
}

// sendTransfer signs and submits a plain value transfer.
func (a *Adapter) sendTransfer(ctx context.Context, nonce uint64, gasPrice *big.Int, to common.Address, amount *big.Int) (string, error) {
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    amount,
		Gas:      transferGasLimit,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(tx, a.signer, a.key)
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}
	if err := a.backend.SendTransaction(ctx, signed); err != nil {
		return "", err
	}
	return signed.Hash().Hex(), nil
}
