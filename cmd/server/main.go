// Package main runs the royalty engine API server: royalty calculation,
// multi-chain payout submission, rights registration and transaction
// status tracking behind one HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"

	"royalty-engine/internal/chain"
	"royalty-engine/internal/chain/evm"
	solanaadapter "royalty-engine/internal/chain/solana"
	"royalty-engine/internal/domain"
	"royalty-engine/internal/monitor"
	"royalty-engine/internal/payout"
	"royalty-engine/internal/rights"
	"royalty-engine/internal/royalty"
	"royalty-engine/internal/service"
	"royalty-engine/internal/solanarpc"
	"royalty-engine/internal/storage"
	"royalty-engine/internal/storage/memory"
	"royalty-engine/internal/storage/migrations"
	pgstore "royalty-engine/internal/storage/postgres"
)

// evmChainConfig groups the per-chain flags for one EVM network.
type evmChainConfig struct {
	chain          domain.Chain
	rpcEndpoint    string
	chainID        int64
	rightsContract string
}

func main() {
	// Load .env file if exists
	loadEnvFile()

	// Parse flags (env vars as defaults)
	listenAddr := flag.String("listen-addr", envOr("LISTEN_ADDR", ":8080"), "HTTP listen address")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")

	polygonRPC := flag.String("polygon-rpc", os.Getenv("POLYGON_RPC_ENDPOINT"), "Polygon RPC HTTP endpoint (empty to disable)")
	polygonChainID := flag.Int64("polygon-chain-id", 137, "Polygon chain id")
	polygonRights := flag.String("polygon-rights-contract", os.Getenv("POLYGON_RIGHTS_CONTRACT"), "Rights registry contract on Polygon")
	baseRPC := flag.String("base-rpc", os.Getenv("BASE_RPC_ENDPOINT"), "Base RPC HTTP endpoint (empty to disable)")
	baseChainID := flag.Int64("base-chain-id", 8453, "Base chain id")
	baseRights := flag.String("base-rights-contract", os.Getenv("BASE_RIGHTS_CONTRACT"), "Rights registry contract on Base")
	evmPrivateKey := flag.String("evm-private-key", os.Getenv("EVM_PRIVATE_KEY"), "Platform signing key for EVM chains (hex)")
	evmPlatformWallet := flag.String("evm-platform-wallet", os.Getenv("EVM_PLATFORM_WALLET"), "Platform fee wallet on EVM chains")

	solanaRPC := flag.String("solana-rpc", os.Getenv("SOLANA_RPC_ENDPOINT"), "Solana RPC HTTP endpoint (empty to disable)")
	solanaWS := flag.String("solana-ws", os.Getenv("SOLANA_WS_ENDPOINT"), "Solana WebSocket endpoint (optional, enables push confirmations)")
	solanaKeypair := flag.String("solana-keypair", os.Getenv("SOLANA_KEYPAIR"), "Platform signing keypair for Solana (base58 or hex)")
	solanaPlatformWallet := flag.String("solana-platform-wallet", os.Getenv("SOLANA_PLATFORM_WALLET"), "Platform fee wallet on Solana")

	initialDelay := flag.Duration("confirm-initial-delay", monitor.DefaultInitialDelay, "Delay before the first confirmation poll")
	pollInterval := flag.Duration("confirm-poll-interval", monitor.DefaultPollInterval, "Interval between confirmation polls")
	maxAttempts := flag.Int("confirm-max-attempts", monitor.DefaultMaxAttempts, "Confirmation polls before marking TIMEOUT")

	flag.Parse()

	// Setup logger
	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	if !*useMemory && *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required (use --use-memory for in-memory storage)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Create store
	store, cleanup, err := createStore(ctx, *postgresDSN, *useMemory)
	if err != nil {
		logger.Fatalf("Failed to create store: %v", err)
	}
	defer cleanup()

	// Create chain adapters
	var adapters []chain.Adapter
	platformWallets := make(map[domain.Chain]string)
	notifiers := make(map[domain.Chain]monitor.Notifier)

	evmChains := []evmChainConfig{
		{chain: domain.ChainPolygon, rpcEndpoint: *polygonRPC, chainID: *polygonChainID, rightsContract: *polygonRights},
		{chain: domain.ChainBase, rpcEndpoint: *baseRPC, chainID: *baseChainID, rightsContract: *baseRights},
	}
	for _, cfg := range evmChains {
		if cfg.rpcEndpoint == "" {
			continue
		}
		if *evmPrivateKey == "" {
			logger.Fatalf("--evm-private-key is required when %s is enabled", cfg.chain)
		}

		client, err := ethclient.DialContext(ctx, cfg.rpcEndpoint)
		if err != nil {
			logger.Fatalf("Failed to connect to %s RPC: %v", cfg.chain, err)
		}
		defer client.Close()

		adapter, err := evm.New(evm.Options{
			Chain:          cfg.chain,
			Backend:        client,
			PrivateKeyHex:  strings.TrimPrefix(*evmPrivateKey, "0x"),
			ChainID:        big.NewInt(cfg.chainID),
			RightsContract: cfg.rightsContract,
			Logger:         logger,
		})
		if err != nil {
			logger.Fatalf("Failed to create %s adapter: %v", cfg.chain, err)
		}

		adapters = append(adapters, adapter)
		platformWallets[cfg.chain] = *evmPlatformWallet
		logger.Printf("Enabled %s (chain id %d)", cfg.chain, cfg.chainID)
	}

	if *solanaRPC != "" {
		if *solanaKeypair == "" {
			logger.Fatal("--solana-keypair is required when Solana is enabled")
		}
		keypair, err := solanarpc.ParseKeypair(*solanaKeypair)
		if err != nil {
			logger.Fatalf("Failed to parse Solana keypair: %v", err)
		}

		adapter, err := solanaadapter.New(solanaadapter.Options{
			Client:         solanarpc.NewHTTPClient(*solanaRPC),
			Keypair:        keypair,
			PlatformWallet: *solanaPlatformWallet,
			Logger:         logger,
		})
		if err != nil {
			logger.Fatalf("Failed to create Solana adapter: %v", err)
		}

		adapters = append(adapters, adapter)
		platformWallets[domain.ChainSolana] = *solanaPlatformWallet
		if *solanaWS != "" {
			notifiers[domain.ChainSolana] = solanarpc.NewSignatureNotifier(*solanaWS)
			logger.Printf("Enabled Solana with push confirmations via %s", *solanaWS)
		} else {
			logger.Println("Enabled Solana (polling confirmations only)")
		}
	}

	if len(adapters) == 0 {
		logger.Fatal("No chains enabled. Set at least one of --polygon-rpc, --base-rpc, --solana-rpc")
	}

	// Create monitor
	mon, err := monitor.New(monitor.Options{
		Store:        store,
		InitialDelay: *initialDelay,
		PollInterval: *pollInterval,
		MaxAttempts:  *maxAttempts,
		Notifiers:    notifiers,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create monitor: %v", err)
	}

	// Create orchestrator, registrar, service
	orchestrator, err := payout.New(payout.Options{
		Adapters:        adapters,
		Store:           store,
		Watcher:         mon,
		PlatformWallets: platformWallets,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create payout orchestrator: %v", err)
	}

	registrar, err := rights.New(rights.Options{
		Adapters: adapters,
		Store:    store,
		Watcher:  mon,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create rights registrar: %v", err)
	}

	svc, err := service.New(service.Options{
		Calculator:   royalty.NewCalculator(nil),
		Orchestrator: orchestrator,
		Registrar:    registrar,
		Store:        store,
		Logger:       logger,
	})
	if err != nil {
		logger.Fatalf("Failed to create service: %v", err)
	}

	api := newAPI(svc, logger)
	httpServer := &http.Server{
		Addr:         *listenAddr,
		Handler:      api.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting HTTP server on %s", *listenAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case sig := <-sigCh:
		logger.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-errCh:
		logger.Printf("HTTP server error: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP shutdown error: %v", err)
	}
	if err := mon.Shutdown(shutdownCtx); err != nil {
		logger.Printf("Monitor shutdown error: %v", err)
	}

	logger.Println("Shutdown complete")
}

// createStore creates the transaction store.
func createStore(ctx context.Context, postgresDSN string, useMemory bool) (storage.TransactionStore, func(), error) {
	if useMemory {
		return memory.NewTransactionStore(), func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("apply migrations: %w", err)
	}

	return pgstore.NewTransactionStore(pool), pool.Close, nil
}

// envOr returns the env var value or a fallback.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// loadEnvFile loads environment variables from .env file if it exists.
func loadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return // File doesn't exist, use system env vars
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// Don't override existing env vars
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}
