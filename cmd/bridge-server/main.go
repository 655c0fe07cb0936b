package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/pkg/adapters"
	evmadapter "github.com/mjkid221/cctp-bridge/pkg/adapters/evm"
	solanaadapter "github.com/mjkid221/cctp-bridge/pkg/adapters/solana"
	"github.com/mjkid221/cctp-bridge/pkg/api"
	apphttp "github.com/mjkid221/cctp-bridge/pkg/app/http"
	"github.com/mjkid221/cctp-bridge/pkg/auth"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/config"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/events"
	"github.com/mjkid221/cctp-bridge/pkg/kitclient"
	"github.com/mjkid221/cctp-bridge/pkg/pgutil"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
	"github.com/mjkid221/cctp-bridge/pkg/push"
	"github.com/mjkid221/cctp-bridge/pkg/service"
	"github.com/mjkid221/cctp-bridge/pkg/store"
	"github.com/mjkid221/cctp-bridge/pkg/wallet"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to setup logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Bridge server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting bridge server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
	)

	database, err := pgutil.ConnectDB(&cfg.Database)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() { _ = database.Close() }()
	logger.Info("Connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database),
	)

	registry, err := chains.NewRegistry(cfg.Chains)
	if err != nil {
		return fmt.Errorf("build chain registry: %w", err)
	}

	primary, wallets, err := loadWallets(&cfg.Wallet, registry)
	if err != nil {
		return fmt.Errorf("load wallets: %w", err)
	}

	factory := adapters.NewFactory(logger)
	factory.Register(chains.NetworkEVM, evmadapter.NewCreator())
	factory.Register(chains.NetworkSolana, solanaadapter.NewCreator())

	bridgeStore := db.NewStore(database)
	shared := store.New(bridgeStore, environment(registry), logger)
	manager := events.NewManager(bridgeStore, logger)

	svc := service.New(registry, factory, shared, manager, bridgeStore,
		func() protocol.Kit {
			return kitclient.New(cfg.Kit.BaseURL, cfg.Kit.RequestTimeout, logger)
		},
		cfg.Bridge.HistoryCap, logger)
	if err := svc.Initialize(ctx, primary, wallets); err != nil {
		return fmt.Errorf("initialize bridge service: %w", err)
	}
	defer svc.Reset()
	logger.Info("Bridge service initialized", zap.String("address", svc.UserAddress()))

	hub := push.NewHub(shared, cfg.Server.AllowedOrigins, logger)
	hub.Start()
	defer hub.Stop()

	issuer := auth.NewSessionIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL)

	router := api.NewRouter(api.Options{
		Service:        svc,
		Shared:         shared,
		Registry:       registry,
		Issuer:         issuer,
		Hub:            hub,
		MetricsEnabled: cfg.Monitoring.Enabled,
		Logger:         logger,
	})

	return apphttp.ServeAndWait(ctx, router, logger, &cfg.Server)
}

// loadWallets builds the server's wallet set from the configured key env
// vars. The EVM key is required; the Solana key is optional.
func loadWallets(cfg *config.WalletConfig, registry *chains.Registry) (wallet.Wallet, []wallet.Wallet, error) {
	evmKey := os.Getenv(cfg.EVMKeyEnv)
	if evmKey == "" {
		return nil, nil, fmt.Errorf("EVM private key not set: env=%s", cfg.EVMKeyEnv)
	}

	evmWallet, err := wallet.NewEVMWallet(evmKey, defaultEVMChainID(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("load EVM wallet: %w", err)
	}
	wallets := []wallet.Wallet{evmWallet}

	if solKey := os.Getenv(cfg.SolanaKeyEnv); solKey != "" {
		solWallet, err := wallet.NewSolanaWallet(solKey)
		if err != nil {
			return nil, nil, fmt.Errorf("load Solana wallet: %w", err)
		}
		wallets = append(wallets, solWallet)
	}

	return evmWallet, wallets, nil
}

func defaultEVMChainID(registry *chains.Registry) int64 {
	for _, c := range registry.All() {
		if c.NetworkType == chains.NetworkEVM {
			return c.EVMChainID
		}
	}
	return 0
}

// environment picks the session environment from the configured chains.
// Mixed configs run as mainnet; routes stay environment-checked per call.
func environment(registry *chains.Registry) string {
	env := string(chains.EnvironmentTestnet)
	for _, c := range registry.All() {
		if c.Environment == chains.EnvironmentMainnet {
			env = string(chains.EnvironmentMainnet)
		}
	}
	return env
}
