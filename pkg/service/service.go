// Package service hosts the bridge orchestrator: the single entry point
// for estimate, bridge and retry lifecycles. It is the only component
// aware of both the adapter layer and the transaction data model.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/pkg/adapters"
	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/events"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
	"github.com/mjkid221/cctp-bridge/pkg/store"
	"github.com/mjkid221/cctp-bridge/pkg/wallet"
)

var (
	ErrNotInitialized   = errors.New("bridge service is not initialized")
	ErrNoWalletAddress  = errors.New("wallet has no address")
	ErrNoWalletFor      = errors.New("no connected wallet for network type")
	ErrNotFailed        = errors.New("only failed transactions can be retried")
	ErrNoRetainedResult = errors.New("transaction has no retained result to retry from")
	ErrWrongUser        = errors.New("transaction belongs to a different user")
)

// KitFactory builds a fresh protocol kit for one transfer. Each transfer
// gets its own kit so event tracking stays isolated per transaction.
type KitFactory func() protocol.Kit

// Service coordinates transfers between the adapter layer, the protocol
// kit, the event manager and the shared store.
type Service struct {
	logger   *zap.Logger
	registry *chains.Registry
	factory  *adapters.Factory
	shared   *store.Store
	events   *events.Manager
	db       db.Store
	newKit   KitFactory
	// historyCap bounds per-user transaction history; older terminal
	// rows are pruned on initialize.
	historyCap int

	mu          sync.Mutex
	initialized bool
	primary     wallet.Wallet
	wallets     []wallet.Wallet
	userAddress string
}

// New creates the orchestrator.
func New(
	registry *chains.Registry,
	factory *adapters.Factory,
	shared *store.Store,
	eventManager *events.Manager,
	database db.Store,
	newKit KitFactory,
	historyCap int,
	logger *zap.Logger,
) *Service {
	return &Service{
		logger:     logger,
		registry:   registry,
		factory:    factory,
		shared:     shared,
		events:     eventManager,
		db:         database,
		newKit:     newKit,
		historyCap: historyCap,
	}
}

// Initialize binds the service to a user session. The primary wallet
// supplies the user address; allWallets may add one wallet per chain
// family for multi-wallet setups. Any cached adapters from a previous
// session are discarded.
func (s *Service) Initialize(ctx context.Context, primary wallet.Wallet, allWallets []wallet.Wallet) error {
	if primary == nil || primary.Address() == "" {
		return apperrors.BadRequestError(ErrNoWalletAddress, ErrNoWalletAddress.Error())
	}

	s.mu.Lock()
	s.primary = primary
	s.wallets = allWallets
	if len(allWallets) == 0 {
		s.wallets = []wallet.Wallet{primary}
	}
	s.userAddress = primary.Address()
	s.initialized = true
	s.mu.Unlock()

	// Stale adapters must never leak between sessions.
	s.factory.ClearCache("")

	if err := s.shared.Load(ctx, primary.Address()); err != nil {
		return apperrors.GeneralError(err)
	}

	if s.historyCap > 0 {
		pruned, err := s.db.PruneOldTransactions(ctx, primary.Address(), s.historyCap)
		if err != nil {
			s.logger.Warn("Failed to prune transaction history",
				zap.String("user", primary.Address()),
				zap.Error(err))
		} else if pruned > 0 {
			s.logger.Info("Pruned transaction history",
				zap.String("user", primary.Address()),
				zap.Int("removed", pruned))
		}
	}

	s.logger.Info("Bridge service initialized",
		zap.String("user", primary.Address()),
		zap.Int("wallets", len(s.wallets)))
	return nil
}

// Reset disposes event tracking and forgets the session. Safe to call at
// any time, including before Initialize.
func (s *Service) Reset() {
	s.events.Dispose()

	s.mu.Lock()
	user := s.userAddress
	s.primary = nil
	s.wallets = nil
	s.userAddress = ""
	s.initialized = false
	s.mu.Unlock()

	if user != "" {
		s.factory.ClearCache(user)
	}
}

// UserAddress returns the active user, or empty when not initialized.
func (s *Service) UserAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAddress
}

func (s *Service) requireInit() (string, []wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return "", nil, apperrors.NotReadyError(ErrNotInitialized, ErrNotInitialized.Error())
	}
	return s.userAddress, s.wallets, nil
}

// walletFor locates a connected wallet compatible with the network type.
// The primary wallet is not special here; a Solana balance request served
// by an EVM-primary session still finds the Solana wallet.
func walletFor(wallets []wallet.Wallet, networkType chains.NetworkType) (wallet.Wallet, error) {
	for _, w := range wallets {
		if w.NetworkType() == networkType {
			return w, nil
		}
	}
	err := fmt.Errorf("%w: %s", ErrNoWalletFor, networkType)
	return nil, apperrors.NotSupportedError(err, err.Error())
}

// GetBalance reads the user's USDC balance on a chain.
func (s *Service) GetBalance(ctx context.Context, chainID string) (string, error) {
	_, wallets, err := s.requireInit()
	if err != nil {
		return "", err
	}

	chain, err := s.registry.Get(chainID)
	if err != nil {
		return "", apperrors.ResourceNotFoundError(err, err.Error())
	}

	w, err := walletFor(wallets, chain.NetworkType)
	if err != nil {
		return "", err
	}

	adapter, err := s.factory.GetAdapter(w, chain.NetworkType, chain)
	if err != nil {
		return "", apperrors.GeneralError(err)
	}

	action, err := adapter.PrepareAction("usdc.balanceOf",
		map[string]any{"address": w.Address()},
		adapters.ActionOptions{Chain: chain})
	if err != nil {
		return "", apperrors.GeneralError(err)
	}

	result, err := action.Execute(ctx)
	if err != nil {
		return "", apperrors.DependencyError(err, "failed to read balance")
	}
	balance, ok := result.(string)
	if !ok {
		return "", apperrors.GeneralError(fmt.Errorf("unexpected balance result type %T", result))
	}
	return balance, nil
}

// SupportsRoute reports whether USDC can move from one chain to the
// other: both chains known, same environment, not the same chain.
func (s *Service) SupportsRoute(fromID, toID string) bool {
	if fromID == toID {
		return false
	}
	from, err := s.registry.Get(fromID)
	if err != nil {
		return false
	}
	to, err := s.registry.Get(toID)
	if err != nil {
		return false
	}
	return from.Environment == to.Environment
}

// endpoint resolves the wallet and adapter for one leg of a transfer. An
// EVM wallet pointed at the wrong chain is switched first, because
// adapters bind to the wallet's current chain at creation time.
func (s *Service) endpoint(ctx context.Context, wallets []wallet.Wallet, chain chains.Chain, recipient string) (protocol.Endpoint, error) {
	w, err := walletFor(wallets, chain.NetworkType)
	if err != nil {
		return protocol.Endpoint{}, err
	}

	if chain.NetworkType == chains.NetworkEVM && chain.EVMChainID != 0 && w.CurrentChainID() != chain.EVMChainID {
		if err := w.SwitchChain(ctx, chain); err != nil {
			return protocol.Endpoint{}, apperrors.DependencyError(err, "failed to switch wallet chain")
		}
	}

	adapter, err := s.factory.GetAdapter(w, chain.NetworkType, chain)
	if err != nil {
		return protocol.Endpoint{}, apperrors.GeneralError(err)
	}

	return protocol.Endpoint{
		Adapter:          adapter,
		Chain:            chain,
		RecipientAddress: recipient,
	}, nil
}

func transferSpeed(method bridge.TransferMethod) protocol.TransferSpeed {
	if method == bridge.TransferFast {
		return protocol.SpeedFast
	}
	return protocol.SpeedSlow
}
