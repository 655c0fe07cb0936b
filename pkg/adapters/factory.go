package adapters

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/internal/metrics"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/wallet"
)

var (
	// ErrUnregisteredNetworkType indicates no creator exists for the network type.
	ErrUnregisteredNetworkType = errors.New("no adapter creator registered for network type")
	// ErrIncompatibleWallet indicates the creator rejected the wallet.
	ErrIncompatibleWallet = errors.New("wallet is not compatible with network type")
)

// Factory resolves (wallet, network type, chain) triples to adapters,
// caching each constructed adapter per wallet address and chain.
type Factory struct {
	mu       sync.Mutex
	creators map[chains.NetworkType]Creator
	cache    map[string]Adapter
	logger   *zap.Logger
}

// NewFactory creates an empty adapter factory.
func NewFactory(logger *zap.Logger) *Factory {
	return &Factory{
		creators: make(map[chains.NetworkType]Creator),
		cache:    make(map[string]Adapter),
		logger:   logger,
	}
}

// Register installs a creator for a network type. Registering over an
// existing type replaces the entry and logs a warning.
func (f *Factory) Register(networkType chains.NetworkType, creator Creator) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.creators[networkType]; exists {
		f.logger.Warn("Replacing adapter creator", zap.String("network_type", string(networkType)))
	}
	f.creators[networkType] = creator
}

// cacheKey builds the adapter cache key. Distinct chains under the same
// network type get distinct adapters because RPC endpoints differ per
// environment.
func cacheKey(walletAddress string, networkType chains.NetworkType, chainID string) string {
	return fmt.Sprintf("%s|%s|%s", walletAddress, networkType, chainID)
}

// GetAdapter returns a cached adapter for the triple, constructing and
// caching one on first use. The chain may be the zero value when the
// caller has no specific chain in mind.
func (f *Factory) GetAdapter(w wallet.Wallet, networkType chains.NetworkType, chain chains.Chain) (Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := cacheKey(w.Address(), networkType, chain.ID)
	if adapter, ok := f.cache[key]; ok {
		return adapter, nil
	}

	creator, ok := f.creators[networkType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnregisteredNetworkType, networkType)
	}
	if !creator.CanHandle(w) {
		return nil, fmt.Errorf("%w: wallet %s, network type %s", ErrIncompatibleWallet, w.Address(), networkType)
	}

	adapter, err := creator.CreateAdapter(w, chain)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", networkType, err)
	}

	f.cache[key] = adapter
	metrics.AdapterCacheSize.Set(float64(len(f.cache)))
	f.logger.Debug("Adapter created",
		zap.String("wallet", w.Address()),
		zap.String("network_type", string(networkType)),
		zap.String("chain", chain.ID))
	return adapter, nil
}

// ClearCache drops cached adapters. With an address, only entries for
// that wallet are dropped; with the empty string, everything goes.
func (f *Factory) ClearCache(walletAddress string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if walletAddress == "" {
		f.cache = make(map[string]Adapter)
		metrics.AdapterCacheSize.Set(0)
		return
	}
	prefix := walletAddress + "|"
	for key := range f.cache {
		if strings.HasPrefix(key, prefix) {
			delete(f.cache, key)
		}
	}
	metrics.AdapterCacheSize.Set(float64(len(f.cache)))
}

// CacheSize reports the number of cached adapters.
func (f *Factory) CacheSize() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}
