// Package chains holds the registry of chains the bridge can move USDC between.
package chains

import (
	"fmt"
	"sync"
	"time"

	"github.com/mjkid221/cctp-bridge/pkg/config"
)

// NetworkType groups chains by wallet/client family.
type NetworkType string

const (
	NetworkEVM    NetworkType = "evm"
	NetworkSolana NetworkType = "solana"
	NetworkSui    NetworkType = "sui"
)

// Environment separates mainnet chains from test chains. Routes never
// cross environments.
type Environment string

const (
	EnvironmentMainnet Environment = "mainnet"
	EnvironmentTestnet Environment = "testnet"
)

// Chain describes one supported chain.
type Chain struct {
	ID          string
	Name        string
	NetworkType NetworkType
	Environment Environment
	// EVMChainID is the numeric chain id for EVM chains, 0 otherwise.
	EVMChainID int64
	RPCURL     string
	// USDCAddress is the USDC token contract (EVM) or mint (Solana).
	USDCAddress string
	// CCTPDomain is Circle's domain identifier for the chain.
	CCTPDomain uint32
	// Attestation wall-clock estimates per transfer method.
	AttestationFast     time.Duration
	AttestationStandard time.Duration
}

// Registry resolves chain ids to chain descriptors.
type Registry struct {
	mu     sync.RWMutex
	chains map[string]Chain
}

// NewRegistry builds a registry from configuration.
func NewRegistry(cfgs []config.ChainConfig) (*Registry, error) {
	r := &Registry{chains: make(map[string]Chain, len(cfgs))}
	for _, c := range cfgs {
		networkType := NetworkType(c.NetworkType)
		switch networkType {
		case NetworkEVM, NetworkSolana, NetworkSui:
		default:
			return nil, fmt.Errorf("chain %s: unknown network type %q", c.ID, c.NetworkType)
		}
		r.chains[c.ID] = Chain{
			ID:                  c.ID,
			Name:                c.Name,
			NetworkType:         networkType,
			Environment:         Environment(c.Environment),
			EVMChainID:          c.EVMChainID,
			RPCURL:              c.RPCURL,
			USDCAddress:         c.USDCAddress,
			CCTPDomain:          c.CCTPDomain,
			AttestationFast:     c.AttestationFast,
			AttestationStandard: c.AttestationStandard,
		}
	}
	return r, nil
}

// Get returns the chain for the given id.
func (r *Registry) Get(id string) (Chain, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	chain, ok := r.chains[id]
	if !ok {
		return Chain{}, fmt.Errorf("unknown chain: %s", id)
	}
	return chain, nil
}

// All returns every registered chain.
func (r *Registry) All() []Chain {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Chain, 0, len(r.chains))
	for _, chain := range r.chains {
		out = append(out, chain)
	}
	return out
}

// AttestationTime returns the estimated attestation wait for a chain
// under the given transfer method ("fast" selects the quick figure).
func (c Chain) AttestationTime(fast bool) time.Duration {
	if fast {
		return c.AttestationFast
	}
	return c.AttestationStandard
}
