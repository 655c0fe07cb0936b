// Package adapters resolves connected wallets to chain-specific protocol
// adapters and caches them per wallet and chain.
package adapters

import (
	"context"

	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/wallet"
)

// ActionOptions scopes a prepared action to a chain.
type ActionOptions struct {
	Chain chains.Chain
}

// Action is a prepared read operation against a chain.
type Action interface {
	Execute(ctx context.Context) (any, error)
}

// Adapter wires a wallet to one chain family's clients. Adapters expose
// read operations through the prepare/execute pattern; transfer execution
// goes through the protocol kit, which consumes adapters directly.
type Adapter interface {
	// PrepareAction builds a named read action, e.g. "usdc.balanceOf".
	PrepareAction(name string, params map[string]any, opts ActionOptions) (Action, error)
	// NetworkType reports the chain family the adapter serves.
	NetworkType() chains.NetworkType
	// WalletAddress returns the address of the wallet the adapter wraps.
	WalletAddress() string
}

// Creator constructs adapters for one network type.
type Creator interface {
	// CanHandle reports whether the creator can wrap the given wallet.
	CanHandle(w wallet.Wallet) bool
	// CreateAdapter wraps the wallet for the given chain. The chain may be
	// the zero value when the caller has no specific chain in mind.
	CreateAdapter(w wallet.Wallet, chain chains.Chain) (Adapter, error)
}
