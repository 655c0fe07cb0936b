// Package wallet abstracts the signing accounts a user connects per chain family.
package wallet

import (
	"context"

	"github.com/mjkid221/cctp-bridge/pkg/chains"
)

// Wallet is a connected signing account. One wallet serves one network
// type; a user may connect several at once (e.g. an EVM wallet and a
// Solana wallet).
type Wallet interface {
	// Address returns the wallet's canonical address string.
	Address() string
	// NetworkType reports which chain family the wallet can sign for.
	NetworkType() chains.NetworkType
	// CurrentChainID returns the numeric chain id the wallet is currently
	// bound to, or 0 when the network type has no such notion.
	CurrentChainID() int64
	// SwitchChain rebinds the wallet to the given chain. Only meaningful
	// for EVM wallets; others return nil without effect.
	SwitchChain(ctx context.Context, chain chains.Chain) error
}
