package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/mjkid221/cctp-bridge/pkg/chains"
)

// SolanaWallet is an ed25519 keyed wallet. Solana has no chain-switch
// notion; the environment is chosen per adapter instead.
type SolanaWallet struct {
	privateKey solana.PrivateKey
	address    string
}

// NewSolanaWallet loads a Solana wallet from a base58-encoded private key.
func NewSolanaWallet(privateKeyBase58 string) (*SolanaWallet, error) {
	privateKey, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("failed to load solana private key: %w", err)
	}
	return &SolanaWallet{
		privateKey: privateKey,
		address:    privateKey.PublicKey().String(),
	}, nil
}

func (w *SolanaWallet) Address() string {
	return w.address
}

func (w *SolanaWallet) NetworkType() chains.NetworkType {
	return chains.NetworkSolana
}

func (w *SolanaWallet) CurrentChainID() int64 {
	return 0
}

func (w *SolanaWallet) SwitchChain(_ context.Context, _ chains.Chain) error {
	return nil
}

// PublicKey returns the wallet's public key.
func (w *SolanaWallet) PublicKey() solana.PublicKey {
	return w.privateKey.PublicKey()
}

// PrivateKey exposes the signing key for transaction signing.
func (w *SolanaWallet) PrivateKey() solana.PrivateKey {
	return w.privateKey
}
