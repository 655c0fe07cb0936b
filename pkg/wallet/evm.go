package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/mjkid221/cctp-bridge/pkg/chains"
)

// EVMWallet is a secp256k1 keyed wallet bound to a single EVM chain at a
// time. Adapter creation reads the bound chain, so a chain switch must
// happen before adapters are built.
type EVMWallet struct {
	privateKey *ecdsa.PrivateKey
	address    string

	mu      sync.RWMutex
	chainID int64
}

// NewEVMWallet loads an EVM wallet from a hex-encoded private key.
func NewEVMWallet(privateKeyHex string, chainID int64) (*EVMWallet, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to load private key: %w", err)
	}
	address := crypto.PubkeyToAddress(privateKey.PublicKey).Hex()
	return &EVMWallet{
		privateKey: privateKey,
		address:    address,
		chainID:    chainID,
	}, nil
}

func (w *EVMWallet) Address() string {
	return w.address
}

func (w *EVMWallet) NetworkType() chains.NetworkType {
	return chains.NetworkEVM
}

func (w *EVMWallet) CurrentChainID() int64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.chainID
}

func (w *EVMWallet) SwitchChain(_ context.Context, chain chains.Chain) error {
	if chain.NetworkType != chains.NetworkEVM {
		return fmt.Errorf("cannot switch EVM wallet to %s chain %s", chain.NetworkType, chain.ID)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainID = chain.EVMChainID
	return nil
}

// PrivateKey exposes the signing key for transactor construction.
func (w *EVMWallet) PrivateKey() *ecdsa.PrivateKey {
	return w.privateKey
}
