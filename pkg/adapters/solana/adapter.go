// Package solana implements the adapter contract for Solana.
package solana

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/mjkid221/cctp-bridge/pkg/adapters"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/wallet"
)

// Creator builds Solana adapters from Solana wallets.
type Creator struct{}

// NewCreator returns the Solana adapter creator.
func NewCreator() *Creator {
	return &Creator{}
}

// CanHandle accepts wallets that expose a Solana keypair.
func (c *Creator) CanHandle(w wallet.Wallet) bool {
	_, ok := w.(*wallet.SolanaWallet)
	return ok
}

// CreateAdapter resolves the RPC endpoint by environment and wraps the
// wallet as a connection provider. Mainnet and devnet endpoints differ,
// which is why adapters are cached per chain.
func (c *Creator) CreateAdapter(w wallet.Wallet, chain chains.Chain) (adapters.Adapter, error) {
	solWallet, ok := w.(*wallet.SolanaWallet)
	if !ok {
		return nil, fmt.Errorf("wallet %s does not carry a Solana keypair", w.Address())
	}

	endpoint := chain.RPCURL
	if endpoint == "" {
		if chain.Environment == chains.EnvironmentTestnet {
			endpoint = rpc.DevNet_RPC
		} else {
			endpoint = rpc.MainNetBeta_RPC
		}
	}

	return &Adapter{
		wallet: solWallet,
		client: rpc.New(endpoint),
	}, nil
}

// Adapter serves read actions against one Solana cluster for one wallet.
type Adapter struct {
	wallet *wallet.SolanaWallet
	client *rpc.Client
}

func (a *Adapter) NetworkType() chains.NetworkType {
	return chains.NetworkSolana
}

func (a *Adapter) WalletAddress() string {
	return a.wallet.Address()
}

// PrepareAction builds a named read action scoped to a chain.
func (a *Adapter) PrepareAction(name string, params map[string]any, opts adapters.ActionOptions) (adapters.Action, error) {
	switch name {
	case "usdc.balanceOf":
		owner := a.wallet.PublicKey()
		if v, ok := params["address"].(string); ok && v != "" {
			parsed, err := solana.PublicKeyFromBase58(v)
			if err != nil {
				return nil, fmt.Errorf("invalid owner address: %w", err)
			}
			owner = parsed
		}
		return &balanceOfAction{
			adapter: a,
			chain:   opts.Chain,
			owner:   owner,
		}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", name)
	}
}

type balanceOfAction struct {
	adapter *Adapter
	chain   chains.Chain
	owner   solana.PublicKey
}

// Execute reads the owner's USDC associated token account balance and
// returns it as a decimal string. A missing token account reads as zero.
func (act *balanceOfAction) Execute(ctx context.Context) (any, error) {
	mint, err := solana.PublicKeyFromBase58(act.chain.USDCAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid USDC mint for %s: %w", act.chain.ID, err)
	}

	ata, _, err := solana.FindAssociatedTokenAddress(act.owner, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive token account: %w", err)
	}

	balance, err := act.adapter.client.GetTokenAccountBalance(ctx, ata, rpc.CommitmentFinalized)
	if err != nil {
		// Uninitialized token accounts are reported as RPC errors.
		return "0", nil
	}
	if balance == nil || balance.Value == nil {
		return "0", nil
	}
	return balance.Value.UiAmountString, nil
}
