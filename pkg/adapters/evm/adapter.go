// Package evm implements the adapter contract for EVM chains.
package evm

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/mjkid221/cctp-bridge/pkg/adapters"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/wallet"
)

const usdcDecimals = 6

const erc20ABI = `[
	{"constant":true,"inputs":[{"name":"account","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}
]`

// Creator builds EVM adapters from EVM wallets.
type Creator struct{}

// NewCreator returns the EVM adapter creator.
func NewCreator() *Creator {
	return &Creator{}
}

// CanHandle accepts wallets that expose an EVM signing key.
func (c *Creator) CanHandle(w wallet.Wallet) bool {
	_, ok := w.(*wallet.EVMWallet)
	return ok
}

// CreateAdapter extracts the wallet client and dials the chain's RPC.
// The adapter is bound to the wallet's current chain, so chain switches
// must happen before this call.
func (c *Creator) CreateAdapter(w wallet.Wallet, chain chains.Chain) (adapters.Adapter, error) {
	evmWallet, ok := w.(*wallet.EVMWallet)
	if !ok {
		return nil, fmt.Errorf("wallet %s does not carry an EVM client", w.Address())
	}
	if chain.RPCURL == "" {
		return nil, fmt.Errorf("chain %s has no RPC endpoint configured", chain.ID)
	}

	client, err := ethclient.Dial(chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s RPC: %w", chain.ID, err)
	}

	parsedABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC20 ABI: %w", err)
	}

	return &Adapter{
		wallet:   evmWallet,
		client:   client,
		erc20ABI: parsedABI,
	}, nil
}

// Adapter serves read actions against one EVM chain for one wallet.
type Adapter struct {
	wallet   *wallet.EVMWallet
	client   *ethclient.Client
	erc20ABI abi.ABI
}

func (a *Adapter) NetworkType() chains.NetworkType {
	return chains.NetworkEVM
}

func (a *Adapter) WalletAddress() string {
	return a.wallet.Address()
}

// PrepareAction builds a named read action scoped to a chain.
func (a *Adapter) PrepareAction(name string, params map[string]any, opts adapters.ActionOptions) (adapters.Action, error) {
	switch name {
	case "usdc.balanceOf":
		owner := a.wallet.Address()
		if v, ok := params["address"].(string); ok && v != "" {
			owner = v
		}
		return &balanceOfAction{
			adapter: a,
			chain:   opts.Chain,
			owner:   common.HexToAddress(owner),
		}, nil
	default:
		return nil, fmt.Errorf("unknown action: %s", name)
	}
}

type balanceOfAction struct {
	adapter *Adapter
	chain   chains.Chain
	owner   common.Address
}

// Execute reads the USDC balance and returns it as a decimal string.
func (act *balanceOfAction) Execute(ctx context.Context) (any, error) {
	token := common.HexToAddress(act.chain.USDCAddress)

	data, err := act.adapter.erc20ABI.Pack("balanceOf", act.owner)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}

	raw, err := act.adapter.client.CallContract(ctx, ethereum.CallMsg{
		To:   &token,
		Data: data,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("balanceOf call failed on %s: %w", act.chain.ID, err)
	}

	results, err := act.adapter.erc20ABI.Unpack("balanceOf", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack balanceOf result: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}

	return decimal.NewFromBigInt(balance, -usdcDecimals).String(), nil
}

// Close releases the underlying RPC client.
func (a *Adapter) Close() {
	a.client.Close()
}
