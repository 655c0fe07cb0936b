package api

import (
	"context"
	"sync"

	"github.com/mjkid221/cctp-bridge/pkg/adapters"
	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
	"github.com/mjkid221/cctp-bridge/pkg/wallet"
)

// MockStore implements db.Store in memory
type MockStore struct {
	mu           sync.Mutex
	transactions map[string]*bridge.Transaction
	preferences  map[string]*bridge.Preferences
}

func NewMockStore() *MockStore {
	return &MockStore{
		transactions: make(map[string]*bridge.Transaction),
		preferences:  make(map[string]*bridge.Preferences),
	}
}

func (m *MockStore) SaveTransaction(_ context.Context, tx *bridge.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx.Clone()
	return nil
}

func (m *MockStore) GetTransaction(_ context.Context, id string) (*bridge.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, db.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (m *MockStore) GetTransactionsByUser(_ context.Context, userAddress string) ([]*bridge.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*bridge.Transaction
	for _, tx := range m.transactions {
		if tx.UserAddress == userAddress {
			out = append(out, tx.Clone())
		}
	}
	return out, nil
}

func (m *MockStore) GetTransactionsByUserAndStatus(ctx context.Context, userAddress string, status bridge.Status) ([]*bridge.Transaction, error) {
	txs, err := m.GetTransactionsByUser(ctx, userAddress)
	if err != nil {
		return nil, err
	}
	var out []*bridge.Transaction
	for _, tx := range txs {
		if tx.Status == status {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (m *MockStore) GetRecentTransactions(ctx context.Context, userAddress string, _ int) ([]*bridge.Transaction, error) {
	return m.GetTransactionsByUser(ctx, userAddress)
}

func (m *MockStore) GetTransactionsPage(ctx context.Context, userAddress string, _ int, _ string) ([]*bridge.Transaction, string, error) {
	txs, err := m.GetTransactionsByUser(ctx, userAddress)
	return txs, "", err
}

func (m *MockStore) DeleteTransaction(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

func (m *MockStore) PruneOldTransactions(context.Context, string, int) (int, error) {
	return 0, nil
}

func (m *MockStore) RecordCompletedTransaction(context.Context, *bridge.Transaction, string) error {
	return nil
}

func (m *MockStore) GetUserStats(_ context.Context, userAddress, environment string) (*bridge.UserStats, error) {
	return &bridge.UserStats{
		UserAddress:  userAddress,
		Environment:  environment,
		TotalBridged: "0",
		TotalFees:    "0",
	}, nil
}

func (m *MockStore) GetPreferences(_ context.Context, userAddress string) (*bridge.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preferences[userAddress], nil
}

func (m *MockStore) SavePreferences(_ context.Context, userAddress string, prefs *bridge.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[userAddress] = prefs
	return nil
}

// MockKit implements protocol.Kit with overridable functions
type MockKit struct {
	*protocol.Emitter
	EstimateFunc func(ctx context.Context, req *protocol.TransferRequest) (*protocol.EstimateResult, error)
	BridgeFunc   func(ctx context.Context, req *protocol.TransferRequest) (*protocol.BridgeResult, error)
	RetryFunc    func(ctx context.Context, previous *protocol.BridgeResult, endpoints protocol.RetryEndpoints) (*protocol.BridgeResult, error)
}

func NewMockKit() *MockKit {
	return &MockKit{Emitter: protocol.NewEmitter()}
}

func (k *MockKit) Estimate(ctx context.Context, req *protocol.TransferRequest) (*protocol.EstimateResult, error) {
	if k.EstimateFunc != nil {
		return k.EstimateFunc(ctx, req)
	}
	return &protocol.EstimateResult{}, nil
}

func (k *MockKit) Bridge(ctx context.Context, req *protocol.TransferRequest) (*protocol.BridgeResult, error) {
	if k.BridgeFunc != nil {
		return k.BridgeFunc(ctx, req)
	}
	return &protocol.BridgeResult{
		State: protocol.StateSuccess,
		Steps: []protocol.ResultStep{
			{Name: "approve", State: protocol.StateSuccess, TxHash: "0xapprove"},
			{Name: "burn", State: protocol.StateSuccess, TxHash: "0xburn"},
			{Name: "attestation", State: protocol.StateSuccess},
			{Name: "mint", State: protocol.StateSuccess, TxHash: "0xmint"},
		},
	}, nil
}

func (k *MockKit) Retry(ctx context.Context, previous *protocol.BridgeResult, endpoints protocol.RetryEndpoints) (*protocol.BridgeResult, error) {
	if k.RetryFunc != nil {
		return k.RetryFunc(ctx, previous, endpoints)
	}
	return &protocol.BridgeResult{State: protocol.StateSuccess}, nil
}

// MockCreator builds fixed-balance adapters for one network type
type MockCreator struct {
	networkType chains.NetworkType
	balance     string
}

func (c *MockCreator) CanHandle(w wallet.Wallet) bool {
	return w.NetworkType() == c.networkType
}

func (c *MockCreator) CreateAdapter(w wallet.Wallet, _ chains.Chain) (adapters.Adapter, error) {
	return &MockAdapter{networkType: c.networkType, walletAddr: w.Address(), balance: c.balance}, nil
}

type MockAdapter struct {
	networkType chains.NetworkType
	walletAddr  string
	balance     string
}

func (a *MockAdapter) PrepareAction(string, map[string]any, adapters.ActionOptions) (adapters.Action, error) {
	return mockAction{balance: a.balance}, nil
}

func (a *MockAdapter) NetworkType() chains.NetworkType { return a.networkType }
func (a *MockAdapter) WalletAddress() string           { return a.walletAddr }

type mockAction struct {
	balance string
}

func (a mockAction) Execute(context.Context) (any, error) {
	return a.balance, nil
}
