package service

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
	mu            sync.Mutex
	transactions  map[string]*bridge.Transaction
	preferences   map[string]*bridge.Preferences
	statsRecorded []string
	statsFees     map[string]string
	pruneCalls    int
}

func NewMockStore() *MockStore {
	return &MockStore{
		transactions: make(map[string]*bridge.Transaction),
		preferences:  make(map[string]*bridge.Preferences),
		statsFees:    make(map[string]string),
	}
}

func (m *MockStore) StatsRecorded() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.statsRecorded))
	copy(out, m.statsRecorded)
	return out
}

func (m *MockStore) SaveTransaction(ctx context.Context, tx *bridge.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[tx.ID] = tx.Clone()
	return nil
}

func (m *MockStore) GetTransaction(ctx context.Context, id string) (*bridge.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx, ok := m.transactions[id]
	if !ok {
		return nil, db.ErrTransactionNotFound
	}
	return tx.Clone(), nil
}

func (m *MockStore) GetTransactionsByUser(ctx context.Context, userAddress string) ([]*bridge.Transaction, error) {
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
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*bridge.Transaction
	for _, tx := range m.transactions {
		if tx.UserAddress == userAddress && tx.Status == status {
			out = append(out, tx.Clone())
		}
	}
	return out, nil
}

func (m *MockStore) GetRecentTransactions(ctx context.Context, userAddress string, limit int) ([]*bridge.Transaction, error) {
	return m.GetTransactionsByUser(ctx, userAddress)
}

func (m *MockStore) GetTransactionsPage(ctx context.Context, userAddress string, limit int, cursor string) ([]*bridge.Transaction, string, error) {
	txs, err := m.GetTransactionsByUser(ctx, userAddress)
	return txs, "", err
}

func (m *MockStore) DeleteTransaction(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.transactions, id)
	return nil
}

func (m *MockStore) PruneOldTransactions(ctx context.Context, userAddress string, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pruneCalls++
	return 0, nil
}

func (m *MockStore) RecordCompletedTransaction(ctx context.Context, tx *bridge.Transaction, environment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsRecorded = append(m.statsRecorded, tx.ID)
	m.statsFees[tx.ID] = tx.ProviderFee
	return nil
}

// StatsFee returns the provider fee on the transaction handed to
// RecordCompletedTransaction, or empty if stats were never recorded.
func (m *MockStore) StatsFee(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsFees[id]
}

func (m *MockStore) GetUserStats(ctx context.Context, userAddress, environment string) (*bridge.UserStats, error) {
	return &bridge.UserStats{UserAddress: userAddress, Environment: environment}, nil
}

func (m *MockStore) GetPreferences(ctx context.Context, userAddress string) (*bridge.Preferences, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preferences[userAddress], nil
}

func (m *MockStore) SavePreferences(ctx context.Context, userAddress string, prefs *bridge.Preferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.preferences[userAddress] = prefs
	return nil
}

// MockKit implements protocol.Kit with overridable functions and a real
// emitter for event delivery
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
	return &protocol.BridgeResult{State: protocol.StateSuccess}, nil
}

func (k *MockKit) Retry(ctx context.Context, previous *protocol.BridgeResult, endpoints protocol.RetryEndpoints) (*protocol.BridgeResult, error) {
	if k.RetryFunc != nil {
		return k.RetryFunc(ctx, previous, endpoints)
	}
	return &protocol.BridgeResult{State: protocol.StateSuccess}, nil
}

// MockWallet implements wallet.Wallet
type MockWallet struct {
	mu          sync.Mutex
	addr        string
	networkType chains.NetworkType
	chainID     int64
	switchCalls []string
}

func NewMockWallet(addr string, networkType chains.NetworkType, chainID int64) *MockWallet {
	return &MockWallet{addr: addr, networkType: networkType, chainID: chainID}
}

func (w *MockWallet) Address() string                 { return w.addr }
func (w *MockWallet) NetworkType() chains.NetworkType { return w.networkType }

func (w *MockWallet) CurrentChainID() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID
}

func (w *MockWallet) SwitchChain(_ context.Context, chain chains.Chain) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.chainID = chain.EVMChainID
	w.switchCalls = append(w.switchCalls, chain.ID)
	return nil
}

func (w *MockWallet) SwitchCalls() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, len(w.switchCalls))
	copy(out, w.switchCalls)
	return out
}

// MockAdapter implements adapters.Adapter with a fixed balance
type MockAdapter struct {
	networkType chains.NetworkType
	walletAddr  string
	balance     string
}

func (a *MockAdapter) PrepareAction(name string, params map[string]any, opts adapters.ActionOptions) (adapters.Action, error) {
	return mockAction{balance: a.balance}, nil
}

func (a *MockAdapter) NetworkType() chains.NetworkType { return a.networkType }
func (a *MockAdapter) WalletAddress() string           { return a.walletAddr }

type mockAction struct {
	balance string
}

func (a mockAction) Execute(ctx context.Context) (any, error) {
	return a.balance, nil
}

// MockCreator builds MockAdapters for one network type
type MockCreator struct {
	networkType chains.NetworkType
	balance     string
}

func (c *MockCreator) CanHandle(w wallet.Wallet) bool {
	return w.NetworkType() == c.networkType
}

func (c *MockCreator) CreateAdapter(w wallet.Wallet, chain chains.Chain) (adapters.Adapter, error) {
	return &MockAdapter{
		networkType: c.networkType,
		walletAddr:  w.Address(),
		balance:     c.balance,
	}, nil
}
