package store

import (
	"context"
	"sync"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
)

// MockStore implements db.Store in memory with call counters for the
// paths these tests assert on
type MockStore struct {
	mu            sync.Mutex
	transactions  map[string]*bridge.Transaction
	preferences   map[string]*bridge.Preferences
	statsRecorded []string

	SaveTransactionFunc func(ctx context.Context, tx *bridge.Transaction) error
}

func NewMockStore() *MockStore {
	return &MockStore{
		transactions: make(map[string]*bridge.Transaction),
		preferences:  make(map[string]*bridge.Preferences),
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
	if m.SaveTransactionFunc != nil {
		return m.SaveTransactionFunc(ctx, tx)
	}
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
	return 0, nil
}

func (m *MockStore) RecordCompletedTransaction(ctx context.Context, tx *bridge.Transaction, environment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statsRecorded = append(m.statsRecorded, tx.ID)
	return nil
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
