package events

import (
	"context"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

// MockStore implements db.Store with overridable functions
type MockStore struct {
	SaveTransactionFunc func(ctx context.Context, tx *bridge.Transaction) error
	GetTransactionFunc  func(ctx context.Context, id string) (*bridge.Transaction, error)
}

func (m *MockStore) SaveTransaction(ctx context.Context, tx *bridge.Transaction) error {
	if m.SaveTransactionFunc != nil {
		return m.SaveTransactionFunc(ctx, tx)
	}
	return nil
}

func (m *MockStore) GetTransaction(ctx context.Context, id string) (*bridge.Transaction, error) {
	if m.GetTransactionFunc != nil {
		return m.GetTransactionFunc(ctx, id)
	}
	return nil, db.ErrTransactionNotFound
}

func (m *MockStore) GetTransactionsByUser(ctx context.Context, userAddress string) ([]*bridge.Transaction, error) {
	return nil, nil
}

func (m *MockStore) GetTransactionsByUserAndStatus(ctx context.Context, userAddress string, status bridge.Status) ([]*bridge.Transaction, error) {
	return nil, nil
}

func (m *MockStore) GetRecentTransactions(ctx context.Context, userAddress string, limit int) ([]*bridge.Transaction, error) {
	return nil, nil
}

func (m *MockStore) GetTransactionsPage(ctx context.Context, userAddress string, limit int, cursor string) ([]*bridge.Transaction, string, error) {
	return nil, "", nil
}

func (m *MockStore) DeleteTransaction(ctx context.Context, id string) error { return nil }

func (m *MockStore) PruneOldTransactions(ctx context.Context, userAddress string, keep int) (int, error) {
	return 0, nil
}

func (m *MockStore) RecordCompletedTransaction(ctx context.Context, tx *bridge.Transaction, environment string) error {
	return nil
}

func (m *MockStore) GetUserStats(ctx context.Context, userAddress, environment string) (*bridge.UserStats, error) {
	return nil, nil
}

func (m *MockStore) GetPreferences(ctx context.Context, userAddress string) (*bridge.Preferences, error) {
	return nil, nil
}

func (m *MockStore) SavePreferences(ctx context.Context, userAddress string, prefs *bridge.Preferences) error {
	return nil
}

// fakeKit is an emitter-backed kit whose protocol calls are never used in
// these tests
type fakeKit struct {
	*protocol.Emitter
}

func newFakeKit() *fakeKit {
	return &fakeKit{Emitter: protocol.NewEmitter()}
}

func (k *fakeKit) Estimate(ctx context.Context, req *protocol.TransferRequest) (*protocol.EstimateResult, error) {
	return &protocol.EstimateResult{}, nil
}

func (k *fakeKit) Bridge(ctx context.Context, req *protocol.TransferRequest) (*protocol.BridgeResult, error) {
	return &protocol.BridgeResult{State: protocol.StateSuccess}, nil
}

func (k *fakeKit) Retry(ctx context.Context, previous *protocol.BridgeResult, endpoints protocol.RetryEndpoints) (*protocol.BridgeResult, error) {
	return &protocol.BridgeResult{State: protocol.StateSuccess}, nil
}
