package events

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

func newTestTransaction(id string) *bridge.Transaction {
	tx := bridge.NewTransaction("0xuser", bridge.TransferParams{
		SourceChain:      "ethereum",
		DestinationChain: "base",
		Amount:           "100",
		TransferMethod:   bridge.TransferStandard,
	})
	tx.ID = id
	return tx
}

// memStore keeps transactions in memory behind the MockStore interface
func newMemStore(txs ...*bridge.Transaction) *MockStore {
	var mu sync.Mutex
	byID := make(map[string]*bridge.Transaction)
	for _, tx := range txs {
		byID[tx.ID] = tx
	}
	store := &MockStore{}
	store.GetTransactionFunc = func(ctx context.Context, id string) (*bridge.Transaction, error) {
		mu.Lock()
		defer mu.Unlock()
		tx, ok := byID[id]
		if !ok {
			return nil, db.ErrTransactionNotFound
		}
		return tx.Clone(), nil
	}
	store.SaveTransactionFunc = func(ctx context.Context, tx *bridge.Transaction) error {
		mu.Lock()
		defer mu.Unlock()
		byID[tx.ID] = tx.Clone()
		return nil
	}
	return store
}

func event(method, txHash, data string) protocol.Event {
	return protocol.Event{
		Method: method,
		Values: &protocol.EventValues{TxHash: txHash, Data: data},
	}
}

func TestManager_StepCompletionAdvancesNext(t *testing.T) {
	tx := newTestTransaction("tx-1")
	store := newMemStore(tx)
	manager := NewManager(store, zap.NewNop())

	kit := newFakeKit()
	var latest *bridge.Transaction
	manager.Track(context.Background(), kit, tx.ID, func(updated *bridge.Transaction) {
		latest = updated
	})

	kit.Emit(event("approve", "0xapprove", ""))

	if latest == nil {
		t.Fatal("expected callback to fire")
	}
	approve := latest.Step(bridge.StepApprove)
	if approve.Status != bridge.StepStatusCompleted {
		t.Errorf("approve status = %s, want completed", approve.Status)
	}
	if approve.TxHash != "0xapprove" {
		t.Errorf("approve tx hash = %q, want 0xapprove", approve.TxHash)
	}
	burn := latest.Step(bridge.StepBurn)
	if burn.Status != bridge.StepStatusInProgress {
		t.Errorf("burn status = %s, want in_progress", burn.Status)
	}
	if attn := latest.Step(bridge.StepAttestation); attn.Status != bridge.StepStatusPending {
		t.Errorf("attestation status = %s, want pending", attn.Status)
	}
}

func TestManager_FullStepSequence(t *testing.T) {
	tx := newTestTransaction("tx-1")
	store := newMemStore(tx)
	manager := NewManager(store, zap.NewNop())

	kit := newFakeKit()
	var latest *bridge.Transaction
	manager.Track(context.Background(), kit, tx.ID, func(updated *bridge.Transaction) {
		latest = updated
	})

	sequence := []struct {
		method    string
		completed bridge.StepID
		next      bridge.StepID
	}{
		{"approve", bridge.StepApprove, bridge.StepBurn},
		{"burn", bridge.StepBurn, bridge.StepAttestation},
		{"fetchAttestation", bridge.StepAttestation, bridge.StepMint},
		{"mint", bridge.StepMint, ""},
	}

	for _, step := range sequence {
		kit.Emit(event(step.method, "", ""))

		got := latest.Step(step.completed)
		if got.Status != bridge.StepStatusCompleted {
			t.Fatalf("after %s: step %s status = %s, want completed", step.method, step.completed, got.Status)
		}
		// Exactly one step should be in progress, the one after the
		// latest completion.
		for _, id := range bridge.StepOrder {
			s := latest.Step(id)
			if s.Status != bridge.StepStatusInProgress {
				continue
			}
			if id != step.next {
				t.Fatalf("after %s: step %s unexpectedly in progress", step.method, id)
			}
		}
	}
}

func TestManager_AttestationDataStored(t *testing.T) {
	tx := newTestTransaction("tx-1")
	store := newMemStore(tx)
	manager := NewManager(store, zap.NewNop())

	kit := newFakeKit()
	var latest *bridge.Transaction
	manager.Track(context.Background(), kit, tx.ID, func(updated *bridge.Transaction) {
		latest = updated
	})

	kit.Emit(event("fetchAttestation", "", "0xattestationpayload"))

	if latest.AttestationHash != "0xattestationpayload" {
		t.Errorf("attestation hash = %q, want 0xattestationpayload", latest.AttestationHash)
	}
}

func TestManager_UnrecognizedMethodIgnored(t *testing.T) {
	tx := newTestTransaction("tx-1")
	store := newMemStore(tx)
	manager := NewManager(store, zap.NewNop())

	kit := newFakeKit()
	fired := false
	manager.Track(context.Background(), kit, tx.ID, func(*bridge.Transaction) {
		fired = true
	})

	kit.Emit(event("somethingElse", "0xhash", ""))

	if fired {
		t.Error("callback should not fire for unrecognized methods")
	}
}

func TestManager_MissingTransactionIgnored(t *testing.T) {
	store := newMemStore()
	manager := NewManager(store, zap.NewNop())

	kit := newFakeKit()
	fired := false
	manager.Track(context.Background(), kit, "gone", func(*bridge.Transaction) {
		fired = true
	})

	// Must not panic and must not invoke the callback.
	kit.Emit(event("approve", "", ""))

	if fired {
		t.Error("callback should not fire for a missing transaction")
	}
}

func TestManager_CancelledTransactionNotResurrected(t *testing.T) {
	tx := newTestTransaction("tx-1")
	tx.Status = bridge.StatusCancelled
	store := newMemStore(tx)
	manager := NewManager(store, zap.NewNop())

	kit := newFakeKit()
	fired := false
	manager.Track(context.Background(), kit, tx.ID, func(*bridge.Transaction) {
		fired = true
	})

	kit.Emit(event("approve", "", ""))

	if fired {
		t.Error("callback should not fire for a cancelled transaction")
	}
}

func TestManager_RetrackDisposesPrevious(t *testing.T) {
	tx := newTestTransaction("tx-1")
	store := newMemStore(tx)
	manager := NewManager(store, zap.NewNop())

	oldKit := newFakeKit()
	manager.Track(context.Background(), oldKit, tx.ID, nil)
	if oldKit.HandlerCount() != 1 {
		t.Fatalf("old kit handler count = %d, want 1", oldKit.HandlerCount())
	}

	newKit := newFakeKit()
	manager.Track(context.Background(), newKit, tx.ID, nil)

	if oldKit.HandlerCount() != 0 {
		t.Errorf("old kit handler count = %d, want 0 after re-track", oldKit.HandlerCount())
	}
	if newKit.HandlerCount() != 1 {
		t.Errorf("new kit handler count = %d, want 1", newKit.HandlerCount())
	}
	if manager.TrackedCount() != 1 {
		t.Errorf("tracked count = %d, want 1", manager.TrackedCount())
	}
}

func TestManager_UntrackDropsLaterEvents(t *testing.T) {
	tx := newTestTransaction("tx-1")
	store := newMemStore(tx)
	manager := NewManager(store, zap.NewNop())

	kit := newFakeKit()
	fired := false
	manager.Track(context.Background(), kit, tx.ID, func(*bridge.Transaction) {
		fired = true
	})
	manager.Untrack(tx.ID)

	kit.Emit(event("approve", "", ""))

	if fired {
		t.Error("callback should not fire after untrack")
	}
	if kit.HandlerCount() != 0 {
		t.Errorf("handler count = %d, want 0 after untrack", kit.HandlerCount())
	}

	// Untracking again is a no-op.
	manager.Untrack(tx.ID)
}

func TestManager_InterleavedTransactionsIndependent(t *testing.T) {
	tx1 := newTestTransaction("tx-1")
	tx2 := newTestTransaction("tx-2")
	store := newMemStore(tx1, tx2)
	manager := NewManager(store, zap.NewNop())

	kit1 := newFakeKit()
	kit2 := newFakeKit()
	var latest1, latest2 *bridge.Transaction
	manager.Track(context.Background(), kit1, tx1.ID, func(tx *bridge.Transaction) { latest1 = tx })
	manager.Track(context.Background(), kit2, tx2.ID, func(tx *bridge.Transaction) { latest2 = tx })

	kit1.Emit(event("approve", "", ""))
	kit2.Emit(event("approve", "", ""))
	kit1.Emit(event("burn", "", ""))

	if latest1.Step(bridge.StepBurn).Status != bridge.StepStatusCompleted {
		t.Error("tx-1 burn should be completed")
	}
	if latest2.Step(bridge.StepBurn).Status != bridge.StepStatusInProgress {
		t.Error("tx-2 burn should still be in progress")
	}
}

func TestManager_DisposeRemovesAll(t *testing.T) {
	tx1 := newTestTransaction("tx-1")
	tx2 := newTestTransaction("tx-2")
	store := newMemStore(tx1, tx2)
	manager := NewManager(store, zap.NewNop())

	kit1 := newFakeKit()
	kit2 := newFakeKit()
	manager.Track(context.Background(), kit1, tx1.ID, nil)
	manager.Track(context.Background(), kit2, tx2.ID, nil)

	manager.Dispose()

	if manager.TrackedCount() != 0 {
		t.Errorf("tracked count = %d, want 0 after dispose", manager.TrackedCount())
	}
	if kit1.HandlerCount() != 0 || kit2.HandlerCount() != 0 {
		t.Error("dispose should remove all kit handlers")
	}
}
