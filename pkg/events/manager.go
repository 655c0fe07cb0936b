// Package events translates the transfer kit's wildcard event stream into
// step state transitions on transaction records.
//
// The kit only reports what finished; it has no notion of the four-step
// domain model. The manager maps each completion onto its step, infers the
// start of the following step, persists the result and notifies the
// tracked callback.
package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/internal/metrics"
	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

// methodSteps maps kit event methods to steps. Methods not listed here are
// ignored.
var methodSteps = map[string]bridge.StepID{
	"approve":          bridge.StepApprove,
	"burn":             bridge.StepBurn,
	"fetchAttestation": bridge.StepAttestation,
	"mint":             bridge.StepMint,
}

// UpdateFunc receives the freshly persisted transaction after each step
// transition.
type UpdateFunc func(tx *bridge.Transaction)

type tracker struct {
	kit     protocol.Kit
	handler protocol.EventHandler
}

// Manager routes kit events to per-transaction step state machines. Safe
// for concurrent use; each tracked transaction advances independently.
type Manager struct {
	store  db.Store
	logger *zap.Logger

	mu       sync.Mutex
	trackers map[string]*tracker
}

// NewManager creates an event manager backed by the given store.
func NewManager(store db.Store, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		logger:   logger,
		trackers: make(map[string]*tracker),
	}
}

// Track subscribes to the kit's wildcard stream on behalf of one
// transaction. Tracking an id that is already tracked disposes the previous
// registration first, so at most one tracker is ever live per transaction.
func (m *Manager) Track(ctx context.Context, kit protocol.Kit, txID string, callback UpdateFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.trackers[txID]; ok {
		prev.kit.Off("*", prev.handler)
	}

	t := &tracker{kit: kit}
	t.handler = func(event protocol.Event) {
		m.handleEvent(ctx, txID, event, callback)
	}
	m.trackers[txID] = t
	kit.On("*", t.handler)
	metrics.ActiveTrackers.Set(float64(len(m.trackers)))
}

// Untrack removes the tracker for a transaction id. Events arriving after
// removal are dropped. Untracking an unknown id is a no-op.
func (m *Manager) Untrack(txID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trackers[txID]
	if !ok {
		return
	}
	t.kit.Off("*", t.handler)
	delete(m.trackers, txID)
	metrics.ActiveTrackers.Set(float64(len(m.trackers)))
}

// Dispose removes every tracker.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, t := range m.trackers {
		t.kit.Off("*", t.handler)
		delete(m.trackers, id)
	}
	metrics.ActiveTrackers.Set(0)
}

// TrackedCount returns the number of live trackers.
func (m *Manager) TrackedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackers)
}

// handleEvent applies one kit event to one transaction. Missing
// transactions and unrecognized methods are expected races (pruned history,
// disposed tracker) and are dropped without error.
func (m *Manager) handleEvent(ctx context.Context, txID string, event protocol.Event, callback UpdateFunc) {
	stepID, ok := methodSteps[event.Method]
	if !ok {
		return
	}

	m.mu.Lock()
	_, tracked := m.trackers[txID]
	m.mu.Unlock()
	if !tracked {
		return
	}

	tx, err := m.store.GetTransaction(ctx, txID)
	if err != nil {
		if !errors.Is(err, db.ErrTransactionNotFound) {
			m.logger.Error("Failed to load transaction for event",
				zap.String("transaction_id", txID),
				zap.String("method", event.Method),
				zap.Error(err))
			metrics.EventErrorsTotal.WithLabelValues(event.Method).Inc()
		}
		return
	}

	// A cancelled transfer stays cancelled; late events must not
	// resurrect its steps.
	if tx.Status == bridge.StatusCancelled {
		m.logger.Debug("Dropping event for cancelled transaction",
			zap.String("transaction_id", txID),
			zap.String("method", event.Method))
		return
	}

	step := tx.Step(stepID)
	if step == nil {
		return
	}

	now := time.Now().UTC()
	step.Status = bridge.StepStatusCompleted
	step.UpdatedAt = now
	if event.Values != nil && event.Values.TxHash != "" {
		step.TxHash = event.Values.TxHash
	}
	if stepID == bridge.StepAttestation && event.Values != nil && event.Values.Data != "" {
		tx.AttestationHash = event.Values.Data
	}

	advanceNextStep(tx, stepID, now)
	tx.UpdatedAt = now

	if err := m.store.SaveTransaction(ctx, tx); err != nil {
		m.logger.Error("Failed to persist step transition",
			zap.String("transaction_id", txID),
			zap.String("step", string(stepID)),
			zap.Error(err))
		metrics.EventErrorsTotal.WithLabelValues(event.Method).Inc()
		return
	}

	metrics.StepTransitionsTotal.WithLabelValues(string(stepID)).Inc()
	m.logger.Debug("Step completed",
		zap.String("transaction_id", txID),
		zap.String("step", string(stepID)))

	if callback != nil {
		callback(tx)
	}
}

// advanceNextStep moves the step after completed to in_progress. The kit
// never signals step starts, so the start is inferred here. Steps already
// past pending are left alone.
func advanceNextStep(tx *bridge.Transaction, completed bridge.StepID, now time.Time) {
	for i, id := range bridge.StepOrder {
		if id != completed || i+1 >= len(bridge.StepOrder) {
			continue
		}
		next := tx.Step(bridge.StepOrder[i+1])
		if next != nil && next.Status == bridge.StepStatusPending {
			next.Status = bridge.StepStatusInProgress
			next.UpdatedAt = now
		}
		return
	}
}
