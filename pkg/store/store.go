// Package store is the shared in-memory state the UI surfaces read from.
// It mirrors the durable transaction store, tracks the current transaction
// pointer and the open window set, and fans updates out to subscribers.
package store

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

// Update kinds delivered to subscribers.
const (
	UpdateTransactionAdded   = "transaction_added"
	UpdateTransactionChanged = "transaction_changed"
	UpdateTransactionRemoved = "transaction_removed"
	UpdateWindowOpened       = "window_opened"
	UpdateWindowChanged      = "window_changed"
	UpdateWindowClosed       = "window_closed"
)

// Update is one state change pushed to subscribers.
type Update struct {
	Kind        string              `json:"kind"`
	Transaction *bridge.Transaction `json:"transaction,omitempty"`
	Window      *bridge.Window      `json:"window,omitempty"`
}

// Listener consumes store updates.
type Listener func(Update)

// TransactionPatch is a partial update merged into a stored transaction.
// Nil fields are left untouched.
type TransactionPatch struct {
	Status            *bridge.Status
	Steps             []bridge.Step
	SourceTxHash      *string
	DestinationTxHash *string
	AttestationHash   *string
	Error             *string
	RetainedResult    *protocol.BridgeResult
	CompletedAt       *time.Time
}

const cascadeOffset = 30

var defaultWindowPosition = bridge.Position{X: 80, Y: 80}

// Store holds the session state for one user. Safe for concurrent use.
type Store struct {
	db          db.Store
	logger      *zap.Logger
	environment string

	mu           sync.Mutex
	userAddress  string
	transactions []*bridge.Transaction
	currentID    string
	windows      map[string]*bridge.Window
	nextZIndex   int
	// statsRecorded guards against double counting stats within a
	// session; across restarts the first-completion transition check
	// does the same job.
	statsRecorded map[string]bool
	prefs         *bridge.Preferences

	subMu       sync.Mutex
	subscribers map[int]Listener
	nextSubID   int
}

// New creates an empty store bound to the durable layer.
func New(database db.Store, environment string, logger *zap.Logger) *Store {
	return &Store{
		db:            database,
		logger:        logger,
		environment:   environment,
		windows:       make(map[string]*bridge.Window),
		statsRecorded: make(map[string]bool),
		subscribers:   make(map[int]Listener),
	}
}

// Load rebuilds session state for a user from the durable layer. Open
// windows and z-ordering do not survive reloads; transaction history and
// preferences do.
func (s *Store) Load(ctx context.Context, userAddress string) error {
	txs, err := s.db.GetTransactionsByUser(ctx, userAddress)
	if err != nil {
		return err
	}
	prefs, err := s.db.GetPreferences(ctx, userAddress)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAddress = userAddress
	s.transactions = txs
	s.currentID = ""
	s.windows = make(map[string]*bridge.Window)
	s.nextZIndex = 0
	s.statsRecorded = make(map[string]bool)
	s.prefs = prefs
	return nil
}

// Environment returns the network environment this store accounts stats
// under.
func (s *Store) Environment() string {
	return s.environment
}

// UserAddress returns the loaded user, or empty.
func (s *Store) UserAddress() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userAddress
}

// Transactions returns a snapshot of the in-memory list.
func (s *Store) Transactions() []*bridge.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*bridge.Transaction, len(s.transactions))
	for i, tx := range s.transactions {
		out[i] = tx.Clone()
	}
	return out
}

// Transaction returns a copy of one transaction from the list, or nil.
func (s *Store) Transaction(id string) *bridge.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx := s.findLocked(id); tx != nil {
		return tx.Clone()
	}
	return nil
}

// Current returns the primary transaction, or nil if none is set.
func (s *Store) Current() *bridge.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx := s.findLocked(s.currentID); tx != nil {
		return tx.Clone()
	}
	return nil
}

// SetCurrent points the primary UI surface at a transaction id.
func (s *Store) SetCurrent(id string) {
	s.mu.Lock()
	s.currentID = id
	s.mu.Unlock()
}

// AddTransaction inserts a transaction into the list and persists it.
// Adding an id that is already present replaces it in place instead of
// duplicating.
func (s *Store) AddTransaction(ctx context.Context, tx *bridge.Transaction) error {
	if err := s.db.SaveTransaction(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	replaced := false
	for i, existing := range s.transactions {
		if existing.ID == tx.ID {
			s.transactions[i] = tx.Clone()
			replaced = true
			break
		}
	}
	if !replaced {
		s.transactions = append(s.transactions, tx.Clone())
	}
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateTransactionAdded, Transaction: tx.Clone()})
	return nil
}

// UpdateTransaction merges a patch into a transaction, persists it and
// notifies subscribers. On the first transition into completed status,
// provided the mint step itself reports completed, the user's lifetime
// stats are incremented exactly once.
func (s *Store) UpdateTransaction(ctx context.Context, id string, patch TransactionPatch) (*bridge.Transaction, error) {
	s.mu.Lock()
	tx := s.findLocked(id)
	if tx == nil {
		s.mu.Unlock()
		return nil, db.ErrTransactionNotFound
	}

	wasCompleted := tx.Status == bridge.StatusCompleted
	applyPatch(tx, patch)
	tx.UpdatedAt = time.Now().UTC()

	recordStats := false
	if !wasCompleted && tx.Status == bridge.StatusCompleted && !s.statsRecorded[id] {
		if mint := tx.Step(bridge.StepMint); mint != nil && mint.Status == bridge.StepStatusCompleted {
			recordStats = true
			s.statsRecorded[id] = true
		}
	}

	snapshot := tx.Clone()
	if window, ok := s.windows[id]; ok {
		window.Transaction = tx.Clone()
	}
	s.mu.Unlock()

	if err := s.db.SaveTransaction(ctx, snapshot); err != nil {
		return nil, err
	}
	if recordStats {
		if err := s.db.RecordCompletedTransaction(ctx, snapshot, s.environment); err != nil {
			// Stats are an aggregate convenience; a failed increment
			// must not fail the transfer update.
			s.logger.Error("Failed to record completed transaction stats",
				zap.String("transaction_id", id),
				zap.Error(err))
		}
	}

	s.notify(Update{Kind: UpdateTransactionChanged, Transaction: snapshot.Clone()})
	return snapshot, nil
}

// SyncTransaction replaces the in-memory copy of a transaction whose
// durable row was already written by someone else (the event manager
// persists step transitions directly). Unknown ids are dropped; nothing
// is written back to the durable layer.
func (s *Store) SyncTransaction(tx *bridge.Transaction) {
	s.mu.Lock()
	found := false
	for i, existing := range s.transactions {
		if existing.ID == tx.ID {
			s.transactions[i] = tx.Clone()
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return
	}

	s.notify(Update{Kind: UpdateTransactionChanged, Transaction: tx.Clone()})
}

// CancelTransaction marks a transaction cancelled, clears the current
// pointer if it referenced it and closes its window. Nothing on-chain is
// touched.
func (s *Store) CancelTransaction(ctx context.Context, id string) (*bridge.Transaction, error) {
	s.mu.Lock()
	tx := s.findLocked(id)
	if tx == nil {
		s.mu.Unlock()
		return nil, db.ErrTransactionNotFound
	}

	now := time.Now().UTC()
	tx.Status = bridge.StatusCancelled
	tx.UpdatedAt = now
	for i := range tx.Steps {
		if tx.Steps[i].Status == bridge.StepStatusPending || tx.Steps[i].Status == bridge.StepStatusInProgress {
			tx.Steps[i].Status = bridge.StepStatusCancelled
			tx.Steps[i].UpdatedAt = now
		}
	}
	if s.currentID == id {
		s.currentID = ""
	}
	window := s.windows[id]
	delete(s.windows, id)
	snapshot := tx.Clone()
	s.mu.Unlock()

	if err := s.db.SaveTransaction(ctx, snapshot); err != nil {
		return nil, err
	}

	if window != nil {
		s.notify(Update{Kind: UpdateWindowClosed, Window: window})
	}
	s.notify(Update{Kind: UpdateTransactionChanged, Transaction: snapshot.Clone()})
	return snapshot, nil
}

// RemoveTransaction drops a transaction from the session list after a
// prune. The durable row is assumed gone already.
func (s *Store) RemoveTransaction(id string) {
	s.mu.Lock()
	for i, tx := range s.transactions {
		if tx.ID == id {
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			break
		}
	}
	if s.currentID == id {
		s.currentID = ""
	}
	delete(s.windows, id)
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateTransactionRemoved, Transaction: &bridge.Transaction{ID: id}})
}

func (s *Store) findLocked(id string) *bridge.Transaction {
	if id == "" {
		return nil
	}
	for _, tx := range s.transactions {
		if tx.ID == id {
			return tx
		}
	}
	return nil
}

func applyPatch(tx *bridge.Transaction, patch TransactionPatch) {
	if patch.Status != nil {
		tx.Status = *patch.Status
	}
	if patch.Steps != nil {
		tx.Steps = make([]bridge.Step, len(patch.Steps))
		copy(tx.Steps, patch.Steps)
	}
	if patch.SourceTxHash != nil {
		tx.SourceTxHash = *patch.SourceTxHash
	}
	if patch.DestinationTxHash != nil {
		tx.DestinationTxHash = *patch.DestinationTxHash
	}
	if patch.AttestationHash != nil {
		tx.AttestationHash = *patch.AttestationHash
	}
	if patch.Error != nil {
		tx.Error = *patch.Error
	}
	if patch.RetainedResult != nil {
		tx.RetainedResult = patch.RetainedResult
	}
	if patch.CompletedAt != nil {
		tx.CompletedAt = patch.CompletedAt
	}
}

// Subscribe registers a listener for store updates and returns an
// unsubscribe function.
func (s *Store) Subscribe(listener Listener) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = listener
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify(update Update) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subscribers))
	for _, l := range s.subscribers {
		listeners = append(listeners, l)
	}
	s.subMu.Unlock()

	for _, l := range listeners {
		l(update)
	}
}
