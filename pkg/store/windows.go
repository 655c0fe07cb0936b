package store

import (
	"context"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
)

// OpenTransactionWindow focuses the window for a transaction, creating it
// first if needed. New windows cascade by a fixed offset per already-open
// window unless the user saved a position for this transaction before.
func (s *Store) OpenTransactionWindow(id string) (*bridge.Window, error) {
	s.mu.Lock()
	tx := s.findLocked(id)
	if tx == nil {
		s.mu.Unlock()
		return nil, db.ErrTransactionNotFound
	}

	window, exists := s.windows[id]
	if exists {
		window.Transaction = tx.Clone()
		window.Minimized = false
	} else {
		pos := defaultWindowPosition
		pos.X += cascadeOffset * len(s.windows)
		pos.Y += cascadeOffset * len(s.windows)
		if s.prefs != nil {
			if saved, ok := s.prefs.WindowPositions[id]; ok {
				pos = saved
			}
		}
		window = &bridge.Window{
			TransactionID: id,
			Transaction:   tx.Clone(),
			X:             pos.X,
			Y:             pos.Y,
		}
		s.windows[id] = window
	}
	s.nextZIndex++
	window.ZIndex = s.nextZIndex
	snapshot := *window
	s.mu.Unlock()

	kind := UpdateWindowChanged
	if !exists {
		kind = UpdateWindowOpened
	}
	s.notify(Update{Kind: kind, Window: &snapshot})
	return &snapshot, nil
}

// FocusTransactionWindow raises a window to the top. The z-index counter
// is shared across every window in the app so focus order stays globally
// consistent.
func (s *Store) FocusTransactionWindow(id string) (*bridge.Window, error) {
	s.mu.Lock()
	window, ok := s.windows[id]
	if !ok {
		s.mu.Unlock()
		return nil, db.ErrTransactionNotFound
	}
	s.nextZIndex++
	window.ZIndex = s.nextZIndex
	window.Minimized = false
	snapshot := *window
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateWindowChanged, Window: &snapshot})
	return &snapshot, nil
}

// NextZIndex hands out the next value of the shared z-index counter for
// window types this store does not manage itself.
func (s *Store) NextZIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextZIndex++
	return s.nextZIndex
}

// UpdateTransactionInWindow patches only the window's cached transaction
// copy, without touching the list or the durable layer. Used to push live
// updates into an open window.
func (s *Store) UpdateTransactionInWindow(id string, tx *bridge.Transaction) {
	s.mu.Lock()
	window, ok := s.windows[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	window.Transaction = tx.Clone()
	snapshot := *window
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateWindowChanged, Window: &snapshot})
}

// MoveTransactionWindow repositions a window and persists the position so
// it survives reloads.
func (s *Store) MoveTransactionWindow(ctx context.Context, id string, x, y int) (*bridge.Window, error) {
	s.mu.Lock()
	window, ok := s.windows[id]
	if !ok {
		s.mu.Unlock()
		return nil, db.ErrTransactionNotFound
	}
	window.X = x
	window.Y = y
	if s.prefs == nil {
		s.prefs = &bridge.Preferences{}
	}
	if s.prefs.WindowPositions == nil {
		s.prefs.WindowPositions = make(map[string]bridge.Position)
	}
	s.prefs.WindowPositions[id] = bridge.Position{X: x, Y: y}
	prefs := *s.prefs
	user := s.userAddress
	snapshot := *window
	s.mu.Unlock()

	if user != "" {
		if err := s.db.SavePreferences(ctx, user, &prefs); err != nil {
			return nil, err
		}
	}

	s.notify(Update{Kind: UpdateWindowChanged, Window: &snapshot})
	return &snapshot, nil
}

// MinimizeTransactionWindow toggles a window's minimized state.
func (s *Store) MinimizeTransactionWindow(id string, minimized bool) (*bridge.Window, error) {
	s.mu.Lock()
	window, ok := s.windows[id]
	if !ok {
		s.mu.Unlock()
		return nil, db.ErrTransactionNotFound
	}
	window.Minimized = minimized
	snapshot := *window
	s.mu.Unlock()

	s.notify(Update{Kind: UpdateWindowChanged, Window: &snapshot})
	return &snapshot, nil
}

// CloseTransactionWindow removes a window. The transaction itself is
// untouched.
func (s *Store) CloseTransactionWindow(id string) {
	s.mu.Lock()
	window, ok := s.windows[id]
	if ok {
		delete(s.windows, id)
	}
	s.mu.Unlock()

	if ok {
		s.notify(Update{Kind: UpdateWindowClosed, Window: window})
	}
}

// Windows returns a snapshot of the open window set.
func (s *Store) Windows() []*bridge.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*bridge.Window, 0, len(s.windows))
	for _, w := range s.windows {
		snapshot := *w
		out = append(out, &snapshot)
	}
	return out
}

// Window returns a snapshot of one open window, or nil.
func (s *Store) Window(id string) *bridge.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.windows[id]
	if !ok {
		return nil
	}
	snapshot := *w
	return &snapshot
}
