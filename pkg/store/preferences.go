package store

import (
	"context"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
)

// Preferences returns the loaded preferences, or nil when the user never
// saved any.
func (s *Store) Preferences() *bridge.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.prefs == nil {
		return nil
	}
	prefs := *s.prefs
	return &prefs
}

// SavePreferences replaces the preference blob and persists it.
func (s *Store) SavePreferences(ctx context.Context, prefs *bridge.Preferences) error {
	s.mu.Lock()
	copied := *prefs
	s.prefs = &copied
	user := s.userAddress
	s.mu.Unlock()

	return s.db.SavePreferences(ctx, user, prefs)
}
