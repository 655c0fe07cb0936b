package service

import (
	"context"

	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
	"github.com/mjkid221/cctp-bridge/pkg/bridge"
)

// Transactions returns one page of the user's history, newest first. An
// empty cursor starts at the top; the returned cursor is empty on the
// last page.
func (s *Service) Transactions(ctx context.Context, limit int, cursor string) ([]*bridge.Transaction, string, error) {
	user, _, err := s.requireInit()
	if err != nil {
		return nil, "", err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	txs, next, err := s.db.GetTransactionsPage(ctx, user, limit, cursor)
	if err != nil {
		return nil, "", apperrors.GeneralError(err)
	}
	return txs, next, nil
}

// Stats returns the user's lifetime aggregates for the active
// environment.
func (s *Service) Stats(ctx context.Context) (*bridge.UserStats, error) {
	user, _, err := s.requireInit()
	if err != nil {
		return nil, err
	}
	stats, err := s.db.GetUserStats(ctx, user, s.shared.Environment())
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}
	return stats, nil
}
