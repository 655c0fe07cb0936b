package db

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/uptrace/bun"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidCursor       = errors.New("invalid pagination cursor")
)

// Store is the durable storage behind the bridge. All reads hand out
// detached copies so callers can never mutate persisted state in place.
type Store interface {
	SaveTransaction(ctx context.Context, tx *bridge.Transaction) error
	GetTransaction(ctx context.Context, id string) (*bridge.Transaction, error)
	GetTransactionsByUser(ctx context.Context, userAddress string) ([]*bridge.Transaction, error)
	GetTransactionsByUserAndStatus(ctx context.Context, userAddress string, status bridge.Status) ([]*bridge.Transaction, error)
	GetRecentTransactions(ctx context.Context, userAddress string, limit int) ([]*bridge.Transaction, error)
	GetTransactionsPage(ctx context.Context, userAddress string, limit int, cursor string) ([]*bridge.Transaction, string, error)
	DeleteTransaction(ctx context.Context, id string) error
	PruneOldTransactions(ctx context.Context, userAddress string, keep int) (int, error)

	RecordCompletedTransaction(ctx context.Context, tx *bridge.Transaction, environment string) error
	GetUserStats(ctx context.Context, userAddress, environment string) (*bridge.UserStats, error)

	GetPreferences(ctx context.Context, userAddress string) (*bridge.Preferences, error)
	SavePreferences(ctx context.Context, userAddress string, prefs *bridge.Preferences) error
}

type pgStore struct {
	db *bun.DB
}

// NewStore creates a new postgres implementation of the bridge store
func NewStore(db *bun.DB) *pgStore {
	return &pgStore{db: db}
}

// SaveTransaction inserts a transaction or, if the id already exists,
// replaces the stored row. Saving twice with the same state is a no-op.
func (s *pgStore) SaveTransaction(ctx context.Context, tx *bridge.Transaction) error {
	dao := toTransactionDao(tx)

	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("steps = EXCLUDED.steps").
		Set("source_tx_hash = EXCLUDED.source_tx_hash").
		Set("destination_tx_hash = EXCLUDED.destination_tx_hash").
		Set("attestation_hash = EXCLUDED.attestation_hash").
		Set("provider_fee = EXCLUDED.provider_fee").
		Set("error_message = EXCLUDED.error_message").
		Set("retained_result = EXCLUDED.retained_result").
		Set("updated_at = EXCLUDED.updated_at").
		Set("completed_at = EXCLUDED.completed_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}

	return nil
}

func (s *pgStore) GetTransaction(ctx context.Context, id string) (*bridge.Transaction, error) {
	dao := new(TransactionDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return toTransaction(dao), nil
}

func (s *pgStore) GetTransactionsByUser(ctx context.Context, userAddress string) ([]*bridge.Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("user_address = ?", userAddress).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return toTransactions(daos), nil
}

func (s *pgStore) GetTransactionsByUserAndStatus(ctx context.Context, userAddress string, status bridge.Status) ([]*bridge.Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("user_address = ?", userAddress).
		Where("status = ?", string(status)).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions by status: %w", err)
	}
	return toTransactions(daos), nil
}

func (s *pgStore) GetRecentTransactions(ctx context.Context, userAddress string, limit int) ([]*bridge.Transaction, error) {
	var daos []TransactionDao
	err := s.db.NewSelect().
		Model(&daos).
		Where("user_address = ?", userAddress).
		Order("created_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent transactions: %w", err)
	}
	return toTransactions(daos), nil
}

// pageCursor pins pagination to (created_at, id) so rows inserted between
// page fetches never shift results.
type pageCursor struct {
	CreatedAt time.Time `json:"c"`
	ID        string    `json:"i"`
}

func encodeCursor(c pageCursor) string {
	raw, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (pageCursor, error) {
	var c pageCursor
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return c, ErrInvalidCursor
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, ErrInvalidCursor
	}
	return c, nil
}

// GetTransactionsPage returns up to limit transactions newest first, plus a
// cursor for the next page. An empty cursor starts from the newest row; an
// empty returned cursor means there are no more rows.
func (s *pgStore) GetTransactionsPage(ctx context.Context, userAddress string, limit int, cursor string) ([]*bridge.Transaction, string, error) {
	var daos []TransactionDao
	query := s.db.NewSelect().
		Model(&daos).
		Where("user_address = ?", userAddress)

	if cursor != "" {
		c, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", err
		}
		query = query.Where("(created_at, id) < (?, ?)", c.CreatedAt, c.ID)
	}

	err := query.
		OrderExpr("created_at DESC, id DESC").
		Limit(limit + 1).
		Scan(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to page transactions: %w", err)
	}

	next := ""
	if len(daos) > limit {
		daos = daos[:limit]
		last := daos[len(daos)-1]
		next = encodeCursor(pageCursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return toTransactions(daos), next, nil
}

func (s *pgStore) DeleteTransaction(ctx context.Context, id string) error {
	_, err := s.db.NewDelete().
		Model((*TransactionDao)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// PruneOldTransactions deletes everything past the newest keep rows for a
// user, skipping rows still in flight. Returns the number of rows removed.
func (s *pgStore) PruneOldTransactions(ctx context.Context, userAddress string, keep int) (int, error) {
	res, err := s.db.NewDelete().
		Model((*TransactionDao)(nil)).
		Where("user_address = ?", userAddress).
		Where("status IN (?)", bun.In([]string{
			string(bridge.StatusCompleted),
			string(bridge.StatusFailed),
			string(bridge.StatusCancelled),
		})).
		Where("id NOT IN (?)", s.db.NewSelect().
			Model((*TransactionDao)(nil)).
			Column("id").
			Where("user_address = ?", userAddress).
			OrderExpr("created_at DESC, id DESC").
			Limit(keep)).
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transactions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned transactions: %w", err)
	}
	return int(n), nil
}

// RecordCompletedTransaction folds a completed transfer into the user's
// lifetime stats. The caller is responsible for calling this exactly once
// per transaction.
func (s *pgStore) RecordCompletedTransaction(ctx context.Context, tx *bridge.Transaction, environment string) error {
	amount, err := decimal.NewFromString(tx.Amount)
	if err != nil {
		return fmt.Errorf("invalid transaction amount %q: %w", tx.Amount, err)
	}
	fee := decimal.Zero
	if tx.ProviderFee != "" {
		fee, err = decimal.NewFromString(tx.ProviderFee)
		if err != nil {
			return fmt.Errorf("invalid provider fee %q: %w", tx.ProviderFee, err)
		}
	}

	fastInc, standardInc := 0, 1
	if tx.TransferMethod == bridge.TransferFast {
		fastInc, standardInc = 1, 0
	}

	now := time.Now().UTC()
	dao := &UserStatsDao{
		UserAddress:      tx.UserAddress,
		Environment:      environment,
		TotalBridged:     amount.String(),
		TransactionCount: 1,
		TotalFees:        fee.String(),
		FastCount:        int64(fastInc),
		StandardCount:    int64(standardInc),
		UpdatedAt:        now,
	}

	_, err = s.db.NewInsert().
		Model(dao).
		On("CONFLICT (user_address, environment) DO UPDATE").
		Set("total_bridged = (user_stats.total_bridged::numeric + EXCLUDED.total_bridged::numeric)::text").
		Set("transaction_count = user_stats.transaction_count + 1").
		Set("total_fees = (user_stats.total_fees::numeric + EXCLUDED.total_fees::numeric)::text").
		Set("fast_count = user_stats.fast_count + EXCLUDED.fast_count").
		Set("standard_count = user_stats.standard_count + EXCLUDED.standard_count").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to record completed transaction: %w", err)
	}
	return nil
}

// GetUserStats returns the lifetime aggregates for a user in one
// environment. A user with no completed transfers gets zero-valued stats,
// not an error.
func (s *pgStore) GetUserStats(ctx context.Context, userAddress, environment string) (*bridge.UserStats, error) {
	dao := new(UserStatsDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("user_address = ?", userAddress).
		Where("environment = ?", environment).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &bridge.UserStats{
				UserAddress:  userAddress,
				Environment:  environment,
				TotalBridged: "0",
				TotalFees:    "0",
			}, nil
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return &bridge.UserStats{
		UserAddress:      dao.UserAddress,
		Environment:      dao.Environment,
		TotalBridged:     dao.TotalBridged,
		TransactionCount: dao.TransactionCount,
		TotalFees:        dao.TotalFees,
		FastCount:        dao.FastCount,
		StandardCount:    dao.StandardCount,
		UpdatedAt:        dao.UpdatedAt,
	}, nil
}

// GetPreferences returns the stored preferences, or nil when the user has
// never saved any.
func (s *pgStore) GetPreferences(ctx context.Context, userAddress string) (*bridge.Preferences, error) {
	dao := new(PreferencesDao)
	err := s.db.NewSelect().
		Model(dao).
		Where("user_address = ?", userAddress).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return dao.Preferences, nil
}

func (s *pgStore) SavePreferences(ctx context.Context, userAddress string, prefs *bridge.Preferences) error {
	dao := &PreferencesDao{
		UserAddress: userAddress,
		Preferences: prefs,
		UpdatedAt:   time.Now().UTC(),
	}
	_, err := s.db.NewInsert().
		Model(dao).
		On("CONFLICT (user_address) DO UPDATE").
		Set("preferences = EXCLUDED.preferences").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func toTransactions(daos []TransactionDao) []*bridge.Transaction {
	txs := make([]*bridge.Transaction, len(daos))
	for i := range daos {
		txs[i] = toTransaction(&daos[i])
	}
	return txs
}
