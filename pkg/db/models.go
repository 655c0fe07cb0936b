package db

import (
	"time"

	"github.com/uptrace/bun"

	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

// TransactionDao is the persisted form of a bridge transaction.
type TransactionDao struct {
	bun.BaseModel `bun:"table:bridge_transactions"`

	ID               string        `bun:"id,pk"`
	UserAddress      string        `bun:"user_address,notnull"`
	SourceChain      string        `bun:"source_chain,notnull"`
	DestinationChain string        `bun:"destination_chain,notnull"`
	Amount           string        `bun:"amount,notnull"`
	TokenSymbol      string        `bun:"token_symbol,notnull"`
	Status           string        `bun:"status,notnull"`
	Steps            []bridge.Step `bun:"steps,type:jsonb"`

	SourceTxHash      *string `bun:"source_tx_hash"`
	DestinationTxHash *string `bun:"destination_tx_hash"`
	AttestationHash   *string `bun:"attestation_hash"`
	ErrorMessage      *string `bun:"error_message"`
	RecipientAddress  *string `bun:"recipient_address"`
	TransferMethod    string  `bun:"transfer_method,notnull"`
	ProviderFee       *string `bun:"provider_fee"`

	RetainedResult *protocol.BridgeResult `bun:"retained_result,type:jsonb,nullzero"`

	CreatedAt   time.Time  `bun:"created_at,notnull"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull"`
	CompletedAt *time.Time `bun:"completed_at"`
}

// UserStatsDao is the persisted lifetime aggregate row, keyed by user and
// environment. It lives apart from transactions so pruning history never
// touches it.
type UserStatsDao struct {
	bun.BaseModel `bun:"table:user_stats"`

	UserAddress      string    `bun:"user_address,pk"`
	Environment      string    `bun:"environment,pk"`
	TotalBridged     string    `bun:"total_bridged,notnull,default:'0'"`
	TransactionCount int64     `bun:"transaction_count,notnull,default:0"`
	TotalFees        string    `bun:"total_fees,notnull,default:'0'"`
	FastCount        int64     `bun:"fast_count,notnull,default:0"`
	StandardCount    int64     `bun:"standard_count,notnull,default:0"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
}

// PreferencesDao holds the per-user persisted UI preference blob.
type PreferencesDao struct {
	bun.BaseModel `bun:"table:ui_preferences"`

	UserAddress string              `bun:"user_address,pk"`
	Preferences *bridge.Preferences `bun:"preferences,type:jsonb"`
	UpdatedAt   time.Time           `bun:"updated_at,notnull"`
}

func toTransactionDao(tx *bridge.Transaction) *TransactionDao {
	dao := &TransactionDao{
		ID:               tx.ID,
		UserAddress:      tx.UserAddress,
		SourceChain:      tx.SourceChain,
		DestinationChain: tx.DestinationChain,
		Amount:           tx.Amount,
		TokenSymbol:      tx.TokenSymbol,
		Status:           string(tx.Status),
		Steps:            tx.Steps,
		TransferMethod:   string(tx.TransferMethod),
		RetainedResult:   tx.RetainedResult,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
		CompletedAt:      tx.CompletedAt,
	}
	dao.SourceTxHash = optional(tx.SourceTxHash)
	dao.DestinationTxHash = optional(tx.DestinationTxHash)
	dao.AttestationHash = optional(tx.AttestationHash)
	dao.ErrorMessage = optional(tx.Error)
	dao.RecipientAddress = optional(tx.RecipientAddress)
	dao.ProviderFee = optional(tx.ProviderFee)
	return dao
}

func toTransaction(dao *TransactionDao) *bridge.Transaction {
	return &bridge.Transaction{
		ID:                dao.ID,
		UserAddress:       dao.UserAddress,
		SourceChain:       dao.SourceChain,
		DestinationChain:  dao.DestinationChain,
		Amount:            dao.Amount,
		TokenSymbol:       dao.TokenSymbol,
		Status:            bridge.Status(dao.Status),
		Steps:             dao.Steps,
		SourceTxHash:      deref(dao.SourceTxHash),
		DestinationTxHash: deref(dao.DestinationTxHash),
		AttestationHash:   deref(dao.AttestationHash),
		Error:             deref(dao.ErrorMessage),
		RecipientAddress:  deref(dao.RecipientAddress),
		TransferMethod:    bridge.TransferMethod(dao.TransferMethod),
		ProviderFee:       deref(dao.ProviderFee),
		RetainedResult:    dao.RetainedResult,
		CreatedAt:         dao.CreatedAt,
		UpdatedAt:         dao.UpdatedAt,
		CompletedAt:       dao.CompletedAt,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
