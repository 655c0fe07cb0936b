// Package bridge holds the transaction domain model for USDC transfers.
package bridge

import (
	"time"

	"github.com/google/uuid"

	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

// Status is the overall state of a bridge transaction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusApproving  Status = "approving"
	StatusApproved   Status = "approved"
	StatusBridging   Status = "bridging"
	StatusConfirming Status = "confirming"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status never changes again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// StepID names one of the four protocol steps, in fixed order.
type StepID string

const (
	StepApprove     StepID = "approve"
	StepBurn        StepID = "burn"
	StepAttestation StepID = "attestation"
	StepMint        StepID = "mint"
)

// StepOrder is the fixed protocol step sequence.
var StepOrder = []StepID{StepApprove, StepBurn, StepAttestation, StepMint}

// StepStatus is the state of one protocol step.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
	StepStatusFailed     StepStatus = "failed"
	StepStatusCancelled  StepStatus = "cancelled"
)

// Step is one protocol step's record within a transaction.
type Step struct {
	ID        StepID     `json:"id"`
	Status    StepStatus `json:"status"`
	TxHash    string     `json:"txHash,omitempty"`
	Error     string     `json:"error,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// TransferMethod selects the fee/speed tradeoff for a transfer.
type TransferMethod string

const (
	// TransferStandard is fee-free and waits for hard finality.
	TransferStandard TransferMethod = "standard"
	// TransferFast pays a provider fee for soft-finality attestation.
	TransferFast TransferMethod = "fast"
)

// Transaction is the unit of work: one USDC transfer between two chains.
type Transaction struct {
	ID          string `json:"id"`
	UserAddress string `json:"userAddress"`

	SourceChain      string `json:"sourceChain"`
	DestinationChain string `json:"destinationChain"`
	// Amount is a decimal string in USDC with at most 6 fractional digits.
	Amount      string `json:"amount"`
	TokenSymbol string `json:"tokenSymbol"`

	Status Status `json:"status"`
	Steps  []Step `json:"steps"`

	SourceTxHash      string `json:"sourceTxHash,omitempty"`
	DestinationTxHash string `json:"destinationTxHash,omitempty"`
	AttestationHash   string `json:"attestationHash,omitempty"`
	Error             string `json:"error,omitempty"`
	// RecipientAddress is set for custom-address transfers.
	RecipientAddress string         `json:"recipientAddress,omitempty"`
	TransferMethod   TransferMethod `json:"transferMethod"`
	// ProviderFee is the fee charged for fast transfers, in USDC.
	ProviderFee string `json:"providerFee,omitempty"`
	// RetainedResult is the protocol kit's last report, kept to make
	// retrying a failed transfer possible.
	RetainedResult *protocol.BridgeResult `json:"retainedResult,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// NewTransaction creates a pending transaction with all four steps pending.
func NewTransaction(userAddress string, params TransferParams) *Transaction {
	now := time.Now().UTC()
	steps := make([]Step, len(StepOrder))
	for i, id := range StepOrder {
		steps[i] = Step{ID: id, Status: StepStatusPending, UpdatedAt: now}
	}
	return &Transaction{
		ID:               uuid.NewString(),
		UserAddress:      userAddress,
		SourceChain:      params.SourceChain,
		DestinationChain: params.DestinationChain,
		Amount:           params.Amount,
		TokenSymbol:      "USDC",
		Status:           StatusPending,
		Steps:            steps,
		RecipientAddress: params.RecipientAddress,
		TransferMethod:   params.TransferMethod,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Step returns a pointer to the step with the given id, or nil.
func (t *Transaction) Step(id StepID) *Step {
	for i := range t.Steps {
		if t.Steps[i].ID == id {
			return &t.Steps[i]
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand to other goroutines.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	cp.Steps = make([]Step, len(t.Steps))
	copy(cp.Steps, t.Steps)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		cp.CompletedAt = &at
	}
	if t.RetainedResult != nil {
		res := *t.RetainedResult
		res.Steps = make([]protocol.ResultStep, len(t.RetainedResult.Steps))
		copy(res.Steps, t.RetainedResult.Steps)
		cp.RetainedResult = &res
	}
	return &cp
}

// TransferParams is the validated input for estimate and bridge calls.
type TransferParams struct {
	SourceChain      string         `json:"sourceChain"`
	DestinationChain string         `json:"destinationChain"`
	Amount           string         `json:"amount"`
	TransferMethod   TransferMethod `json:"transferMethod"`
	RecipientAddress string         `json:"recipientAddress,omitempty"`
}

// Estimate is the orchestrator's aggregated fee and time quote.
type Estimate struct {
	// GasFeeTotal sums the network fees quoted by the kit, in the fee token.
	GasFeeTotal string `json:"gasFeeTotal"`
	// ProviderFee is the provider's fee in USDC; "0" for standard transfers.
	ProviderFee string `json:"providerFee"`
	// ReceiveAmount is the requested amount minus the provider fee.
	ReceiveAmount string `json:"receiveAmount"`
	// EstimatedTime is the expected wall-clock duration of the transfer.
	EstimatedTime time.Duration `json:"estimatedTime"`
}

// UserStats are lifetime aggregate counters per user and environment.
// They are stored apart from transactions so pruning history never
// corrupts the totals.
type UserStats struct {
	UserAddress string `json:"userAddress"`
	Environment string `json:"environment"`
	// TotalBridged is the lifetime USDC volume as a decimal string.
	TotalBridged     string    `json:"totalBridged"`
	TransactionCount int64     `json:"transactionCount"`
	TotalFees        string    `json:"totalFees"`
	FastCount        int64     `json:"fastCount"`
	StandardCount    int64     `json:"standardCount"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Position is a window's screen coordinates.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Preferences is the small persisted subset of UI state. Everything else
// (transactions, open windows, z-indices) is session-scoped and rebuilt
// from the transaction store on startup.
type Preferences struct {
	Environment      string              `json:"environment"`
	TransferMethod   TransferMethod      `json:"transferMethod"`
	SourceChain      string              `json:"sourceChain,omitempty"`
	DestinationChain string              `json:"destinationChain,omitempty"`
	WindowPositions  map[string]Position `json:"windowPositions,omitempty"`
	SeenExplainer    bool                `json:"seenExplainer"`
	ControlOrder     []string            `json:"controlOrder,omitempty"`
}

// Window is a UI-facing projection of one transaction with its own
// lifecycle. Closing a window never touches the transaction.
type Window struct {
	TransactionID string `json:"transactionId"`
	// Transaction is a possibly stale copy, refreshed on focus and on
	// live updates.
	Transaction *Transaction `json:"transaction"`
	X           int          `json:"x"`
	Y           int          `json:"y"`
	ZIndex      int          `json:"zIndex"`
	Minimized   bool         `json:"minimized"`
}
