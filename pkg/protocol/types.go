// Package protocol defines the contract of the external CCTP transfer kit.
//
// The kit drives the on-chain legs of a transfer (approve, burn,
// attestation fetch, mint) and reports progress through a wildcard event
// stream. This package only describes that contract; implementations live
// outside the orchestration layer.
package protocol

import (
	"context"

	"github.com/mjkid221/cctp-bridge/pkg/adapters"
	"github.com/mjkid221/cctp-bridge/pkg/chains"
)

// TransferSpeed selects the attestation finality tier for a transfer.
type TransferSpeed string

const (
	SpeedSlow TransferSpeed = "SLOW"
	SpeedFast TransferSpeed = "FAST"
)

// Endpoint binds an adapter to the chain it operates on.
type Endpoint struct {
	Adapter adapters.Adapter
	Chain   chains.Chain
	// RecipientAddress overrides the destination address for custom-address
	// transfers; empty means the connected wallet receives the funds.
	RecipientAddress string
}

// TransferRequest is the shared request shape for Estimate and Bridge.
type TransferRequest struct {
	From   Endpoint
	To     Endpoint
	Amount string
	Config TransferConfig
}

// TransferConfig carries per-call kit options.
type TransferConfig struct {
	TransferSpeed TransferSpeed
}

// GasFee is a network fee quoted by the kit for one leg of the transfer.
type GasFee struct {
	Name       string `json:"name"`
	Token      string `json:"token"`
	Blockchain string `json:"blockchain"`
	Fees       Fees   `json:"fees"`
}

// Fees breaks a gas fee quote down.
type Fees struct {
	Gas      string `json:"gas"`
	GasPrice string `json:"gasPrice"`
	Fee      string `json:"fee"`
}

// ProviderFee is a fee charged by the transfer provider itself.
type ProviderFee struct {
	Type   string `json:"type"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

// EstimateResult is the kit's fee/time quote.
type EstimateResult struct {
	GasFees []GasFee      `json:"gasFees"`
	Fees    []ProviderFee `json:"fees"`
}

// ResultState is the terminal state of a kit call or one of its steps.
type ResultState string

const (
	StateSuccess ResultState = "success"
	StateError   ResultState = "error"
	StatePending ResultState = "pending"
	StateNoop    ResultState = "noop"
)

// ResultStep reports the outcome of one protocol step within a BridgeResult.
type ResultStep struct {
	Name         string      `json:"name"`
	State        ResultState `json:"state"`
	TxHash       string      `json:"txHash,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	// Error carries the raw failure when the kit captured one. Retained for
	// message extraction only; not serialized.
	Error error `json:"-"`
}

// BridgeResult is the kit's report for an executed (or retried) transfer.
// It is retained on the transaction record to make retry possible.
type BridgeResult struct {
	State ResultState  `json:"state"`
	Steps []ResultStep `json:"steps"`
}

// EventValues is the optional payload attached to a kit event.
type EventValues struct {
	TxHash string `json:"txHash,omitempty"`
	// Data carries opaque attestation material on attestation events.
	Data string `json:"data,omitempty"`
}

// Event is one wildcard notification from the kit. Method names the
// protocol operation that completed; unrecognized methods must be ignored.
type Event struct {
	Method string       `json:"method"`
	Values *EventValues `json:"values,omitempty"`
}

// EventHandler consumes kit events.
type EventHandler func(Event)

// Kit is the external transfer kit contract.
type Kit interface {
	// Estimate quotes network and provider fees for a prospective transfer.
	Estimate(ctx context.Context, req *TransferRequest) (*EstimateResult, error)
	// Bridge executes a transfer end to end. Per-step failures are reported
	// inside the result, not as an error.
	Bridge(ctx context.Context, req *TransferRequest) (*BridgeResult, error)
	// Retry resumes a previously failed transfer from its retained result.
	Retry(ctx context.Context, previous *BridgeResult, endpoints RetryEndpoints) (*BridgeResult, error)
	// On subscribes a wildcard handler; pattern is always "*".
	On(pattern string, handler EventHandler)
	// Off removes a previously subscribed handler.
	Off(pattern string, handler EventHandler)
}

// RetryEndpoints carries fresh adapters for a retry call.
type RetryEndpoints struct {
	From adapters.Adapter
	To   adapters.Adapter
}
