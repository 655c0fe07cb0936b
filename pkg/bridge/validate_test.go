package bridge

import (
	"errors"
	"testing"

	"github.com/mjkid221/cctp-bridge/pkg/protocol"
)

func validParams() TransferParams {
	return TransferParams{
		SourceChain:      "ethereum",
		DestinationChain: "base",
		Amount:           "100.50",
		TransferMethod:   TransferStandard,
	}
}

func TestValidateTransferParams(t *testing.T) {
	if err := ValidateTransferParams(validParams()); err != nil {
		t.Fatalf("valid params rejected: %v", err)
	}
}

func TestValidateTransferParams_Chains(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TransferParams)
		wantErr error
	}{
		{"missing source", func(p *TransferParams) { p.SourceChain = "" }, ErrMissingChain},
		{"missing destination", func(p *TransferParams) { p.DestinationChain = "" }, ErrMissingChain},
		{"same chain", func(p *TransferParams) { p.DestinationChain = "ethereum" }, ErrSameChain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(&params)
			err := ValidateTransferParams(params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateTransferParams_Amount(t *testing.T) {
	tests := []struct {
		amount  string
		wantErr error
	}{
		{"100", nil},
		{"0.000001", nil},
		{"100.123456", nil},
		{"0", ErrInvalidAmount},
		{"-5", ErrInvalidAmount},
		{"", ErrInvalidAmount},
		{"abc", ErrInvalidAmount},
		{"1e3", nil}, // decimal accepts scientific notation
		{"0.0000001", ErrTooManyDecimals},
		{"100.1234567", ErrTooManyDecimals},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			params := validParams()
			params.Amount = tt.amount
			err := ValidateTransferParams(params)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("amount %q rejected: %v", tt.amount, err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("amount %q: expected %v, got %v", tt.amount, tt.wantErr, err)
			}
		})
	}
}

func TestValidateTransferParams_Method(t *testing.T) {
	params := validParams()
	params.TransferMethod = "express"
	if err := ValidateTransferParams(params); !errors.Is(err, ErrInvalidTransferMethod) {
		t.Errorf("expected ErrInvalidTransferMethod, got %v", err)
	}

	params.TransferMethod = TransferFast
	if err := ValidateTransferParams(params); err != nil {
		t.Errorf("fast method rejected: %v", err)
	}
}

func TestStatusTerminal(t *testing.T) {
	terminal := []Status{StatusCompleted, StatusFailed, StatusCancelled}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	live := []Status{StatusPending, StatusApproving, StatusApproved, StatusBridging, StatusConfirming}
	for _, s := range live {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestNewTransaction(t *testing.T) {
	tx := NewTransaction("0xuser", validParams())

	if tx.ID == "" {
		t.Error("expected generated id")
	}
	if tx.Status != StatusPending {
		t.Errorf("expected pending, got %s", tx.Status)
	}
	if tx.TokenSymbol != "USDC" {
		t.Errorf("unexpected token %s", tx.TokenSymbol)
	}
	if len(tx.Steps) != len(StepOrder) {
		t.Fatalf("expected %d steps, got %d", len(StepOrder), len(tx.Steps))
	}
	for i, step := range tx.Steps {
		if step.ID != StepOrder[i] {
			t.Errorf("step %d: expected %s, got %s", i, StepOrder[i], step.ID)
		}
		if step.Status != StepStatusPending {
			t.Errorf("step %s: expected pending, got %s", step.ID, step.Status)
		}
	}

	other := NewTransaction("0xuser", validParams())
	if other.ID == tx.ID {
		t.Error("ids must be unique")
	}
}

func TestTransactionStepLookup(t *testing.T) {
	tx := NewTransaction("0xuser", validParams())

	step := tx.Step(StepBurn)
	if step == nil {
		t.Fatal("burn step missing")
	}
	step.Status = StepStatusCompleted
	step.TxHash = "0xburn"

	// Lookup returns a pointer into the transaction.
	if got := tx.Step(StepBurn); got.TxHash != "0xburn" {
		t.Errorf("mutation through Step() not visible: %+v", got)
	}

	if tx.Step("unknown") != nil {
		t.Error("unknown step should return nil")
	}
}

func TestTransactionClone(t *testing.T) {
	tx := NewTransaction("0xuser", validParams())
	tx.RetainedResult = &protocol.BridgeResult{
		State: protocol.StateError,
		Steps: []protocol.ResultStep{{Name: "burn", State: protocol.StateSuccess, TxHash: "0xburn"}},
	}

	cp := tx.Clone()
	cp.Steps[0].Status = StepStatusCompleted
	cp.RetainedResult.Steps[0].TxHash = "0xchanged"

	if tx.Steps[0].Status != StepStatusPending {
		t.Error("clone shares step storage with original")
	}
	if tx.RetainedResult.Steps[0].TxHash == "0xchanged" {
		t.Error("clone shares retained result storage with original")
	}
}
