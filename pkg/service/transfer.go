package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mjkid221/cctp-bridge/internal/metrics"
	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
	"github.com/mjkid221/cctp-bridge/pkg/protocol"
	"github.com/mjkid221/cctp-bridge/pkg/store"
)

// Estimate quotes fees and wall-clock time for a prospective transfer.
// Fields the kit omits come back as zero values, not errors.
func (s *Service) Estimate(ctx context.Context, params bridge.TransferParams) (*bridge.Estimate, error) {
	if err := bridge.ValidateTransferParams(params); err != nil {
		return nil, err
	}
	_, wallets, err := s.requireInit()
	if err != nil {
		return nil, err
	}

	source, err := s.registry.Get(params.SourceChain)
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, err.Error())
	}
	destination, err := s.registry.Get(params.DestinationChain)
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, err.Error())
	}

	from, err := s.endpoint(ctx, wallets, source, "")
	if err != nil {
		return nil, err
	}
	to, err := s.endpoint(ctx, wallets, destination, params.RecipientAddress)
	if err != nil {
		return nil, err
	}

	kit := s.newKit()
	result, err := kit.Estimate(ctx, &protocol.TransferRequest{
		From:   from,
		To:     to,
		Amount: params.Amount,
		Config: protocol.TransferConfig{TransferSpeed: transferSpeed(params.TransferMethod)},
	})
	if err != nil {
		return nil, apperrors.DependencyError(err, "fee estimation failed")
	}

	estimate := aggregateEstimate(result, params)
	estimate.EstimatedTime = source.AttestationTime(params.TransferMethod == bridge.TransferFast)

	metrics.EstimatesTotal.Inc()
	return estimate, nil
}

// aggregateEstimate folds the kit's itemized quote into totals. Missing
// sections contribute zero; malformed numbers are skipped rather than
// failing the whole estimate.
func aggregateEstimate(result *protocol.EstimateResult, params bridge.TransferParams) *bridge.Estimate {
	gasTotal := decimal.Zero
	providerFee := decimal.Zero

	if result != nil {
		for _, gas := range result.GasFees {
			fee, err := decimal.NewFromString(gas.Fees.Fee)
			if err != nil {
				continue
			}
			gasTotal = gasTotal.Add(fee)
		}
		for _, fee := range result.Fees {
			amount, err := decimal.NewFromString(fee.Amount)
			if err != nil {
				continue
			}
			providerFee = providerFee.Add(amount)
		}
	}

	receive := decimal.Zero
	if amount, err := decimal.NewFromString(params.Amount); err == nil {
		receive = amount.Sub(providerFee)
		if receive.IsNegative() {
			receive = decimal.Zero
		}
	}

	return &bridge.Estimate{
		GasFeeTotal:   gasTotal.String(),
		ProviderFee:   providerFee.String(),
		ReceiveAmount: receive.String(),
	}
}

// Bridge executes a transfer end to end. Kit-level failures are recorded
// on the transaction and returned with a nil error; only validation and
// setup problems surface as errors.
func (s *Service) Bridge(ctx context.Context, params bridge.TransferParams) (*bridge.Transaction, error) {
	if err := bridge.ValidateTransferParams(params); err != nil {
		return nil, err
	}
	user, wallets, err := s.requireInit()
	if err != nil {
		return nil, err
	}
	if !s.SupportsRoute(params.SourceChain, params.DestinationChain) {
		return nil, apperrors.NotSupportedError(bridge.ErrUnsupportedRoute,
			"route is not supported: chains must share an environment and differ")
	}

	source, err := s.registry.Get(params.SourceChain)
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, err.Error())
	}
	destination, err := s.registry.Get(params.DestinationChain)
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, err.Error())
	}

	// Chain switching happens before adapter creation; adapters bind to
	// the wallet's current chain.
	from, err := s.endpoint(ctx, wallets, source, "")
	if err != nil {
		return nil, err
	}
	to, err := s.endpoint(ctx, wallets, destination, params.RecipientAddress)
	if err != nil {
		return nil, err
	}

	tx := bridge.NewTransaction(user, params)

	kit := s.newKit()
	req := &protocol.TransferRequest{
		From:   from,
		To:     to,
		Amount: params.Amount,
		Config: protocol.TransferConfig{TransferSpeed: transferSpeed(params.TransferMethod)},
	}

	// Fast transfers carry a provider fee; quote it up front so the
	// record and the lifetime stats account for it. A failed quote
	// leaves the fee unknown, it never blocks the transfer.
	if params.TransferMethod == bridge.TransferFast {
		if quote, quoteErr := kit.Estimate(ctx, req); quoteErr != nil {
			s.logger.Warn("Provider fee quote failed",
				zap.String("source_chain", params.SourceChain),
				zap.Error(quoteErr))
		} else {
			tx.ProviderFee = aggregateEstimate(quote, params).ProviderFee
		}
	}

	// The record is persisted and marked current before the kit call so
	// live events update a transaction the UI is already showing.
	if err := s.shared.AddTransaction(ctx, tx); err != nil {
		return nil, apperrors.GeneralError(err)
	}
	s.shared.SetCurrent(tx.ID)

	s.track(ctx, kit, tx.ID)
	defer s.events.Untrack(tx.ID)

	if _, err := s.markStarted(ctx, tx.ID); err != nil {
		return nil, apperrors.GeneralError(err)
	}

	start := time.Now()
	result, callErr := kit.Bridge(ctx, req)

	final, err := s.finishTransfer(ctx, tx.ID, params, result, callErr, time.Since(start))
	if err != nil {
		return nil, err
	}
	return final, nil
}

// Retry resumes a failed transfer under its original transaction id, so
// windows and notifications referencing the id keep working.
func (s *Service) Retry(ctx context.Context, transactionID string) (*bridge.Transaction, error) {
	user, wallets, err := s.requireInit()
	if err != nil {
		return nil, err
	}

	tx, err := s.db.GetTransaction(ctx, transactionID)
	if err != nil {
		if err == db.ErrTransactionNotFound {
			return nil, apperrors.ResourceNotFoundError(err, "transaction not found")
		}
		return nil, apperrors.GeneralError(err)
	}
	if tx.UserAddress != user {
		return nil, apperrors.ForbiddenError(ErrWrongUser, ErrWrongUser.Error())
	}
	if tx.Status != bridge.StatusFailed {
		return nil, apperrors.ConflictError(ErrNotFailed, ErrNotFailed.Error())
	}
	if tx.RetainedResult == nil {
		return nil, apperrors.ConflictError(ErrNoRetainedResult, ErrNoRetainedResult.Error())
	}

	source, err := s.registry.Get(tx.SourceChain)
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, err.Error())
	}
	destination, err := s.registry.Get(tx.DestinationChain)
	if err != nil {
		return nil, apperrors.ResourceNotFoundError(err, err.Error())
	}

	from, err := s.endpoint(ctx, wallets, source, "")
	if err != nil {
		return nil, err
	}
	to, err := s.endpoint(ctx, wallets, destination, tx.RecipientAddress)
	if err != nil {
		return nil, err
	}

	retained := tx.RetainedResult
	params := bridge.TransferParams{
		SourceChain:      tx.SourceChain,
		DestinationChain: tx.DestinationChain,
		Amount:           tx.Amount,
		TransferMethod:   tx.TransferMethod,
		RecipientAddress: tx.RecipientAddress,
	}

	resetForRetry(tx, retained)

	if err := s.shared.AddTransaction(ctx, tx); err != nil {
		return nil, apperrors.GeneralError(err)
	}
	s.shared.SetCurrent(tx.ID)

	kit := s.newKit()
	s.track(ctx, kit, tx.ID)
	defer s.events.Untrack(tx.ID)

	start := time.Now()
	result, callErr := kit.Retry(ctx, retained, protocol.RetryEndpoints{
		From: from.Adapter,
		To:   to.Adapter,
	})

	final, err := s.finishTransfer(ctx, tx.ID, params, result, callErr, time.Since(start))
	if err != nil {
		metrics.RetriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.RetriesTotal.WithLabelValues(string(final.Status)).Inc()
	return final, nil
}

// track registers event tracking. Live step updates land in two places:
// the shared list, so the copy finishTransfer later patches already
// carries event-delivered fields like the attestation hash, and the
// transaction's open window for the UI.
func (s *Service) track(ctx context.Context, kit protocol.Kit, txID string) {
	s.events.Track(ctx, kit, txID, func(updated *bridge.Transaction) {
		s.shared.SyncTransaction(updated)
		s.shared.UpdateTransactionInWindow(txID, updated)
	})
}

// markStarted flips a fresh transaction into its working state: overall
// status bridging, approve step in progress.
func (s *Service) markStarted(ctx context.Context, txID string) (*bridge.Transaction, error) {
	tx := s.shared.Transaction(txID)
	if tx == nil {
		return nil, db.ErrTransactionNotFound
	}
	now := time.Now().UTC()
	steps := make([]bridge.Step, len(tx.Steps))
	copy(steps, tx.Steps)
	for i := range steps {
		if steps[i].Status == bridge.StepStatusPending {
			steps[i].Status = bridge.StepStatusInProgress
			steps[i].UpdatedAt = now
			break
		}
	}
	status := bridge.StatusBridging
	return s.shared.UpdateTransaction(ctx, txID, store.TransactionPatch{
		Status: &status,
		Steps:  steps,
	})
}

// resetForRetry rewinds a failed transaction to a retryable state. Steps
// the retained result proves already done stay completed; everything else
// returns to pending, with the first actionable step marked in progress.
func resetForRetry(tx *bridge.Transaction, retained *protocol.BridgeResult) {
	now := time.Now().UTC()
	done := make(map[bridge.StepID]bool)
	for _, rs := range retained.Steps {
		id, ok := resultStepID(rs.Name)
		if !ok {
			continue
		}
		if rs.State == protocol.StateSuccess || rs.State == protocol.StateNoop {
			done[id] = true
		}
	}

	started := false
	for i := range tx.Steps {
		step := &tx.Steps[i]
		step.Error = ""
		step.UpdatedAt = now
		if done[step.ID] {
			step.Status = bridge.StepStatusCompleted
			continue
		}
		if !started {
			step.Status = bridge.StepStatusInProgress
			started = true
		} else {
			step.Status = bridge.StepStatusPending
		}
	}

	tx.Status = bridge.StatusBridging
	tx.Error = ""
	tx.UpdatedAt = now
}

// finishTransfer writes a kit result back onto the transaction and makes
// the status terminal. Kit failures become a failed transaction, never an
// error return.
func (s *Service) finishTransfer(ctx context.Context, txID string, params bridge.TransferParams, result *protocol.BridgeResult, callErr error, elapsed time.Duration) (*bridge.Transaction, error) {
	tx := s.shared.Transaction(txID)
	if tx == nil {
		return nil, apperrors.GeneralError(db.ErrTransactionNotFound)
	}

	now := time.Now().UTC()
	steps := make([]bridge.Step, len(tx.Steps))
	copy(steps, tx.Steps)
	patch := store.TransactionPatch{Steps: steps}

	applyResultSteps(steps, result, now)

	var status bridge.Status
	switch {
	case callErr != nil:
		status = bridge.StatusFailed
		msg := callErr.Error()
		patch.Error = &msg
		markFirstIncompleteFailed(steps, msg, now)
		if result != nil {
			patch.RetainedResult = result
		}
	case result != nil && result.State == protocol.StateSuccess:
		status = bridge.StatusCompleted
		patch.CompletedAt = &now
		if hash := resultStepHash(result, "burn"); hash != "" {
			patch.SourceTxHash = &hash
		}
		if hash := resultStepHash(result, "mint"); hash != "" {
			patch.DestinationTxHash = &hash
		}
	default:
		status = bridge.StatusFailed
		msg := extractErrorMessage(result)
		patch.Error = &msg
		if result != nil {
			patch.RetainedResult = result
		}
	}
	patch.Status = &status

	final, err := s.shared.UpdateTransaction(ctx, txID, patch)
	if err != nil {
		return nil, apperrors.GeneralError(err)
	}

	metrics.TransfersTotal.WithLabelValues(params.SourceChain, params.DestinationChain, string(status)).Inc()
	metrics.TransferDuration.WithLabelValues(string(params.TransferMethod)).Observe(elapsed.Seconds())
	if amount, convErr := decimal.NewFromString(params.Amount); convErr == nil {
		f, _ := amount.Float64()
		metrics.TransferAmount.WithLabelValues(params.SourceChain).Observe(f)
	}

	if status == bridge.StatusFailed {
		s.logger.Warn("Transfer failed",
			zap.String("transaction_id", txID),
			zap.String("error", final.Error))
	} else {
		s.logger.Info("Transfer completed",
			zap.String("transaction_id", txID),
			zap.Duration("elapsed", elapsed))
	}
	return final, nil
}

// resultStepID maps kit result step names onto the domain steps. The kit
// names the attestation step after its fetch method.
func resultStepID(name string) (bridge.StepID, bool) {
	switch name {
	case "approve":
		return bridge.StepApprove, true
	case "burn":
		return bridge.StepBurn, true
	case "attestation", "fetchAttestation":
		return bridge.StepAttestation, true
	case "mint":
		return bridge.StepMint, true
	}
	return "", false
}

// applyResultSteps reconciles the kit's final report with the step
// records. Completions the event stream already delivered are reaffirmed;
// a failed step carries its extracted error. An attempted mint implies
// attestation finished even if its event was missed.
func applyResultSteps(steps []bridge.Step, result *protocol.BridgeResult, now time.Time) {
	if result == nil {
		return
	}

	find := func(id bridge.StepID) *bridge.Step {
		for i := range steps {
			if steps[i].ID == id {
				return &steps[i]
			}
		}
		return nil
	}

	mintAttempted := false
	for _, rs := range result.Steps {
		id, ok := resultStepID(rs.Name)
		if !ok {
			continue
		}
		step := find(id)
		if step == nil {
			continue
		}
		switch rs.State {
		case protocol.StateSuccess, protocol.StateNoop:
			step.Status = bridge.StepStatusCompleted
			step.UpdatedAt = now
			if rs.TxHash != "" {
				step.TxHash = rs.TxHash
			}
		case protocol.StateError:
			step.Status = bridge.StepStatusFailed
			step.Error = stepErrorMessage(rs)
			step.UpdatedAt = now
		}
		if id == bridge.StepMint && rs.State != protocol.StatePending {
			mintAttempted = true
		}
	}

	if mintAttempted {
		if attestation := find(bridge.StepAttestation); attestation != nil &&
			attestation.Status != bridge.StepStatusCompleted {
			attestation.Status = bridge.StepStatusCompleted
			attestation.UpdatedAt = now
		}
	}
}

// markFirstIncompleteFailed pins a kit-level failure onto the step that
// was underway when the kit gave up, so a failed transaction never shows
// a step still in progress. A step the result already marked failed wins;
// nothing is touched then.
func markFirstIncompleteFailed(steps []bridge.Step, msg string, now time.Time) {
	for i := range steps {
		if steps[i].Status == bridge.StepStatusFailed {
			return
		}
	}
	for i := range steps {
		if steps[i].Status != bridge.StepStatusCompleted {
			steps[i].Status = bridge.StepStatusFailed
			steps[i].Error = msg
			steps[i].UpdatedAt = now
			return
		}
	}
}

func resultStepHash(result *protocol.BridgeResult, name string) string {
	for _, rs := range result.Steps {
		if rs.Name == name {
			return rs.TxHash
		}
	}
	return ""
}

// stepErrorMessage extracts a human-readable message from a failed result
// step: explicit message first, then the captured error, then a fallback.
func stepErrorMessage(rs protocol.ResultStep) string {
	if rs.ErrorMessage != "" {
		return rs.ErrorMessage
	}
	if rs.Error != nil {
		return rs.Error.Error()
	}
	return "transfer step failed"
}

// extractErrorMessage finds the failed step in a result and extracts its
// message. Extraction never fails; at worst it returns a generic message.
func extractErrorMessage(result *protocol.BridgeResult) string {
	if result == nil {
		return "transfer failed"
	}
	for _, rs := range result.Steps {
		if rs.State == protocol.StateError {
			return stepErrorMessage(rs)
		}
	}
	return "transfer failed"
}
