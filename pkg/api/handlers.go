package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
	apphttp "github.com/mjkid221/cctp-bridge/pkg/app/http"
	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
)

type chainResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	NetworkType string `json:"networkType"`
	Environment string `json:"environment"`
	EVMChainID  int64  `json:"evmChainId,omitempty"`
	USDCAddress string `json:"usdcAddress"`
	CCTPDomain  uint32 `json:"cctpDomain"`
}

func (h *Handler) listChains(w http.ResponseWriter, _ *http.Request) error {
	all := h.registry.All()
	resp := make([]chainResponse, 0, len(all))
	for _, c := range all {
		resp = append(resp, chainResponse{
			ID:          c.ID,
			Name:        c.Name,
			NetworkType: string(c.NetworkType),
			Environment: string(c.Environment),
			EVMChainID:  c.EVMChainID,
			USDCAddress: c.USDCAddress,
			CCTPDomain:  c.CCTPDomain,
		})
	}
	return apphttp.WriteJSON(w, http.StatusOK, map[string]any{"chains": resp})
}

func (h *Handler) getBalance(w http.ResponseWriter, r *http.Request) error {
	chainID := chi.URLParam(r, "chainID")
	balance, err := h.svc.GetBalance(r.Context(), chainID)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, map[string]string{
		"chain":   chainID,
		"balance": balance,
	})
}

type transferRequest struct {
	SourceChain      string `json:"sourceChain" validate:"required"`
	DestinationChain string `json:"destinationChain" validate:"required"`
	Amount           string `json:"amount" validate:"required"`
	TransferMethod   string `json:"transferMethod" validate:"omitempty,oneof=standard fast"`
	RecipientAddress string `json:"recipientAddress" validate:"omitempty"`
}

func (req transferRequest) params() bridge.TransferParams {
	method := bridge.TransferMethod(req.TransferMethod)
	if method == "" {
		method = bridge.TransferStandard
	}
	return bridge.TransferParams{
		SourceChain:      req.SourceChain,
		DestinationChain: req.DestinationChain,
		Amount:           req.Amount,
		TransferMethod:   method,
		RecipientAddress: req.RecipientAddress,
	}
}

func (h *Handler) estimate(w http.ResponseWriter, r *http.Request) error {
	var req transferRequest
	if err := h.decodeJSON(r, &req); err != nil {
		return err
	}

	estimate, err := h.svc.Estimate(r.Context(), req.params())
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, estimate)
}

// bridge runs a transfer to completion. The response carries the terminal
// transaction; live progress is pushed over the WebSocket feed.
func (h *Handler) bridge(w http.ResponseWriter, r *http.Request) error {
	var req transferRequest
	if err := h.decodeJSON(r, &req); err != nil {
		return err
	}

	tx, err := h.svc.Bridge(r.Context(), req.params())
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) retryTransaction(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	tx, err := h.svc.Retry(r.Context(), id)
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) cancelTransaction(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	tx, err := h.shared.CancelTransaction(r.Context(), id)
	if errors.Is(err, db.ErrTransactionNotFound) {
		return apperrors.ResourceNotFoundError(err, "transaction not found")
	}
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, tx)
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) error {
	id := chi.URLParam(r, "id")
	if tx := h.shared.Transaction(id); tx != nil {
		return apphttp.WriteJSON(w, http.StatusOK, tx)
	}
	return apperrors.ResourceNotFoundError(nil, "transaction not found")
}

func (h *Handler) currentTransaction(w http.ResponseWriter, _ *http.Request) error {
	tx := h.shared.Current()
	if tx == nil {
		return apperrors.ResourceNotFoundError(nil, "no current transaction")
	}
	return apphttp.WriteJSON(w, http.StatusOK, tx)
}

type transactionsResponse struct {
	Transactions []*bridge.Transaction `json:"transactions"`
	NextCursor   string                `json:"nextCursor,omitempty"`
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) error {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return apperrors.BadRequestError(err, "limit must be an integer")
		}
		limit = parsed
	}
	cursor := r.URL.Query().Get("cursor")

	txs, next, err := h.svc.Transactions(r.Context(), limit, cursor)
	if err != nil {
		return err
	}
	if txs == nil {
		txs = []*bridge.Transaction{}
	}
	return apphttp.WriteJSON(w, http.StatusOK, transactionsResponse{
		Transactions: txs,
		NextCursor:   next,
	})
}

func (h *Handler) getStats(w http.ResponseWriter, r *http.Request) error {
	stats, err := h.svc.Stats(r.Context())
	if err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, stats)
}
