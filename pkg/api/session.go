package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
	apphttp "github.com/mjkid221/cctp-bridge/pkg/app/http"
	"github.com/mjkid221/cctp-bridge/pkg/auth"
)

type sessionRequest struct {
	Message   string `json:"message" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

type sessionResponse struct {
	Token     string `json:"token"`
	Address   string `json:"address"`
	ExpiresAt string `json:"expiresAt,omitempty"`
}

// createSession verifies an EIP-191 signature over the challenge message
// and issues a session token. The recovered signer must match the wallet
// the server is initialized with.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) error {
	var req sessionRequest
	if err := h.decodeJSON(r, &req); err != nil {
		return err
	}

	recovered, err := auth.VerifyEIP191Signature(req.Message, req.Signature)
	if err != nil {
		return apperrors.UnAuthorizedError(err, "signature verification failed")
	}

	userAddress := h.svc.UserAddress()
	if userAddress == "" {
		return apperrors.NotReadyError(nil, "bridge service is not initialized")
	}
	if !strings.EqualFold(recovered.Hex(), userAddress) {
		h.logger.Warn("session signature from unexpected address",
			zap.String("recovered", recovered.Hex()))
		return apperrors.UnAuthorizedError(nil, "signer does not match the bridge wallet")
	}

	token, err := h.issuer.Issue(auth.NormalizeAddress(userAddress))
	if err != nil {
		return apperrors.GeneralError(err)
	}

	return apphttp.WriteJSON(w, http.StatusOK, sessionResponse{
		Token:     token,
		Address:   auth.NormalizeAddress(userAddress),
		ExpiresAt: time.Now().UTC().Add(h.issuer.TTL()).Format(time.RFC3339),
	})
}

// decodeJSON reads, parses and validates a request body.
func (h *Handler) decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	if err := h.validate.Struct(v); err != nil {
		return apperrors.BadRequestError(err, "invalid request: "+err.Error())
	}
	return nil
}
