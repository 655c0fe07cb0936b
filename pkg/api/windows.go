package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/mjkid221/cctp-bridge/pkg/app/errors"
	apphttp "github.com/mjkid221/cctp-bridge/pkg/app/http"
	"github.com/mjkid221/cctp-bridge/pkg/bridge"
	"github.com/mjkid221/cctp-bridge/pkg/db"
)

func mapWindowErr(err error) error {
	if errors.Is(err, db.ErrTransactionNotFound) {
		return apperrors.ResourceNotFoundError(err, "transaction not found")
	}
	return err
}

func (h *Handler) listWindows(w http.ResponseWriter, _ *http.Request) error {
	windows := h.shared.Windows()
	if windows == nil {
		windows = []*bridge.Window{}
	}
	return apphttp.WriteJSON(w, http.StatusOK, map[string]any{"windows": windows})
}

func (h *Handler) openWindow(w http.ResponseWriter, r *http.Request) error {
	window, err := h.shared.OpenTransactionWindow(chi.URLParam(r, "id"))
	if err != nil {
		return mapWindowErr(err)
	}
	return apphttp.WriteJSON(w, http.StatusOK, window)
}

func (h *Handler) focusWindow(w http.ResponseWriter, r *http.Request) error {
	window, err := h.shared.FocusTransactionWindow(chi.URLParam(r, "id"))
	if err != nil {
		return mapWindowErr(err)
	}
	return apphttp.WriteJSON(w, http.StatusOK, window)
}

type moveWindowRequest struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (h *Handler) moveWindow(w http.ResponseWriter, r *http.Request) error {
	var req moveWindowRequest
	if err := h.decodeJSON(r, &req); err != nil {
		return err
	}
	window, err := h.shared.MoveTransactionWindow(r.Context(), chi.URLParam(r, "id"), req.X, req.Y)
	if err != nil {
		return mapWindowErr(err)
	}
	return apphttp.WriteJSON(w, http.StatusOK, window)
}

type minimizeWindowRequest struct {
	Minimized bool `json:"minimized"`
}

func (h *Handler) minimizeWindow(w http.ResponseWriter, r *http.Request) error {
	var req minimizeWindowRequest
	if err := h.decodeJSON(r, &req); err != nil {
		return err
	}
	window, err := h.shared.MinimizeTransactionWindow(chi.URLParam(r, "id"), req.Minimized)
	if err != nil {
		return mapWindowErr(err)
	}
	return apphttp.WriteJSON(w, http.StatusOK, window)
}

func (h *Handler) closeWindow(w http.ResponseWriter, r *http.Request) error {
	h.shared.CloseTransactionWindow(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) getPreferences(w http.ResponseWriter, _ *http.Request) error {
	prefs := h.shared.Preferences()
	if prefs == nil {
		prefs = &bridge.Preferences{Environment: h.shared.Environment()}
	}
	return apphttp.WriteJSON(w, http.StatusOK, prefs)
}

func (h *Handler) savePreferences(w http.ResponseWriter, r *http.Request) error {
	var prefs bridge.Preferences
	if err := h.decodeJSON(r, &prefs); err != nil {
		return err
	}
	if err := h.shared.SavePreferences(r.Context(), &prefs); err != nil {
		return err
	}
	return apphttp.WriteJSON(w, http.StatusOK, &prefs)
}
