package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"spacesBack/internal/autoquote/ledger"
	"spacesBack/internal/models"
)

type WalletHandler struct {
	Wallet *ledger.Service
}

func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	wallet, err := h.Wallet.Balance(r.Context(), hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// GetLedger pages the caller's ledger newest first.
func (h *WalletHandler) GetLedger(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}
	entries, err := h.Wallet.History(r.Context(), hostID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type creditRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, h.Wallet.TopUp, "top-up")
}

func (h *WalletHandler) Grant(w http.ResponseWriter, r *http.Request) {
	h.credit(w, r, h.Wallet.Grant, "grant")
}

type creditFunc func(ctx context.Context, hostID, amount int64, reason string) (models.LedgerEntry, error)

func (h *WalletHandler) credit(w http.ResponseWriter, r *http.Request, fn creditFunc, defaultReason string) {
	hostID, err := strconv.ParseInt(getParam(r, "host_id"), 10, 64)
	if err != nil || hostID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid host_id")
		return
	}
	var body creditRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	reason := strings.TrimSpace(body.Reason)
	if reason == "" {
		reason = defaultReason
	}
	entry, err := fn(r.Context(), hostID, body.Amount, reason)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}
