package handlers

import (
	"net/http"
	"strings"
	"time"

	"spacesBack/internal/models"
	"spacesBack/internal/services"
)

type AutoQuoteHandler struct {
	Service *services.AutoQuoteService
}

// GetConfig returns the caller's auto-quote rules.
func (h *AutoQuoteHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	cfg, err := h.Service.GetConfig(r.Context(), hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (h *AutoQuoteHandler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	var cfg models.AutoQuoteConfig
	if err := decodeJSON(r, &cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg.HostID = hostID

	saved, err := h.Service.SaveConfig(r.Context(), cfg)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// GetUsage returns today's quote and spend counters.
func (h *AutoQuoteHandler) GetUsage(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	usage, err := h.Service.Usage(r.Context(), hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func (h *AutoQuoteHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	tpl, err := h.Service.GetTemplate(r.Context(), hostID, getParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *AutoQuoteHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	var tpl models.QuoteTemplate
	if err := decodeJSON(r, &tpl); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tpl.HostID = hostID
	tpl.ID = getParam(r, "id")

	saved, err := h.Service.SaveTemplate(r.Context(), tpl)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// SubmitRequest queues a guest's request for the dispatcher.
func (h *AutoQuoteHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	guestID, role, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	var req models.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if role != models.RoleAdmin || req.GuestID == 0 {
		req.GuestID = guestID
	}
	req.ID, req.CreatedAt = "", time.Time{}

	saved, err := h.Service.SubmitRequest(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, saved)
}

type deviceTokenRequest struct {
	Token string `json:"token"`
}

func (h *AutoQuoteHandler) RegisterDeviceToken(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	var body deviceTokenRequest
	if err := decodeJSON(r, &body); err != nil || strings.TrimSpace(body.Token) == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := h.Service.RegisterDeviceToken(r.Context(), userID, body.Token); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
