package handlers

import (
	"net/http"

	"spacesBack/internal/autoquote/lifecycle"
	"spacesBack/internal/models"
)

type QuoteHandler struct {
	Lifecycle *lifecycle.Service
}

type guestAction func(*lifecycle.Service, *http.Request, string, int64) (models.Quote, error)

func (h *QuoteHandler) GetQuote(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	q, err := h.Lifecycle.Get(r.Context(), getParam(r, "id"), userID, role == models.RoleAdmin)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) guest(action guestAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		guestID, _, ok := currentUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "user not authorized")
			return
		}
		q, err := action(h.Lifecycle, r, getParam(r, "id"), guestID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// ViewQuote marks the quote as opened by the guest.
func (h *QuoteHandler) ViewQuote(w http.ResponseWriter, r *http.Request) {
	h.guest(func(s *lifecycle.Service, r *http.Request, id string, guestID int64) (models.Quote, error) {
		return s.MarkViewed(r.Context(), id, guestID)
	})(w, r)
}

func (h *QuoteHandler) AcceptQuote(w http.ResponseWriter, r *http.Request) {
	h.guest(func(s *lifecycle.Service, r *http.Request, id string, guestID int64) (models.Quote, error) {
		return s.Accept(r.Context(), id, guestID)
	})(w, r)
}

func (h *QuoteHandler) RejectQuote(w http.ResponseWriter, r *http.Request) {
	h.guest(func(s *lifecycle.Service, r *http.Request, id string, guestID int64) (models.Quote, error) {
		return s.Reject(r.Context(), id, guestID)
	})(w, r)
}

// EditQuote applies the host's changes and moves the quote to Modified.
func (h *QuoteHandler) EditQuote(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	var ch models.QuoteChanges
	if err := decodeJSON(r, &ch); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	q, err := h.Lifecycle.Edit(r.Context(), getParam(r, "id"), hostID, ch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (h *QuoteHandler) ResendQuote(w http.ResponseWriter, r *http.Request) {
	hostID, _, ok := currentUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "user not authorized")
		return
	}
	q, err := h.Lifecycle.Resend(r.Context(), getParam(r, "id"), hostID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

type expireResponse struct {
	Quote  models.Quote        `json:"quote"`
	Refund *models.LedgerEntry `json:"refund,omitempty"`
}

// ExpireQuote is the admin override of the unread-quote sweeper.
func (h *QuoteHandler) ExpireQuote(w http.ResponseWriter, r *http.Request) {
	q, refund, err := h.Lifecycle.Expire(r.Context(), getParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, expireResponse{Quote: q, Refund: refund})
}
