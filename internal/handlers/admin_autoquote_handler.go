package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"spacesBack/internal/autoquote/abuse"
	"spacesBack/internal/autoquote/dispatch"
	"spacesBack/internal/autoquote/store"
	"spacesBack/internal/models"
	"spacesBack/internal/services"
)

type AdminAutoQuoteHandler struct {
	Service    *services.AutoQuoteService
	Dispatcher *dispatch.Dispatcher
	Store      store.Store
	Monitor    *abuse.Monitor
}

type dispatchResponse struct {
	Request models.Request    `json:"request"`
	Results []dispatch.Result `json:"results"`
	Errors  string            `json:"errors,omitempty"`
}

// Dispatch stores the request and offers it to every enabled host right away
// instead of waiting for the next dispatcher tick.
func (h *AdminAutoQuoteHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req models.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.CreatedAt = time.Time{}
	saved, err := h.Service.SubmitRequest(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	results, err := h.Dispatcher.Process(r.Context(), saved)
	if errors.Is(err, models.ErrInvariantViolation) {
		writeServiceError(w, err)
		return
	}
	resp := dispatchResponse{Request: saved, Results: make([]dispatch.Result, 0, len(results))}
	for _, res := range results {
		if res.HostID != 0 {
			resp.Results = append(resp.Results, res)
		}
	}
	if err != nil {
		resp.Errors = err.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListAudit filters by host_id and since (RFC 3339) and pages newest first.
func (h *AdminAutoQuoteHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	var f models.AuditFilter
	if v := r.URL.Query().Get("host_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid host_id")
			return
		}
		f.HostID = id
	}
	if v := r.URL.Query().Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid since")
			return
		}
		f.Since = since
	}
	var err error
	if f.Limit, err = queryInt(r, "limit", 100); err != nil || f.Limit < 0 {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil || f.Offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	entries, err := h.Store.ListAudit(r.Context(), f)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []models.AuditLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AdminAutoQuoteHandler) AbuseReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Monitor.Scan(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *AdminAutoQuoteHandler) ExportAbuseReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.Monitor.Scan(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	data, err := abuse.ExportXLSX(report)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="autoquote_velocity.xlsx"`)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
