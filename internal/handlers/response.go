package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"spacesBack/internal/models"
	"spacesBack/internal/services"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps engine errors to HTTP statuses. Unknown errors are 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidTransition), errors.Is(err, models.ErrAlreadyQuoted), errors.Is(err, models.ErrAlreadyRefunded):
		return http.StatusConflict
	case errors.Is(err, models.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	case errors.Is(err, models.ErrInvalidAmount), errors.Is(err, models.ErrInvalidConfig), errors.Is(err, services.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError hides the details of internal failures from clients.
func writeServiceError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

// currentUser reads the identity placed in the context by the JWT middleware.
func currentUser(r *http.Request) (int64, string, bool) {
	userID, ok := r.Context().Value("user_id").(int)
	if !ok || userID <= 0 {
		return 0, "", false
	}
	role, _ := r.Context().Value("role").(string)
	return int64(userID), role, true
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	val := r.URL.Query().Get(name)
	if val == "" {
		return def, nil
	}
	return strconv.Atoi(val)
}
