package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/YelzhanWeb/hookah/internal/domain"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

// statusFor maps service errors onto HTTP statuses and stable codes.
func statusFor(err error) (int, string) {
	var (
		trustErr  *domain.TrustError
		actionErr *domain.ActionError
		notFound  *domain.NotFoundError
		conflict  *domain.ConflictError
	)
	switch {
	case errors.As(err, &trustErr):
		return http.StatusForbidden, domain.CodeInsufficientTrust
	case errors.As(err, &actionErr) && actionErr.NotAllowed():
		return http.StatusConflict, actionErr.Code
	case errors.As(err, &actionErr):
		return http.StatusUnprocessableEntity, actionErr.Code
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.As(err, &conflict):
		return http.StatusConflict, domain.CodeConflict
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func respondServiceError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "Internal server error"
	}
	respondError(w, status, code, msg)
}
