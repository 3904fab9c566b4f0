package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/pokefigs/storefront/internal/domain"
	"github.com/pokefigs/storefront/internal/repository"
	"github.com/pokefigs/storefront/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Errors []FieldError `json:"errors"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondValidationErrors(w http.ResponseWriter, errs []FieldError) {
	respondJSON(w, http.StatusBadRequest, ValidationErrorResponse{Errors: errs})
}

// respondServiceError maps domain/service/repository errors onto HTTP
// statuses. Anything unrecognized is a 500 with a generic message; the
// detail stays in the server log.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product_not_found", err.Error())
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart_not_found", err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order_not_found", err.Error())
	case errors.Is(err, service.ErrVariantNotFound):
		respondError(w, http.StatusNotFound, "variant_not_found", err.Error())
	case errors.Is(err, service.ErrItemsRequired):
		respondError(w, http.StatusBadRequest, "items_required", err.Error())
	case errors.Is(err, service.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		respondError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, domain.ErrInvalidName):
		respondError(w, http.StatusBadRequest, "invalid_name", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
