package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/cart"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/catalog"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/chat"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/lifecycle"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/repository"
	"github.com/dangmquann/Sanryoo-Shop-sub000/internal/storage"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError maps domain errors to HTTP status codes.
func handleServiceError(w http.ResponseWriter, err error) {
	var vErr *catalog.ValidationError
	if errors.As(err, &vErr) {
		respondError(w, http.StatusBadRequest, "validation_failed", vErr.Error())
		return
	}

	switch {
	case errors.Is(err, repository.ErrOrderNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrNotificationNotFound),
		errors.Is(err, repository.ErrTokenNotFound),
		errors.Is(err, storage.ErrBlobNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())

	case errors.Is(err, lifecycle.ErrForbidden),
		errors.Is(err, cart.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())

	case errors.Is(err, lifecycle.ErrStockNotFound):
		respondError(w, http.StatusConflict, "stock_not_found", err.Error())

	case errors.Is(err, lifecycle.ErrInsufficientStock):
		respondError(w, http.StatusConflict, "insufficient_stock", err.Error())

	case errors.Is(err, lifecycle.ErrIllegalTransition),
		errors.Is(err, lifecycle.ErrNotShipped),
		errors.Is(err, lifecycle.ErrAlreadyReviewed),
		errors.Is(err, lifecycle.ErrNotRepurchasable),
		errors.Is(err, cart.ErrNotInCart):
		respondError(w, http.StatusConflict, "conflict", err.Error())

	case errors.Is(err, lifecycle.ErrEmptyCheckout),
		errors.Is(err, lifecycle.ErrInvalidReview),
		errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidSelection),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrSelfMessage):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())

	default:
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
