package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/services"
	"go.uber.org/zap"
)

type errorJSON struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, &errorJSON{Error: message})
}

// writeServiceError maps a service error onto an HTTP status. Errors that
// are not marketplace rejections are logged and hidden from the client.
func writeServiceError(w http.ResponseWriter, log *zap.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error("request failed", zap.Error(err))
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrUnknownAsset):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotOwner),
		errors.Is(err, services.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrDuplicateAsset),
		errors.Is(err, services.ErrNotForSale),
		errors.Is(err, services.ErrHigherBidRequired),
		errors.Is(err, services.ErrNoActiveBid),
		errors.Is(err, services.ErrNotApproved),
		errors.Is(err, services.ErrInsufficientBalance),
		errors.Is(err, services.ErrInsufficientAllowance):
		return http.StatusConflict
	case errors.Is(err, models.ErrAmountOverflow),
		services.IsRejection(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func assetIDParam(r *http.Request) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid asset id %q", chi.URLParam(r, "id"))
	}
	return id, nil
}

// caller returns the authenticated address; routes using it sit behind
// AuthMiddleware
func caller(r *http.Request) string {
	address, _ := CallerFromContext(r.Context())
	return address
}
