package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/services"
	"go.uber.org/zap"
)

// Deposit handles the operator crediting funds to an account
func Deposit(escrow *services.EscrowService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.DepositRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := escrow.Deposit(r.Context(), caller(r), req.To, req.Amount); err != nil {
			writeServiceError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// TransferFunds handles moving funds from the caller to another account
func TransferFunds(escrow *services.EscrowService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.TransferFundsRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := escrow.Transfer(r.Context(), caller(r), req.To, req.Amount); err != nil {
			writeServiceError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// ApproveFunds handles setting a spender's allowance over the caller's funds
func ApproveFunds(escrow *services.EscrowService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.ApproveFundsRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := escrow.Approve(r.Context(), caller(r), req.Spender, req.Amount); err != nil {
			writeServiceError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetBalance handles reporting the funds of an account and the allowance it
// granted to the market escrow
func GetBalance(escrow *services.EscrowService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		address := strings.ToLower(chi.URLParam(r, "address"))

		balance, err := escrow.BalanceOf(r.Context(), address)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}
		allowance, err := escrow.Allowance(r.Context(), address, escrow.Address())
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, &models.BalanceResponse{
			Address:   address,
			Balance:   balance,
			Allowance: allowance,
		})
	}
}
