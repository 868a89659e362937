package handlers

import (
	"net/http"

	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/services"
	"go.uber.org/zap"
)

// CreateAsset handles minting a new asset. The owner defaults to the caller.
func CreateAsset(registry *services.RegistryService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.CreateAssetRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Owner == "" {
			req.Owner = caller(r)
		}

		asset, err := registry.CreateAsset(r.Context(), req.Owner, req.ContentHash, req.MetadataURI)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusCreated, asset)
	}
}

// GetAsset handles retrieving a single asset
func GetAsset(registry *services.RegistryService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		asset, err := registry.GetAsset(r.Context(), id)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, asset)
	}
}

// GetOwnerAssets handles retrieving the assets held by the "owner" query
// parameter, or by the caller when it is absent
func GetOwnerAssets(registry *services.RegistryService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.URL.Query().Get("owner")
		if owner == "" {
			owner = caller(r)
		}
		if owner == "" {
			writeError(w, http.StatusBadRequest, "owner is required")
			return
		}

		response, err := registry.ListByOwner(r.Context(), owner)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, response)
	}
}

// ApproveAsset handles approving a spender for an asset
func ApproveAsset(registry *services.RegistryService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.ApproveAssetRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := registry.Approve(r.Context(), caller(r), req.Spender, id); err != nil {
			writeServiceError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// TransferAsset handles a direct transfer by the asset owner
func TransferAsset(registry *services.RegistryService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.TransferAssetRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if err := registry.TransferOwnership(r.Context(), id, caller(r), req.To); err != nil {
			writeServiceError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetAssetSales handles retrieving the settlement history of an asset
func GetAssetSales(auctions *services.AuctionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		response, err := auctions.Sales(r.Context(), id)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, response)
	}
}
