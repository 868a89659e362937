package handlers

import (
	"net/http"

	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/services"
	"go.uber.org/zap"
)

// GetActiveListings handles retrieving every listing currently for sale
func GetActiveListings(listings *services.ListingService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response, err := listings.ActiveListings(r.Context())
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, response)
	}
}

// GetListing handles retrieving the listing of an asset
func GetListing(listings *services.ListingService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		listing, err := listings.GetListing(r.Context(), id)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// ListAsset handles setting the sale configuration of an asset
func ListAsset(listings *services.ListingService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.ListAssetRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		listing, err := listings.ListAsset(r.Context(), caller(r), id, req.ForSale, req.MinPrice, req.MaxPrice)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// Delist handles removing the listing of an asset
func Delist(listings *services.ListingService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := listings.Delist(r.Context(), caller(r), id); err != nil {
			writeServiceError(w, log, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// MakeBid handles placing a bid
func MakeBid(auctions *services.AuctionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.BidRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		listing, err := auctions.MakeBid(r.Context(), caller(r), req.Amount, id)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// BuyNow handles buying an asset at its maximum price
func BuyNow(auctions *services.AuctionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.BuyNowRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		sale, err := auctions.BuyNow(r.Context(), caller(r), req.Amount, id)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, sale)
	}
}

// AcceptBid handles the seller accepting the current bid
func AcceptBid(auctions *services.AuctionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		// The body is optional
		var req models.AcceptBidRequest
		if r.ContentLength > 0 {
			if err := decodeBody(r, &req); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid request body")
				return
			}
		}

		sale, err := auctions.AcceptBid(r.Context(), caller(r), req.Contract, id)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, sale)
	}
}

// AcceptSignedBid handles settling a bid with the seller's signed acceptance.
// Anyone may relay the acceptance.
func AcceptSignedBid(auctions *services.AuctionService, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := assetIDParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		var req models.AcceptSignedBidRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		sale, err := auctions.AcceptSignedBid(r.Context(), id, req.Bidder, req.Amount, req.Signature)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		writeJSON(w, http.StatusOK, sale)
	}
}
