package services

import (
	"context"
	"fmt"
	"time"

	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/store"
	"go.uber.org/zap"
)

// ListingService keeps the per-asset sale configuration and its active bid
type ListingService struct {
	ledger   store.Ledger
	registry *RegistryService
	escrow   *EscrowService
	events   Publisher
	log      *zap.Logger
	now      func() time.Time
}

// NewListingService creates a new ListingService
func NewListingService(ledger store.Ledger, registry *RegistryService, escrow *EscrowService, events Publisher, log *zap.Logger) *ListingService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ListingService{
		ledger:   ledger,
		registry: registry,
		escrow:   escrow,
		events:   orNop(events),
		log:      log,
		now:      time.Now,
	}
}

// ListAsset sets the sale configuration of an asset. Any active bid on a
// previous listing is refunded.
func (s *ListingService) ListAsset(ctx context.Context, caller string, assetID uint64, forSale bool, minPrice, maxPrice models.Amount) (*models.Listing, error) {
	if err := normalizeAddresses(&caller); err != nil {
		return nil, err
	}

	var listing *models.Listing
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		asset, err := s.registry.loadAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Owner != caller {
			return ErrNotOwner
		}
		if minPrice > maxPrice {
			return ErrInvalidRange
		}

		previous, err := tx.GetListing(ctx, assetID)
		if err != nil {
			return fmt.Errorf("failed to load listing: %w", err)
		}
		if previous != nil {
			if err := s.refundBid(ctx, tx, previous); err != nil {
				return err
			}
		}

		// Every listing gets a fresh nonce so acceptances signed for an
		// earlier one cannot settle it
		now := s.now()
		asset.ListingNonce++
		asset.UpdatedAt = now
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return fmt.Errorf("failed to bump listing nonce: %w", err)
		}

		listing = &models.Listing{
			AssetID:   assetID,
			Seller:    caller,
			ForSale:   forSale,
			MinPrice:  minPrice,
			MaxPrice:  maxPrice,
			Nonce:     asset.ListingNonce,
			UpdatedAt: now,
		}
		if err := tx.SaveListing(ctx, listing); err != nil {
			return fmt.Errorf("failed to save listing: %w", err)
		}
		return nil
	})
	observe("list_asset", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("asset listed",
		zap.Uint64("asset_id", assetID),
		zap.Bool("for_sale", forSale),
		zap.Stringer("min_price", minPrice),
		zap.Stringer("max_price", maxPrice))
	s.events.Publish(models.Event{Type: models.EventListingUpdate, AssetID: assetID, Payload: listing})

	return listing, nil
}

// Delist removes the listing of an asset and refunds its active bid
func (s *ListingService) Delist(ctx context.Context, caller string, assetID uint64) error {
	if err := normalizeAddresses(&caller); err != nil {
		return err
	}

	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		asset, err := s.registry.loadAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Owner != caller {
			return ErrNotOwner
		}

		listing, err := tx.GetListing(ctx, assetID)
		if err != nil {
			return fmt.Errorf("failed to load listing: %w", err)
		}
		if listing == nil {
			return nil
		}
		return s.release(ctx, tx, listing)
	})
	observe("delist", err)
	if err != nil {
		return err
	}

	s.log.Info("asset delisted", zap.Uint64("asset_id", assetID))
	s.events.Publish(models.Event{Type: models.EventListingUpdate, AssetID: assetID, Payload: emptyListing(assetID)})
	return nil
}

// GetListing returns the listing of an asset. Assets that were never listed
// report a zero listing.
func (s *ListingService) GetListing(ctx context.Context, assetID uint64) (*models.Listing, error) {
	var listing *models.Listing
	err := s.ledger.View(ctx, func(tx store.Tx) error {
		var err error
		listing, err = tx.GetListing(ctx, assetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return emptyListing(assetID), nil
	}
	return listing, nil
}

// ForSale reports whether the asset is currently offered
func (s *ListingService) ForSale(ctx context.Context, assetID uint64) (bool, error) {
	listing, err := s.GetListing(ctx, assetID)
	if err != nil {
		return false, err
	}
	return listing.ForSale, nil
}

// MinPrice returns the minimum acceptable bid
func (s *ListingService) MinPrice(ctx context.Context, assetID uint64) (models.Amount, error) {
	listing, err := s.GetListing(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return listing.MinPrice, nil
}

// MaxPrice returns the buy-now price
func (s *ListingService) MaxPrice(ctx context.Context, assetID uint64) (models.Amount, error) {
	listing, err := s.GetListing(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return listing.MaxPrice, nil
}

// CurrentBidder returns the address holding the active bid, or an empty string
func (s *ListingService) CurrentBidder(ctx context.Context, assetID uint64) (string, error) {
	listing, err := s.GetListing(ctx, assetID)
	if err != nil {
		return "", err
	}
	return listing.CurrentBidder(), nil
}

// CurrentBidAmount returns the active bid amount
func (s *ListingService) CurrentBidAmount(ctx context.Context, assetID uint64) (models.Amount, error) {
	listing, err := s.GetListing(ctx, assetID)
	if err != nil {
		return 0, err
	}
	return listing.CurrentBid, nil
}

// ActiveListings retrieves every listing currently for sale
func (s *ListingService) ActiveListings(ctx context.Context) (*models.ListingListResponse, error) {
	var listings []models.Listing
	err := s.ledger.View(ctx, func(tx store.Tx) error {
		var err error
		listings, err = tx.ActiveListings(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.ListingListResponse{
		Listings:   listings,
		TotalCount: len(listings),
	}, nil
}

// release refunds the active bid of a listing and removes it
func (s *ListingService) release(ctx context.Context, tx store.Tx, listing *models.Listing) error {
	if err := s.refundBid(ctx, tx, listing); err != nil {
		return err
	}
	if err := tx.DeleteListing(ctx, listing.AssetID); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	return nil
}

func (s *ListingService) refundBid(ctx context.Context, tx store.Tx, listing *models.Listing) error {
	if !listing.HasBid() {
		return nil
	}
	if err := s.escrow.refund(ctx, tx, listing.CurrentBidder(), listing.CurrentBid); err != nil {
		return fmt.Errorf("failed to refund bid on asset %d: %w", listing.AssetID, err)
	}
	listing.ClearBid()
	return nil
}

func emptyListing(assetID uint64) *models.Listing {
	return &models.Listing{AssetID: assetID}
}
