package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/store"
	"go.uber.org/zap"
)

// AuctionService runs bidding and settlement against listed assets
type AuctionService struct {
	ledger   store.Ledger
	registry *RegistryService
	listings *ListingService
	escrow   *EscrowService
	wallets  *WalletService
	ownerCut uint16
	events   Publisher
	log      *zap.Logger
	now      func() time.Time
}

// NewAuctionService creates a new AuctionService. ownerCut is the share of
// each sale paid to the market operator, in basis points.
func NewAuctionService(
	ledger store.Ledger,
	registry *RegistryService,
	listings *ListingService,
	escrow *EscrowService,
	wallets *WalletService,
	ownerCut uint16,
	events Publisher,
	log *zap.Logger,
) *AuctionService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuctionService{
		ledger:   ledger,
		registry: registry,
		listings: listings,
		escrow:   escrow,
		wallets:  wallets,
		ownerCut: ownerCut,
		events:   orNop(events),
		log:      log,
		now:      time.Now,
	}
}

// AcceptanceMessage is the message a seller signs to accept a bid off-line.
// nonce is the nonce of the listing the bid was made on.
func AcceptanceMessage(collection string, assetID, nonce uint64, bidder string, amount models.Amount) string {
	return fmt.Sprintf("accept:%s:%d:%d:%s:%s", collection, assetID, nonce, strings.ToLower(bidder), amount.String())
}

// MakeBid places a bid on a listed asset. The bid is pulled into escrow and
// the bid it replaces is refunded.
func (s *AuctionService) MakeBid(ctx context.Context, bidder string, amount models.Amount, assetID uint64) (*models.Listing, error) {
	if err := normalizeAddresses(&bidder); err != nil {
		return nil, err
	}

	var listing *models.Listing
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		var err error
		listing, err = s.activeListing(ctx, tx, assetID)
		if err != nil {
			return err
		}

		// Check the bid against the listing bounds and the current bid
		if amount < listing.MinPrice {
			return ErrBidTooLow
		}
		if amount > listing.MaxPrice {
			return ErrBidTooHigh
		}
		if listing.HasBid() && amount <= listing.CurrentBid {
			return ErrHigherBidRequired
		}

		if err := s.escrow.pull(ctx, tx, bidder, s.escrow.Address(), amount); err != nil {
			return err
		}
		if err := s.listings.refundBid(ctx, tx, listing); err != nil {
			return err
		}

		listing.SetBid(bidder, amount)
		listing.UpdatedAt = s.now()
		if err := tx.SaveListing(ctx, listing); err != nil {
			return fmt.Errorf("failed to save bid: %w", err)
		}
		return nil
	})
	observe("make_bid", err)
	if err != nil {
		return nil, err
	}

	bidsTotal.Inc()
	s.log.Info("bid placed",
		zap.Uint64("asset_id", assetID),
		zap.String("bidder", bidder),
		zap.Stringer("amount", amount))
	s.events.Publish(models.Event{Type: models.EventListingUpdate, AssetID: assetID, Payload: listing})

	return listing, nil
}

// BuyNow buys a listed asset at its maximum price
func (s *AuctionService) BuyNow(ctx context.Context, buyer string, amount models.Amount, assetID uint64) (*models.Sale, error) {
	if err := normalizeAddresses(&buyer); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		listing, err := s.activeListing(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if amount != listing.MaxPrice {
			return ErrAmountMismatch
		}

		sale, err = s.settle(ctx, tx, listing, buyer, amount, models.SaleKindBuyNow)
		return err
	})
	observe("buy_now", err)
	if err != nil {
		return nil, err
	}

	s.settled(sale)
	return sale, nil
}

// AcceptBid settles the listing at its current bid. Only the seller may
// accept; contract, when set, must name the registry's collection.
func (s *AuctionService) AcceptBid(ctx context.Context, caller, contract string, assetID uint64) (*models.Sale, error) {
	if err := normalizeAddresses(&caller); err != nil {
		return nil, err
	}

	var sale *models.Sale
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		listing, err := s.activeListing(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if contract != "" && contract != s.registry.Collection().Name {
			return ErrUnknownAsset
		}
		if !listing.HasBid() {
			return ErrNoActiveBid
		}
		if caller != listing.Seller {
			return ErrUnauthorized
		}

		sale, err = s.settle(ctx, tx, listing, listing.CurrentBidder(), listing.CurrentBid, models.SaleKindAcceptBid)
		return err
	})
	observe("accept_bid", err)
	if err != nil {
		return nil, err
	}

	s.settled(sale)
	return sale, nil
}

// AcceptSignedBid settles the listing with an acceptance the seller signed
// off-line. The signature must cover the nonce of the current listing and
// the exact bidder and amount of its active bid.
func (s *AuctionService) AcceptSignedBid(ctx context.Context, assetID uint64, bidder string, amount models.Amount, signature string) (*models.Sale, error) {
	if err := normalizeAddresses(&bidder); err != nil {
		observe("accept_signed_bid", err)
		return nil, err
	}

	var sale *models.Sale
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		listing, err := s.activeListing(ctx, tx, assetID)
		if err != nil {
			return err
		}

		message := AcceptanceMessage(s.registry.Collection().Name, assetID, listing.Nonce, bidder, amount)
		signer, err := s.wallets.RecoverAddress(message, signature)
		if err != nil {
			return err
		}

		if !listing.HasBid() || listing.CurrentBidder() != bidder || listing.CurrentBid != amount {
			return ErrNoActiveBid
		}
		if signer != listing.Seller {
			return ErrUnauthorized
		}

		sale, err = s.settle(ctx, tx, listing, bidder, amount, models.SaleKindAcceptSigned)
		return err
	})
	observe("accept_signed_bid", err)
	if err != nil {
		return nil, err
	}

	s.settled(sale)
	return sale, nil
}

// Sales retrieves the settlement history of an asset
func (s *AuctionService) Sales(ctx context.Context, assetID uint64) (*models.SaleListResponse, error) {
	var sales []models.Sale
	err := s.ledger.View(ctx, func(tx store.Tx) error {
		var err error
		sales, err = tx.SalesByAsset(ctx, assetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.SaleListResponse{
		Sales:      sales,
		TotalCount: len(sales),
	}, nil
}

// activeListing loads a listing that can be bid on or settled. A listing
// whose seller no longer owns the asset is not for sale.
func (s *AuctionService) activeListing(ctx context.Context, tx store.Tx, assetID uint64) (*models.Listing, error) {
	listing, err := tx.GetListing(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	if listing == nil || !listing.ForSale {
		return nil, ErrNotForSale
	}

	asset, err := s.registry.loadAsset(ctx, tx, assetID)
	if err != nil {
		if errors.Is(err, ErrUnknownAsset) {
			return nil, ErrNotForSale
		}
		return nil, err
	}
	if asset.Owner != listing.Seller {
		return nil, ErrNotForSale
	}
	return listing, nil
}

// settle pays the seller, hands the asset to the buyer and closes the
// listing. Accepted bids are paid out of escrow; buy-now payments are
// pulled from the buyer.
func (s *AuctionService) settle(ctx context.Context, tx store.Tx, listing *models.Listing, buyer string, price models.Amount, kind models.SaleKind) (*models.Sale, error) {
	fee := price.Cut(s.ownerCut)
	proceeds := price - fee

	if kind == models.SaleKindBuyNow {
		if err := s.escrow.pull(ctx, tx, buyer, listing.Seller, proceeds); err != nil {
			return nil, err
		}
		if err := s.escrow.pull(ctx, tx, buyer, s.escrow.FeeRecipient(), fee); err != nil {
			return nil, err
		}
	} else {
		if err := s.escrow.refund(ctx, tx, listing.Seller, proceeds); err != nil {
			return nil, err
		}
		if err := s.escrow.refund(ctx, tx, s.escrow.FeeRecipient(), fee); err != nil {
			return nil, err
		}
		listing.ClearBid()
	}

	if err := s.escrow.transferAsset(ctx, tx, listing.AssetID, listing.Seller, buyer); err != nil {
		return nil, err
	}

	// A buy-now sale refunds the outstanding bid, if any
	if err := s.listings.release(ctx, tx, listing); err != nil {
		return nil, err
	}

	sale := &models.Sale{
		ID:        uuid.New().String(),
		AssetID:   listing.AssetID,
		Seller:    listing.Seller,
		Buyer:     buyer,
		Price:     price,
		Fee:       fee,
		Kind:      kind,
		CreatedAt: s.now(),
	}
	if err := tx.InsertSale(ctx, sale); err != nil {
		return nil, fmt.Errorf("failed to record sale: %w", err)
	}
	return sale, nil
}

func (s *AuctionService) settled(sale *models.Sale) {
	settlementsTotal.WithLabelValues(string(sale.Kind)).Inc()
	s.log.Info("sale settled",
		zap.Uint64("asset_id", sale.AssetID),
		zap.String("seller", sale.Seller),
		zap.String("buyer", sale.Buyer),
		zap.Stringer("price", sale.Price),
		zap.Stringer("fee", sale.Fee),
		zap.String("kind", string(sale.Kind)))
	s.events.Publish(models.Event{Type: models.EventListingUpdate, AssetID: sale.AssetID, Payload: emptyListing(sale.AssetID)})
	s.events.Publish(models.Event{Type: models.EventSale, AssetID: sale.AssetID, Payload: sale})
}
