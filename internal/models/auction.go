package models

import (
	"time"
)

// Listing represents the sale configuration and active bid of an asset
type Listing struct {
	AssetID    uint64    `json:"asset_id" db:"asset_id"`
	Seller     string    `json:"seller" db:"seller"`
	ForSale    bool      `json:"for_sale" db:"for_sale"`
	MinPrice   Amount    `json:"min_price" db:"min_price"`
	MaxPrice   Amount    `json:"max_price" db:"max_price"`
	Bidder     *string   `json:"bidder,omitempty" db:"bidder"`
	CurrentBid Amount    `json:"current_bid" db:"current_bid"`
	Nonce      uint64    `json:"nonce" db:"nonce"` // signed acceptances only settle this listing
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// HasBid reports whether the listing carries an active bid
func (l *Listing) HasBid() bool {
	return l.Bidder != nil
}

// CurrentBidder returns the active bidder or an empty string
func (l *Listing) CurrentBidder() string {
	if l.Bidder == nil {
		return ""
	}
	return *l.Bidder
}

// SetBid replaces the active bid
func (l *Listing) SetBid(bidder string, amount Amount) {
	l.Bidder = &bidder
	l.CurrentBid = amount
}

// ClearBid drops the active bid
func (l *Listing) ClearBid() {
	l.Bidder = nil
	l.CurrentBid = 0
}

// SaleKind describes how a sale was settled
type SaleKind string

const (
	SaleKindBuyNow       SaleKind = "buy_now"
	SaleKindAcceptBid    SaleKind = "accept_bid"
	SaleKindAcceptSigned SaleKind = "accept_signed"
)

// Sale is the immutable record of a settled listing
type Sale struct {
	ID        string    `json:"id" db:"id"`
	AssetID   uint64    `json:"asset_id" db:"asset_id"`
	Seller    string    `json:"seller" db:"seller"`
	Buyer     string    `json:"buyer" db:"buyer"`
	Price     Amount    `json:"price" db:"price"`
	Fee       Amount    `json:"fee" db:"fee"`
	Kind      SaleKind  `json:"kind" db:"kind"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ListAssetRequest represents a request to list an asset
type ListAssetRequest struct {
	ForSale  bool   `json:"for_sale"`
	MinPrice Amount `json:"min_price"`
	MaxPrice Amount `json:"max_price"`
}

// BidRequest represents a request to bid on a listing
type BidRequest struct {
	Amount Amount `json:"amount"`
}

// BuyNowRequest represents a request to buy a listing at its maximum price
type BuyNowRequest struct {
	Amount Amount `json:"amount"`
}

// AcceptBidRequest represents a seller accepting the current bid
type AcceptBidRequest struct {
	Contract string `json:"contract"`
}

// AcceptSignedBidRequest carries a seller's off-chain acceptance of a bid
type AcceptSignedBidRequest struct {
	Bidder    string `json:"bidder"`
	Amount    Amount `json:"amount"`
	Signature string `json:"signature"`
}

// ListingListResponse represents the response for listing active listings
type ListingListResponse struct {
	Listings   []Listing `json:"listings"`
	TotalCount int       `json:"total_count"`
}

// SaleListResponse represents the settlement history of an asset
type SaleListResponse struct {
	Sales      []Sale `json:"sales"`
	TotalCount int    `json:"total_count"`
}
