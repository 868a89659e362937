package services

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/satonic/artexchange/internal/models"
	"github.com/stretchr/testify/require"
)

func TestMakeBid(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")

	listing, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)
	require.Equal(bob, listing.CurrentBidder())
	require.Equal(units("0.02"), listing.CurrentBid)

	bidder, err := m.listings.CurrentBidder(m.ctx, id)
	require.NoError(err)
	require.Equal(bob, bidder)

	amount, err := m.listings.CurrentBidAmount(m.ctx, id)
	require.NoError(err)
	require.Equal(units("0.02"), amount)

	require.Equal(units("0.98"), m.balance(t, bob))
	require.Equal(units("0.02"), m.balance(t, m.cfg.EscrowAddress))
	require.Equal(models.EventListingUpdate, m.lastEvent(t).Type)
}

func TestMakeBidRejections(t *testing.T) {
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")
	m.fund(t, carol, "1")

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(t, err)

	tests := []struct {
		name   string
		bidder string
		amount string
		asset  uint64
		err    error
	}{
		{"below minimum", carol, "0.005", id, ErrBidTooLow},
		{"above maximum", carol, "0.06", id, ErrBidTooHigh},
		{"below current bid", carol, "0.015", id, ErrHigherBidRequired},
		{"equal to current bid", carol, "0.02", id, ErrHigherBidRequired},
		{"unlisted asset", carol, "0.02", 99, ErrNotForSale},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			_, err := m.auctions.MakeBid(m.ctx, tt.bidder, units(tt.amount), tt.asset)
			require.ErrorIs(err, tt.err)

			// Rejected bids leave every balance and the current bid untouched
			require.Equal(units("1"), m.balance(t, carol))
			require.Equal(units("0.98"), m.balance(t, bob))
			bidder, err := m.listings.CurrentBidder(m.ctx, id)
			require.NoError(err)
			require.Equal(bob, bidder)
		})
	}
}

func TestMakeBidErrorMessages(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.06"), id)
	require.EqualError(err, "bid cannot be more than maximum price")

	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.001"), id)
	require.EqualError(err, "bid cannot be less than minimum asking price")
}

func TestMakeBidWithoutAllowance(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	require.NoError(m.escrow.Deposit(m.ctx, operator, bob, units("1")))

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.ErrorIs(err, ErrInsufficientAllowance)

	require.NoError(m.escrow.Approve(m.ctx, carol, m.cfg.EscrowAddress, units("1")))
	_, err = m.auctions.MakeBid(m.ctx, carol, units("0.02"), id)
	require.ErrorIs(err, ErrInsufficientBalance)

	listing, err := m.listings.GetListing(m.ctx, id)
	require.NoError(err)
	require.False(listing.HasBid())
}

func TestOutbidRefund(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")
	m.fund(t, carol, "1")

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)
	_, err = m.auctions.MakeBid(m.ctx, carol, units("0.03"), id)
	require.NoError(err)

	require.Equal(units("1"), m.balance(t, bob))
	require.Equal(units("0.97"), m.balance(t, carol))
	require.Equal(units("0.03"), m.balance(t, m.cfg.EscrowAddress))

	// A bidder may raise their own bid
	_, err = m.auctions.MakeBid(m.ctx, carol, units("0.04"), id)
	require.NoError(err)
	require.Equal(units("0.96"), m.balance(t, carol))
	require.Equal(units("0.04"), m.balance(t, m.cfg.EscrowAddress))
}

func TestBuyNow(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")
	m.fund(t, carol, "1")

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)

	_, err = m.auctions.BuyNow(m.ctx, carol, units("0.04"), id)
	require.ErrorIs(err, ErrAmountMismatch)

	sale, err := m.auctions.BuyNow(m.ctx, carol, units("0.05"), id)
	require.NoError(err)
	require.Equal(models.SaleKindBuyNow, sale.Kind)
	require.Equal(alice, sale.Seller)
	require.Equal(carol, sale.Buyer)
	require.Equal(units("0.0025"), sale.Fee)

	owner, err := m.registry.OwnerOf(m.ctx, id)
	require.NoError(err)
	require.Equal(carol, owner)

	approved, err := m.registry.GetApproved(m.ctx, id)
	require.NoError(err)
	require.Empty(approved)

	require.Equal(units("0.0475"), m.balance(t, alice))
	require.Equal(units("0.0025"), m.balance(t, operator))
	require.Equal(units("0.95"), m.balance(t, carol))
	require.Equal(units("1"), m.balance(t, bob))
	require.Zero(m.balance(t, m.cfg.EscrowAddress))

	forSale, err := m.listings.ForSale(m.ctx, id)
	require.NoError(err)
	require.False(forSale)

	require.Equal(models.EventSale, m.lastEvent(t).Type)

	sales, err := m.auctions.Sales(m.ctx, id)
	require.NoError(err)
	require.Equal(1, sales.TotalCount)
	require.Equal(sale.ID, sales.Sales[0].ID)

	_, err = m.auctions.BuyNow(m.ctx, bob, units("0.05"), id)
	require.ErrorIs(err, ErrNotForSale)
}

func TestAcceptBid(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")

	_, err := m.auctions.AcceptBid(m.ctx, alice, "", id)
	require.ErrorIs(err, ErrNoActiveBid)

	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)

	_, err = m.auctions.AcceptBid(m.ctx, carol, "", id)
	require.ErrorIs(err, ErrUnauthorized)

	_, err = m.auctions.AcceptBid(m.ctx, alice, "SomeOtherArt", id)
	require.ErrorIs(err, ErrUnknownAsset)

	sale, err := m.auctions.AcceptBid(m.ctx, alice, m.cfg.Name, id)
	require.NoError(err)
	require.Equal(models.SaleKindAcceptBid, sale.Kind)
	require.Equal(units("0.02"), sale.Price)

	owner, err := m.registry.OwnerOf(m.ctx, id)
	require.NoError(err)
	require.Equal(bob, owner)

	require.Equal(units("0.019"), m.balance(t, alice))
	require.Equal(units("0.001"), m.balance(t, operator))
	require.Equal(units("0.98"), m.balance(t, bob))
	require.Zero(m.balance(t, m.cfg.EscrowAddress))

	listing, err := m.listings.GetListing(m.ctx, id)
	require.NoError(err)
	require.False(listing.ForSale)
	require.False(listing.HasBid())
}

func TestAcceptBidUnlistedBeforeContract(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)

	asset, err := m.registry.CreateAsset(m.ctx, alice, "abc", "")
	require.NoError(err)

	_, err = m.auctions.AcceptBid(m.ctx, alice, "SomeOtherArt", asset.ID)
	require.ErrorIs(err, ErrNotForSale)
	_, err = m.auctions.AcceptBid(m.ctx, alice, "SomeOtherArt", 99)
	require.ErrorIs(err, ErrNotForSale)
}

func TestAcceptBidWithoutApproval(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	m.fund(t, bob, "1")

	asset, err := m.registry.CreateAsset(m.ctx, alice, "abc", "")
	require.NoError(err)
	_, err = m.listings.ListAsset(m.ctx, alice, asset.ID, true, units("0.01"), units("0.05"))
	require.NoError(err)
	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.02"), asset.ID)
	require.NoError(err)

	_, err = m.auctions.AcceptBid(m.ctx, alice, "", asset.ID)
	require.ErrorIs(err, ErrNotApproved)

	// Nothing moved: the bid is still held and the seller unpaid
	owner, err := m.registry.OwnerOf(m.ctx, asset.ID)
	require.NoError(err)
	require.Equal(alice, owner)
	require.Zero(m.balance(t, alice))
	require.Equal(units("0.02"), m.balance(t, m.cfg.EscrowAddress))

	bidder, err := m.listings.CurrentBidder(m.ctx, asset.ID)
	require.NoError(err)
	require.Equal(bob, bidder)
}

func TestStaleListingNotForSale(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")

	require.NoError(m.registry.TransferOwnership(m.ctx, id, alice, carol))

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.ErrorIs(err, ErrNotForSale)
	_, err = m.auctions.BuyNow(m.ctx, bob, units("0.05"), id)
	require.ErrorIs(err, ErrNotForSale)
}

func TestFeeRoundsDown(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0", "0.000000000000000039")
	m.fund(t, bob, "1")

	sale, err := m.auctions.BuyNow(m.ctx, bob, models.Amount(39), id)
	require.NoError(err)
	require.Equal(models.Amount(1), sale.Fee)
	require.Equal(models.Amount(38), m.balance(t, alice))
}

func TestAcceptSignedBid(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)

	sellerKey, err := btcec.NewPrivateKey()
	require.NoError(err)
	otherKey, err := btcec.NewPrivateKey()
	require.NoError(err)
	seller := m.wallets.AddressFromPubKey(sellerKey.PubKey())

	id := m.list(t, seller, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")
	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)

	listing, err := m.listings.GetListing(m.ctx, id)
	require.NoError(err)
	message := AcceptanceMessage(m.cfg.Name, id, listing.Nonce, bob, units("0.02"))

	_, err = m.auctions.AcceptSignedBid(m.ctx, id, bob, units("0.02"), "zz")
	require.ErrorIs(err, ErrInvalidSignature)

	forged, err := m.wallets.SignMessage(otherKey, message)
	require.NoError(err)
	_, err = m.auctions.AcceptSignedBid(m.ctx, id, bob, units("0.02"), forged)
	require.ErrorIs(err, ErrUnauthorized)

	stale, err := m.wallets.SignMessage(sellerKey, AcceptanceMessage(m.cfg.Name, id, listing.Nonce, bob, units("0.03")))
	require.NoError(err)
	_, err = m.auctions.AcceptSignedBid(m.ctx, id, bob, units("0.03"), stale)
	require.ErrorIs(err, ErrNoActiveBid)

	signature, err := m.wallets.SignMessage(sellerKey, message)
	require.NoError(err)
	sale, err := m.auctions.AcceptSignedBid(m.ctx, id, bob, units("0.02"), signature)
	require.NoError(err)
	require.Equal(models.SaleKindAcceptSigned, sale.Kind)

	owner, err := m.registry.OwnerOf(m.ctx, id)
	require.NoError(err)
	require.Equal(bob, owner)
	require.Equal(units("0.019"), m.balance(t, seller))

	// The signature cannot be replayed once the bid is settled
	_, err = m.auctions.AcceptSignedBid(m.ctx, id, bob, units("0.02"), signature)
	require.ErrorIs(err, ErrNotForSale)
}

func TestSignedAcceptanceDoesNotOutliveListing(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)

	sellerKey, err := btcec.NewPrivateKey()
	require.NoError(err)
	seller := m.wallets.AddressFromPubKey(sellerKey.PubKey())

	id := m.list(t, seller, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")
	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)

	listing, err := m.listings.GetListing(m.ctx, id)
	require.NoError(err)
	signature, err := m.wallets.SignMessage(sellerKey, AcceptanceMessage(m.cfg.Name, id, listing.Nonce, bob, units("0.02")))
	require.NoError(err)

	// The seller changes their mind and relists, which refunds bob
	relisted, err := m.listings.ListAsset(m.ctx, seller, id, true, units("0.02"), units("10"))
	require.NoError(err)
	require.Greater(relisted.Nonce, listing.Nonce)
	require.Equal(units("1"), m.balance(t, bob))

	// bob bids the same amount again on the new listing
	require.NoError(m.escrow.Approve(m.ctx, bob, m.cfg.EscrowAddress, units("0.02")))
	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)

	_, err = m.auctions.AcceptSignedBid(m.ctx, id, bob, units("0.02"), signature)
	require.ErrorIs(err, ErrUnauthorized)

	owner, err := m.registry.OwnerOf(m.ctx, id)
	require.NoError(err)
	require.Equal(seller, owner)
	require.Equal(units("0.02"), m.balance(t, m.cfg.EscrowAddress))

	// A delist and relist also retires the signature
	require.NoError(m.listings.Delist(m.ctx, seller, id))
	_, err = m.listings.ListAsset(m.ctx, seller, id, true, units("0.02"), units("10"))
	require.NoError(err)
	require.NoError(m.escrow.Approve(m.ctx, bob, m.cfg.EscrowAddress, units("0.02")))
	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)
	_, err = m.auctions.AcceptSignedBid(m.ctx, id, bob, units("0.02"), signature)
	require.ErrorIs(err, ErrUnauthorized)
}

func TestAcceptSignedBidNormalizesBidder(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)

	sellerKey, err := btcec.NewPrivateKey()
	require.NoError(err)
	seller := m.wallets.AddressFromPubKey(sellerKey.PubKey())

	id := m.list(t, seller, "abc", "0.01", "0.05")
	m.fund(t, carol, "1")
	_, err = m.auctions.MakeBid(m.ctx, carol, units("0.02"), id)
	require.NoError(err)

	listing, err := m.listings.GetListing(m.ctx, id)
	require.NoError(err)
	signature, err := m.wallets.SignMessage(sellerKey, AcceptanceMessage(m.cfg.Name, id, listing.Nonce, carol, units("0.02")))
	require.NoError(err)

	sale, err := m.auctions.AcceptSignedBid(m.ctx, id, strings.ToUpper(carol[2:]), units("0.02"), signature)
	require.ErrorIs(err, ErrInvalidAddress)
	require.Nil(sale)

	sale, err = m.auctions.AcceptSignedBid(m.ctx, id, "0x"+strings.ToUpper(carol[2:]), units("0.02"), signature)
	require.NoError(err)
	require.Equal(carol, sale.Buyer)
}
