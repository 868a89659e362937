package services

import (
	"testing"

	"github.com/satonic/artexchange/internal/models"
	"github.com/stretchr/testify/require"
)

func TestListingNeverListed(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)

	listing, err := m.listings.GetListing(m.ctx, 7)
	require.NoError(err)
	require.Equal(uint64(7), listing.AssetID)
	require.False(listing.ForSale)
	require.Zero(listing.MinPrice)
	require.Zero(listing.MaxPrice)

	bidder, err := m.listings.CurrentBidder(m.ctx, 7)
	require.NoError(err)
	require.Empty(bidder)
}

func TestListAsset(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")

	forSale, err := m.listings.ForSale(m.ctx, id)
	require.NoError(err)
	require.True(forSale)

	minPrice, err := m.listings.MinPrice(m.ctx, id)
	require.NoError(err)
	require.Equal(units("0.01"), minPrice)

	maxPrice, err := m.listings.MaxPrice(m.ctx, id)
	require.NoError(err)
	require.Equal(units("0.05"), maxPrice)

	event := m.lastEvent(t)
	require.Equal(models.EventListingUpdate, event.Type)

	active, err := m.listings.ActiveListings(m.ctx)
	require.NoError(err)
	require.Equal(1, active.TotalCount)
	require.Equal(alice, active.Listings[0].Seller)
}

func TestListAssetRejections(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)

	asset, err := m.registry.CreateAsset(m.ctx, alice, "abc", "")
	require.NoError(err)

	_, err = m.listings.ListAsset(m.ctx, bob, asset.ID, true, units("0.01"), units("0.05"))
	require.ErrorIs(err, ErrNotOwner)

	_, err = m.listings.ListAsset(m.ctx, alice, asset.ID, true, units("0.05"), units("0.01"))
	require.ErrorIs(err, ErrInvalidRange)

	_, err = m.listings.ListAsset(m.ctx, alice, 99, true, units("0.01"), units("0.05"))
	require.ErrorIs(err, ErrUnknownAsset)

	forSale, err := m.listings.ForSale(m.ctx, asset.ID)
	require.NoError(err)
	require.False(forSale)
}

func TestListAssetEqualBounds(t *testing.T) {
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.05", "0.05")

	m.fund(t, bob, "1")
	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.05"), id)
	require.NoError(t, err)
}

func TestRelistRefundsBid(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)

	listing, err := m.listings.ListAsset(m.ctx, alice, id, true, units("0.03"), units("0.08"))
	require.NoError(err)
	require.False(listing.HasBid())
	require.Equal(units("1"), m.balance(t, bob))
	require.Zero(m.balance(t, m.cfg.EscrowAddress))
}

func TestDelist(t *testing.T) {
	require := require.New(t)
	m := newMarket(t)
	id := m.list(t, alice, "abc", "0.01", "0.05")
	m.fund(t, bob, "1")

	_, err := m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.NoError(err)

	require.ErrorIs(m.listings.Delist(m.ctx, bob, id), ErrNotOwner)
	require.NoError(m.listings.Delist(m.ctx, alice, id))

	listing, err := m.listings.GetListing(m.ctx, id)
	require.NoError(err)
	require.False(listing.ForSale)
	require.False(listing.HasBid())
	require.Equal(units("1"), m.balance(t, bob))

	_, err = m.auctions.MakeBid(m.ctx, bob, units("0.02"), id)
	require.ErrorIs(err, ErrNotForSale)

	// Delisting an unlisted asset is a no-op
	require.NoError(m.listings.Delist(m.ctx, alice, id))
}
