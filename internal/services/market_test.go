package services

import (
	"context"
	"testing"

	"github.com/satonic/artexchange/internal/config"
	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/store"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	alice    = "0x00000000000000000000000000000000000a11ce"
	bob      = "0x0000000000000000000000000000000000000b0b"
	carol    = "0x00000000000000000000000000000000000ca201"
	operator = "0x000000000000000000000000000000000000f00d"
)

func units(s string) models.Amount {
	return models.MustParseUnits(s, 18)
}

type market struct {
	ctx      context.Context
	cfg      config.MarketConfig
	ledger   *store.MemoryLedger
	wallets  *WalletService
	registry *RegistryService
	escrow   *EscrowService
	listings *ListingService
	auctions *AuctionService
	events   []models.Event
}

func newMarket(t *testing.T) *market {
	t.Helper()

	cfg := config.Default().Market
	cfg.Operator = operator

	m := &market{
		ctx:     context.Background(),
		cfg:     cfg,
		ledger:  store.NewMemoryLedger(),
		wallets: NewWalletService(),
	}
	events := PublisherFunc(func(e models.Event) { m.events = append(m.events, e) })
	log := zap.NewNop()

	m.registry = NewRegistryService(m.ledger, models.Collection{Name: cfg.Name, Symbol: cfg.Symbol}, events, log)
	m.escrow = NewEscrowService(m.ledger, m.registry, cfg, log)
	m.listings = NewListingService(m.ledger, m.registry, m.escrow, events, log)
	m.auctions = NewAuctionService(m.ledger, m.registry, m.listings, m.escrow, m.wallets, cfg.OwnerCut, events, log)
	return m
}

// fund deposits amount to addr and lets the market pull all of it
func (m *market) fund(t *testing.T, addr, amount string) {
	t.Helper()
	require.NoError(t, m.escrow.Deposit(m.ctx, operator, addr, units(amount)))
	require.NoError(t, m.escrow.Approve(m.ctx, addr, m.cfg.EscrowAddress, units(amount)))
}

// list mints an asset for owner, approves the market and lists it
func (m *market) list(t *testing.T, owner, hash, minPrice, maxPrice string) uint64 {
	t.Helper()
	asset, err := m.registry.CreateAsset(m.ctx, owner, hash, "ipfs://"+hash)
	require.NoError(t, err)
	require.NoError(t, m.registry.Approve(m.ctx, owner, m.cfg.EscrowAddress, asset.ID))
	_, err = m.listings.ListAsset(m.ctx, owner, asset.ID, true, units(minPrice), units(maxPrice))
	require.NoError(t, err)
	return asset.ID
}

func (m *market) balance(t *testing.T, addr string) models.Amount {
	t.Helper()
	balance, err := m.escrow.BalanceOf(m.ctx, addr)
	require.NoError(t, err)
	return balance
}

func (m *market) lastEvent(t *testing.T) models.Event {
	t.Helper()
	require.NotEmpty(t, m.events)
	return m.events[len(m.events)-1]
}
