package store

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/satonic/artexchange/internal/models"
)

// PostgresLedger is a Ledger backed by PostgreSQL. Every Update is a
// serializable transaction.
type PostgresLedger struct {
	db       *Database
	assets   *AssetRepository
	listings *ListingRepository
	accounts *AccountRepository
}

// NewPostgresLedger creates a ledger on top of an open database
func NewPostgresLedger(db *Database) *PostgresLedger {
	return &PostgresLedger{
		db:       db,
		assets:   NewAssetRepository(),
		listings: NewListingRepository(),
		accounts: NewAccountRepository(),
	}
}

// Update runs fn in a read-write transaction
func (l *PostgresLedger) Update(ctx context.Context, fn func(Tx) error) error {
	return l.db.Transaction(ctx, false, func(tx *sqlx.Tx) error {
		return fn(&postgresTx{ledger: l, tx: tx})
	})
}

// View runs fn in a read-only transaction
func (l *PostgresLedger) View(ctx context.Context, fn func(Tx) error) error {
	return l.db.Transaction(ctx, true, func(tx *sqlx.Tx) error {
		return fn(&postgresTx{ledger: l, tx: tx})
	})
}

// Close closes the underlying database
func (l *PostgresLedger) Close() error {
	return l.db.Close()
}

type postgresTx struct {
	ledger *PostgresLedger
	tx     *sqlx.Tx
}

func (t *postgresTx) NextAssetID(ctx context.Context) (uint64, error) {
	return t.ledger.assets.NextID(ctx, t.tx)
}

func (t *postgresTx) GetAsset(ctx context.Context, id uint64) (*models.Asset, error) {
	return t.ledger.assets.GetByID(ctx, t.tx, id)
}

func (t *postgresTx) GetAssetByHash(ctx context.Context, hash string) (*models.Asset, error) {
	return t.ledger.assets.GetByHash(ctx, t.tx, hash)
}

func (t *postgresTx) InsertAsset(ctx context.Context, asset *models.Asset) error {
	return t.ledger.assets.Create(ctx, t.tx, asset)
}

func (t *postgresTx) UpdateAsset(ctx context.Context, asset *models.Asset) error {
	return t.ledger.assets.Update(ctx, t.tx, asset)
}

func (t *postgresTx) AssetsByOwner(ctx context.Context, owner string) ([]models.Asset, error) {
	return t.ledger.assets.GetByOwner(ctx, t.tx, owner)
}

func (t *postgresTx) GetListing(ctx context.Context, assetID uint64) (*models.Listing, error) {
	return t.ledger.listings.GetByAssetID(ctx, t.tx, assetID)
}

func (t *postgresTx) SaveListing(ctx context.Context, listing *models.Listing) error {
	return t.ledger.listings.Save(ctx, t.tx, listing)
}

func (t *postgresTx) DeleteListing(ctx context.Context, assetID uint64) error {
	return t.ledger.listings.Delete(ctx, t.tx, assetID)
}

func (t *postgresTx) ActiveListings(ctx context.Context) ([]models.Listing, error) {
	return t.ledger.listings.GetActive(ctx, t.tx)
}

func (t *postgresTx) Balance(ctx context.Context, address string) (models.Amount, error) {
	return t.ledger.accounts.GetBalance(ctx, t.tx, address)
}

func (t *postgresTx) SetBalance(ctx context.Context, address string, amount models.Amount) error {
	return t.ledger.accounts.SetBalance(ctx, t.tx, address, amount)
}

func (t *postgresTx) Allowance(ctx context.Context, owner, spender string) (models.Amount, error) {
	return t.ledger.accounts.GetAllowance(ctx, t.tx, owner, spender)
}

func (t *postgresTx) SetAllowance(ctx context.Context, owner, spender string, amount models.Amount) error {
	return t.ledger.accounts.SetAllowance(ctx, t.tx, owner, spender, amount)
}

func (t *postgresTx) InsertSale(ctx context.Context, sale *models.Sale) error {
	return t.ledger.listings.CreateSale(ctx, t.tx, sale)
}

func (t *postgresTx) SalesByAsset(ctx context.Context, assetID uint64) ([]models.Sale, error) {
	return t.ledger.listings.GetSalesByAssetID(ctx, t.tx, assetID)
}
