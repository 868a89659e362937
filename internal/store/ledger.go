package store

import (
	"context"
	"errors"

	"github.com/satonic/artexchange/internal/models"
)

var (
	// ErrDuplicateKey is returned when an insert violates a uniqueness constraint
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrReadOnly is returned when a read-only transaction attempts a write
	ErrReadOnly = errors.New("read-only transaction")
)

// Ledger is the transactional store every marketplace operation runs against.
// Update runs fn atomically: either every write made through the Tx is
// committed, or none is. Transactions are serialised.
type Ledger interface {
	Update(ctx context.Context, fn func(Tx) error) error
	View(ctx context.Context, fn func(Tx) error) error
	Close() error
}

// Tx is the view of ledger state inside one transaction. Getters return
// nil, nil for records that do not exist.
type Tx interface {
	NextAssetID(ctx context.Context) (uint64, error)
	GetAsset(ctx context.Context, id uint64) (*models.Asset, error)
	GetAssetByHash(ctx context.Context, hash string) (*models.Asset, error)
	InsertAsset(ctx context.Context, asset *models.Asset) error
	UpdateAsset(ctx context.Context, asset *models.Asset) error
	AssetsByOwner(ctx context.Context, owner string) ([]models.Asset, error)

	GetListing(ctx context.Context, assetID uint64) (*models.Listing, error)
	SaveListing(ctx context.Context, listing *models.Listing) error
	DeleteListing(ctx context.Context, assetID uint64) error
	ActiveListings(ctx context.Context) ([]models.Listing, error)

	Balance(ctx context.Context, address string) (models.Amount, error)
	SetBalance(ctx context.Context, address string, amount models.Amount) error
	Allowance(ctx context.Context, owner, spender string) (models.Amount, error)
	SetAllowance(ctx context.Context, owner, spender string, amount models.Amount) error

	InsertSale(ctx context.Context, sale *models.Sale) error
	SalesByAsset(ctx context.Context, assetID uint64) ([]models.Sale, error)
}
