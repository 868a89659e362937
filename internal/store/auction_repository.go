package store

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/satonic/artexchange/internal/models"
)

const listingColumns = `asset_id, seller, for_sale, min_price, max_price, bidder, current_bid, nonce, updated_at`

// ListingRepository handles database operations related to listings and sales
type ListingRepository struct{}

// NewListingRepository creates a new ListingRepository
func NewListingRepository() *ListingRepository {
	return &ListingRepository{}
}

// GetByAssetID retrieves the listing of an asset
func (r *ListingRepository) GetByAssetID(ctx context.Context, q sqlx.ExtContext, assetID uint64) (*models.Listing, error) {
	listing := &models.Listing{}
	query := `SELECT ` + listingColumns + ` FROM listings WHERE asset_id = $1`

	err := sqlx.GetContext(ctx, q, listing, query, assetID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return listing, nil
}

// Save creates or overwrites the listing of an asset
func (r *ListingRepository) Save(ctx context.Context, q sqlx.ExtContext, listing *models.Listing) error {
	query := `INSERT INTO listings (asset_id, seller, for_sale, min_price, max_price, bidder, current_bid, nonce, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  ON CONFLICT (asset_id) DO UPDATE SET
			  seller = EXCLUDED.seller, for_sale = EXCLUDED.for_sale,
			  min_price = EXCLUDED.min_price, max_price = EXCLUDED.max_price,
			  bidder = EXCLUDED.bidder, current_bid = EXCLUDED.current_bid,
			  nonce = EXCLUDED.nonce, updated_at = EXCLUDED.updated_at`

	_, err := q.ExecContext(ctx, query,
		listing.AssetID, listing.Seller, listing.ForSale, listing.MinPrice,
		listing.MaxPrice, listing.Bidder, listing.CurrentBid, listing.Nonce, listing.UpdatedAt)

	return err
}

// Delete removes the listing of an asset
func (r *ListingRepository) Delete(ctx context.Context, q sqlx.ExtContext, assetID uint64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM listings WHERE asset_id = $1`, assetID)
	return err
}

// GetActive retrieves all listings that are for sale
func (r *ListingRepository) GetActive(ctx context.Context, q sqlx.ExtContext) ([]models.Listing, error) {
	listings := []models.Listing{}
	query := `SELECT ` + listingColumns + ` FROM listings WHERE for_sale = TRUE ORDER BY asset_id ASC`

	err := sqlx.SelectContext(ctx, q, &listings, query)
	if err != nil {
		return nil, err
	}

	return listings, nil
}

// CreateSale records a settled sale
func (r *ListingRepository) CreateSale(ctx context.Context, q sqlx.ExtContext, sale *models.Sale) error {
	query := `INSERT INTO sales (id, asset_id, seller, buyer, price, fee, kind, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := q.ExecContext(ctx, query,
		sale.ID, sale.AssetID, sale.Seller, sale.Buyer,
		sale.Price, sale.Fee, sale.Kind, sale.CreatedAt)

	return err
}

// GetSalesByAssetID retrieves the settlement history of an asset
func (r *ListingRepository) GetSalesByAssetID(ctx context.Context, q sqlx.ExtContext, assetID uint64) ([]models.Sale, error) {
	sales := []models.Sale{}
	query := `SELECT id, asset_id, seller, buyer, price, fee, kind, created_at
			  FROM sales WHERE asset_id = $1 ORDER BY created_at ASC`

	err := sqlx.SelectContext(ctx, q, &sales, query, assetID)
	if err != nil {
		return nil, err
	}

	return sales, nil
}
