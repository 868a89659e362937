package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/satonic/artexchange/internal/models"
)

const assetColumns = `id, content_hash, creator, owner, metadata_uri, approved, listing_nonce, created_at, updated_at`

// AssetRepository handles database operations related to assets
type AssetRepository struct{}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository() *AssetRepository {
	return &AssetRepository{}
}

// NextID reserves the next asset ID
func (r *AssetRepository) NextID(ctx context.Context, q sqlx.ExtContext) (uint64, error) {
	var id uint64
	err := sqlx.GetContext(ctx, q, &id, `SELECT nextval('assets_id_seq')`)
	return id, err
}

// GetByID retrieves an asset by ID
func (r *AssetRepository) GetByID(ctx context.Context, q sqlx.ExtContext, id uint64) (*models.Asset, error) {
	asset := &models.Asset{}
	query := `SELECT ` + assetColumns + ` FROM assets WHERE id = $1`

	err := sqlx.GetContext(ctx, q, asset, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return asset, nil
}

// GetByHash retrieves an asset by its content hash
func (r *AssetRepository) GetByHash(ctx context.Context, q sqlx.ExtContext, hash string) (*models.Asset, error) {
	asset := &models.Asset{}
	query := `SELECT ` + assetColumns + ` FROM assets WHERE content_hash = $1`

	err := sqlx.GetContext(ctx, q, asset, query, hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return asset, nil
}

// Create inserts a new asset
func (r *AssetRepository) Create(ctx context.Context, q sqlx.ExtContext, asset *models.Asset) error {
	query := `INSERT INTO assets (id, content_hash, creator, owner, metadata_uri, approved, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := q.ExecContext(ctx, query,
		asset.ID, asset.ContentHash, asset.Creator, asset.Owner,
		asset.MetadataURI, asset.Approved, asset.CreatedAt, asset.UpdatedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicateKey
	}
	return err
}

// Update stores the mutable fields of an asset
func (r *AssetRepository) Update(ctx context.Context, q sqlx.ExtContext, asset *models.Asset) error {
	query := `UPDATE assets SET owner = $1, approved = $2, listing_nonce = $3, updated_at = $4 WHERE id = $5`
	_, err := q.ExecContext(ctx, query, asset.Owner, asset.Approved, asset.ListingNonce, asset.UpdatedAt, asset.ID)
	return err
}

// GetByOwner retrieves the assets held by an address
func (r *AssetRepository) GetByOwner(ctx context.Context, q sqlx.ExtContext, owner string) ([]models.Asset, error) {
	assets := []models.Asset{}
	query := `SELECT ` + assetColumns + ` FROM assets WHERE owner = $1 ORDER BY id ASC`

	err := sqlx.SelectContext(ctx, q, &assets, query, owner)
	if err != nil {
		return nil, err
	}

	return assets, nil
}
