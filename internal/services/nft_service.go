package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/store"
	"go.uber.org/zap"
)

// RegistryService is the asset registry: it mints hash-deduplicated assets
// and tracks their creator, owner and transfer approval.
type RegistryService struct {
	ledger     store.Ledger
	collection models.Collection
	events     Publisher
	log        *zap.Logger
	now        func() time.Time
}

// NewRegistryService creates a new RegistryService
func NewRegistryService(ledger store.Ledger, collection models.Collection, events Publisher, log *zap.Logger) *RegistryService {
	if log == nil {
		log = zap.NewNop()
	}
	return &RegistryService{
		ledger:     ledger,
		collection: collection,
		events:     orNop(events),
		log:        log,
		now:        time.Now,
	}
}

// Collection returns the collection assets are minted in
func (s *RegistryService) Collection() models.Collection {
	return s.collection
}

// CreateAsset mints a new asset owned and created by owner
func (s *RegistryService) CreateAsset(ctx context.Context, owner, contentHash, metadataURI string) (*models.Asset, error) {
	if owner == "" || contentHash == "" {
		return nil, ErrInvalidAsset
	}
	if err := normalizeAddresses(&owner); err != nil {
		return nil, err
	}

	var asset *models.Asset
	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		// Content hashes are unique across the registry's whole history
		existing, err := tx.GetAssetByHash(ctx, contentHash)
		if err != nil {
			return fmt.Errorf("failed to look up content hash: %w", err)
		}
		if existing != nil {
			return ErrDuplicateAsset
		}

		id, err := tx.NextAssetID(ctx)
		if err != nil {
			return fmt.Errorf("failed to allocate asset id: %w", err)
		}

		now := s.now()
		asset = &models.Asset{
			ID:          id,
			ContentHash: contentHash,
			Creator:     owner,
			Owner:       owner,
			MetadataURI: metadataURI,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := tx.InsertAsset(ctx, asset); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				return ErrDuplicateAsset
			}
			return fmt.Errorf("failed to create asset: %w", err)
		}
		return nil
	})
	observe("create_asset", err)
	if err != nil {
		return nil, err
	}

	s.log.Info("asset created",
		zap.Uint64("asset_id", asset.ID),
		zap.String("owner", owner),
		zap.String("content_hash", contentHash))
	s.events.Publish(models.Event{Type: models.EventAssetCreated, AssetID: asset.ID, Payload: asset})

	return asset, nil
}

// TransferOwnership moves an asset from its current owner to another address
func (s *RegistryService) TransferOwnership(ctx context.Context, assetID uint64, from, to string) error {
	if err := normalizeAddresses(&from, &to); err != nil {
		return err
	}

	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		asset, err := s.loadAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Owner != from {
			return ErrNotOwner
		}
		return s.transfer(ctx, tx, asset, to)
	})
	observe("transfer_asset", err)
	if err != nil {
		return err
	}

	s.log.Info("asset transferred", zap.Uint64("asset_id", assetID), zap.String("from", from), zap.String("to", to))
	return nil
}

// Approve grants spender the right to transfer the asset on the owner's behalf.
// An empty spender clears the approval.
func (s *RegistryService) Approve(ctx context.Context, caller, spender string, assetID uint64) error {
	if err := normalizeAddresses(&caller); err != nil {
		return err
	}
	if spender != "" {
		if err := normalizeAddresses(&spender); err != nil {
			return err
		}
	}

	err := s.ledger.Update(ctx, func(tx store.Tx) error {
		asset, err := s.loadAsset(ctx, tx, assetID)
		if err != nil {
			return err
		}
		if asset.Owner != caller {
			return ErrNotOwner
		}

		asset.Approved = spender
		asset.UpdatedAt = s.now()
		if err := tx.UpdateAsset(ctx, asset); err != nil {
			return fmt.Errorf("failed to approve asset: %w", err)
		}
		return nil
	})
	observe("approve_asset", err)
	return err
}

// GetAsset retrieves an asset by ID
func (s *RegistryService) GetAsset(ctx context.Context, assetID uint64) (*models.Asset, error) {
	var asset *models.Asset
	err := s.ledger.View(ctx, func(tx store.Tx) error {
		var err error
		asset, err = s.loadAsset(ctx, tx, assetID)
		return err
	})
	return asset, err
}

// Creator returns the address that minted the asset
func (s *RegistryService) Creator(ctx context.Context, assetID uint64) (string, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return "", err
	}
	return asset.Creator, nil
}

// OwnerOf returns the current holder of the asset
func (s *RegistryService) OwnerOf(ctx context.Context, assetID uint64) (string, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return "", err
	}
	return asset.Owner, nil
}

// Metadata returns the metadata URI of the asset
func (s *RegistryService) Metadata(ctx context.Context, assetID uint64) (string, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return "", err
	}
	return asset.MetadataURI, nil
}

// GetApproved returns the address approved to transfer the asset, if any
func (s *RegistryService) GetApproved(ctx context.Context, assetID uint64) (string, error) {
	asset, err := s.GetAsset(ctx, assetID)
	if err != nil {
		return "", err
	}
	return asset.Approved, nil
}

// ListByOwner retrieves the assets held by an address
func (s *RegistryService) ListByOwner(ctx context.Context, owner string) (*models.AssetListResponse, error) {
	if err := normalizeAddresses(&owner); err != nil {
		return nil, err
	}

	var assets []models.Asset
	err := s.ledger.View(ctx, func(tx store.Tx) error {
		var err error
		assets, err = tx.AssetsByOwner(ctx, owner)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &models.AssetListResponse{
		Assets:     assets,
		TotalCount: len(assets),
	}, nil
}

func (s *RegistryService) loadAsset(ctx context.Context, tx store.Tx, assetID uint64) (*models.Asset, error) {
	asset, err := tx.GetAsset(ctx, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to load asset %d: %w", assetID, err)
	}
	if asset == nil {
		return nil, ErrUnknownAsset
	}
	return asset, nil
}

// transfer hands the asset to a new owner and clears its approval
func (s *RegistryService) transfer(ctx context.Context, tx store.Tx, asset *models.Asset, to string) error {
	asset.Owner = to
	asset.Approved = ""
	asset.UpdatedAt = s.now()
	if err := tx.UpdateAsset(ctx, asset); err != nil {
		return fmt.Errorf("failed to transfer asset %d: %w", asset.ID, err)
	}
	return nil
}
