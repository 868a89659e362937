package models

import (
	"time"
)

// Asset represents a unique, non-fungible asset in the registry
type Asset struct {
	ID           uint64    `json:"id" db:"id"`
	ContentHash  string    `json:"content_hash" db:"content_hash"`
	Creator      string    `json:"creator" db:"creator"`
	Owner        string    `json:"owner" db:"owner"`
	MetadataURI  string    `json:"metadata_uri" db:"metadata_uri"`
	Approved     string    `json:"approved,omitempty" db:"approved"` // address allowed to transfer the asset
	ListingNonce uint64    `json:"listing_nonce" db:"listing_nonce"` // bumped every time the asset is listed
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Collection identifies the registry assets are minted in
type Collection struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// CreateAssetRequest represents a request to mint a new asset
type CreateAssetRequest struct {
	Owner       string `json:"owner"` // defaults to the caller
	ContentHash string `json:"content_hash"`
	MetadataURI string `json:"metadata_uri"`
}

// ApproveAssetRequest represents a request to approve a spender for an asset
type ApproveAssetRequest struct {
	Spender string `json:"spender"`
}

// TransferAssetRequest represents a request to transfer an asset
type TransferAssetRequest struct {
	To string `json:"to"`
}

// AssetListResponse represents the response for listing assets
type AssetListResponse struct {
	Assets     []Asset `json:"assets"`
	TotalCount int     `json:"total_count"`
}
