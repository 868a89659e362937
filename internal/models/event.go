package models

// EventType names a marketplace notification
type EventType string

const (
	EventAssetCreated  EventType = "asset_created"
	EventListingUpdate EventType = "listing_update"
	EventSale          EventType = "sale"
)

// Event is published after a state change has been committed
type Event struct {
	Type    EventType   `json:"type"`
	AssetID uint64      `json:"asset_id"`
	Payload interface{} `json:"payload"`
}
