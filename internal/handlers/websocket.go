package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/services"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketMessage represents a message sent over WebSocket
type WebSocketMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// BidMessage represents a bid message sent over WebSocket
type BidMessage struct {
	AssetID uint64        `json:"asset_id"`
	Amount  models.Amount `json:"amount"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	auctions *services.AuctionService
	// Authenticated address, empty for anonymous watchers
	address string
}

// Hub keeps the connected clients and the assets each of them watches. It
// publishes committed marketplace events to the watchers of the asset.
type Hub struct {
	mu          sync.Mutex
	clients     map[*Client]bool
	subscribers map[uint64]map[*Client]bool
	log         *zap.Logger
}

// NewHub creates a new hub
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		clients:     make(map[*Client]bool),
		subscribers: make(map[uint64]map[*Client]bool),
		log:         log,
	}
}

// Publish implements services.Publisher
func (h *Hub) Publish(event models.Event) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		h.log.Error("error marshalling event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}
	message, err := json.Marshal(WebSocketMessage{Type: string(event.Type), Payload: payload})
	if err != nil {
		h.log.Error("error marshalling message", zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if event.Type == models.EventAssetCreated {
		// New assets have no watchers yet
		for client := range h.clients {
			h.deliver(client, message)
		}
		return
	}
	for client := range h.subscribers[event.AssetID] {
		h.deliver(client, message)
	}
}

// Subscribe registers a client to receive updates for a specific asset
func (h *Hub) Subscribe(client *Client, assetID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	if _, ok := h.subscribers[assetID]; !ok {
		h.subscribers[assetID] = make(map[*Client]bool)
	}
	h.subscribers[assetID][client] = true
}

// Unsubscribe stops a client receiving updates for a specific asset
func (h *Hub) Unsubscribe(client *Client, assetID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribe(client, assetID)
}

// Watchers returns the number of clients subscribed to an asset
func (h *Hub) Watchers(assetID uint64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[assetID])
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(client)
}

// sendTo queues a message for one client
func (h *Hub) sendTo(client *Client, message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deliver(client, message)
}

// deliver must be called with mu held. Clients that cannot keep up are dropped.
func (h *Hub) deliver(client *Client, message []byte) {
	if !h.clients[client] {
		return
	}
	select {
	case client.send <- message:
	default:
		h.drop(client)
	}
}

// drop must be called with mu held
func (h *Hub) drop(client *Client) {
	if !h.clients[client] {
		return
	}
	delete(h.clients, client)
	for assetID := range h.subscribers {
		h.unsubscribe(client, assetID)
	}
	close(client.send)
}

func (h *Hub) unsubscribe(client *Client, assetID uint64) {
	if clients, ok := h.subscribers[assetID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.subscribers, assetID)
		}
	}
}

func (c *Client) reply(messageType string, payload interface{}) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		c.hub.log.Error("error marshalling reply", zap.Error(err))
		return
	}
	message, err := json.Marshal(WebSocketMessage{Type: messageType, Payload: payloadBytes})
	if err != nil {
		c.hub.log.Error("error marshalling message", zap.Error(err))
		return
	}
	c.hub.sendTo(c, message)
}

func (c *Client) replyError(message string) {
	c.reply("error", &errorJSON{Error: message})
}

// readPump pumps messages from the WebSocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read failed", zap.Error(err))
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			c.hub.log.Debug("error parsing message", zap.Error(err))
			c.replyError("malformed message")
			continue
		}

		switch wsMessage.Type {
		case "subscribe":
			var assetID uint64
			if err := json.Unmarshal(wsMessage.Payload, &assetID); err != nil {
				c.replyError("malformed subscribe payload")
				continue
			}
			c.hub.Subscribe(c, assetID)
			c.reply("subscribed", assetID)

		case "unsubscribe":
			var assetID uint64
			if err := json.Unmarshal(wsMessage.Payload, &assetID); err != nil {
				c.replyError("malformed unsubscribe payload")
				continue
			}
			c.hub.Unsubscribe(c, assetID)

		case "bid":
			var bid BidMessage
			if err := json.Unmarshal(wsMessage.Payload, &bid); err != nil {
				c.replyError("malformed bid payload")
				continue
			}

			// Ensure the client is authenticated
			if c.address == "" {
				c.replyError("Not authenticated")
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			listing, err := c.auctions.MakeBid(ctx, c.address, bid.Amount, bid.AssetID)
			cancel()
			if err != nil {
				if services.IsRejection(err) {
					c.replyError(err.Error())
				} else {
					c.hub.log.Error("websocket bid failed", zap.Uint64("asset_id", bid.AssetID), zap.Error(err))
					c.replyError("internal server error")
				}
				continue
			}

			// Watchers of the asset already got the listing_update event
			c.reply("bid_placed", listing)

		default:
			c.replyError("unknown message type")
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs handles WebSocket requests from clients
func ServeWs(hub *Hub, auctions *services.AuctionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			hub.log.Debug("websocket upgrade failed", zap.Error(err))
			return
		}

		// Caller is set when the upgrade request carried a token
		address, _ := CallerFromContext(r.Context())

		client := &Client{
			hub:      hub,
			conn:     conn,
			send:     make(chan []byte, sendBufferSize),
			auctions: auctions,
			address:  address,
		}
		hub.register(client)

		client.reply("welcome", map[string]string{"message": "Connected to ArtExchange"})

		// Allow collection of memory referenced by the caller by doing all work in
		// new goroutines
		go client.writePump()
		go client.readPump()
	}
}
