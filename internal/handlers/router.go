package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/satonic/artexchange/internal/services"
	"go.uber.org/zap"
)

// Services groups the marketplace services the HTTP API exposes
type Services struct {
	Auth     *services.AuthService
	Registry *services.RegistryService
	Listings *services.ListingService
	Auctions *services.AuctionService
	Escrow   *services.EscrowService
}

// NewRouter builds the HTTP API
func NewRouter(svc Services, hub *Hub, allowedOrigins []string, log *zap.Logger) http.Handler {
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(log))
	r.Use(middleware.Recoverer)
	r.Use(metricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Post("/challenge", RequestChallenge(svc.Auth))
		r.Post("/wallet", WalletLogin(svc.Auth))
	})

	r.With(OptionalAuthMiddleware(svc.Auth)).Get("/ws", ServeWs(hub, svc.Auctions))

	// Public reads
	r.Group(func(r chi.Router) {
		r.Use(OptionalAuthMiddleware(svc.Auth))
		r.Get("/assets", GetOwnerAssets(svc.Registry, log))
		r.Get("/assets/{id}", GetAsset(svc.Registry, log))
		r.Get("/assets/{id}/sales", GetAssetSales(svc.Auctions, log))
		r.Get("/listings", GetActiveListings(svc.Listings, log))
		r.Get("/listings/{id}", GetListing(svc.Listings, log))
		r.Get("/funds/{address}", GetBalance(svc.Escrow, log))

		// Signed acceptances are relayed by anyone
		r.Post("/listings/{id}/accept-signed", AcceptSignedBid(svc.Auctions, log))
	})

	// Authenticated operations act for the token's address
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(svc.Auth))

		r.Post("/assets", CreateAsset(svc.Registry, log))
		r.Post("/assets/{id}/approve", ApproveAsset(svc.Registry, log))
		r.Post("/assets/{id}/transfer", TransferAsset(svc.Registry, log))

		r.Put("/listings/{id}", ListAsset(svc.Listings, log))
		r.Delete("/listings/{id}", Delist(svc.Listings, log))
		r.Post("/listings/{id}/bids", MakeBid(svc.Auctions, log))
		r.Post("/listings/{id}/buy", BuyNow(svc.Auctions, log))
		r.Post("/listings/{id}/accept", AcceptBid(svc.Auctions, log))

		r.Post("/funds/deposit", Deposit(svc.Escrow, log))
		r.Post("/funds/transfer", TransferFunds(svc.Escrow, log))
		r.Post("/funds/approve", ApproveFunds(svc.Escrow, log))
	})

	return r
}
