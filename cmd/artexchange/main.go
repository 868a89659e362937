package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/satonic/artexchange/internal/config"
	"github.com/satonic/artexchange/internal/handlers"
	"github.com/satonic/artexchange/internal/models"
	"github.com/satonic/artexchange/internal/services"
	"github.com/satonic/artexchange/internal/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg.Level.SetLevel(lvl)

	return cfg.Build()
}

func openLedger(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (store.Ledger, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using the in-memory ledger, state is lost on restart")
		return store.NewMemoryLedger(), nil
	}

	db, err := store.NewDatabase(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store.NewPostgresLedger(db), nil
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	ledger, err := openLedger(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer ledger.Close()

	hub := handlers.NewHub(log.Named("ws"))
	collection := models.Collection{Name: cfg.Market.Name, Symbol: cfg.Market.Symbol}

	// Initialize services
	wallets := services.NewWalletService()
	registry := services.NewRegistryService(ledger, collection, hub, log.Named("registry"))
	escrow := services.NewEscrowService(ledger, registry, cfg.Market, log.Named("escrow"))
	listings := services.NewListingService(ledger, registry, escrow, hub, log.Named("listings"))
	auctions := services.NewAuctionService(ledger, registry, listings, escrow, wallets, cfg.Market.OwnerCut, hub, log.Named("auctions"))
	auth := services.NewAuthService(wallets, cfg.Auth)

	router := handlers.NewRouter(handlers.Services{
		Auth:     auth,
		Registry: registry,
		Listings: listings,
		Auctions: auctions,
		Escrow:   escrow,
	}, hub, cfg.Server.AllowedOrigins, log.Named("http"))

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("collection", collection.Name),
			zap.String("driver", cfg.Database.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
