package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/movie-catalog/internal/api"
	"github.com/Rrens/movie-catalog/internal/api/handler"
	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/identity"
	"github.com/Rrens/movie-catalog/internal/identity/local"
	"github.com/Rrens/movie-catalog/internal/identity/oidc"
	"github.com/Rrens/movie-catalog/internal/logger"
	"github.com/Rrens/movie-catalog/internal/metrics"
	"github.com/Rrens/movie-catalog/internal/repository/mongo"
	"github.com/Rrens/movie-catalog/internal/repository/postgres"
	"github.com/Rrens/movie-catalog/internal/repository/redis"
	"github.com/Rrens/movie-catalog/internal/security"
	"github.com/Rrens/movie-catalog/internal/service"
	"github.com/Rrens/movie-catalog/internal/store"
	"github.com/Rrens/movie-catalog/internal/store/memory"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logCloser, err := logger.Setup(cfg.Logging, os.Getenv("ENV") == "production")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Store.Driver).
		Str("identity", cfg.Identity.Provider).
		Msg("Starting movie catalog API server")

	ctx := context.Background()

	storeGateway, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer closeStore()

	ready := map[string]handler.Pinger{"store": storeGateway}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()
		ready["redis"] = redisClient
	}

	identityGateway, err := openIdentity(ctx, cfg, redisClient)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up identity provider")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	var (
		ledger  service.OrphanLedger
		cache   service.QueryCache
		limiter *redis.RateLimiter
	)
	if redisClient != nil {
		ledger = redis.NewReconciliationLedger(redisClient)
		limiter = redis.NewRateLimiter(redisClient, cfg.Security.RateLimit.RequestsPerMinute, cfg.Security.RateLimit.Burst)
		if cfg.Catalog.CacheTTL > 0 {
			cache = redis.NewQueryCache(redisClient, cfg.Catalog.CacheTTL)
		}
	}

	deps := api.Dependencies{
		AuthService:    service.NewAuthService(identityGateway, storeGateway, cfg.Store.UsersCollection, ledger, collector),
		CatalogService: service.NewCatalogService(storeGateway, cfg.Store.MoviesCollection, cfg.Catalog, cache, collector),
		Ready:          ready,
	}
	if cfg.Metrics.Enabled {
		deps.Metrics = collector
	}
	if limiter != nil {
		deps.RateLimiter = limiter
	}

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Gateway, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, err := mongo.NewClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		return mongo.NewStore(client), func() { client.Close() }, nil

	case config.StoreDriverPostgres:
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewDocumentStore(db), db.Close, nil

	default:
		log.Warn().Msg("Using in-memory document store; data is lost on restart")
		return memory.New(), func() {}, nil
	}
}

func openIdentity(ctx context.Context, cfg *config.Config, redisClient *redis.Client) (identity.Gateway, error) {
	if cfg.Identity.Provider == config.IdentityProviderOIDC {
		return oidc.NewProvider(ctx, cfg.Identity.OIDC)
	}

	tokens := security.NewJWTManager(
		cfg.Identity.Local.JWTSecret,
		cfg.Identity.Local.Issuer,
		cfg.Identity.Local.AccessTokenTTL,
		cfg.Identity.Local.RefreshTokenTTL,
	)

	var accounts local.AccountStore
	if redisClient != nil {
		accounts = redis.NewAccountStore(redisClient)
	} else {
		log.Warn().Msg("Redis disabled; identity accounts are kept in memory")
		accounts = local.NewMemoryAccounts()
	}

	return local.NewProvider(accounts, tokens, cfg.Identity.Local.AutoConfirm), nil
}
