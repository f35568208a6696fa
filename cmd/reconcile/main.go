// Command reconcile lists identity accounts that were created without a
// profile record so an operator can repair or remove them.
package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/logger"
	"github.com/Rrens/movie-catalog/internal/repository/redis"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if _, err := logger.Setup(cfg.Logging, os.Getenv("ENV") == "production"); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	if !cfg.Redis.Enabled {
		log.Fatal().Msg("The reconciliation ledger lives in Redis; enable redis to use this command")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer client.Close()

	orphans, err := redis.NewReconciliationLedger(client).ListOrphans(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read reconciliation ledger")
	}

	log.Info().Int("count", len(orphans)).Msg("Orphaned identity accounts")

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(orphans); err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}
