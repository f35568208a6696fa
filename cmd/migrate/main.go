package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Rrens/movie-catalog/internal/config"
	"github.com/Rrens/movie-catalog/internal/logger"
	"github.com/Rrens/movie-catalog/internal/repository/postgres"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	if _, err := logger.Setup(cfg.Logging, os.Getenv("ENV") == "production"); err != nil {
		log.Fatal().Err(err).Msg("Failed to set up logging")
	}

	var databaseURL string
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		databaseURL, err = cfg.Mongo.MigrateURL()
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid mongo configuration")
		}
	case config.StoreDriverPostgres:
		databaseURL = cfg.Database.DSN()
	default:
		log.Info().Str("driver", cfg.Store.Driver).Msg("Nothing to migrate")
		return
	}

	source := strings.TrimSuffix(cfg.Store.MigrationsPath, "/") + "/" + cfg.Store.Driver
	log.Info().Str("driver", cfg.Store.Driver).Str("source", source).Msg("Applying migrations")

	if err := postgres.RunMigrations(source, databaseURL); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}
}
