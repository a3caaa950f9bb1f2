// cmd/seeder/main.go
package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/pricing-catalog-backend/internal/config"
	"github.com/unclebandit/pricing-catalog-backend/internal/db"
	"github.com/unclebandit/pricing-catalog-backend/internal/logger"
)

func main() {
	schemaOnly := flag.Bool("schema-only", false, "create tables without inserting sample rows")
	flag.Parse()

	config.LoadDotEnv()
	logger.Init(logger.Config{Level: os.Getenv("LOG_LEVEL"), Environment: os.Getenv("ENVIRONMENT")})

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	ctx := context.Background()
	database, err := db.Open(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer database.Close()

	seedFiles := []string{"seed/schema.sql"}
	if !*schemaOnly {
		seedFiles = append(seedFiles, "seed/data.sql")
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("read seed file")
		}
		if _, err := database.ExecContext(ctx, string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("execute seed file")
		}
		log.Info().Str("file", file).Msg("seeded")
	}

	log.Info().Msg("database seeding completed")
}
