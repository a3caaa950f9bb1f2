package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/streadway/amqp"

	"github.com/unclebandit/pricing-catalog-backend/internal/config"
	"github.com/unclebandit/pricing-catalog-backend/internal/db"
	"github.com/unclebandit/pricing-catalog-backend/internal/logger"
	"github.com/unclebandit/pricing-catalog-backend/internal/queue"
	"github.com/unclebandit/pricing-catalog-backend/internal/repository"
	"github.com/unclebandit/pricing-catalog-backend/internal/service"
)

func main() {
	dotenv := config.LoadDotEnv()

	cfg, err := config.LoadWorker()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Environment})
	if !dotenv {
		log.Debug().Msg("no .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer database.Close()

	audit := &service.AuditService{Repo: &repository.AuditRepository{DB: database}}

	conn, err := amqp.Dial(cfg.AMQPURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connect to RabbitMQ")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("open channel")
	}
	defer ch.Close()

	msgs, err := queue.ConsumeAudit(ch, cfg.EventsExchange, cfg.Prefetch)
	if err != nil {
		log.Fatal().Err(err).Msg("start consumer")
	}

	worker := service.NewWorker(audit, msgs)
	log.Info().Str("exchange", cfg.EventsExchange).Str("queue", queue.AuditQueue).
		Msg("worker running, waiting for events")
	worker.Start(ctx)
	log.Info().Msg("worker stopped")
}
