// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/pricing-catalog-backend/internal/auth"
	"github.com/unclebandit/pricing-catalog-backend/internal/cache"
	"github.com/unclebandit/pricing-catalog-backend/internal/config"
	"github.com/unclebandit/pricing-catalog-backend/internal/controller"
	"github.com/unclebandit/pricing-catalog-backend/internal/db"
	"github.com/unclebandit/pricing-catalog-backend/internal/handler"
	"github.com/unclebandit/pricing-catalog-backend/internal/logger"
	"github.com/unclebandit/pricing-catalog-backend/internal/media"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/queue"
	"github.com/unclebandit/pricing-catalog-backend/internal/ratelimit"
	"github.com/unclebandit/pricing-catalog-backend/internal/repository"
	"github.com/unclebandit/pricing-catalog-backend/internal/server"
	"github.com/unclebandit/pricing-catalog-backend/internal/service"
	"github.com/unclebandit/pricing-catalog-backend/internal/validation"
)

// catalogDeps is shared by every catalog kind.
type catalogDeps struct {
	db          *sqlx.DB
	adjustments *service.AdjustmentService
	images      model.ImageResolver
	cache       *cache.Cache
	queue       queue.Queue
	validator   *validation.Validator
}

func newCatalog[T model.Record, PT model.RecordPtr[T]](d catalogDeps, table model.Table) service.Catalog {
	repo := repository.NewRecordRepository[T](d.db, table)
	return service.NewCatalogService[T, PT](table, repo, d.adjustments, d.images, d.cache, d.queue, d.validator)
}

func main() {
	dotenv := config.LoadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	appLogger := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Environment})
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

	images := media.Resolver{
		SupabaseURL:     cfg.SupabaseURL,
		SanityProjectID: cfg.SanityProjectID,
		SanityDataset:   cfg.SanityDataset,
	}

	var (
		store  media.Store
		opener media.Opener
	)
	switch cfg.StorageBackend {
	case media.BackendGridFS:
		client, err := media.NewMongoClient(ctx, cfg.MongoURI)
		if err != nil {
			log.Fatal().Err(err).Msg("connect mongo")
		}
		defer client.Disconnect(context.Background())
		gridfs := media.NewGridFSStore(client, cfg.MongoDatabase, cfg.StorageBucket)
		store, opener = gridfs, gridfs
	default:
		store = media.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseServiceKey, cfg.StorageBucket)
	}

	listCache, err := cache.New(cfg.CacheMaxCost, cfg.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("create cache")
	}
	defer listCache.Close()

	q := queue.NewInMemoryQueue()
	if cfg.AMQPURL != "" {
		pub, err := queue.DialPublisher(cfg.AMQPURL, cfg.EventsExchange)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to RabbitMQ")
		}
		defer pub.Close()
		if err := queue.StartEventForwarder(q, pub, 5*time.Second); err != nil {
			log.Fatal().Err(err).Msg("subscribe event forwarder")
		}
	} else {
		log.Warn().Msg("AMQP_URL not set, change events stay in process")
	}

	v := validation.New()
	adjustments := &service.AdjustmentService{
		Repo:      &repository.PriceAdjustmentRepository{DB: database},
		Queue:     q,
		Validator: v,
		Cache:     listCache,
	}

	deps := catalogDeps{db: database, adjustments: adjustments, images: images, cache: listCache, queue: q, validator: v}
	catalogs := handler.NewCatalogs(
		newCatalog[model.Publication](deps, model.PublicationsTable),
		newCatalog[model.Listicle](deps, model.ListiclesTable),
		newCatalog[model.BestSeller](deps, model.BestSellersTable),
		newCatalog[model.BroadcastTV](deps, model.BroadcastTVTable),
		newCatalog[model.DigitalTV](deps, model.DigitalTVTable),
		newCatalog[model.SocialPost](deps, model.SocialPostsTable),
		newCatalog[model.Print](deps, model.PrintTable),
		newCatalog[model.PRBundle](deps, model.PRBundlesTable),
	)

	tabs := &service.TabService{Repo: &repository.TabVisibilityRepository{DB: database}, Queue: q}
	authn := auth.NewAuthenticator(
		auth.NewVerifier(cfg.SupabaseJWTSecret),
		&repository.AdminRepository{DB: database},
	)

	limiter := ratelimit.New(cfg.UploadRatePerSec, cfg.UploadBurst)
	defer limiter.Stop()

	srv := server.NewCatalogServer(appLogger)
	srv.CORSOrigins = cfg.CORSOrigins
	srv.Auth = authn
	srv.UploadLimiter = limiter
	srv.Public = &handler.CatalogHandler{Catalogs: catalogs, Tabs: tabs, Images: opener, Auth: authn, DB: database}
	srv.Admin = &controller.AdminController{
		Catalogs:    catalogs,
		Tabs:        tabs,
		Adjustments: adjustments,
		Audit:       &service.AuditService{Repo: &repository.AuditRepository{DB: database}},
		Uploads: &service.UploadService{
			Store:    store,
			Images:   images,
			MaxBytes: cfg.UploadMaxBytes,
			Timeout:  cfg.UploadTimeout,

			KeyTemplate: cfg.UploadKeyTemplate,
		},
		MaxUploadBytes: cfg.UploadMaxBytes + 1<<20,
	}
	srv.MountHandlers()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.UploadTimeout + 30*time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return appLogger.WithContext(context.Background()) },
	}

	go func() {
		log.Info().Str("addr", httpServer.Addr).Str("storage", cfg.StorageBackend).Msg("server running")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
	q.Wait()
	log.Info().Msg("server stopped")
}
