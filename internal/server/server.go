package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/unclebandit/pricing-catalog-backend/internal/auth"
	"github.com/unclebandit/pricing-catalog-backend/internal/controller"
	"github.com/unclebandit/pricing-catalog-backend/internal/handler"
	"github.com/unclebandit/pricing-catalog-backend/internal/logger"
	"github.com/unclebandit/pricing-catalog-backend/internal/ratelimit"
)

// CatalogServer owns the router and everything mounted on it.
type CatalogServer struct {
	Router *chi.Mux

	Logger        zerolog.Logger
	CORSOrigins   []string
	Auth          *auth.Authenticator
	Public        *handler.CatalogHandler
	Admin         *controller.AdminController
	UploadLimiter *ratelimit.KeyedLimiter
}

func NewCatalogServer(l zerolog.Logger) *CatalogServer {
	return &CatalogServer{Router: chi.NewRouter(), Logger: l}
}

func (s *CatalogServer) MountHandlers() {
	s.Router.Use(logger.RequestLogger(s.Logger))
	s.Router.Use(middleware.Recoverer)
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s.Router.Get("/healthz", s.Public.HealthHandler)
	s.Router.Route("/api", s.mountAPI)

	if s.Logger.GetLevel() <= zerolog.TraceLevel {
		walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
			log.Trace().Str("method", method).Str("route", route).Msg("route")
			return nil
		}
		if err := chi.Walk(s.Router, walk); err != nil {
			log.Warn().Err(err).Msg("walk routes")
		}
	}
}

func (s *CatalogServer) mountAPI(r chi.Router) {
	r.Get("/tab-visibility", s.Public.TabVisibilityHandler)
	r.Get("/images/{id}", s.Public.ImageHandler)

	r.With(s.Auth.RequireSession).Get("/me", s.Public.MeHandler)
	r.Route("/admin", s.mountAdmin)

	r.Get("/{kind}", s.Public.ListHandler)
}

func (s *CatalogServer) mountAdmin(r chi.Router) {
	r.Use(s.Auth.RequireSession, s.Auth.RequireAdmin)

	r.Put("/tab-visibility", s.Admin.SetTabVisibility)

	r.Get("/price-adjustments", s.Admin.ListAdjustments)
	r.Put("/price-adjustments", s.Admin.UpsertAdjustment)
	r.Delete("/price-adjustments/{id}", s.Admin.DeleteAdjustment)

	r.Get("/audit", s.Admin.ListAudit)

	r.Route("/records/{kind}", func(r chi.Router) {
		r.Post("/", s.Admin.CreateRecord)
		r.Get("/{id}", s.Admin.GetRecord)
		r.Put("/{id}", s.Admin.UpdateRecord)
		r.Delete("/{id}", s.Admin.DeleteRecord)
	})

	upload := r.With()
	if s.UploadLimiter != nil {
		upload = r.With(s.UploadLimiter.Middleware(uploadKey))
	}
	upload.Post("/upload", s.Admin.Upload)
}

// uploadKey limits per signed-in user, falling back to the client address.
func uploadKey(r *http.Request) string {
	if s, ok := auth.FromContext(r.Context()); ok && s.UserID != "" {
		return "user:" + s.UserID
	}
	return "ip:" + ratelimit.ClientIP(r)
}
