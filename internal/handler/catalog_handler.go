// internal/handler/catalog_handler.go
package handler

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/unclebandit/pricing-catalog-backend/internal/auth"
	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/filter"
	"github.com/unclebandit/pricing-catalog-backend/internal/media"
	"github.com/unclebandit/pricing-catalog-backend/internal/response"
	"github.com/unclebandit/pricing-catalog-backend/internal/service"
)

// CatalogHandler serves the public, read-only side of the catalog.
type CatalogHandler struct {
	Catalogs map[string]service.Catalog
	Tabs     *service.TabService
	Images   media.Opener
	Auth     *auth.Authenticator
	DB       Pinger
}

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewCatalogs indexes catalog services by kind.
func NewCatalogs(catalogs ...service.Catalog) map[string]service.Catalog {
	out := make(map[string]service.Catalog, len(catalogs))
	for _, c := range catalogs {
		out[c.Kind()] = c
	}
	return out
}

// Lookup resolves the {kind} URL parameter.
func Lookup(catalogs map[string]service.Catalog, r *http.Request) (service.Catalog, error) {
	kind := chi.URLParam(r, "kind")
	c, ok := catalogs[kind]
	if !ok {
		return nil, appErrors.NotFoundf("unknown catalog %q", kind)
	}
	return c, nil
}

// ListHandler returns {data, priceAdjustments}, or the bare data array when
// raw=1 is set.
func (h *CatalogHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	catalog, err := Lookup(h.Catalogs, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	q := r.URL.Query()
	criteria, err := filter.ParseCriteria(q)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	result, err := catalog.List(r.Context(), criteria)
	if err != nil {
		response.Error(w, r, err)
		return
	}

	if raw, _ := strconv.ParseBool(q.Get("raw")); raw {
		response.OK(w, r, result.Data)
		return
	}
	response.OK(w, r, result)
}

// TabVisibilityHandler returns {tab: visible} for every tab.
func (h *CatalogHandler) TabVisibilityHandler(w http.ResponseWriter, r *http.Request) {
	tabs, err := h.Tabs.Visibility(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, tabs)
}

// ImageHandler streams an image kept by the GridFS backend.
func (h *CatalogHandler) ImageHandler(w http.ResponseWriter, r *http.Request) {
	if h.Images == nil {
		response.Error(w, r, appErrors.NotFoundf("image storage is not served here"))
		return
	}

	rc, contentType, err := h.Images.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400, immutable")
	if _, err := io.Copy(w, rc); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("image stream interrupted")
	}
}

// MeHandler reports who the caller is and whether they may use the admin portal.
func (h *CatalogHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	s, ok := auth.FromContext(r.Context())
	if !ok {
		response.Error(w, r, appErrors.Unauthorized("no session"))
		return
	}
	isAdmin, err := h.Auth.IsAdmin(r.Context(), s)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, map[string]any{
		"user_id":  s.UserID,
		"email":    s.Email,
		"is_admin": isAdmin,
	})
}

// HealthHandler reports database reachability.
func (h *CatalogHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.PingContext(r.Context()); err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("health check failed")
			response.JSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	response.OK(w, r, map[string]string{"status": "ok"})
}
