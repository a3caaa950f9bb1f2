// internal/controller/admin_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/unclebandit/pricing-catalog-backend/internal/auth"
	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/handler"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
	"github.com/unclebandit/pricing-catalog-backend/internal/response"
	"github.com/unclebandit/pricing-catalog-backend/internal/service"
)

// AdminController serves the admin portal. Every route sits behind
// RequireSession and RequireAdmin.
type AdminController struct {
	Catalogs    map[string]service.Catalog
	Tabs        *service.TabService
	Adjustments *service.AdjustmentService
	Audit       *service.AuditService
	Uploads     *service.UploadService

	// MaxUploadBytes caps the multipart body, on top of the service's file limit.
	MaxUploadBytes int64
}

func actor(r *http.Request) string {
	s, _ := auth.FromContext(r.Context())
	return s.UserID
}

func idParam(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, appErrors.Validationf("invalid id %q", raw)
	}
	return id, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return appErrors.Validationf("invalid JSON body: %v", err)
	}
	return nil
}

func (c *AdminController) GetRecord(w http.ResponseWriter, r *http.Request) {
	catalog, err := handler.Lookup(c.Catalogs, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	rec, err := catalog.Get(r.Context(), id)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, rec)
}

func (c *AdminController) CreateRecord(w http.ResponseWriter, r *http.Request) {
	catalog, err := handler.Lookup(c.Catalogs, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	rec, err := catalog.CreateJSON(r.Context(), actor(r), r.Body)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, rec)
}

func (c *AdminController) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	catalog, err := handler.Lookup(c.Catalogs, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	rec, err := catalog.UpdateJSON(r.Context(), actor(r), id, r.Body)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, rec)
}

func (c *AdminController) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	catalog, err := handler.Lookup(c.Catalogs, r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	id, err := idParam(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := catalog.Delete(r.Context(), actor(r), id); err != nil {
		response.Error(w, r, err)
		return
	}
	response.NoContent(w)
}

// SetTabVisibility accepts {"tab": visible, ...}.
func (c *AdminController) SetTabVisibility(w http.ResponseWriter, r *http.Request) {
	var body map[string]bool
	if err := decode(r, &body); err != nil {
		response.Error(w, r, err)
		return
	}
	tabs, err := c.Tabs.SetVisibility(r.Context(), actor(r), body)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, tabs)
}

// adjustmentView adds the tooltip text to each adjustment.
type adjustmentView struct {
	pricing.Adjustment
	Description string `json:"description"`
}

func (c *AdminController) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	grouped, err := c.Adjustments.Grouped(r.Context())
	if err != nil {
		response.Error(w, r, err)
		return
	}
	out := make(map[string][]adjustmentView, len(grouped))
	for table, list := range grouped {
		for _, a := range list {
			out[table] = append(out[table], adjustmentView{Adjustment: a, Description: pricing.DescribeAdjustment(a)})
		}
	}
	response.OK(w, r, out)
}

// UpsertAdjustment creates an adjustment when the body has no id and
// replaces the stored one otherwise.
func (c *AdminController) UpsertAdjustment(w http.ResponseWriter, r *http.Request) {
	var a pricing.Adjustment
	if err := decode(r, &a); err != nil {
		response.Error(w, r, err)
		return
	}
	if err := c.Adjustments.Upsert(r.Context(), actor(r), &a); err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, adjustmentView{Adjustment: a, Description: pricing.DescribeAdjustment(a)})
}

func (c *AdminController) DeleteAdjustment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	if err := c.Adjustments.Delete(r.Context(), actor(r), id); err != nil {
		response.Error(w, r, err)
		return
	}
	response.NoContent(w)
}

func (c *AdminController) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := c.Audit.Recent(r.Context(), limit)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.OK(w, r, map[string]any{"data": entries})
}

// Upload accepts multipart/form-data with a "file" part and a "kind" field.
func (c *AdminController) Upload(w http.ResponseWriter, r *http.Request) {
	if c.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, c.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(w, r, appErrors.Validationf("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		response.Error(w, r, appErrors.Validationf("invalid multipart body: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.Error(w, r, appErrors.Validation(`missing "file" part`))
		return
	}
	defer file.Close()

	res, err := c.Uploads.Upload(r.Context(), r.FormValue("kind"), file, header.Size)
	if err != nil {
		response.Error(w, r, err)
		return
	}
	response.Created(w, r, res)
}
