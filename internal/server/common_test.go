package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/pricing-catalog-backend/internal/auth"
	"github.com/unclebandit/pricing-catalog-backend/internal/cache"
	"github.com/unclebandit/pricing-catalog-backend/internal/controller"
	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/handler"
	"github.com/unclebandit/pricing-catalog-backend/internal/media"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
	"github.com/unclebandit/pricing-catalog-backend/internal/ratelimit"
	"github.com/unclebandit/pricing-catalog-backend/internal/service"
	"github.com/unclebandit/pricing-catalog-backend/internal/validation"
)

const testSecret = "router-secret"

type memRepo[T model.Record] struct {
	mu     sync.Mutex
	kind   string
	rows   map[int]T
	nextID int
}

func newMemRepo[T model.Record](kind string, rows ...T) *memRepo[T] {
	m := &memRepo[T]{kind: kind, rows: map[int]T{}}
	for _, r := range rows {
		m.rows[r.RecordID()] = r
		m.nextID = max(m.nextID, r.RecordID())
	}
	return m
}

func (m *memRepo[T]) List(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := []T{}
	for _, id := range ids {
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *memRepo[T]) GetByID(_ context.Context, id int) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, appErrors.NewRecordNotFound(m.kind, id)
	}
	return &r, nil
}

func (m *memRepo[T]) Create(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	any(rec).(interface{ SetRecordID(int) }).SetRecordID(m.nextID)
	m.rows[m.nextID] = *rec
	return nil
}

func (m *memRepo[T]) Update(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := (*rec).RecordID()
	if _, ok := m.rows[id]; !ok {
		return appErrors.NewRecordNotFound(m.kind, id)
	}
	m.rows[id] = *rec
	return nil
}

func (m *memRepo[T]) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return appErrors.NewRecordNotFound(m.kind, id)
	}
	delete(m.rows, id)
	return nil
}

type memTabs struct{ rows map[string]bool }

func (m *memTabs) List(context.Context) ([]model.TabVisibility, error) {
	var out []model.TabVisibility
	for k, v := range m.rows {
		out = append(out, model.TabVisibility{Tab: k, Visible: v})
	}
	return out, nil
}

func (m *memTabs) Set(_ context.Context, tab string, v bool) (*model.TabVisibility, error) {
	m.rows[tab] = v
	return &model.TabVisibility{Tab: tab, Visible: v}, nil
}

type memAdjustments struct{ list []pricing.Adjustment }

func (m *memAdjustments) List(context.Context) ([]pricing.Adjustment, error) { return m.list, nil }

func (m *memAdjustments) Upsert(_ context.Context, a *pricing.Adjustment) error {
	a.ID = len(m.list) + 1
	m.list = append(m.list, *a)
	return nil
}

func (m *memAdjustments) Delete(context.Context, int) error { return nil }

type memAudit struct{ entries []model.AuditEntry }

func (m *memAudit) Insert(_ context.Context, e *model.AuditEntry) (bool, error) {
	m.entries = append(m.entries, *e)
	return true, nil
}

func (m *memAudit) ListRecent(context.Context, int) ([]model.AuditEntry, error) { return m.entries, nil }

type memAdmins map[string]bool

func (m memAdmins) IsAdmin(_ context.Context, id string) (bool, error) { return m[id], nil }

type memStore struct{}

func (memStore) Put(_ context.Context, key, contentType string, r io.Reader, size int64) (media.Object, error) {
	_, _ = io.Copy(io.Discard, r)
	return media.Object{Backend: media.BackendSupabase, Bucket: "images", Path: key, ContentType: contentType, Size: size}, nil
}

type eventSink struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (q *eventSink) Publish(_ string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, payload.(model.ChangeEvent))
	return nil
}

func (q *eventSink) Subscribe(string, func(any) error) error { return nil }

type testEnv struct {
	server *CatalogServer
	events *eventSink
	tabs   *memTabs
	audit  *memAudit
	cache  *cache.Cache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	v := validation.New()
	events := &eventSink{}
	images := media.Resolver{SupabaseURL: "https://abc.supabase.co"}
	listCache, err := cache.New(1<<20, time.Minute)
	require.NoError(t, err)
	t.Cleanup(listCache.Close)
	adjustments := &service.AdjustmentService{Repo: &memAdjustments{}, Queue: events, Validator: v, Cache: listCache}

	publications := service.NewCatalogService[model.Publication, *model.Publication](
		model.PublicationsTable,
		newMemRepo("publications",
			model.Publication{ID: 1, Name: "A", Price: []float64{500}, Genres: "News"},
			model.Publication{ID: 2, Name: "B", Price: []float64{1500}, Genres: "Tech"},
		),
		adjustments, images, listCache, events, v,
	)
	prints := service.NewCatalogService[model.Print, *model.Print](
		model.PrintTable, newMemRepo[model.Print]("print"), adjustments, images, listCache, events, v,
	)
	catalogs := handler.NewCatalogs(publications, prints)

	tabs := &memTabs{rows: map[string]bool{}}
	tabService := &service.TabService{Repo: tabs, Queue: events}
	audit := &memAudit{}
	authn := auth.NewAuthenticator(auth.NewVerifier(testSecret), memAdmins{"listed-admin": true})

	limiter := ratelimit.New(0.001, 1)
	t.Cleanup(limiter.Stop)

	s := NewCatalogServer(zerolog.Nop())
	s.CORSOrigins = []string{"http://localhost:3000"}
	s.Auth = authn
	s.UploadLimiter = limiter
	s.Public = &handler.CatalogHandler{Catalogs: catalogs, Tabs: tabService, Auth: authn}
	s.Admin = &controller.AdminController{
		Catalogs:    catalogs,
		Tabs:        tabService,
		Adjustments: adjustments,
		Audit:       &service.AuditService{Repo: audit},
		Uploads: &service.UploadService{
			Store:    memStore{},
			Images:   images,
			MaxBytes: 1 << 20,
			Timeout:  time.Minute,
			NewID:    func() (string, error) { return "fixedid", nil },
		},
		MaxUploadBytes: 2 << 20,
	}
	s.MountHandlers()

	return &testEnv{server: s, events: events, tabs: tabs, audit: audit, cache: listCache}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	e.server.Router.ServeHTTP(rr, req)
	return rr
}

func bearer(t *testing.T, req *http.Request, userID, role string) *http.Request {
	t.Helper()
	tok, err := auth.Sign(testSecret, auth.Session{UserID: userID, Role: role}, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func jsonRequest(t *testing.T, method, url string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, url, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, url, kind string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("kind", kind))
	fw, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}
