package media_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/pricing-catalog-backend/internal/media"
)

func TestResolve(t *testing.T) {
	r := media.Resolver{
		SupabaseURL:     "https://abc.supabase.co/",
		SanityProjectID: "proj1",
	}

	tests := []struct {
		name string
		ref  string
		want string
	}{
		{"empty", "  ", ""},
		{"supabase metadata", `{"bucket":"images","path":"publications/a b.png"}`,
			"https://abc.supabase.co/storage/v1/object/public/images/publications/a%20b.png"},
		{"gridfs metadata", `{"backend":"gridfs","bucket":"images","path":"x.png","file_id":"65f0c0ffee"}`,
			"/api/images/65f0c0ffee"},
		{"legacy sanity ref", "image-abc123-800x600-png",
			"https://cdn.sanity.io/images/proj1/production/abc123-800x600.png"},
		{"absolute url", "https://example.com/logo.jpg", "https://example.com/logo.jpg"},
		{"broken json falls back to legacy", `{"bucket":`, `{"bucket":`},
		{"metadata without path falls back", `{"bucket":"images"}`, `{"bucket":"images"}`},
		{"unknown string passes through", "logo.jpg", "logo.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.ref))
		})
	}
}

func TestResolveSanityWithoutProject(t *testing.T) {
	r := media.Resolver{}
	assert.Equal(t, "image-abc123-800x600-png", r.Resolve("image-abc123-800x600-png"))
}

func TestObjectMarshalRoundTrip(t *testing.T) {
	o := media.Object{Backend: media.BackendSupabase, Bucket: "images", Path: "p/x.webp", ContentType: "image/webp", Size: 10}
	r := media.Resolver{SupabaseURL: "https://abc.supabase.co"}
	assert.Equal(t, "https://abc.supabase.co/storage/v1/object/public/images/p/x.webp", r.Resolve(o.Marshal()))
}

func TestSupabaseStorePut(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"Key":"images/publications/x.png"}`))
	}))
	defer srv.Close()

	s := media.NewSupabaseStore(srv.URL, "svc-key", "images")
	obj, err := s.Put(context.Background(), "publications/x.png", "image/png", strings.NewReader("data"), 4)
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/images/publications/x.png", gotPath)
	assert.Equal(t, "Bearer svc-key", gotAuth)
	assert.Equal(t, "image/png", gotType)
	assert.Equal(t, "data", gotBody)
	assert.Equal(t, media.Object{Backend: media.BackendSupabase, Bucket: "images", Path: "publications/x.png", ContentType: "image/png", Size: 4}, obj)
}

func TestSupabaseStorePutError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Duplicate"}`, http.StatusConflict)
	}))
	defer srv.Close()

	s := media.NewSupabaseStore(srv.URL, "svc-key", "images")
	_, err := s.Put(context.Background(), "x.png", "image/png", strings.NewReader("d"), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
	assert.Contains(t, err.Error(), "Duplicate")
}
