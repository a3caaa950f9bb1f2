package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	BackendSupabase = "supabase"
	BackendGridFS   = "gridfs"
)

// Store writes uploaded objects.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (Object, error)
}

// Opener is implemented by stores that serve their own objects.
type Opener interface {
	Open(ctx context.Context, fileID string) (io.ReadCloser, string, error)
}

// SupabaseStore uploads through the Supabase Storage REST API with the service key.
type SupabaseStore struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	Client     *http.Client
}

func NewSupabaseStore(baseURL, serviceKey, bucket string) *SupabaseStore {
	return &SupabaseStore{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		Client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

func (s *SupabaseStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (Object, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, escapePath(key))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, r)
	if err != nil {
		return Object{}, fmt.Errorf("supabase storage: build request: %w", err)
	}
	req.ContentLength = size
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("apikey", s.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")

	resp, err := s.Client.Do(req)
	if err != nil {
		return Object{}, fmt.Errorf("supabase storage: upload %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Object{}, fmt.Errorf("supabase storage: upload %s: status %d: %s",
			key, resp.StatusCode, bytes.TrimSpace(body))
	}

	return Object{
		Backend:     BackendSupabase,
		Bucket:      s.Bucket,
		Path:        key,
		ContentType: contentType,
		Size:        size,
	}, nil
}
