// internal/service/upload_service.go
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/media"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
)

// sniffLen matches mimetype's default read limit.
const sniffLen = 3072

var allowedImageTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif", "image/avif"}

// UploadResult is returned to the admin portal. Reference is the value to
// store in a record's image column.
type UploadResult struct {
	Object    media.Object `json:"object"`
	Reference string       `json:"reference"`
	URL       string       `json:"url"`
}

type UploadService struct {
	Store    media.Store
	Images   model.ImageResolver
	MaxBytes int64
	Timeout  time.Duration
	NewID    func() (string, error)

	// KeyTemplate accepts {kind}, {id}, {ext} and {date}. Empty means DefaultKeyTemplate.
	KeyTemplate string
	Now         func() time.Time
}

// Upload stores an image for kind. size is the declared length; the stream
// is also capped at MaxBytes while reading.
func (s *UploadService) Upload(ctx context.Context, kind string, r io.Reader, size int64) (*UploadResult, error) {
	if _, ok := model.TableByKind(kind); !ok {
		return nil, appErrors.Validationf("unknown kind %q", kind)
	}
	if size <= 0 {
		return nil, appErrors.Validation("file is empty")
	}
	if s.MaxBytes > 0 && size > s.MaxBytes {
		return nil, appErrors.Validationf("file exceeds %d bytes", s.MaxBytes)
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]

	mtype := mimetype.Detect(head)
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return nil, appErrors.Unsupported(fmt.Sprintf("unsupported file type %s", mtype.String()))
	}

	id, err := s.newID()
	if err != nil {
		return nil, fmt.Errorf("generate object key: %w", err)
	}
	key := objectKey(s.KeyTemplate, map[string]string{
		"kind": kind,
		"id":   id,
		"ext":  mtype.Extension(),
		"date": now(s.Now).Format("2006-01-02"),
	})

	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	body := io.MultiReader(bytes.NewReader(head), r)
	if s.MaxBytes > 0 {
		body = io.LimitReader(body, s.MaxBytes)
	}

	obj, err := s.Store.Put(ctx, key, mtype.String(), body, size)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, appErrors.Wrap(err, appErrors.CodeInternal, "upload timed out")
		}
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("key", key).Str("backend", obj.Backend).
		Int64("size", size).Str("content_type", obj.ContentType).Msg("image uploaded")

	ref := obj.Marshal()
	out := &UploadResult{Object: obj, Reference: ref}
	if s.Images != nil {
		out.URL = s.Images.Resolve(ref)
	}
	return out, nil
}

func (s *UploadService) newID() (string, error) {
	if s.NewID != nil {
		return s.NewID()
	}
	return gonanoid.New()
}
