// internal/service/catalog_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/filter"
	"github.com/unclebandit/pricing-catalog-backend/internal/logger"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
	"github.com/unclebandit/pricing-catalog-backend/internal/queue"
	"github.com/unclebandit/pricing-catalog-backend/internal/repository"
	"github.com/unclebandit/pricing-catalog-backend/internal/validation"
)

// ListResult is the listing envelope: {data, priceAdjustments}.
type ListResult struct {
	Data             any                 `json:"data"`
	PriceAdjustments pricing.Adjustments `json:"priceAdjustments"`
}

// Catalog is the kind-agnostic view of a CatalogService used by the HTTP layer.
type Catalog interface {
	Kind() string
	List(ctx context.Context, c filter.Criteria) (*ListResult, error)
	Get(ctx context.Context, id int) (any, error)
	CreateJSON(ctx context.Context, actor string, body io.Reader) (any, error)
	UpdateJSON(ctx context.Context, actor string, id int, body io.Reader) (any, error)
	Delete(ctx context.Context, actor string, id int) error
}

// AdjustmentSource supplies the current price adjustments.
type AdjustmentSource interface {
	Grouped(ctx context.Context) (pricing.Adjustments, error)
}

// Invalidator drops the cached listings of one kind.
type Invalidator interface {
	Invalidate(kind string)
}

// ListCache stores prepared listings per kind. Set must drop a value whose
// generation is no longer current.
type ListCache interface {
	Invalidator
	Generation(group string) uint64
	Get(group, key string) (any, bool)
	Set(group string, gen uint64, key string, value any, cost int64) bool
}

// prepared is one kind's rows with adjustments applied and derived fields
// filled, before per-request filtering.
type prepared[T any] struct {
	records     []T
	adjustments []pricing.Adjustment
}

// approxRecordCost is the cache cost charged per row.
const approxRecordCost = 1 << 10

// CatalogService serves one catalog kind.
type CatalogService[T model.Record, PT model.RecordPtr[T]] struct {
	Table       model.Table
	Repo        repository.RecordRepositoryInterface[T]
	Adjustments AdjustmentSource
	Images      model.ImageResolver
	Cache       ListCache
	Queue       queue.Queue
	Validator   *validation.Validator
	Now         func() time.Time
}

func NewCatalogService[T model.Record, PT model.RecordPtr[T]](
	table model.Table,
	repo repository.RecordRepositoryInterface[T],
	adjustments AdjustmentSource,
	images model.ImageResolver,
	cache ListCache,
	q queue.Queue,
	v *validation.Validator,
) *CatalogService[T, PT] {
	return &CatalogService[T, PT]{
		Table:       table,
		Repo:        repo,
		Adjustments: adjustments,
		Images:      images,
		Cache:       cache,
		Queue:       q,
		Validator:   v,
		Now:         time.Now,
	}
}

func (s *CatalogService[T, PT]) Kind() string { return s.Table.Kind }

// Records returns the filtered, price-adjusted rows and the adjustments that
// were applied to them.
func (s *CatalogService[T, PT]) Records(ctx context.Context, c filter.Criteria) ([]T, []pricing.Adjustment, error) {
	p, err := s.prepare(ctx)
	if err != nil {
		return nil, nil, err
	}
	return filter.Apply(p.records, c), p.adjustments, nil
}

func (s *CatalogService[T, PT]) List(ctx context.Context, c filter.Criteria) (*ListResult, error) {
	records, adj, err := s.Records(ctx, c)
	if err != nil {
		return nil, err
	}
	out := &ListResult{Data: records, PriceAdjustments: pricing.Adjustments{}}
	if len(adj) > 0 {
		out.PriceAdjustments[s.Table.Name] = adj
	}
	return out, nil
}

func (s *CatalogService[T, PT]) prepare(ctx context.Context) (*prepared[T], error) {
	var gen uint64
	if s.Cache != nil {
		if v, ok := s.Cache.Get(s.Table.Kind, "prepared"); ok {
			if p, ok := v.(*prepared[T]); ok {
				return p, nil
			}
		}
		gen = s.Cache.Generation(s.Table.Kind)
	}

	records, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var adj pricing.Adjustments
	if s.Adjustments != nil {
		if adj, err = s.Adjustments.Grouped(ctx); err != nil {
			return nil, fmt.Errorf("load price adjustments: %w", err)
		}
	}
	apply := func(v float64) float64 { return pricing.ApplyAll(adj, s.Table.Name, v) }
	adjusted := pricing.IsPriceAdjusted(adj, s.Table.Name)

	for i := range records {
		rec := PT(&records[i])
		if adjusted {
			rec.AdjustPrices(apply)
		}
		rec.Enrich(s.Images)
	}

	p := &prepared[T]{records: records, adjustments: adj[s.Table.Name]}
	if s.Cache != nil {
		s.Cache.Set(s.Table.Kind, gen, "prepared", p, int64(len(records)+1)*approxRecordCost)
	}
	return p, nil
}

// Get returns the stored row without price adjustments.
func (s *CatalogService[T, PT]) Get(ctx context.Context, id int) (any, error) {
	return s.GetRecord(ctx, id)
}

func (s *CatalogService[T, PT]) GetRecord(ctx context.Context, id int) (*T, error) {
	rec, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	PT(rec).Enrich(s.Images)
	return rec, nil
}

func (s *CatalogService[T, PT]) Create(ctx context.Context, actor string, rec *T) error {
	PT(rec).SetRecordID(0)
	if err := s.validate(rec); err != nil {
		return err
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		return err
	}
	s.invalidate()
	PT(rec).Enrich(s.Images)
	s.publish(ctx, actor, PT(rec).RecordID(), model.ActionCreated)
	return nil
}

func (s *CatalogService[T, PT]) Update(ctx context.Context, actor string, id int, rec *T) error {
	PT(rec).SetRecordID(id)
	if err := s.validate(rec); err != nil {
		return err
	}
	if err := s.Repo.Update(ctx, rec); err != nil {
		return err
	}
	s.invalidate()
	PT(rec).Enrich(s.Images)
	s.publish(ctx, actor, id, model.ActionUpdated)
	return nil
}

func (s *CatalogService[T, PT]) Delete(ctx context.Context, actor string, id int) error {
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate()
	s.publish(ctx, actor, id, model.ActionDeleted)
	return nil
}

func (s *CatalogService[T, PT]) CreateJSON(ctx context.Context, actor string, body io.Reader) (any, error) {
	rec, err := decodeRecord[T](body)
	if err != nil {
		return nil, err
	}
	if err := s.Create(ctx, actor, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *CatalogService[T, PT]) UpdateJSON(ctx context.Context, actor string, id int, body io.Reader) (any, error) {
	rec, err := decodeRecord[T](body)
	if err != nil {
		return nil, err
	}
	if err := s.Update(ctx, actor, id, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *CatalogService[T, PT]) validate(rec *T) error {
	PT(rec).Normalize()
	if s.Validator == nil {
		return nil
	}
	return s.Validator.Validate(rec)
}

// invalidate runs before a write returns, so the caller's next read sees it.
func (s *CatalogService[T, PT]) invalidate() {
	if s.Cache != nil {
		s.Cache.Invalidate(s.Table.Kind)
	}
}

func (s *CatalogService[T, PT]) publish(ctx context.Context, actor string, id int, action string) {
	publishChange(ctx, s.Queue, model.ChangeEvent{
		ID:         logger.NewEventID(),
		Kind:       s.Table.Kind,
		RecordID:   id,
		Action:     action,
		Actor:      actor,
		OccurredAt: now(s.Now),
	})
}

// publishChange never fails the write that triggered it.
func publishChange(ctx context.Context, q queue.Queue, e model.ChangeEvent) {
	if q == nil {
		return
	}
	if err := q.Publish(queue.TopicCatalogChanges, e); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("kind", e.Kind).Str("action", e.Action).
			Msg("change event not published")
	}
}

func decodeRecord[T any](body io.Reader) (*T, error) {
	var rec T
	if err := json.NewDecoder(body).Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, appErrors.Validation("request body is empty")
		}
		return nil, appErrors.Validationf("invalid JSON body: %v", err)
	}
	return &rec, nil
}
