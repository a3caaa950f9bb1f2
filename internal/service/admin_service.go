// internal/service/admin_service.go
package service

import (
	"context"
	"fmt"
	"time"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/logger"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
	"github.com/unclebandit/pricing-catalog-backend/internal/queue"
	"github.com/unclebandit/pricing-catalog-backend/internal/repository"
	"github.com/unclebandit/pricing-catalog-backend/internal/validation"
)

// TabService reads and toggles catalog tab visibility.
type TabService struct {
	Repo  repository.TabVisibilityRepositoryInterface
	Queue queue.Queue
	Now   func() time.Time
}

// Visibility returns every known tab; tabs without a stored row are visible.
func (s *TabService) Visibility(ctx context.Context) (map[string]bool, error) {
	rows, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(model.Tabs))
	for _, tab := range model.Tabs {
		out[tab] = true
	}
	for _, r := range rows {
		if _, known := out[r.Tab]; known {
			out[r.Tab] = r.Visible
		}
	}
	return out, nil
}

// SetVisibility applies every entry of changes, rejecting unknown tabs
// before writing anything.
func (s *TabService) SetVisibility(ctx context.Context, actor string, changes map[string]bool) (map[string]bool, error) {
	if len(changes) == 0 {
		return nil, appErrors.Validation("no tabs given")
	}
	for tab := range changes {
		if _, ok := model.TableByKind(tab); !ok {
			return nil, appErrors.Validationf("unknown tab %q", tab)
		}
	}
	for tab, visible := range changes {
		if _, err := s.Repo.Set(ctx, tab, visible); err != nil {
			return nil, err
		}
		publishChange(ctx, s.Queue, model.ChangeEvent{
			ID:         logger.NewEventID(),
			Kind:       model.KindTabVisibility,
			Action:     model.ActionVisibility,
			Actor:      actor,
			OccurredAt: now(s.Now),
		})
	}
	return s.Visibility(ctx)
}

// AdjustmentService manages per-table price adjustments.
type AdjustmentService struct {
	Repo      repository.PriceAdjustmentRepositoryInterface
	Queue     queue.Queue
	Validator *validation.Validator
	// Cache holds the adjusted listings; writes invalidate the affected kinds.
	Cache Invalidator
	Now   func() time.Time
}

func (s *AdjustmentService) Grouped(ctx context.Context) (pricing.Adjustments, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return pricing.GroupAdjustments(list), nil
}

// Upsert validates a, stores it, then drops the cached listings of every
// kind whose prices it changed and publishes a change for each.
func (s *AdjustmentService) Upsert(ctx context.Context, actor string, a *pricing.Adjustment) error {
	if s.Validator != nil {
		if err := s.Validator.Validate(a); err != nil {
			return err
		}
	}
	table, ok := model.TableByName(a.TableName)
	if !ok {
		return appErrors.Validationf("unknown table %q", a.TableName)
	}
	if a.MinPrice != nil && a.MaxPrice != nil && *a.MinPrice > *a.MaxPrice {
		return appErrors.Validation("min_price must not exceed max_price")
	}
	if a.Kind == pricing.KindPercentage && a.Value <= -100 {
		return appErrors.Validation("percentage must be greater than -100")
	}

	// An update may move the adjustment to another table; that table loses
	// the markup and its listings change too.
	var previous string
	if a.ID != 0 {
		var err error
		if previous, err = s.storedKind(ctx, a.ID); err != nil {
			return err
		}
	}

	if err := s.Repo.Upsert(ctx, a); err != nil {
		return err
	}
	s.changed(ctx, actor, table.Kind, a.ID)
	if previous != "" && previous != table.Kind {
		s.changed(ctx, actor, previous, a.ID)
	}
	return nil
}

func (s *AdjustmentService) Delete(ctx context.Context, actor string, id int) error {
	kind, err := s.storedKind(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		return err
	}
	if kind != "" {
		s.changed(ctx, actor, kind, id)
	}
	return nil
}

// storedKind returns the catalog kind the stored adjustment id applies to,
// or "" when there is no such row.
func (s *AdjustmentService) storedKind(ctx context.Context, id int) (string, error) {
	list, err := s.Repo.List(ctx)
	if err != nil {
		return "", err
	}
	for _, a := range list {
		if a.ID != id {
			continue
		}
		if t, ok := model.TableByName(a.TableName); ok {
			return t.Kind, nil
		}
	}
	return "", nil
}

func (s *AdjustmentService) changed(ctx context.Context, actor, kind string, id int) {
	if s.Cache != nil {
		s.Cache.Invalidate(kind)
	}
	s.publish(ctx, actor, kind, id)
}

func (s *AdjustmentService) publish(ctx context.Context, actor, kind string, id int) {
	publishChange(ctx, s.Queue, model.ChangeEvent{
		ID:         logger.NewEventID(),
		Kind:       kind,
		RecordID:   id,
		Action:     model.ActionPriceAdjusted,
		Actor:      actor,
		OccurredAt: now(s.Now),
	})
}

// AuditService records and lists catalog changes.
type AuditService struct {
	Repo repository.AuditRepositoryInterface
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 500
)

func (s *AuditService) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	switch {
	case limit <= 0:
		limit = defaultAuditLimit
	case limit > maxAuditLimit:
		limit = maxAuditLimit
	}
	return s.Repo.ListRecent(ctx, limit)
}

// Record stores e once; redelivered events report false.
func (s *AuditService) Record(ctx context.Context, e model.ChangeEvent) (bool, error) {
	if e.ID == "" || e.Kind == "" || e.Action == "" {
		return false, appErrors.Validation("event is missing id, kind or action")
	}
	entry := model.AuditEntryFromEvent(e)
	wrote, err := s.Repo.Insert(ctx, &entry)
	if err != nil {
		return false, fmt.Errorf("record event %s: %w", e.ID, err)
	}
	return wrote, nil
}

func now(fn func() time.Time) time.Time {
	if fn == nil {
		return time.Now().UTC()
	}
	return fn().UTC()
}
