package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
	"github.com/unclebandit/pricing-catalog-backend/internal/service"
	"github.com/unclebandit/pricing-catalog-backend/internal/validation"
)

type MockTabRepo struct {
	rows map[string]bool
}

func (m *MockTabRepo) List(context.Context) ([]model.TabVisibility, error) {
	var out []model.TabVisibility
	for tab, v := range m.rows {
		out = append(out, model.TabVisibility{Tab: tab, Visible: v})
	}
	return out, nil
}

func (m *MockTabRepo) Set(_ context.Context, tab string, visible bool) (*model.TabVisibility, error) {
	m.rows[tab] = visible
	return &model.TabVisibility{Tab: tab, Visible: visible}, nil
}

func TestTabVisibilityDefaultsToVisible(t *testing.T) {
	svc := &service.TabService{Repo: &MockTabRepo{rows: map[string]bool{"print": false, "retired-tab": false}}}

	got, err := svc.Visibility(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, len(model.Tabs))
	assert.False(t, got["print"])
	assert.True(t, got["publications"])
	assert.NotContains(t, got, "retired-tab")
}

func TestSetVisibility(t *testing.T) {
	repo := &MockTabRepo{rows: map[string]bool{}}
	q := &MockQueue{}
	svc := &service.TabService{Repo: repo, Queue: q}

	_, err := svc.SetVisibility(context.Background(), "admin", map[string]bool{"print": false, "bogus": true})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, repo.rows, "nothing written when any tab is unknown")

	got, err := svc.SetVisibility(context.Background(), "admin", map[string]bool{"digital-tv": false})
	require.NoError(t, err)
	assert.False(t, got["digital-tv"])
	require.Len(t, q.Events(), 1)
	assert.Equal(t, model.KindTabVisibility, q.Events()[0].Kind)
}

type MockAdjustmentRepo struct {
	list    []pricing.Adjustment
	deleted []int
}

func (m *MockAdjustmentRepo) List(context.Context) ([]pricing.Adjustment, error) { return m.list, nil }

func (m *MockAdjustmentRepo) Upsert(_ context.Context, a *pricing.Adjustment) error {
	if a.ID == 0 {
		a.ID = len(m.list) + 1
		m.list = append(m.list, *a)
		return nil
	}
	for i := range m.list {
		if m.list[i].ID == a.ID {
			m.list[i] = *a
			return nil
		}
	}
	return appErrors.NotFoundf("price adjustment %d not found", a.ID)
}

func (m *MockAdjustmentRepo) Delete(_ context.Context, id int) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func TestAdjustmentUpsert(t *testing.T) {
	repo := &MockAdjustmentRepo{}
	q := &MockQueue{}
	c := NewMapCache()
	svc := &service.AdjustmentService{Repo: repo, Queue: q, Validator: validation.New(), Cache: c}
	ctx := context.Background()

	tests := []struct {
		name string
		adj  pricing.Adjustment
	}{
		{"unknown table", pricing.Adjustment{TableName: "campaigns", Kind: "fixed", Value: 5}},
		{"bad kind", pricing.Adjustment{TableName: "publications", Kind: "double", Value: 5}},
		{"inverted band", pricing.Adjustment{TableName: "publications", Kind: "fixed", Value: 5, MinPrice: floatPtr(10), MaxPrice: floatPtr(1)}},
		{"wipes prices", pricing.Adjustment{TableName: "publications", Kind: "percentage", Value: -100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.adj
			err := svc.Upsert(ctx, "admin", &a)
			assert.True(t, errors.Is(err, appErrors.ErrValidation), err)
		})
	}
	assert.Empty(t, repo.list)

	a := &pricing.Adjustment{TableName: "best_sellers", Kind: "percentage", Value: 15}
	require.NoError(t, svc.Upsert(ctx, "admin", a))
	assert.Equal(t, 1, a.ID)

	events := q.Events()
	require.Len(t, events, 1)
	assert.Equal(t, "best-sellers", events[0].Kind)
	assert.Equal(t, model.ActionPriceAdjusted, events[0].Action)
	assert.Equal(t, []string{"best-sellers"}, c.Invalidated())

	grouped, err := svc.Grouped(ctx)
	require.NoError(t, err)
	assert.Len(t, grouped["best_sellers"], 1)

	require.NoError(t, svc.Delete(ctx, "admin", 1))
	assert.Equal(t, []int{1}, repo.deleted)
	assert.Len(t, q.Events(), 2)
	assert.Equal(t, []string{"best-sellers", "best-sellers"}, c.Invalidated())
}

func TestAdjustmentMovedToAnotherTable(t *testing.T) {
	repo := &MockAdjustmentRepo{list: []pricing.Adjustment{
		{ID: 1, TableName: "listicles", Kind: "fixed", Value: 50},
	}}
	q := &MockQueue{}
	c := NewMapCache()
	svc := &service.AdjustmentService{Repo: repo, Queue: q, Validator: validation.New(), Cache: c}

	moved := &pricing.Adjustment{ID: 1, TableName: "print_publications", Kind: "fixed", Value: 50}
	require.NoError(t, svc.Upsert(context.Background(), "admin", moved))

	assert.ElementsMatch(t, []string{"print", "listicles"}, c.Invalidated())
	var kinds []string
	for _, e := range q.Events() {
		kinds = append(kinds, e.Kind)
	}
	assert.ElementsMatch(t, []string{"print", "listicles"}, kinds)

	require.NoError(t, svc.Upsert(context.Background(), "admin",
		&pricing.Adjustment{ID: 1, TableName: "print_publications", Kind: "fixed", Value: 75}))
	assert.Len(t, c.Invalidated(), 3, "same table only invalidates once")
}

type MockAuditRepo struct {
	entries   []model.AuditEntry
	lastLimit int
}

func (m *MockAuditRepo) Insert(_ context.Context, e *model.AuditEntry) (bool, error) {
	for _, x := range m.entries {
		if x.EventID == e.EventID {
			return false, nil
		}
	}
	m.entries = append(m.entries, *e)
	return true, nil
}

func (m *MockAuditRepo) ListRecent(_ context.Context, limit int) ([]model.AuditEntry, error) {
	m.lastLimit = limit
	return m.entries, nil
}

func TestAuditService(t *testing.T) {
	repo := &MockAuditRepo{}
	svc := &service.AuditService{Repo: repo}
	ctx := context.Background()

	e := model.ChangeEvent{ID: "ev-1", Kind: "print", RecordID: 2, Action: model.ActionCreated}
	wrote, err := svc.Record(ctx, e)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = svc.Record(ctx, e)
	require.NoError(t, err)
	assert.False(t, wrote)

	_, err = svc.Record(ctx, model.ChangeEvent{Kind: "print"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	for limit, want := range map[int]int{0: 50, 10: 10, 10000: 500} {
		_, err := svc.Recent(ctx, limit)
		require.NoError(t, err)
		assert.Equal(t, want, repo.lastLimit)
	}
}
