package service_test

import (
	"context"
	"sort"
	"strings"
	"sync"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
	"github.com/unclebandit/pricing-catalog-backend/internal/model"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
)

// MockRecordRepo keeps rows of one kind in memory.
type MockRecordRepo[T model.Record] struct {
	mu        sync.Mutex
	kind      string
	rows      map[int]T
	nextID    int
	listCalls int
}

func NewMockRecordRepo[T model.Record](kind string, rows ...T) *MockRecordRepo[T] {
	m := &MockRecordRepo[T]{kind: kind, rows: map[int]T{}}
	for _, r := range rows {
		m.rows[r.RecordID()] = r
		if r.RecordID() > m.nextID {
			m.nextID = r.RecordID()
		}
	}
	return m
}

func (m *MockRecordRepo[T]) List(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	ids := make([]int, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *MockRecordRepo[T]) GetByID(_ context.Context, id int) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rows[id]
	if !ok {
		return nil, appErrors.NewRecordNotFound(m.kind, id)
	}
	return &r, nil
}

func (m *MockRecordRepo[T]) Create(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	any(rec).(interface{ SetRecordID(int) }).SetRecordID(m.nextID)
	m.rows[m.nextID] = *rec
	return nil
}

func (m *MockRecordRepo[T]) Update(_ context.Context, rec *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := (*rec).RecordID()
	if _, ok := m.rows[id]; !ok {
		return appErrors.NewRecordNotFound(m.kind, id)
	}
	m.rows[id] = *rec
	return nil
}

func (m *MockRecordRepo[T]) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return appErrors.NewRecordNotFound(m.kind, id)
	}
	delete(m.rows, id)
	return nil
}

// MockQueue records published payloads synchronously.
type MockQueue struct {
	mu     sync.Mutex
	events []model.ChangeEvent
}

func (q *MockQueue) Publish(_ string, payload any) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, payload.(model.ChangeEvent))
	return nil
}

func (q *MockQueue) Subscribe(string, func(any) error) error { return nil }

func (q *MockQueue) Events() []model.ChangeEvent {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]model.ChangeEvent(nil), q.events...)
}

type StubAdjustments pricing.Adjustments

func (s StubAdjustments) Grouped(context.Context) (pricing.Adjustments, error) {
	return pricing.Adjustments(s), nil
}

type PrefixResolver string

func (p PrefixResolver) Resolve(ref string) string { return string(p) + ref }

// MapCache is a synchronous ListCache that records invalidated kinds.
type MapCache struct {
	mu          sync.Mutex
	entries     map[string]any
	gens        map[string]uint64
	invalidated []string
}

func NewMapCache() *MapCache {
	return &MapCache{entries: map[string]any{}, gens: map[string]uint64{}}
}

func (c *MapCache) Generation(group string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[group]
}

func (c *MapCache) Get(group, key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[group+"|"+key]
	return v, ok
}

func (c *MapCache) Set(group string, gen uint64, key string, value any, _ int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[group] != gen {
		return false
	}
	c.entries[group+"|"+key] = value
	return true
}

func (c *MapCache) Invalidate(group string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[group]++
	c.invalidated = append(c.invalidated, group)
	for k := range c.entries {
		if strings.HasPrefix(k, group+"|") {
			delete(c.entries, k)
		}
	}
}

func (c *MapCache) Invalidated() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.invalidated...)
}
