// internal/model/placement.go
package model

import (
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/pricing-catalog-backend/internal/filter"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
)

var SocialPostsTable = Table{
	Kind:    "social-posts",
	Name:    "social_posts",
	Columns: []string{"publication", "image", "platforms", "price", "example_url"},
}

var PrintTable = Table{
	Kind:    "print",
	Name:    "print_publications",
	Columns: []string{"magazine", "price", "link", "image"},
}

var PRBundlesTable = Table{
	Kind:    "pr-bundles",
	Name:    "pr_bundles",
	Columns: []string{"category", "bundle_name", "retail_value", "price", "publications"},
}

type SocialPost struct {
	ID          int        `db:"id" json:"id"`
	Publication string     `db:"publication" json:"publication" validate:"required,max=200"`
	Image       string     `db:"image" json:"image"`
	Platforms   string     `db:"platforms" json:"platforms"`
	Price       string     `db:"price" json:"price"`
	ExampleURL  string     `db:"example_url" json:"example_url" validate:"omitempty,url"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	ImageURL     string   `db:"-" json:"image_url,omitempty"`
	PlatformList []string `db:"-" json:"platform_list,omitempty"`
}

func (s SocialPost) RecordID() int { return s.ID }

func (s *SocialPost) SetRecordID(id int) { s.ID = id }

func (s SocialPost) Facets() filter.Facets {
	price, ok := pricing.MinAmount(s.Price)
	return filter.Facets{
		Name:     s.Publication,
		Price:    price,
		HasPrice: ok,
		Types:    pricing.SplitList(s.Platforms),
	}
}

func (s *SocialPost) Normalize() {
	s.Publication = strings.TrimSpace(s.Publication)
	s.Platforms = pricing.JoinList(pricing.SplitList(s.Platforms))
}

func (s *SocialPost) AdjustPrices(fn func(float64) float64) {
	s.Price = pricing.AdjustString(s.Price, fn)
}

func (s *SocialPost) Enrich(images ImageResolver) {
	s.ImageURL = resolveImage(images, s.Image)
	s.PlatformList = pricing.SplitList(s.Platforms)
}

type Print struct {
	ID        int        `db:"id" json:"id"`
	Magazine  string     `db:"magazine" json:"magazine" validate:"required,max=200"`
	Price     string     `db:"price" json:"price"`
	Link      string     `db:"link" json:"link" validate:"omitempty,url"`
	Image     string     `db:"image" json:"image"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	ImageURL string `db:"-" json:"image_url,omitempty"`
}

func (p Print) RecordID() int { return p.ID }

func (p *Print) SetRecordID(id int) { p.ID = id }

func (p Print) Facets() filter.Facets {
	price, ok := pricing.MinAmount(p.Price)
	return filter.Facets{Name: p.Magazine, Price: price, HasPrice: ok}
}

func (p *Print) Normalize() {
	p.Magazine = strings.TrimSpace(p.Magazine)
}

func (p *Print) AdjustPrices(fn func(float64) float64) {
	p.Price = pricing.AdjustString(p.Price, fn)
}

func (p *Print) Enrich(images ImageResolver) {
	p.ImageURL = resolveImage(images, p.Image)
}

// PRBundle is a package of placements sold at one price.
type PRBundle struct {
	ID           int            `db:"id" json:"id"`
	Category     string         `db:"category" json:"category" validate:"required"`
	BundleName   string         `db:"bundle_name" json:"bundle_name" validate:"required,max=200"`
	RetailValue  string         `db:"retail_value" json:"retail_value"`
	Price        string         `db:"price" json:"price"`
	Publications pq.StringArray `db:"publications" json:"publications"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
}

func (b PRBundle) RecordID() int { return b.ID }

func (b *PRBundle) SetRecordID(id int) { b.ID = id }

func (b PRBundle) Facets() filter.Facets {
	price, ok := pricing.MinAmount(b.Price)
	return filter.Facets{
		Name:     b.BundleName,
		Price:    price,
		HasPrice: ok,
		Types:    nonEmpty(b.Category),
	}
}

func (b *PRBundle) Normalize() {
	b.BundleName = strings.TrimSpace(b.BundleName)
	b.Category = strings.TrimSpace(b.Category)
	// never nil: a nil array is written as NULL
	b.Publications = append(pq.StringArray{}, nonEmpty(b.Publications...)...)
}

func (b *PRBundle) AdjustPrices(fn func(float64) float64) {
	b.Price = pricing.AdjustString(b.Price, fn)
}

func (b *PRBundle) Enrich(ImageResolver) {}
