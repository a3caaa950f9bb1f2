// internal/model/listicle.go
package model

import (
	"strings"
	"time"

	"github.com/unclebandit/pricing-catalog-backend/internal/filter"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
)

var ListiclesTable = Table{
	Kind:    "listicles",
	Name:    "listicles",
	Columns: []string{"publication", "image", "genres", "price", "da", "dr", "example_url", "regions"},
}

var BestSellersTable = Table{
	Kind:    "best-sellers",
	Name:    "best_sellers",
	Columns: []string{"publication", "image", "genres", "price", "da", "dr", "tat", "example_url", "regions"},
}

// Listicle is a ranked placement; Price reads like "Top 5 : $2,750 Top 10 : $4,000".
type Listicle struct {
	ID          int        `db:"id" json:"id"`
	Publication string     `db:"publication" json:"publication" validate:"required,max=200"`
	Image       string     `db:"image" json:"image"`
	Genres      string     `db:"genres" json:"genres"`
	Price       string     `db:"price" json:"price" validate:"required"`
	DA          string     `db:"da" json:"da" validate:"omitempty,numeric"`
	DR          string     `db:"dr" json:"dr" validate:"omitempty,numeric"`
	ExampleURL  string     `db:"example_url" json:"example_url" validate:"omitempty,url"`
	Regions     string     `db:"regions" json:"regions"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	ImageURL   string                 `db:"-" json:"image_url,omitempty"`
	PriceTiers pricing.FormattedPrice `db:"-" json:"price_tiers"`
	GenreList  []string               `db:"-" json:"genre_list,omitempty"`
	RegionList []string               `db:"-" json:"region_list,omitempty"`
}

func (l Listicle) RecordID() int { return l.ID }

func (l *Listicle) SetRecordID(id int) { l.ID = id }

func (l Listicle) Facets() filter.Facets {
	price, ok := pricing.MinAmount(l.Price)
	return filter.Facets{
		Name:     l.Publication,
		Price:    price,
		HasPrice: ok,
		DA:       metric(l.DA),
		DR:       metric(l.DR),
		Genres:   genreFacets(l.Genres),
		Regions:  pricing.ParseRegions(l.Regions),
	}
}

func (l *Listicle) Normalize() {
	l.Publication = strings.TrimSpace(l.Publication)
	l.Genres = pricing.JoinList(pricing.SplitList(l.Genres))
	l.Regions = pricing.JoinList(pricing.ParseRegions(l.Regions))
}

func (l *Listicle) AdjustPrices(fn func(float64) float64) {
	l.Price = pricing.AdjustString(l.Price, fn)
}

func (l *Listicle) Enrich(images ImageResolver) {
	l.ImageURL = resolveImage(images, l.Image)
	l.PriceTiers = pricing.FormatPrice(l.Price)
	l.GenreList = genreFacets(l.Genres)
	l.RegionList = pricing.ParseRegions(l.Regions)
}

// BestSeller is a flat-rate placement on a best-seller list.
type BestSeller struct {
	ID          int        `db:"id" json:"id"`
	Publication string     `db:"publication" json:"publication" validate:"required,max=200"`
	Image       string     `db:"image" json:"image"`
	Genres      string     `db:"genres" json:"genres"`
	Price       string     `db:"price" json:"price" validate:"required"`
	DA          string     `db:"da" json:"da" validate:"omitempty,numeric"`
	DR          string     `db:"dr" json:"dr" validate:"omitempty,numeric"`
	TAT         string     `db:"tat" json:"tat"`
	ExampleURL  string     `db:"example_url" json:"example_url" validate:"omitempty,url"`
	Regions     string     `db:"regions" json:"regions"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	ImageURL   string                 `db:"-" json:"image_url,omitempty"`
	PriceTiers pricing.FormattedPrice `db:"-" json:"price_tiers"`
	GenreList  []string               `db:"-" json:"genre_list,omitempty"`
	RegionList []string               `db:"-" json:"region_list,omitempty"`
}

func (b BestSeller) RecordID() int { return b.ID }

func (b *BestSeller) SetRecordID(id int) { b.ID = id }

func (b BestSeller) Facets() filter.Facets {
	price, ok := pricing.MinAmount(b.Price)
	return filter.Facets{
		Name:     b.Publication,
		Price:    price,
		HasPrice: ok,
		DA:       metric(b.DA),
		DR:       metric(b.DR),
		Genres:   genreFacets(b.Genres),
		Regions:  pricing.ParseRegions(b.Regions),
	}
}

func (b *BestSeller) Normalize() {
	b.Publication = strings.TrimSpace(b.Publication)
	b.Genres = pricing.JoinList(pricing.SplitList(b.Genres))
	b.Regions = pricing.JoinList(pricing.ParseRegions(b.Regions))
}

func (b *BestSeller) AdjustPrices(fn func(float64) float64) {
	b.Price = pricing.AdjustString(b.Price, fn)
}

func (b *BestSeller) Enrich(images ImageResolver) {
	b.ImageURL = resolveImage(images, b.Image)
	b.PriceTiers = pricing.FormatPrice(b.Price)
	b.GenreList = genreFacets(b.Genres)
	b.RegionList = pricing.ParseRegions(b.Regions)
}
