// internal/model/publication.go
package model

import (
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/unclebandit/pricing-catalog-backend/internal/filter"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
)

var PublicationsTable = Table{
	Kind: "publications",
	Name: "publications",
	Columns: []string{
		"name", "url", "image", "price", "da", "dr", "genres", "tat",
		"sponsored", "indexed", "do_follow", "niches", "regions", "example_url", "has_image",
	},
}

type Publication struct {
	ID         int             `db:"id" json:"id"`
	Name       string          `db:"name" json:"name" validate:"required,max=200"`
	URL        string          `db:"url" json:"url" validate:"omitempty,url"`
	Image      string          `db:"image" json:"image"`
	Price      pq.Float64Array `db:"price" json:"price" validate:"dive,gte=0"`
	DA         string          `db:"da" json:"da" validate:"omitempty,numeric"`
	DR         string          `db:"dr" json:"dr" validate:"omitempty,numeric"`
	Genres     string          `db:"genres" json:"genres"`
	TAT        string          `db:"tat" json:"tat"`
	Sponsored  string          `db:"sponsored" json:"sponsored"`
	Indexed    string          `db:"indexed" json:"indexed"`
	DoFollow   string          `db:"do_follow" json:"do_follow"`
	Niches     string          `db:"niches" json:"niches"`
	Regions    string          `db:"regions" json:"regions"`
	ExampleURL string          `db:"example_url" json:"example_url" validate:"omitempty,url"`
	HasImage   bool            `db:"has_image" json:"has_image"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  *time.Time      `db:"updated_at" json:"updated_at,omitempty"`

	ImageURL   string          `db:"-" json:"image_url,omitempty"`
	GenreList  []string        `db:"-" json:"genre_list,omitempty"`
	NicheList  []pricing.Niche `db:"-" json:"niche_list,omitempty"`
	RegionList []string        `db:"-" json:"region_list,omitempty"`
}

func (p Publication) RecordID() int { return p.ID }

func (p *Publication) SetRecordID(id int) { p.ID = id }

func (p Publication) Facets() filter.Facets {
	price, ok := pricing.Min(p.Price)
	return filter.Facets{
		Name:      p.Name,
		Price:     price,
		HasPrice:  ok,
		DA:        metric(p.DA),
		DR:        metric(p.DR),
		Genres:    genreFacets(p.Genres),
		Regions:   pricing.ParseRegions(p.Regions),
		Niches:    pricing.AcceptedNiches(p.Niches),
		Sponsored: p.Sponsored,
		Indexed:   p.Indexed,
		DoFollow:  p.DoFollow,
	}
}

func (p *Publication) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Genres = pricing.JoinList(pricing.SplitList(p.Genres))
	p.Regions = pricing.JoinList(pricing.ParseRegions(p.Regions))
	p.Niches = pricing.FormatNiches(pricing.ParseNiches(p.Niches))
	p.HasImage = p.Image != ""
	if p.Price == nil {
		p.Price = pq.Float64Array{}
	}
}

// AdjustPrices replaces Price with a new slice; the old backing array may be
// shared with a cached or stored row.
func (p *Publication) AdjustPrices(fn func(float64) float64) {
	adjusted := make(pq.Float64Array, len(p.Price))
	for i, v := range p.Price {
		adjusted[i] = fn(v)
	}
	p.Price = adjusted
}

func (p *Publication) Enrich(images ImageResolver) {
	p.ImageURL = resolveImage(images, p.Image)
	p.GenreList = genreFacets(p.Genres)
	p.NicheList = pricing.ParseNiches(p.Niches)
	p.RegionList = pricing.ParseRegions(p.Regions)
}

// metric reads a DA/DR value; blanks and non-numbers count as zero.
func metric(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
