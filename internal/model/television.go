// internal/model/television.go
package model

import (
	"strings"
	"time"

	"github.com/unclebandit/pricing-catalog-backend/internal/filter"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
)

var BroadcastTVTable = Table{
	Kind: "broadcast-tv",
	Name: "broadcast_tv",
	Columns: []string{
		"affiliate", "calls", "state", "market", "program_name", "interview_type",
		"rate", "tat", "example_url", "image",
	},
}

var DigitalTVTable = Table{
	Kind: "digital-tv",
	Name: "digital_tv",
	Columns: []string{
		"call_sign", "station_name", "rate", "tat", "sponsored", "indexed",
		"segment_length", "program_name", "interview_type", "example_url", "image",
	},
}

type BroadcastTV struct {
	ID            int        `db:"id" json:"id"`
	Affiliate     string     `db:"affiliate" json:"affiliate" validate:"required,max=200"`
	Calls         string     `db:"calls" json:"calls"`
	State         string     `db:"state" json:"state"`
	Market        string     `db:"market" json:"market"`
	ProgramName   string     `db:"program_name" json:"program_name"`
	InterviewType string     `db:"interview_type" json:"interview_type"`
	Rate          string     `db:"rate" json:"rate"`
	TAT           string     `db:"tat" json:"tat"`
	ExampleURL    string     `db:"example_url" json:"example_url" validate:"omitempty,url"`
	Image         string     `db:"image" json:"image"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	ImageURL string `db:"-" json:"image_url,omitempty"`
}

func (b BroadcastTV) RecordID() int { return b.ID }

func (b *BroadcastTV) SetRecordID(id int) { b.ID = id }

func (b BroadcastTV) Facets() filter.Facets {
	price, ok := pricing.MinAmount(b.Rate)
	return filter.Facets{
		Name:     strings.TrimSpace(b.Affiliate + " " + b.Calls),
		Price:    price,
		HasPrice: ok,
		Types:    nonEmpty(b.InterviewType),
		Regions:  nonEmpty(b.State, b.Market),
	}
}

func (b *BroadcastTV) Normalize() {
	b.Affiliate = strings.TrimSpace(b.Affiliate)
	b.Calls = strings.ToUpper(strings.TrimSpace(b.Calls))
}

func (b *BroadcastTV) AdjustPrices(fn func(float64) float64) {
	b.Rate = pricing.AdjustString(b.Rate, fn)
}

func (b *BroadcastTV) Enrich(images ImageResolver) {
	b.ImageURL = resolveImage(images, b.Image)
}

type DigitalTV struct {
	ID            int        `db:"id" json:"id"`
	CallSign      string     `db:"call_sign" json:"call_sign"`
	StationName   string     `db:"station_name" json:"station_name" validate:"required,max=200"`
	Rate          string     `db:"rate" json:"rate"`
	TAT           string     `db:"tat" json:"tat"`
	Sponsored     string     `db:"sponsored" json:"sponsored"`
	Indexed       string     `db:"indexed" json:"indexed"`
	SegmentLength string     `db:"segment_length" json:"segment_length"`
	ProgramName   string     `db:"program_name" json:"program_name"`
	InterviewType string     `db:"interview_type" json:"interview_type"`
	ExampleURL    string     `db:"example_url" json:"example_url" validate:"omitempty,url"`
	Image         string     `db:"image" json:"image"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time `db:"updated_at" json:"updated_at,omitempty"`

	ImageURL string `db:"-" json:"image_url,omitempty"`
}

func (d DigitalTV) RecordID() int { return d.ID }

func (d *DigitalTV) SetRecordID(id int) { d.ID = id }

func (d DigitalTV) Facets() filter.Facets {
	price, ok := pricing.MinAmount(d.Rate)
	return filter.Facets{
		Name:      d.StationName,
		Price:     price,
		HasPrice:  ok,
		Types:     nonEmpty(d.InterviewType),
		Sponsored: d.Sponsored,
		Indexed:   d.Indexed,
	}
}

func (d *DigitalTV) Normalize() {
	d.StationName = strings.TrimSpace(d.StationName)
	d.CallSign = strings.ToUpper(strings.TrimSpace(d.CallSign))
}

func (d *DigitalTV) AdjustPrices(fn func(float64) float64) {
	d.Rate = pricing.AdjustString(d.Rate, fn)
}

func (d *DigitalTV) Enrich(images ImageResolver) {
	d.ImageURL = resolveImage(images, d.Image)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
