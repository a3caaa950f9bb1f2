// Package filter implements the catalog search: one pass over the in-memory rows
// applying every active predicate, then an optional sort.
//
// Predicates combine with AND across categories and OR within a multi-select
// category. An empty category is inactive.
package filter

import (
	"cmp"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	appErrors "github.com/unclebandit/pricing-catalog-backend/internal/errors"
)

// Facets is the normalized view of a record that predicates run against.
type Facets struct {
	Name     string
	Price    float64
	HasPrice bool
	DA       float64
	DR       float64
	Genres   []string
	Types    []string
	Regions  []string
	Niches   []string

	Sponsored string
	Indexed   string
	DoFollow  string
}

// Faceted is implemented by every catalog record.
type Faceted interface {
	Facets() Facets
}

// Sort keys accepted in the "sort" query parameter.
const (
	SortNone      = ""
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNameAsc   = "name_asc"
	SortNameDesc  = "name_desc"
	SortDADesc    = "da_desc"
	SortDRDesc    = "dr_desc"
)

var sortKeys = []string{SortNone, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc, SortDADesc, SortDRDesc}

// Criteria is the full filter state of one request.
type Criteria struct {
	Search   string
	MinPrice *float64
	MaxPrice *float64

	Genres  []string
	Types   []string
	Regions []string
	Niches  []string

	Sponsored []string
	Indexed   []string
	DoFollow  []string

	Sort string
}

// IsZero reports whether no predicate and no sort is active.
func (c Criteria) IsZero() bool {
	return c.Search == "" && c.MinPrice == nil && c.MaxPrice == nil &&
		len(c.Genres) == 0 && len(c.Types) == 0 && len(c.Regions) == 0 && len(c.Niches) == 0 &&
		len(c.Sponsored) == 0 && len(c.Indexed) == 0 && len(c.DoFollow) == 0 &&
		c.Sort == SortNone
}

// Key is a stable string form of the criteria, used as a cache key.
func (c Criteria) Key() string {
	return c.Values().Encode()
}

// Values is the inverse of ParseCriteria.
func (c Criteria) Values() url.Values {
	v := url.Values{}
	if c.Search != "" {
		v.Set("search", c.Search)
	}
	if c.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*c.MinPrice, 'f', -1, 64))
	}
	if c.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*c.MaxPrice, 'f', -1, 64))
	}
	for _, p := range []struct {
		key  string
		vals []string
	}{
		{"genre", c.Genres}, {"type", c.Types}, {"region", c.Regions}, {"niche", c.Niches},
		{"sponsored", c.Sponsored}, {"indexed", c.Indexed}, {"do_follow", c.DoFollow},
	} {
		if len(p.vals) > 0 {
			sorted := slices.Clone(p.vals)
			slices.Sort(sorted)
			v[p.key] = sorted
		}
	}
	if c.Sort != SortNone {
		v.Set("sort", c.Sort)
	}
	return v
}

// ParseCriteria reads filter state from query parameters. Multi-selects accept
// both repeated parameters and comma-joined values.
func ParseCriteria(q url.Values) (Criteria, error) {
	c := Criteria{
		Search:    strings.TrimSpace(q.Get("search")),
		Genres:    multi(q, "genre"),
		Types:     multi(q, "type"),
		Regions:   multi(q, "region"),
		Niches:    multi(q, "niche"),
		Sponsored: multi(q, "sponsored"),
		Indexed:   multi(q, "indexed"),
		DoFollow:  multi(q, "do_follow"),
		Sort:      strings.ToLower(strings.TrimSpace(q.Get("sort"))),
	}

	var err error
	if c.MinPrice, err = optionalFloat(q, "min_price"); err != nil {
		return Criteria{}, err
	}
	if c.MaxPrice, err = optionalFloat(q, "max_price"); err != nil {
		return Criteria{}, err
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		return Criteria{}, appErrors.Validation("min_price must not exceed max_price")
	}
	if !slices.Contains(sortKeys, c.Sort) {
		return Criteria{}, appErrors.Validationf("unknown sort %q", c.Sort)
	}
	return c, nil
}

// Apply returns the records matching c, sorted by c.Sort. The input slice is
// not modified.
func Apply[T Faceted](records []T, c Criteria) []T {
	type row struct {
		rec T
		f   Facets
	}
	search := strings.ToLower(c.Search)

	rows := make([]row, 0, len(records))
	for _, r := range records {
		f := r.Facets()
		if matches(f, c, search) {
			rows = append(rows, row{rec: r, f: f})
		}
	}

	if c.Sort != SortNone {
		slices.SortStableFunc(rows, func(a, b row) int {
			return compare(a.f, b.f, c.Sort)
		})
	}

	out := make([]T, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out
}

// Matches reports whether a single record satisfies c.
func Matches(r Faceted, c Criteria) bool {
	return matches(r.Facets(), c, strings.ToLower(c.Search))
}

func matches(f Facets, c Criteria, search string) bool {
	if search != "" && !strings.Contains(strings.ToLower(f.Name), search) {
		return false
	}
	if c.MinPrice != nil || c.MaxPrice != nil {
		if !f.HasPrice {
			return false
		}
		if c.MinPrice != nil && f.Price < *c.MinPrice {
			return false
		}
		if c.MaxPrice != nil && f.Price > *c.MaxPrice {
			return false
		}
	}
	return anyOf(f.Genres, c.Genres) &&
		anyOf(f.Types, c.Types) &&
		anyOf(f.Regions, c.Regions) &&
		anyOf(f.Niches, c.Niches) &&
		oneOf(f.Sponsored, c.Sponsored) &&
		oneOf(f.Indexed, c.Indexed) &&
		oneOf(f.DoFollow, c.DoFollow)
}

// anyOf is true when the selection is empty or shares a value with have.
func anyOf(have, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	for _, s := range selected {
		for _, h := range have {
			if strings.EqualFold(strings.TrimSpace(h), s) {
				return true
			}
		}
	}
	return false
}

func oneOf(have string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	return anyOf([]string{have}, selected)
}

// compare orders rows; rows without a price sort last in both price orders.
func compare(a, b Facets, key string) int {
	switch key {
	case SortPriceAsc, SortPriceDesc:
		if a.HasPrice != b.HasPrice {
			if a.HasPrice {
				return -1
			}
			return 1
		}
		if key == SortPriceDesc {
			return cmp.Compare(b.Price, a.Price)
		}
		return cmp.Compare(a.Price, b.Price)
	case SortNameAsc:
		return cmp.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case SortNameDesc:
		return cmp.Compare(strings.ToLower(b.Name), strings.ToLower(a.Name))
	case SortDADesc:
		return cmp.Compare(b.DA, a.DA)
	case SortDRDesc:
		return cmp.Compare(b.DR, a.DR)
	}
	return 0
}

func multi(q url.Values, key string) []string {
	var out []string
	for _, v := range q[key] {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func optionalFloat(q url.Values, key string) (*float64, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimPrefix(raw, "$"), ",", ""), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, appErrors.Validationf("%s must be a non-negative number", key)
	}
	return &v, nil
}
