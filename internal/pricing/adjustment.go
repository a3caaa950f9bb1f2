package pricing

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

const (
	KindPercentage = "percentage"
	KindFixed      = "fixed"
)

// Adjustment is a markup applied to every price of one catalog table that falls
// inside the optional [MinPrice, MaxPrice] band.
type Adjustment struct {
	ID        int       `db:"id" json:"id"`
	TableName string    `db:"table_name" json:"table_name" validate:"required"`
	Kind      string    `db:"kind" json:"kind" validate:"required,oneof=percentage fixed"`
	Value     float64   `db:"value" json:"value"`
	MinPrice  *float64  `db:"min_price" json:"min_price,omitempty" validate:"omitempty,gte=0"`
	MaxPrice  *float64  `db:"max_price" json:"max_price,omitempty" validate:"omitempty,gte=0"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Adjustments groups adjustments by table name, the shape sent to clients as
// "priceAdjustments".
type Adjustments map[string][]Adjustment

// GroupAdjustments builds the per-table map from a flat list.
func GroupAdjustments(list []Adjustment) Adjustments {
	out := make(Adjustments)
	for _, a := range list {
		out[a.TableName] = append(out[a.TableName], a)
	}
	return out
}

// IsPriceAdjusted reports whether any non-zero adjustment exists for table.
func IsPriceAdjusted(adj Adjustments, table string) bool {
	for _, a := range adj[table] {
		if a.Value != 0 {
			return true
		}
	}
	return false
}

// Covers reports whether amount falls inside the adjustment's price band.
// Unset bounds are open.
func (a Adjustment) Covers(amount float64) bool {
	if a.MinPrice != nil && amount < *a.MinPrice {
		return false
	}
	if a.MaxPrice != nil && amount > *a.MaxPrice {
		return false
	}
	return true
}

// Apply returns amount after this adjustment. Amounts outside the band are
// returned untouched; results never go below zero.
func (a Adjustment) Apply(amount float64) float64 {
	if !a.Covers(amount) {
		return amount
	}
	return a.markup(amount)
}

// markup applies the adjustment without looking at the band.
func (a Adjustment) markup(amount float64) float64 {
	var v float64
	switch a.Kind {
	case KindPercentage:
		v = amount * (1 + a.Value/100)
	case KindFixed:
		v = amount + a.Value
	default:
		return amount
	}
	return math.Max(0, math.Round(v*100)/100)
}

// ApplyAll runs every adjustment of table over amount, in stored order. Bands
// are checked against the original amount.
func ApplyAll(adj Adjustments, table string, amount float64) float64 {
	out := amount
	for _, a := range adj[table] {
		if !a.Covers(amount) {
			continue
		}
		out = a.markup(out)
	}
	return out
}

// DescribeAdjustment renders the tooltip text: "+10%", "-5%", "+$50",
// with the price band appended when one is set.
func DescribeAdjustment(a Adjustment) string {
	sign := "+"
	if a.Value < 0 {
		sign = "-"
	}
	abs := math.Abs(a.Value)

	var s string
	switch a.Kind {
	case KindPercentage:
		s = sign + strconv.FormatFloat(abs, 'f', -1, 64) + "%"
	case KindFixed:
		s = sign + FormatUSD(abs)
	default:
		return ""
	}

	switch {
	case a.MinPrice != nil && a.MaxPrice != nil:
		s += fmt.Sprintf(" (prices %s–%s)", FormatUSD(*a.MinPrice), FormatUSD(*a.MaxPrice))
	case a.MinPrice != nil:
		s += fmt.Sprintf(" (prices from %s)", FormatUSD(*a.MinPrice))
	case a.MaxPrice != nil:
		s += fmt.Sprintf(" (prices up to %s)", FormatUSD(*a.MaxPrice))
	}
	return s
}
