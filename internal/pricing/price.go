// Package pricing decodes the free-text price, niche and region strings stored on
// catalog rows, and applies the per-table price adjustments shown to buyers.
//
// None of the parsers return errors. Input that does not match a known shape is
// passed through for display as-is.
package pricing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	tierPattern   = regexp.MustCompile(`Top\s*(\d+)\s*:\s*(\$[\d,]+)`)
	dollarPattern = regexp.MustCompile(`\$\s*(\d[\d,]*(?:\.\d+)?)`)
	// group 1 marks a tier rank ("Top 5"), which is not an amount
	numberPattern = regexp.MustCompile(`(?i)(\btop\s*)?(\d[\d,]*(?:\.\d+)?)`)
)

// Tier is one "Top N : $X" entry of a ranked-placement price.
type Tier struct {
	Top    int     `json:"top"`
	Price  string  `json:"price"`
	Amount float64 `json:"amount"`
}

// FormattedPrice is the display form of a price string. Tiers is empty when the
// input had no "Top N : $X" entries, in which case Raw is the input unchanged.
type FormattedPrice struct {
	Tiers []Tier `json:"tiers,omitempty"`
	Raw   string `json:"raw"`
}

// HasTiers reports whether the price was decoded into tiers.
func (f FormattedPrice) HasTiers() bool { return len(f.Tiers) > 0 }

// FormatPrice extracts every "Top N : $X" entry in input order.
func FormatPrice(s string) FormattedPrice {
	out := FormattedPrice{Raw: s}
	for _, m := range tierPattern.FindAllStringSubmatch(s, -1) {
		top, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		amount, _ := parseAmount(strings.TrimPrefix(m[2], "$"))
		out.Tiers = append(out.Tiers, Tier{Top: top, Price: m[2], Amount: amount})
	}
	return out
}

// Amounts returns every currency amount in s, in order. Dollar-prefixed amounts
// win; when there are none, bare numbers are used instead ("75, 100"),
// skipping the rank of a "Top N" tier.
func Amounts(s string) []float64 {
	var out []float64
	for _, m := range dollarPattern.FindAllStringSubmatch(s, -1) {
		if v, ok := parseAmount(m[1]); ok {
			out = append(out, v)
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, m := range numberPattern.FindAllStringSubmatch(s, -1) {
		if m[1] != "" {
			continue
		}
		if v, ok := parseAmount(m[2]); ok {
			out = append(out, v)
		}
	}
	return out
}

// ParsePriceList decodes "$75, $100" into [75 100].
func ParsePriceList(s string) []float64 {
	return Amounts(s)
}

// ExtractAmount returns the first amount in s.
func ExtractAmount(s string) (float64, bool) {
	a := Amounts(s)
	if len(a) == 0 {
		return 0, false
	}
	return a[0], true
}

// MinAmount returns the cheapest amount in s. It is the value used for price
// range filters and price sorting.
func MinAmount(s string) (float64, bool) {
	return Min(Amounts(s))
}

// Min returns the smallest value of a non-empty slice.
func Min(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	m := values[0]
	for _, v := range values[1:] {
		m = math.Min(m, v)
	}
	return m, true
}

// FormatUSD renders an amount the way prices are stored: "$2,750", "$19.99".
func FormatUSD(v float64) string {
	neg := v < 0
	v = math.Abs(v)
	whole := math.Floor(v)
	cents := math.Round((v - whole) * 100)
	if cents == 100 {
		whole++
		cents = 0
	}

	digits := strconv.FormatFloat(whole, 'f', 0, 64)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if cents > 0 {
		b.WriteByte('.')
		c := strconv.Itoa(int(cents))
		if len(c) == 1 {
			b.WriteByte('0')
		}
		b.WriteString(c)
	}
	return b.String()
}

func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// AdjustString rewrites every dollar amount in s through fn, keeping the rest of
// the text ("Top 5 : $2,750" -> "Top 5 : $3,025"). Strings without dollar
// amounts are returned unchanged.
func AdjustString(s string, fn func(float64) float64) string {
	return dollarPattern.ReplaceAllStringFunc(s, func(m string) string {
		sub := dollarPattern.FindStringSubmatch(m)
		v, ok := parseAmount(sub[1])
		if !ok {
			return m
		}
		out := FormatUSD(fn(v))
		if strings.HasSuffix(sub[1], ",") {
			out += ","
		}
		return out
	})
}
