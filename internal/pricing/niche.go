package pricing

import "strings"

// KnownNiches lists the niche flags every publication is reported against, in display order.
var KnownNiches = []string{"Health", "CBD", "Crypto", "Gambling", "Erotic"}

// Niche is one content category a publication may accept, with an optional price.
type Niche struct {
	Name     string  `json:"name"`
	Accepted bool    `json:"accepted"`
	Price    *string `json:"price"`
}

// ParseNiches decodes "Health: $75, CBD: $75, Crypto" into one entry per known
// niche. Known niches that are absent come back with Accepted=false and a nil
// price. A token without ": " is accepted with no price. Niches outside
// KnownNiches are appended after the known ones in input order.
func ParseNiches(s string) []Niche {
	found := make(map[string]Niche)
	var extra []Niche

	for _, tok := range strings.Split(s, ", ") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		n := Niche{Accepted: true}
		if name, price, ok := strings.Cut(tok, ": "); ok {
			n.Name = strings.TrimSpace(name)
			if p := strings.TrimSpace(price); p != "" {
				n.Price = &p
			}
		} else {
			n.Name = tok
		}

		if canon, ok := canonicalNiche(n.Name); ok {
			n.Name = canon
			if _, dup := found[canon]; !dup {
				found[canon] = n
			}
			continue
		}
		extra = append(extra, n)
	}

	out := make([]Niche, 0, len(KnownNiches)+len(extra))
	for _, name := range KnownNiches {
		if n, ok := found[name]; ok {
			out = append(out, n)
			continue
		}
		out = append(out, Niche{Name: name})
	}
	return append(out, extra...)
}

// FormatNiches is the inverse of ParseNiches for accepted niches.
func FormatNiches(niches []Niche) string {
	parts := make([]string, 0, len(niches))
	for _, n := range niches {
		if !n.Accepted || strings.TrimSpace(n.Name) == "" {
			continue
		}
		if n.Price != nil && *n.Price != "" {
			parts = append(parts, n.Name+": "+*n.Price)
			continue
		}
		parts = append(parts, n.Name)
	}
	return strings.Join(parts, ", ")
}

// AcceptedNiches returns the names of accepted niches.
func AcceptedNiches(s string) []string {
	var out []string
	for _, n := range ParseNiches(s) {
		if n.Accepted {
			out = append(out, n.Name)
		}
	}
	return out
}

func canonicalNiche(name string) (string, bool) {
	for _, k := range KnownNiches {
		if strings.EqualFold(k, name) {
			return k, true
		}
	}
	return "", false
}
