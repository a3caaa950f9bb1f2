package pricing

import (
	"sort"
	"strings"
)

// knownRegions is the dictionary used to split region strings that were stored
// without delimiters ("GlobalUnited States").
var knownRegions = []string{
	"Global", "United States", "United Kingdom", "Canada", "Australia", "New Zealand",
	"Europe", "Asia", "Africa", "Middle East", "UAE", "Saudi Arabia", "Israel",
	"India", "Pakistan", "Singapore", "Hong Kong", "China", "Japan", "Philippines",
	"Latin America", "South America", "North America", "Mexico", "Brazil",
	"Germany", "France", "Spain", "Italy", "Ireland", "Nigeria", "South Africa",
}

// regionsByLength is knownRegions ordered longest first so the greedy scan
// prefers "South Africa" over "Africa"-style partial hits.
var regionsByLength = func() []string {
	out := append([]string(nil), knownRegions...)
	sort.SliceStable(out, func(i, j int) bool { return len(out[i]) > len(out[j]) })
	return out
}()

// ParseRegions decodes a region string into a list. Comma-delimited input is
// split and trimmed. Undelimited input is scanned greedily against the known
// region dictionary; an unrecognized tail is kept as one region, and a string
// with no recognized prefix at all comes back whole.
func ParseRegions(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	if strings.Contains(s, ",") {
		return SplitList(s)
	}

	var out []string
	rest := s
	for rest != "" {
		match := ""
		for _, r := range regionsByLength {
			if len(rest) >= len(r) && strings.EqualFold(rest[:len(r)], r) {
				match = r
				break
			}
		}
		if match == "" {
			break
		}
		out = append(out, match)
		rest = strings.TrimSpace(rest[len(match):])
	}

	if len(out) == 0 {
		return []string{s}
	}
	if rest != "" {
		out = append(out, rest)
	}
	return out
}

// IsKnownRegion reports whether name is in the region dictionary.
func IsKnownRegion(name string) bool {
	for _, r := range knownRegions {
		if strings.EqualFold(r, name) {
			return true
		}
	}
	return false
}

// SplitList splits a comma-joined list, trimming blanks and dropping
// case-insensitive duplicates while keeping first-seen order.
func SplitList(s string) []string {
	out := []string{}
	seen := make(map[string]struct{})
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		k := strings.ToLower(p)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}

// JoinList is the inverse of SplitList.
func JoinList(items []string) string {
	return strings.Join(SplitList(strings.Join(items, ",")), ", ")
}
