// internal/model/record.go
package model

import (
	"github.com/unclebandit/pricing-catalog-backend/internal/filter"
	"github.com/unclebandit/pricing-catalog-backend/internal/pricing"
)

// Table describes where one catalog kind lives. Columns lists the writable
// columns; id, created_at and updated_at are managed by the store.
type Table struct {
	Kind    string
	Name    string
	Columns []string
}

// Record is implemented by every catalog row type.
type Record interface {
	filter.Faceted
	RecordID() int
}

// ImageResolver turns a stored image reference into a displayable URL.
type ImageResolver interface {
	Resolve(ref string) string
}

// RecordPtr is the pointer side of a record: the operations that rewrite a row
// in place before it is written or returned.
type RecordPtr[T any] interface {
	*T
	Record
	SetRecordID(id int)
	// Normalize canonicalizes free-text list fields before a write.
	Normalize()
	// AdjustPrices rewrites every price field through fn.
	AdjustPrices(fn func(float64) float64)
	// Enrich fills the derived, read-only response fields.
	Enrich(images ImageResolver)
}

// PriceAdjustment is stored per catalog table.
type PriceAdjustment = pricing.Adjustment

// resolveImage is shared by the Enrich implementations.
func resolveImage(images ImageResolver, ref string) string {
	if images == nil || ref == "" {
		return ""
	}
	return images.Resolve(ref)
}

// genreFacets splits a stored genre string.
func genreFacets(s string) []string {
	return pricing.SplitList(s)
}

// Tables lists every catalog kind in tab order.
var Tables = []Table{
	PublicationsTable, BroadcastTVTable, DigitalTVTable, ListiclesTable,
	BestSellersTable, SocialPostsTable, PrintTable, PRBundlesTable,
}

// TableByKind looks up a catalog kind such as "best-sellers".
func TableByKind(kind string) (Table, bool) {
	for _, t := range Tables {
		if t.Kind == kind {
			return t, true
		}
	}
	return Table{}, false
}

// TableByName looks up a catalog table such as "best_sellers".
func TableByName(name string) (Table, bool) {
	for _, t := range Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
