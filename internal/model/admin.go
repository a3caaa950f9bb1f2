// internal/model/admin.go
package model

import "time"

// Tabs is the set of catalog tabs whose visibility an admin can toggle.
var Tabs = []string{
	"publications", "broadcast-tv", "digital-tv", "listicles",
	"best-sellers", "social-posts", "print", "pr-bundles",
}

type TabVisibility struct {
	Tab       string     `db:"tab" json:"tab" validate:"required"`
	Visible   bool       `db:"visible" json:"visible"`
	UpdatedAt *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}

// Change actions carried by ChangeEvent.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"

	// ActionPriceAdjusted marks a price adjustment change for a kind.
	ActionPriceAdjusted = "price_adjusted"
	// ActionVisibility marks a tab visibility toggle.
	ActionVisibility = "visibility"
)

// KindTabVisibility is the ChangeEvent kind for tab visibility toggles.
const KindTabVisibility = "tab-visibility"

// ChangeEvent is published after every successful catalog write.
type ChangeEvent struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	RecordID   int       `json:"record_id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RoutingKey is the AMQP routing key for the event, e.g. "publications.updated".
func (e ChangeEvent) RoutingKey() string {
	return e.Kind + "." + e.Action
}

// AuditEntry is the persisted form of a ChangeEvent.
type AuditEntry struct {
	ID         int       `db:"id" json:"id"`
	EventID    string    `db:"event_id" json:"event_id"`
	Kind       string    `db:"kind" json:"kind"`
	RecordID   int       `db:"record_id" json:"record_id"`
	Action     string    `db:"action" json:"action"`
	Actor      string    `db:"actor" json:"actor"`
	OccurredAt time.Time `db:"occurred_at" json:"occurred_at"`
}

// AuditEntryFromEvent converts a consumed event for storage.
func AuditEntryFromEvent(e ChangeEvent) AuditEntry {
	return AuditEntry{
		EventID:    e.ID,
		Kind:       e.Kind,
		RecordID:   e.RecordID,
		Action:     e.Action,
		Actor:      e.Actor,
		OccurredAt: e.OccurredAt,
	}
}
