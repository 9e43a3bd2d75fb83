package registry

import (
	"time"

	"github.com/google/uuid"
)

const (
	AudiencePersonal = "personal"
	AudienceGlobal   = "global"

	GlobalStatePreliminary = "preliminary"
	GlobalStateApproved    = "approved"
	GlobalStateRejected    = "rejected"

	StatusActive      = "active"
	StatusUnderReview = "under_review"
)

// Content type discriminators for the module tables the registry overlays.
const (
	ContentTypeReadingItem = "reading_item"
	ContentTypeSentence    = "sentence"
	ContentTypePattern     = "pattern"
)

// Item is the canonical overlay row for a content item. When present it is
// the authority for ownership, audience and lifecycle; the module table only
// stores the content itself.
//
// Invariants: audience = global iff global_state is non-null; a personal row
// always has global_state null.
type Item struct {
	ID                uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentType       string    `gorm:"not null;column:content_type;uniqueIndex:idx_registry_item_content,priority:1" json:"content_type"`
	ContentID         uuid.UUID `gorm:"not null;column:content_id;uniqueIndex:idx_registry_item_content,priority:2" json:"content_id"`
	OwnerUserID       uuid.UUID `gorm:"index;not null;column:owner_user_id" json:"owner_user_id"`
	Audience          string    `gorm:"not null;default:'personal';column:audience" json:"audience"`
	GlobalState       *string   `gorm:"column:global_state" json:"global_state,omitempty"`
	OperationalStatus string    `gorm:"not null;default:'active';column:operational_status" json:"operational_status"`
	CreatedAt         time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Item) TableName() string { return "registry_item" }

// Snapshot is the (audience, global_state, operational_status) triple the
// moderation machinery captures and restores.
type Snapshot struct {
	Audience          string  `json:"audience"`
	GlobalState       *string `json:"global_state"`
	OperationalStatus string  `json:"operational_status"`
}

// SnapshotOf captures the moderation-relevant fields of an item row.
func SnapshotOf(it *Item) Snapshot {
	var gs *string
	if it.GlobalState != nil {
		v := *it.GlobalState
		gs = &v
	}
	return Snapshot{
		Audience:          it.Audience,
		GlobalState:       gs,
		OperationalStatus: it.OperationalStatus,
	}
}
