package registry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ResolutionRestored        = "restored"
	ResolutionKeptUnderReview = "kept_under_review"
	ResolutionRejected        = "rejected"
)

// ReviewQueueEntry holds the prior snapshot for reversible quarantine.
// At most one unresolved entry exists per registry item (partial unique
// index, see data/db.AutoMigrateAll).
type ReviewQueueEntry struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	RegistryItemID   uuid.UUID      `gorm:"index;not null;column:registry_item_id" json:"registry_item_id"`
	Item             *Item          `gorm:"constraint:OnDelete:CASCADE;foreignKey:RegistryItemID;references:ID" json:"item,omitempty"`
	FlaggedByUserID  uuid.UUID      `gorm:"not null;column:flagged_by_user_id" json:"flagged_by_user_id"`
	FlaggedAt        time.Time      `gorm:"not null;default:now();column:flagged_at" json:"flagged_at"`
	Reason           string         `gorm:"column:reason" json:"reason"`
	PriorSnapshot    datatypes.JSON `gorm:"column:prior_snapshot" json:"prior_snapshot"`
	ResolvedAt       *time.Time     `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
	ResolvedByUserID *uuid.UUID     `gorm:"column:resolved_by_user_id" json:"resolved_by_user_id,omitempty"`
	Resolution       *string        `gorm:"column:resolution" json:"resolution,omitempty"`
}

func (ReviewQueueEntry) TableName() string { return "review_queue_entry" }
