package registry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ActionNeedsReview     = "needs_review"
	ActionRestore         = "restore"
	ActionApprove         = "approve"
	ActionReject          = "reject"
	ActionKeepUnderReview = "keep_under_review"
	ActionSetPreliminary  = "set_preliminary"
	ActionSetGlobal       = "set_global"
	ActionSetPersonal     = "set_personal"
)

// ModerationAction is the append-only forensic record of moderation state
// changes. Rows are never updated or deleted.
type ModerationAction struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentType    string         `gorm:"not null;column:content_type;index:idx_moderation_action_content,priority:1" json:"content_type"`
	ContentID      uuid.UUID      `gorm:"not null;column:content_id;index:idx_moderation_action_content,priority:2" json:"content_id"`
	ActorUserID    uuid.UUID      `gorm:"not null;column:actor_user_id;index:idx_moderation_action_actor,priority:1" json:"actor_user_id"`
	Action         string         `gorm:"not null;column:action;index:idx_moderation_action_actor,priority:2" json:"action"`
	Reason         string         `gorm:"column:reason" json:"reason"`
	BeforeSnapshot datatypes.JSON `gorm:"column:before_snapshot" json:"before_snapshot"`
	AfterSnapshot  datatypes.JSON `gorm:"column:after_snapshot" json:"after_snapshot"`
	Meta           datatypes.JSON `gorm:"column:meta" json:"meta"`
	CreatedAt      time.Time      `gorm:"not null;default:now();index:idx_moderation_action_actor,priority:3" json:"created_at"`
}

func (ModerationAction) TableName() string { return "moderation_action" }
