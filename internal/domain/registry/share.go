package registry

import (
	"time"

	"github.com/google/uuid"
)

const (
	GrantTypeUser  = "user"
	GrantTypeClass = "class"
)

// ShareGrant is an idempotent, soft-revocable grant of a content item to a
// user or class. Among active rows (revoked_at null) the
// (content_type, content_id, grant_type, grantee_id) tuple is unique.
type ShareGrant struct {
	ID              uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ContentType     string     `gorm:"not null;column:content_type;index:idx_share_grant_content,priority:1" json:"content_type"`
	ContentID       uuid.UUID  `gorm:"not null;column:content_id;index:idx_share_grant_content,priority:2" json:"content_id"`
	GrantType       string     `gorm:"not null;column:grant_type" json:"grant_type"`
	GranteeID       uuid.UUID  `gorm:"not null;column:grantee_id;index" json:"grantee_id"`
	GrantedByUserID uuid.UUID  `gorm:"not null;column:granted_by_user_id" json:"granted_by_user_id"`
	CreatedAt       time.Time  `gorm:"not null;default:now()" json:"created_at"`
	RevokedAt       *time.Time `gorm:"column:revoked_at" json:"revoked_at,omitempty"`
}

func (ShareGrant) TableName() string { return "share_grant" }
