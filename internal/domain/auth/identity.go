package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/domain/user"
)

const ProviderApple = "apple"

// AuthIdentity binds a verified (provider, subject, audience) triple to a
// canonical user. All rows for a given (provider, subject) resolve to the
// same user id; the identity service's slow path enforces that.
type AuthIdentity struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"index;not null" json:"user_id"`
	User       *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Provider   string     `gorm:"not null;column:provider;uniqueIndex:idx_auth_identity_provider_sub_aud,priority:1" json:"provider"`
	Subject    string     `gorm:"not null;column:subject;uniqueIndex:idx_auth_identity_provider_sub_aud,priority:2" json:"subject"`
	Audience   string     `gorm:"not null;column:audience;uniqueIndex:idx_auth_identity_provider_sub_aud,priority:3" json:"audience"`
	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at" json:"last_seen_at,omitempty"`
}

func (AuthIdentity) TableName() string { return "auth_identity" }
