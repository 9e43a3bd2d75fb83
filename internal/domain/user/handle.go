package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	HandleKindPrimary = "primary"
	HandleKindAlias   = "alias"
)

// Handle is a username row. Each user has exactly one primary handle;
// case-insensitive uniqueness over primary rows is enforced by a functional
// partial index created in the migration step.
type Handle struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"index;not null" json:"user_id"`
	User          *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Handle        string    `gorm:"not null;column:handle" json:"handle"`
	Kind          string    `gorm:"not null;default:'primary';column:kind" json:"kind"`
	PrimaryHandle string    `gorm:"not null;column:primary_handle" json:"primary_handle"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Handle) TableName() string { return "handle" }
