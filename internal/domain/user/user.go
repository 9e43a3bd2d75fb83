package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// User is the canonical internal identity. Rows are created by the identity
// service and mutated only by the admin API and the admin safety monitor.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Role        string    `gorm:"not null;default:'student';column:role" json:"role"`
	IsActive    bool      `gorm:"not null;default:true;column:is_active" json:"is_active"`
	IsAdmin     bool      `gorm:"not null;default:false;column:is_admin" json:"is_admin"`
	IsRootAdmin bool      `gorm:"not null;default:false;column:is_root_admin" json:"is_root_admin"`

	// AppleUserID historically held either a raw provider subject or an
	// email address. It is a read-only bridge for first sign-ins of legacy
	// accounts; no new writes set it.
	AppleUserID *string `gorm:"column:apple_user_id;index" json:"-"`

	CreatedAt  time.Time  `gorm:"not null;default:now()" json:"created_at"`
	LastSeenAt *time.Time `gorm:"column:last_seen_at" json:"last_seen_at,omitempty"`
}

func (User) TableName() string { return "app_user" }
