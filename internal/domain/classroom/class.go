package classroom

import (
	"time"

	"github.com/google/uuid"
)

// Class and ClassMembership describe the optional class subsystem. The
// tables are not part of AutoMigrateAll; deployments without them get 501
// from class-sharing endpoints (fail closed), and the share service detects
// presence through the schema, not configuration.
type Class struct {
	ID            uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name          string    `gorm:"not null;column:name" json:"name"`
	TeacherUserID uuid.UUID `gorm:"index;not null;column:teacher_user_id" json:"teacher_user_id"`
	CreatedAt     time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Class) TableName() string { return "class" }

type ClassMembership struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ClassID   uuid.UUID `gorm:"not null;column:class_id;uniqueIndex:idx_class_membership_class_user,priority:1" json:"class_id"`
	UserID    uuid.UUID `gorm:"not null;column:user_id;uniqueIndex:idx_class_membership_class_user,priority:2" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (ClassMembership) TableName() string { return "class_membership" }
