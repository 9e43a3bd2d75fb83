package content

import (
	"time"

	"github.com/google/uuid"
)

// Pattern is a grammar-pattern lesson note.
type Pattern struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"index;not null;column:owner_user_id" json:"owner_user_id"`
	Pattern     string    `gorm:"not null;column:pattern" json:"pattern"`
	Explanation string    `gorm:"column:explanation" json:"explanation"`
	Example     string    `gorm:"column:example" json:"example"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Pattern) TableName() string { return "pattern" }
