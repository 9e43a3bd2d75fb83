package content

import (
	"time"

	"github.com/google/uuid"
)

// Sentence is a practice sentence.
type Sentence struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"index;not null;column:owner_user_id" json:"owner_user_id"`
	Text        string    `gorm:"not null;column:text" json:"text"`
	Translation string    `gorm:"column:translation" json:"translation"`
	Note        string    `gorm:"column:note" json:"note"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Sentence) TableName() string { return "sentence" }
