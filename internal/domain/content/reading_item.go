package content

import (
	"time"

	"github.com/google/uuid"
)

// ReadingItem is a Korean reading passage, optionally paired with a narrated
// audio variant stored as a media asset.
type ReadingItem struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID  uuid.UUID  `gorm:"index;not null;column:owner_user_id" json:"owner_user_id"`
	Title        string     `gorm:"not null;column:title" json:"title"`
	Body         string     `gorm:"not null;column:body" json:"body"`
	Translation  string     `gorm:"column:translation" json:"translation"`
	Level        string     `gorm:"column:level" json:"level"`
	AudioAssetID *uuid.UUID `gorm:"column:audio_asset_id" json:"audio_asset_id,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (ReadingItem) TableName() string { return "reading_item" }
