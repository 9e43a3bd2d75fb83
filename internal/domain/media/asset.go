package media

import (
	"time"

	"github.com/google/uuid"
)

// Asset is the canonical pointer to an uploaded blob. URLs are never
// persisted; object_key is the sole pointer into the object store.
type Asset struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerUserID uuid.UUID `gorm:"not null;column:owner_user_id;uniqueIndex:idx_media_asset_owner_key,priority:1" json:"owner_user_id"`
	ObjectKey   string    `gorm:"not null;column:object_key;uniqueIndex:idx_media_asset_owner_key,priority:2" json:"object_key"`
	MimeType    string    `gorm:"not null;column:mime_type" json:"mime_type"`
	SizeBytes   int64     `gorm:"not null;column:size_bytes" json:"size_bytes"`
	Title       *string   `gorm:"column:title" json:"title,omitempty"`
	Language    *string   `gorm:"column:language" json:"language,omitempty"`
	DurationMS  *int64    `gorm:"column:duration_ms" json:"duration_ms,omitempty"`
	CreatedAt   time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (Asset) TableName() string { return "media_asset" }
