package content

import (
	"time"

	"github.com/google/uuid"
)

// VocabPin is a personal-only dictionary pin. It never gets a registry row.
type VocabPin struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"not null;column:user_id;uniqueIndex:idx_vocab_pin_user_word,priority:1" json:"user_id"`
	Word      string    `gorm:"not null;column:word;uniqueIndex:idx_vocab_pin_user_word,priority:2" json:"word"`
	Reading   string    `gorm:"column:reading" json:"reading"`
	Gloss     string    `gorm:"column:gloss" json:"gloss"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
}

func (VocabPin) TableName() string { return "vocab_pin" }
