package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
)

// AutoMigrateAll runs gorm AutoMigrate over every table the core owns, then
// applies the constraints gorm tags cannot express: functional and partial
// unique indexes. The class tables are deliberately absent; deployments
// without the class subsystem must fail closed on class sharing.
func (s *PostgresService) AutoMigrateAll() error {
	return AutoMigrateAll(s.db)
}

func AutoMigrateAll(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&types.User{},
		&types.Handle{},
		&types.AuthIdentity{},

		&types.RegistryItem{},
		&types.ReviewQueueEntry{},
		&types.ModerationAction{},
		&types.ShareGrant{},

		&types.ReadingItem{},
		&types.Sentence{},
		&types.Pattern{},
		&types.VocabPin{},

		&types.MediaAsset{},
	); err != nil {
		return err
	}

	stmts := []string{
		// Case-insensitive handle uniqueness over primary rows, and exactly
		// one primary handle per user.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_handle_primary_lower
		   ON handle (lower(handle)) WHERE kind = 'primary'`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_handle_primary_per_user
		   ON handle (user_id) WHERE kind = 'primary'`,

		// At most one unresolved review entry per registry item.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_review_queue_open
		   ON review_queue_entry (registry_item_id) WHERE resolved_at IS NULL`,

		// Active share grants are unique per (content, grant type, grantee).
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_share_grant_active
		   ON share_grant (content_type, content_id, grant_type, grantee_id)
		   WHERE revoked_at IS NULL`,
	}
	for _, stmt := range stmts {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply index: %w", err)
		}
	}
	return nil
}
