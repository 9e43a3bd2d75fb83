package registry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// ModerationRepo appends to and reads the forensic moderation log. There is
// deliberately no update or delete method.
type ModerationRepo interface {
	Append(dbc dbctx.Context, action *types.ModerationAction) error
	CountByActorSince(dbc dbctx.Context, actorUserID uuid.UUID, action string, since time.Time) (int64, error)
	ListByContent(dbc dbctx.Context, contentType string, contentID uuid.UUID, limit int) ([]*types.ModerationAction, error)
}

type moderationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewModerationRepo(db *gorm.DB, baseLog *logger.Logger) ModerationRepo {
	return &moderationRepo{db: db, log: baseLog.With("repo", "ModerationRepo")}
}

func (r *moderationRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *moderationRepo) Append(dbc dbctx.Context, action *types.ModerationAction) error {
	return r.handle(dbc).Create(action).Error
}

func (r *moderationRepo) CountByActorSince(dbc dbctx.Context, actorUserID uuid.UUID, action string, since time.Time) (int64, error) {
	var count int64
	err := r.handle(dbc).Model(&types.ModerationAction{}).
		Where("actor_user_id = ? AND action = ? AND created_at > ?", actorUserID, action, since).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *moderationRepo) ListByContent(dbc dbctx.Context, contentType string, contentID uuid.UUID, limit int) ([]*types.ModerationAction, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.ModerationAction
	err := r.handle(dbc).
		Where("content_type = ? AND content_id = ?", contentType, contentID).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
