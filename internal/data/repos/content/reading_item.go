package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type ReadingItemRepo interface {
	Create(dbc dbctx.Context, item *types.ReadingItem) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ReadingItem, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.ReadingItem, error)
	SetAudioAsset(dbc dbctx.Context, id uuid.UUID, assetID *uuid.UUID) error
}

type readingItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReadingItemRepo(db *gorm.DB, baseLog *logger.Logger) ReadingItemRepo {
	return &readingItemRepo{db: db, log: baseLog.With("repo", "ReadingItemRepo")}
}

func (r *readingItemRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *readingItemRepo) Create(dbc dbctx.Context, item *types.ReadingItem) error {
	return r.handle(dbc).Create(item).Error
}

func (r *readingItemRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ReadingItem, error) {
	var out []*types.ReadingItem
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readingItemRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.ReadingItem, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.ReadingItem
	err := r.handle(dbc).
		Where("owner_user_id = ?", ownerUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *readingItemRepo) SetAudioAsset(dbc dbctx.Context, id uuid.UUID, assetID *uuid.UUID) error {
	return r.handle(dbc).Model(&types.ReadingItem{}).Where("id = ?", id).
		Update("audio_asset_id", assetID).Error
}
