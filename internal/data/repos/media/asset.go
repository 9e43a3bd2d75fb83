package media

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type AssetRepo interface {
	Create(dbc dbctx.Context, asset *types.MediaAsset) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MediaAsset, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.MediaAsset, error)
}

type assetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAssetRepo(db *gorm.DB, baseLog *logger.Logger) AssetRepo {
	return &assetRepo{db: db, log: baseLog.With("repo", "MediaAssetRepo")}
}

func (r *assetRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *assetRepo) Create(dbc dbctx.Context, asset *types.MediaAsset) error {
	return r.handle(dbc).Create(asset).Error
}

func (r *assetRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.MediaAsset, error) {
	var out []*types.MediaAsset
	if err := r.handle(dbc).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *assetRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.MediaAsset, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.MediaAsset
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
