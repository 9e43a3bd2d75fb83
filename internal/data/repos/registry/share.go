package registry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type ShareRepo interface {
	// CreateIgnoreConflict inserts a grant; a duplicate among active rows
	// (partial unique index) is silently ignored, making repeat shares
	// idempotent.
	CreateIgnoreConflict(dbc dbctx.Context, grant *types.ShareGrant) error
	// Revoke soft-deletes matching active rows and returns how many.
	Revoke(dbc dbctx.Context, contentType string, contentID uuid.UUID, grantType string, granteeID uuid.UUID, at time.Time) (int64, error)
	ListActiveByGrantee(dbc dbctx.Context, grantType string, granteeID uuid.UUID, limit int) ([]*types.ShareGrant, error)
}

type shareRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewShareRepo(db *gorm.DB, baseLog *logger.Logger) ShareRepo {
	return &shareRepo{db: db, log: baseLog.With("repo", "ShareRepo")}
}

func (r *shareRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *shareRepo) CreateIgnoreConflict(dbc dbctx.Context, grant *types.ShareGrant) error {
	return r.handle(dbc).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(grant).Error
}

func (r *shareRepo) Revoke(dbc dbctx.Context, contentType string, contentID uuid.UUID, grantType string, granteeID uuid.UUID, at time.Time) (int64, error) {
	res := r.handle(dbc).Model(&types.ShareGrant{}).
		Where("content_type = ? AND content_id = ? AND grant_type = ? AND grantee_id = ? AND revoked_at IS NULL",
			contentType, contentID, grantType, granteeID).
		Update("revoked_at", at)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *shareRepo) ListActiveByGrantee(dbc dbctx.Context, grantType string, granteeID uuid.UUID, limit int) ([]*types.ShareGrant, error) {
	if limit <= 0 {
		limit = 200
	}
	var out []*types.ShareGrant
	err := r.handle(dbc).
		Where("grant_type = ? AND grantee_id = ? AND revoked_at IS NULL", grantType, granteeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
