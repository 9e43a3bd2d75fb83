package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type PatternRepo interface {
	Create(dbc dbctx.Context, pattern *types.Pattern) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Pattern, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.Pattern, error)
}

type patternRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPatternRepo(db *gorm.DB, baseLog *logger.Logger) PatternRepo {
	return &patternRepo{db: db, log: baseLog.With("repo", "PatternRepo")}
}

func (r *patternRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *patternRepo) Create(dbc dbctx.Context, pattern *types.Pattern) error {
	return r.handle(dbc).Create(pattern).Error
}

func (r *patternRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Pattern, error) {
	var out []*types.Pattern
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *patternRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.Pattern, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Pattern
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
