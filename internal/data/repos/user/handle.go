package user

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type HandleRepo interface {
	Create(dbc dbctx.Context, handles []*types.Handle) ([]*types.Handle, error)
	GetPrimaryByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.Handle, error)
	SearchPrimary(dbc dbctx.Context, substring string, limit int) ([]*types.Handle, error)
}

type handleRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHandleRepo(db *gorm.DB, baseLog *logger.Logger) HandleRepo {
	return &handleRepo{db: db, log: baseLog.With("repo", "HandleRepo")}
}

func (r *handleRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *handleRepo) Create(dbc dbctx.Context, handles []*types.Handle) ([]*types.Handle, error) {
	if len(handles) == 0 {
		return handles, nil
	}
	if err := r.handle(dbc).Create(&handles).Error; err != nil {
		return nil, err
	}
	return handles, nil
}

func (r *handleRepo) GetPrimaryByUserIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.Handle, error) {
	var out []*types.Handle
	if len(userIDs) == 0 {
		return out, nil
	}
	err := r.handle(dbc).
		Where("user_id IN ? AND kind = ?", userIDs, types.HandleKindPrimary).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *handleRepo) SearchPrimary(dbc dbctx.Context, substring string, limit int) ([]*types.Handle, error) {
	var out []*types.Handle
	q := strings.TrimSpace(substring)
	if q == "" {
		return out, nil
	}
	if limit <= 0 {
		limit = 50
	}
	err := r.handle(dbc).
		Where("kind = ? AND lower(handle) LIKE ?", types.HandleKindPrimary, "%"+strings.ToLower(q)+"%").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
