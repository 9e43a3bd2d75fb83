package registry

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type RegistryRepo interface {
	Create(dbc dbctx.Context, item *types.RegistryItem) error
	GetByContent(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error)
	// GetByContentForUpdate locks the registry row for the duration of the
	// surrounding transaction. Moderation transitions serialize on it.
	GetByContentForUpdate(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error)
	GetByContents(dbc dbctx.Context, contentType string, contentIDs []uuid.UUID) ([]*types.RegistryItem, error)
	Save(dbc dbctx.Context, item *types.RegistryItem) error
	ListGlobalApproved(dbc dbctx.Context, limit int) ([]*types.RegistryItem, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.RegistryItem, error)
}

type registryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRegistryRepo(db *gorm.DB, baseLog *logger.Logger) RegistryRepo {
	return &registryRepo{db: db, log: baseLog.With("repo", "RegistryRepo")}
}

func (r *registryRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *registryRepo) Create(dbc dbctx.Context, item *types.RegistryItem) error {
	return r.handle(dbc).Create(item).Error
}

func (r *registryRepo) GetByContent(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error) {
	return r.getByContent(dbc, contentType, contentID, false)
}

func (r *registryRepo) GetByContentForUpdate(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error) {
	return r.getByContent(dbc, contentType, contentID, true)
}

func (r *registryRepo) getByContent(dbc dbctx.Context, contentType string, contentID uuid.UUID, forUpdate bool) (*types.RegistryItem, error) {
	q := r.handle(dbc).Where("content_type = ? AND content_id = ?", contentType, contentID)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var out []*types.RegistryItem
	if err := q.Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *registryRepo) GetByContents(dbc dbctx.Context, contentType string, contentIDs []uuid.UUID) ([]*types.RegistryItem, error) {
	var out []*types.RegistryItem
	if len(contentIDs) == 0 {
		return out, nil
	}
	err := r.handle(dbc).
		Where("content_type = ? AND content_id IN ?", contentType, contentIDs).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *registryRepo) Save(dbc dbctx.Context, item *types.RegistryItem) error {
	return r.handle(dbc).Save(item).Error
}

func (r *registryRepo) ListGlobalApproved(dbc dbctx.Context, limit int) ([]*types.RegistryItem, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.RegistryItem
	err := r.handle(dbc).
		Where("audience = ? AND global_state = ? AND operational_status = ?",
			types.AudienceGlobal, types.GlobalStateApproved, types.StatusActive).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *registryRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.RegistryItem, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.RegistryItem
	err := r.handle(dbc).
		Where("owner_user_id = ?", ownerUserID).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
