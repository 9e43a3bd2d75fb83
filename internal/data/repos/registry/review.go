package registry

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type ReviewRepo interface {
	CreateEntry(dbc dbctx.Context, entry *types.ReviewQueueEntry) error
	GetOpenByRegistryItemID(dbc dbctx.Context, registryItemID uuid.UUID) (*types.ReviewQueueEntry, error)
	// ResolveAllOpen marks every unresolved entry for the registry item as
	// resolved and returns the number of rows touched.
	ResolveAllOpen(dbc dbctx.Context, registryItemID, resolvedBy uuid.UUID, resolution string, at time.Time) (int64, error)
	ListOpen(dbc dbctx.Context, limit int) ([]*types.ReviewQueueEntry, error)
	ListResolved(dbc dbctx.Context, limit int) ([]*types.ReviewQueueEntry, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{db: db, log: baseLog.With("repo", "ReviewRepo")}
}

func (r *reviewRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *reviewRepo) CreateEntry(dbc dbctx.Context, entry *types.ReviewQueueEntry) error {
	return r.handle(dbc).Create(entry).Error
}

func (r *reviewRepo) GetOpenByRegistryItemID(dbc dbctx.Context, registryItemID uuid.UUID) (*types.ReviewQueueEntry, error) {
	var out []*types.ReviewQueueEntry
	err := r.handle(dbc).
		Where("registry_item_id = ? AND resolved_at IS NULL", registryItemID).
		Order("flagged_at DESC").
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *reviewRepo) ResolveAllOpen(dbc dbctx.Context, registryItemID, resolvedBy uuid.UUID, resolution string, at time.Time) (int64, error) {
	res := r.handle(dbc).Model(&types.ReviewQueueEntry{}).
		Where("registry_item_id = ? AND resolved_at IS NULL", registryItemID).
		Updates(map[string]interface{}{
			"resolved_at":         at,
			"resolved_by_user_id": resolvedBy,
			"resolution":          resolution,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *reviewRepo) ListOpen(dbc dbctx.Context, limit int) ([]*types.ReviewQueueEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.ReviewQueueEntry
	err := r.handle(dbc).
		Preload("Item").
		Where("resolved_at IS NULL").
		Order("flagged_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviewRepo) ListResolved(dbc dbctx.Context, limit int) ([]*types.ReviewQueueEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.ReviewQueueEntry
	err := r.handle(dbc).
		Preload("Item").
		Where("resolved_at IS NOT NULL").
		Order("resolved_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
