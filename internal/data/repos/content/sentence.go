package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type SentenceRepo interface {
	Create(dbc dbctx.Context, sentence *types.Sentence) error
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Sentence, error)
	ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.Sentence, error)
}

type sentenceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSentenceRepo(db *gorm.DB, baseLog *logger.Logger) SentenceRepo {
	return &sentenceRepo{db: db, log: baseLog.With("repo", "SentenceRepo")}
}

func (r *sentenceRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *sentenceRepo) Create(dbc dbctx.Context, sentence *types.Sentence) error {
	return r.handle(dbc).Create(sentence).Error
}

func (r *sentenceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Sentence, error) {
	var out []*types.Sentence
	if len(ids) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sentenceRepo) ListByOwner(dbc dbctx.Context, ownerUserID uuid.UUID, limit int) ([]*types.Sentence, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Sentence
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
