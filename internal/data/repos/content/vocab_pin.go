package content

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type VocabPinRepo interface {
	// PinIgnoreConflict inserts a pin; repeat pins of the same word are
	// idempotent via the (user_id, word) unique index.
	PinIgnoreConflict(dbc dbctx.Context, pin *types.VocabPin) error
	Unpin(dbc dbctx.Context, userID uuid.UUID, word string) (int64, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.VocabPin, error)
}

type vocabPinRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVocabPinRepo(db *gorm.DB, baseLog *logger.Logger) VocabPinRepo {
	return &vocabPinRepo{db: db, log: baseLog.With("repo", "VocabPinRepo")}
}

func (r *vocabPinRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *vocabPinRepo) PinIgnoreConflict(dbc dbctx.Context, pin *types.VocabPin) error {
	return r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "word"}},
			DoNothing: true,
		}).
		Create(pin).Error
}

func (r *vocabPinRepo) Unpin(dbc dbctx.Context, userID uuid.UUID, word string) (int64, error) {
	res := r.handle(dbc).
		Where("user_id = ? AND word = ?", userID, word).
		Delete(&types.VocabPin{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *vocabPinRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.VocabPin, error) {
	if limit <= 0 {
		limit = 500
	}
	var out []*types.VocabPin
	err := r.handle(dbc).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
