package classroom

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// ClassRepo reads the optional class subsystem. Callers must consult
// HasClassTable / HasMembershipTable first; the share service fails closed
// with 501 when the schema is absent.
type ClassRepo interface {
	HasClassTable() bool
	HasMembershipTable() bool
	ClassExists(dbc dbctx.Context, classID uuid.UUID) (bool, error)
	IsMember(dbc dbctx.Context, classID, userID uuid.UUID) (bool, error)
}

type classRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClassRepo(db *gorm.DB, baseLog *logger.Logger) ClassRepo {
	return &classRepo{db: db, log: baseLog.With("repo", "ClassRepo")}
}

func (r *classRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *classRepo) HasClassTable() bool {
	return r.db.Migrator().HasTable(&types.Class{})
}

func (r *classRepo) HasMembershipTable() bool {
	return r.db.Migrator().HasTable(&types.ClassMembership{})
}

func (r *classRepo) ClassExists(dbc dbctx.Context, classID uuid.UUID) (bool, error) {
	var count int64
	err := r.handle(dbc).Model(&types.Class{}).Where("id = ?", classID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *classRepo) IsMember(dbc dbctx.Context, classID, userID uuid.UUID) (bool, error) {
	var count int64
	err := r.handle(dbc).Model(&types.ClassMembership{}).
		Where("class_id = ? AND user_id = ?", classID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
