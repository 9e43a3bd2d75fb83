package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error)
	GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error)
	GetByLegacyAppleIDs(dbc dbctx.Context, values []string) ([]*types.User, error)
	UpdateFields(dbc dbctx.Context, userID uuid.UUID, fields map[string]interface{}) error
	TouchLastSeen(dbc dbctx.Context, userID uuid.UUID, at time.Time) error
	CountActiveRootAdmins(dbc dbctx.Context) (int64, error)
	PromoteRootAdmin(dbc dbctx.Context, userID uuid.UUID) error
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	return &userRepo{db: db, log: baseLog.With("repo", "UserRepo")}
}

func (r *userRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *userRepo) Create(dbc dbctx.Context, users []*types.User) ([]*types.User, error) {
	if len(users) == 0 {
		return users, nil
	}
	if err := r.handle(dbc).Create(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, userIDs []uuid.UUID) ([]*types.User, error) {
	var out []*types.User
	if len(userIDs) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).Where("id IN ?", userIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetByLegacyAppleIDs looks up users through the legacy apple_user_id
// column, which historically held either emails or raw provider subjects.
func (r *userRepo) GetByLegacyAppleIDs(dbc dbctx.Context, values []string) ([]*types.User, error) {
	var out []*types.User
	if len(values) == 0 {
		return out, nil
	}
	if err := r.handle(dbc).Where("apple_user_id IN ?", values).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *userRepo) UpdateFields(dbc dbctx.Context, userID uuid.UUID, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	return r.handle(dbc).Model(&types.User{}).Where("id = ?", userID).Updates(fields).Error
}

func (r *userRepo) TouchLastSeen(dbc dbctx.Context, userID uuid.UUID, at time.Time) error {
	return r.handle(dbc).Model(&types.User{}).Where("id = ?", userID).
		Update("last_seen_at", at).Error
}

func (r *userRepo) CountActiveRootAdmins(dbc dbctx.Context) (int64, error) {
	var count int64
	err := r.handle(dbc).Model(&types.User{}).
		Where("is_root_admin = ? AND is_active = ?", true, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepo) PromoteRootAdmin(dbc dbctx.Context, userID uuid.UUID) error {
	return r.handle(dbc).Model(&types.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{"is_root_admin": true, "is_admin": true}).Error
}
