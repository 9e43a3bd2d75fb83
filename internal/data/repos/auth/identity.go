package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type IdentityRepo interface {
	// GetExact returns the row for (provider, subject, audience), or nil.
	GetExact(dbc dbctx.Context, provider, subject, audience string) (*types.AuthIdentity, error)
	// GetAnyAudience returns any row for (provider, subject), or nil.
	GetAnyAudience(dbc dbctx.Context, provider, subject string) (*types.AuthIdentity, error)
	// CreateIgnoreConflict inserts the binding, ignoring the unique
	// (provider, subject, audience) conflict a lost race produces.
	CreateIgnoreConflict(dbc dbctx.Context, identity *types.AuthIdentity) error
	TouchLastSeen(dbc dbctx.Context, identityID uuid.UUID, at time.Time) error
}

type identityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdentityRepo(db *gorm.DB, baseLog *logger.Logger) IdentityRepo {
	return &identityRepo{db: db, log: baseLog.With("repo", "IdentityRepo")}
}

func (r *identityRepo) handle(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *identityRepo) GetExact(dbc dbctx.Context, provider, subject, audience string) (*types.AuthIdentity, error) {
	var out []*types.AuthIdentity
	err := r.handle(dbc).
		Where("provider = ? AND subject = ? AND audience = ?", provider, subject, audience).
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

func (r *identityRepo) GetAnyAudience(dbc dbctx.Context, provider, subject string) (*types.AuthIdentity, error) {
	var out []*types.AuthIdentity
	err := r.handle(dbc).
		Where("provider = ? AND subject = ?", provider, subject).
		Order("created_at ASC").
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

func (r *identityRepo) CreateIgnoreConflict(dbc dbctx.Context, identity *types.AuthIdentity) error {
	return r.handle(dbc).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "subject"}, {Name: "audience"}},
			DoNothing: true,
		}).
		Create(identity).Error
}

func (r *identityRepo) TouchLastSeen(dbc dbctx.Context, identityID uuid.UUID, at time.Time) error {
	return r.handle(dbc).Model(&types.AuthIdentity{}).Where("id = ?", identityID).
		Update("last_seen_at", at).Error
}
