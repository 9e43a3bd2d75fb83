package services

import (
	"context"
	"testing"

	"gorm.io/gorm"

	authrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/auth"
	classrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/classroom"
	contentrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/content"
	mediarepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/media"
	registryrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/registry"
	"github.com/hakmun-app/hakmun-backend/internal/data/repos/testutil"
	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	"github.com/hakmun-app/hakmun-backend/internal/data/txn"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// deps bundles everything the service integration tests wire up. All tests
// share one database; isolation comes from fresh users and content per test.
type deps struct {
	db     *gorm.DB
	log    *logger.Logger
	runner txn.Runner

	users      userrepo.UserRepo
	handles    userrepo.HandleRepo
	identities authrepo.IdentityRepo
	registry   registryrepo.RegistryRepo
	reviews    registryrepo.ReviewRepo
	moderation registryrepo.ModerationRepo
	shares     registryrepo.ShareRepo
	readings   contentrepo.ReadingItemRepo
	sentences  contentrepo.SentenceRepo
	patterns   contentrepo.PatternRepo
	pins       contentrepo.VocabPinRepo
	assets     mediarepo.AssetRepo
	classes    classrepo.ClassRepo
}

func newDeps(t *testing.T) *deps {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)
	return &deps{
		db:     gdb,
		log:    log,
		runner: txn.NewGormRunner(gdb),

		users:      userrepo.NewUserRepo(gdb, log),
		handles:    userrepo.NewHandleRepo(gdb, log),
		identities: authrepo.NewIdentityRepo(gdb, log),
		registry:   registryrepo.NewRegistryRepo(gdb, log),
		reviews:    registryrepo.NewReviewRepo(gdb, log),
		moderation: registryrepo.NewModerationRepo(gdb, log),
		shares:     registryrepo.NewShareRepo(gdb, log),
		readings:   contentrepo.NewReadingItemRepo(gdb, log),
		sentences:  contentrepo.NewSentenceRepo(gdb, log),
		patterns:   contentrepo.NewPatternRepo(gdb, log),
		pins:       contentrepo.NewVocabPinRepo(gdb, log),
		assets:     mediarepo.NewAssetRepo(gdb, log),
		classes:    classrepo.NewClassRepo(gdb, log),
	}
}

func (d *deps) registrySvc(t *testing.T) RegistryService {
	t.Helper()
	return NewRegistryService(d.log, d.registry, d.readings, d.sentences, d.patterns)
}

func (d *deps) moderationSvc(t *testing.T) ModerationService {
	t.Helper()
	return NewModerationService(d.log, d.runner, d.registrySvc(t), d.registry, d.reviews, d.moderation)
}

func (d *deps) contentSvc(t *testing.T) ContentService {
	t.Helper()
	return NewContentService(d.log, d.runner, d.registrySvc(t), d.registry, d.moderation, d.readings, d.sentences, d.patterns, d.assets)
}

func (d *deps) shareSvc(t *testing.T) ShareService {
	t.Helper()
	return NewShareService(d.log, d.registrySvc(t), d.registry, d.shares, d.classes)
}

func (d *deps) seedUser(t *testing.T, role string, rootAdmin bool) *types.User {
	t.Helper()
	u := &types.User{Role: role, IsActive: true, IsAdmin: rootAdmin, IsRootAdmin: rootAdmin}
	created, err := d.users.Create(dbctx.Context{Ctx: context.Background()}, []*types.User{u})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return created[0]
}

func rdFor(u *types.User, impersonating bool) *ctxutil.RequestData {
	ents, caps := DeriveEntitlements(u, impersonating)
	return &ctxutil.RequestData{
		UserID:        u.ID,
		Role:          u.Role,
		IsActive:      u.IsActive,
		IsAdmin:       u.IsAdmin,
		IsRootAdmin:   u.IsRootAdmin,
		Impersonating: impersonating,
		Entitlements:  ents,
		Capabilities:  caps,
	}
}
