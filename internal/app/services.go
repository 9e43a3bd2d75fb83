package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hakmun-app/hakmun-backend/internal/data/txn"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apple"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
	"github.com/hakmun-app/hakmun-backend/internal/platform/objstore"
	"github.com/hakmun-app/hakmun-backend/internal/services"
)

type Services struct {
	Session     services.SessionService
	Identity    services.IdentityService
	AdminSafety services.AdminSafetyService
	AdminUsers  services.AdminUsersService
	Account     services.AccountService
	Registry    services.RegistryService
	Moderation  services.ModerationService
	Share       services.ShareService
	Content     services.ContentService
	Library     services.LibraryService
	Vocab       services.VocabService
	Media       services.MediaService
	Smoke       services.SmokeService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	runner := txn.NewGormRunner(db)

	verifier, err := apple.NewVerifier(nil, cfg.AppleClientIDs)
	if err != nil {
		return Services{}, fmt.Errorf("init apple verifier: %w", err)
	}

	sessionSvc, err := services.NewSessionService(log, repos.User, cfg.SessionJWTSecret)
	if err != nil {
		return Services{}, fmt.Errorf("init session service: %w", err)
	}

	// Media endpoints fail closed with a 503 when the blob store is absent.
	var store objstore.Store
	if cfg.ObjectStorage.Configured() {
		store, err = objstore.New(log, cfg.ObjectStorage)
		if err != nil {
			return Services{}, fmt.Errorf("init object storage: %w", err)
		}
	} else {
		log.Warn("Object storage is not configured, media endpoints disabled")
	}

	safetySvc := services.NewAdminSafetyService(log, repos.User, cfg.RootAdminUserIDs, cfg.Production())
	registrySvc := services.NewRegistryService(log, repos.Registry, repos.ReadingItem, repos.Sentence, repos.Pattern)

	return Services{
		Session:     sessionSvc,
		Identity:    services.NewIdentityService(log, runner, verifier, repos.User, repos.Identity),
		AdminSafety: safetySvc,
		AdminUsers:  services.NewAdminUsersService(log, runner, repos.User, repos.Handle, sessionSvc, safetySvc),
		Account:     services.NewAccountService(log, repos.Handle, safetySvc),
		Registry:    registrySvc,
		Moderation:  services.NewModerationService(log, runner, registrySvc, repos.Registry, repos.Review, repos.Moderation),
		Share:       services.NewShareService(log, registrySvc, repos.Registry, repos.Share, repos.Class),
		Content:     services.NewContentService(log, runner, registrySvc, repos.Registry, repos.Moderation, repos.ReadingItem, repos.Sentence, repos.Pattern, repos.Asset),
		Library:     services.NewLibraryService(log, repos.Registry, repos.ReadingItem, repos.Sentence, repos.Pattern),
		Vocab:       services.NewVocabService(log, repos.VocabPin),
		Media:       services.NewMediaService(log, runner, repos.Asset, store),
		Smoke:       services.NewSmokeService(log, repos.User, sessionSvc, cfg.SmokeEnabled, cfg.SmokeSecretHash, cfg.SmokeUserID),
	}, nil
}
