package app

import (
	"gorm.io/gorm"

	authrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/auth"
	classrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/classroom"
	contentrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/content"
	mediarepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/media"
	registryrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/registry"
	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type Repos struct {
	User     userrepo.UserRepo
	Handle   userrepo.HandleRepo
	Identity authrepo.IdentityRepo

	Registry   registryrepo.RegistryRepo
	Review     registryrepo.ReviewRepo
	Moderation registryrepo.ModerationRepo
	Share      registryrepo.ShareRepo

	ReadingItem contentrepo.ReadingItemRepo
	Sentence    contentrepo.SentenceRepo
	Pattern     contentrepo.PatternRepo
	VocabPin    contentrepo.VocabPinRepo

	Asset mediarepo.AssetRepo
	Class classrepo.ClassRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     userrepo.NewUserRepo(db, log),
		Handle:   userrepo.NewHandleRepo(db, log),
		Identity: authrepo.NewIdentityRepo(db, log),

		Registry:   registryrepo.NewRegistryRepo(db, log),
		Review:     registryrepo.NewReviewRepo(db, log),
		Moderation: registryrepo.NewModerationRepo(db, log),
		Share:      registryrepo.NewShareRepo(db, log),

		ReadingItem: contentrepo.NewReadingItemRepo(db, log),
		Sentence:    contentrepo.NewSentenceRepo(db, log),
		Pattern:     contentrepo.NewPatternRepo(db, log),
		VocabPin:    contentrepo.NewVocabPinRepo(db, log),

		Asset: mediarepo.NewAssetRepo(db, log),
		Class: classrepo.NewClassRepo(db, log),
	}
}
