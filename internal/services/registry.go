package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	contentrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/content"
	registryrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/registry"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// RegistryService owns the overlay rows that carry visibility, ownership
// and lifecycle for every content item. Module tables store content; the
// registry row, when present, is the authority.
type RegistryService interface {
	// ResolveContent checks the module table for the given discriminator
	// and returns the creator recorded there.
	ResolveContent(dbc dbctx.Context, contentType string, contentID uuid.UUID) (ownerUserID uuid.UUID, exists bool, err error)
	// EnsureItemForUpdate returns the locked registry row for the content,
	// creating a personal/active row first when none exists. Writes that
	// affect audience or state force the row into existence this way.
	EnsureItemForUpdate(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error)
	GetItem(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error)
	// OwnerOf reports the effective owner: the registry row when present,
	// otherwise the module-table creator.
	OwnerOf(dbc dbctx.Context, contentType string, contentID uuid.UUID) (uuid.UUID, error)
	// CanModerate reports whether the actor may flag the content: the
	// effective owner, any teacher, or a root admin (when not impersonating).
	CanModerate(dbc dbctx.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID) (bool, error)
}

type registryService struct {
	log          *logger.Logger
	registryRepo registryrepo.RegistryRepo
	readingRepo  contentrepo.ReadingItemRepo
	sentenceRepo contentrepo.SentenceRepo
	patternRepo  contentrepo.PatternRepo
}

func NewRegistryService(
	log *logger.Logger,
	registryRepo registryrepo.RegistryRepo,
	readingRepo contentrepo.ReadingItemRepo,
	sentenceRepo contentrepo.SentenceRepo,
	patternRepo contentrepo.PatternRepo,
) RegistryService {
	return &registryService{
		log:          log.With("service", "RegistryService"),
		registryRepo: registryRepo,
		readingRepo:  readingRepo,
		sentenceRepo: sentenceRepo,
		patternRepo:  patternRepo,
	}
}

func (s *registryService) ResolveContent(dbc dbctx.Context, contentType string, contentID uuid.UUID) (uuid.UUID, bool, error) {
	switch contentType {
	case types.ContentTypeReadingItem:
		rows, err := s.readingRepo.GetByIDs(dbc, []uuid.UUID{contentID})
		if err != nil || len(rows) == 0 {
			return uuid.Nil, false, err
		}
		return rows[0].OwnerUserID, true, nil
	case types.ContentTypeSentence:
		rows, err := s.sentenceRepo.GetByIDs(dbc, []uuid.UUID{contentID})
		if err != nil || len(rows) == 0 {
			return uuid.Nil, false, err
		}
		return rows[0].OwnerUserID, true, nil
	case types.ContentTypePattern:
		rows, err := s.patternRepo.GetByIDs(dbc, []uuid.UUID{contentID})
		if err != nil || len(rows) == 0 {
			return uuid.Nil, false, err
		}
		return rows[0].OwnerUserID, true, nil
	default:
		return uuid.Nil, false, apierr.Invalid("invalid:content-type", fmt.Errorf("unknown content type %q", contentType))
	}
}

func (s *registryService) GetItem(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error) {
	return s.registryRepo.GetByContent(dbc, contentType, contentID)
}

func (s *registryService) EnsureItemForUpdate(dbc dbctx.Context, contentType string, contentID uuid.UUID) (*types.RegistryItem, error) {
	item, err := s.registryRepo.GetByContentForUpdate(dbc, contentType, contentID)
	if err != nil {
		return nil, dberr.Map("registry-lock", err)
	}
	if item != nil {
		return item, nil
	}

	owner, exists, err := s.ResolveContent(dbc, contentType, contentID)
	if err != nil {
		return nil, dberr.Map("registry-resolve", err)
	}
	if !exists {
		return nil, apierr.NotFound(fmt.Errorf("no %s with id %s", contentType, contentID))
	}

	item = &types.RegistryItem{
		ContentType:       contentType,
		ContentID:         contentID,
		OwnerUserID:       owner,
		Audience:          types.AudiencePersonal,
		OperationalStatus: types.StatusActive,
	}
	if err := s.registryRepo.Create(dbc, item); err != nil {
		if dberr.IsUniqueViolation(err) {
			// Lost a race; take the winner's row under the lock.
			item, err = s.registryRepo.GetByContentForUpdate(dbc, contentType, contentID)
			if err != nil {
				return nil, dberr.Map("registry-lock", err)
			}
			return item, nil
		}
		return nil, dberr.Map("registry-create", err)
	}
	// Re-read under FOR UPDATE so the caller holds the row lock.
	item, err = s.registryRepo.GetByContentForUpdate(dbc, contentType, contentID)
	if err != nil {
		return nil, dberr.Map("registry-lock", err)
	}
	return item, nil
}

func (s *registryService) OwnerOf(dbc dbctx.Context, contentType string, contentID uuid.UUID) (uuid.UUID, error) {
	item, err := s.registryRepo.GetByContent(dbc, contentType, contentID)
	if err != nil {
		return uuid.Nil, dberr.Map("registry-read", err)
	}
	if item != nil {
		return item.OwnerUserID, nil
	}
	owner, exists, err := s.ResolveContent(dbc, contentType, contentID)
	if err != nil {
		return uuid.Nil, dberr.Map("registry-resolve", err)
	}
	if !exists {
		return uuid.Nil, apierr.NotFound(fmt.Errorf("no %s with id %s", contentType, contentID))
	}
	return owner, nil
}

func (s *registryService) CanModerate(dbc dbctx.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID) (bool, error) {
	if rd == nil {
		return false, nil
	}
	if rd.IsRootAdmin && !rd.Impersonating {
		return true, nil
	}
	if rd.Role == types.RoleTeacher {
		return true, nil
	}
	owner, err := s.OwnerOf(dbc, contentType, contentID)
	if err != nil {
		return false, err
	}
	return owner == rd.UserID, nil
}
