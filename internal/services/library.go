package services

import (
	"context"
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

// LibraryEntry pairs a registry row with the content it points at.
type LibraryEntry struct {
	Item    *types.RegistryItem `json:"item"`
	Content interface{}         `json:"content,omitempty"`
}

// LibraryService serves the read surfaces over the registry overlay. Every
// listing excludes quarantined rows; the moderation inbox is the one surface
// that shows them.
type LibraryService interface {
	Global(ctx context.Context, limit int) ([]*LibraryEntry, error)
	MyContent(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*LibraryEntry, error)
}

type libraryService struct {
	log          *logger.Logger
	registryRepo registryrepo.RegistryRepo
	readingRepo  contentrepo.ReadingItemRepo
	sentenceRepo contentrepo.SentenceRepo
	patternRepo  contentrepo.PatternRepo
}

func NewLibraryService(
	log *logger.Logger,
	registryRepo registryrepo.RegistryRepo,
	readingRepo contentrepo.ReadingItemRepo,
	sentenceRepo contentrepo.SentenceRepo,
	patternRepo contentrepo.PatternRepo,
) LibraryService {
	return &libraryService{
		log:          log.With("service", "LibraryService"),
		registryRepo: registryRepo,
		readingRepo:  readingRepo,
		sentenceRepo: sentenceRepo,
		patternRepo:  patternRepo,
	}
}

func (s *libraryService) Global(ctx context.Context, limit int) ([]*LibraryEntry, error) {
	dbc := dbctx.Context{Ctx: ctx}
	items, err := s.registryRepo.ListGlobalApproved(dbc, limit)
	if err != nil {
		return nil, dberr.Map("library-global", err)
	}
	return s.hydrate(dbc, items)
}

func (s *libraryService) MyContent(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*LibraryEntry, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	dbc := dbctx.Context{Ctx: ctx}
	items, err := s.registryRepo.ListByOwner(dbc, rd.UserID, limit)
	if err != nil {
		return nil, dberr.Map("library-my-content", err)
	}
	kept := items[:0]
	for _, it := range items {
		if it.OperationalStatus == types.StatusUnderReview {
			continue
		}
		kept = append(kept, it)
	}
	return s.hydrate(dbc, kept)
}

// hydrate batch-loads the module rows behind the registry items, one query
// per content type.
func (s *libraryService) hydrate(dbc dbctx.Context, items []*types.RegistryItem) ([]*LibraryEntry, error) {
	byType := map[string][]uuid.UUID{}
	for _, it := range items {
		byType[it.ContentType] = append(byType[it.ContentType], it.ContentID)
	}

	content := map[string]interface{}{}
	key := func(contentType string, id uuid.UUID) string { return contentType + "/" + id.String() }

	if ids := byType[types.ContentTypeReadingItem]; len(ids) > 0 {
		rows, err := s.readingRepo.GetByIDs(dbc, ids)
		if err != nil {
			return nil, dberr.Map("library-hydrate", err)
		}
		for _, r := range rows {
			content[key(types.ContentTypeReadingItem, r.ID)] = r
		}
	}
	if ids := byType[types.ContentTypeSentence]; len(ids) > 0 {
		rows, err := s.sentenceRepo.GetByIDs(dbc, ids)
		if err != nil {
			return nil, dberr.Map("library-hydrate", err)
		}
		for _, r := range rows {
			content[key(types.ContentTypeSentence, r.ID)] = r
		}
	}
	if ids := byType[types.ContentTypePattern]; len(ids) > 0 {
		rows, err := s.patternRepo.GetByIDs(dbc, ids)
		if err != nil {
			return nil, dberr.Map("library-hydrate", err)
		}
		for _, r := range rows {
			content[key(types.ContentTypePattern, r.ID)] = r
		}
	}

	out := make([]*LibraryEntry, 0, len(items))
	for _, it := range items {
		out = append(out, &LibraryEntry{Item: it, Content: content[key(it.ContentType, it.ContentID)]})
	}
	return out, nil
}
