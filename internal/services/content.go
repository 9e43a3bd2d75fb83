package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	contentrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/content"
	mediarepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/media"
	registryrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/registry"
	"github.com/hakmun-app/hakmun-backend/internal/data/txn"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// Audience change verbs accepted by SetAudience.
const (
	AudienceVerbSetGlobal      = "set_global"
	AudienceVerbSetPersonal    = "set_personal"
	AudienceVerbSetPreliminary = "set_preliminary"
)

type ReadingItemInput struct {
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Translation  string     `json:"translation"`
	Level        string     `json:"level"`
	AudioAssetID *uuid.UUID `json:"audioAssetId"`
}

type SentenceInput struct {
	Text        string `json:"text"`
	Translation string `json:"translation"`
	Note        string `json:"note"`
}

type PatternInput struct {
	Pattern     string `json:"pattern"`
	Explanation string `json:"explanation"`
	Example     string `json:"example"`
}

// ContentService creates content through the registry creation contract:
// the module-table insert and the personal/active registry row commit in
// one bounded transaction.
type ContentService interface {
	CreateReadingItem(ctx context.Context, rd *ctxutil.RequestData, in ReadingItemInput) (*types.ReadingItem, *types.RegistryItem, error)
	CreateSentence(ctx context.Context, rd *ctxutil.RequestData, in SentenceInput) (*types.Sentence, *types.RegistryItem, error)
	CreatePattern(ctx context.Context, rd *ctxutil.RequestData, in PatternInput) (*types.Pattern, *types.RegistryItem, error)
	ListMyReadingItems(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.ReadingItem, error)
	ListMySentences(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.Sentence, error)
	ListMyPatterns(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.Pattern, error)
	// SetAudience moves content between the personal and global flows.
	// Owner or root admin; refused while the item is under review.
	SetAudience(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, verb string) (*types.RegistryItem, error)
}

type contentService struct {
	log            *logger.Logger
	runner         txn.Runner
	registrySvc    RegistryService
	registryRepo   registryrepo.RegistryRepo
	moderationRepo registryrepo.ModerationRepo
	readingRepo    contentrepo.ReadingItemRepo
	sentenceRepo   contentrepo.SentenceRepo
	patternRepo    contentrepo.PatternRepo
	assetRepo      mediarepo.AssetRepo
}

func NewContentService(
	log *logger.Logger,
	runner txn.Runner,
	registrySvc RegistryService,
	registryRepo registryrepo.RegistryRepo,
	moderationRepo registryrepo.ModerationRepo,
	readingRepo contentrepo.ReadingItemRepo,
	sentenceRepo contentrepo.SentenceRepo,
	patternRepo contentrepo.PatternRepo,
	assetRepo mediarepo.AssetRepo,
) ContentService {
	return &contentService{
		log:            log.With("service", "ContentService"),
		runner:         runner,
		registrySvc:    registrySvc,
		registryRepo:   registryRepo,
		moderationRepo: moderationRepo,
		readingRepo:    readingRepo,
		sentenceRepo:   sentenceRepo,
		patternRepo:    patternRepo,
		assetRepo:      assetRepo,
	}
}

func (s *contentService) createRegistryRow(dbc dbctx.Context, contentType string, contentID, ownerUserID uuid.UUID) (*types.RegistryItem, error) {
	item := &types.RegistryItem{
		ContentType:       contentType,
		ContentID:         contentID,
		OwnerUserID:       ownerUserID,
		Audience:          types.AudiencePersonal,
		OperationalStatus: types.StatusActive,
	}
	if err := s.registryRepo.Create(dbc, item); err != nil {
		return nil, dberr.Map("db-insert-registry", err)
	}
	return item, nil
}

func (s *contentService) CreateReadingItem(ctx context.Context, rd *ctxutil.RequestData, in ReadingItemInput) (*types.ReadingItem, *types.RegistryItem, error) {
	if rd == nil {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	if in.Title == "" || in.Body == "" {
		return nil, nil, apierr.Invalid("invalid:reading-item", fmt.Errorf("title and body are required"))
	}
	if in.AudioAssetID != nil {
		asset, err := s.assetRepo.GetByID(dbctx.Context{Ctx: ctx}, *in.AudioAssetID)
		if err != nil {
			return nil, nil, dberr.Map("db-read-asset", err)
		}
		if asset == nil || asset.OwnerUserID != rd.UserID {
			return nil, nil, apierr.Invalid("invalid:audio-asset", fmt.Errorf("audio asset does not exist or is not yours"))
		}
	}

	item := &types.ReadingItem{
		OwnerUserID:  rd.UserID,
		Title:        in.Title,
		Body:         in.Body,
		Translation:  in.Translation,
		Level:        in.Level,
		AudioAssetID: in.AudioAssetID,
	}
	var reg *types.RegistryItem
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		if err := s.readingRepo.Create(txc, item); err != nil {
			return dberr.Map("db-insert-reading-item", err)
		}
		var err error
		reg, err = s.createRegistryRow(txc, types.ContentTypeReadingItem, item.ID, rd.UserID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return item, reg, nil
}

func (s *contentService) CreateSentence(ctx context.Context, rd *ctxutil.RequestData, in SentenceInput) (*types.Sentence, *types.RegistryItem, error) {
	if rd == nil {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	if in.Text == "" {
		return nil, nil, apierr.Invalid("invalid:sentence", fmt.Errorf("text is required"))
	}
	sent := &types.Sentence{
		OwnerUserID: rd.UserID,
		Text:        in.Text,
		Translation: in.Translation,
		Note:        in.Note,
	}
	var reg *types.RegistryItem
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		if err := s.sentenceRepo.Create(txc, sent); err != nil {
			return dberr.Map("db-insert-sentence", err)
		}
		var err error
		reg, err = s.createRegistryRow(txc, types.ContentTypeSentence, sent.ID, rd.UserID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return sent, reg, nil
}

func (s *contentService) CreatePattern(ctx context.Context, rd *ctxutil.RequestData, in PatternInput) (*types.Pattern, *types.RegistryItem, error) {
	if rd == nil {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	if in.Pattern == "" {
		return nil, nil, apierr.Invalid("invalid:pattern", fmt.Errorf("pattern is required"))
	}
	pat := &types.Pattern{
		OwnerUserID: rd.UserID,
		Pattern:     in.Pattern,
		Explanation: in.Explanation,
		Example:     in.Example,
	}
	var reg *types.RegistryItem
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		if err := s.patternRepo.Create(txc, pat); err != nil {
			return dberr.Map("db-insert-pattern", err)
		}
		var err error
		reg, err = s.createRegistryRow(txc, types.ContentTypePattern, pat.ID, rd.UserID)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return pat, reg, nil
}

func (s *contentService) ListMyReadingItems(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.ReadingItem, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	rows, err := s.readingRepo.ListByOwner(dbctx.Context{Ctx: ctx}, rd.UserID, limit)
	if err != nil {
		return nil, dberr.Map("db-list-reading-items", err)
	}
	return rows, nil
}

func (s *contentService) ListMySentences(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.Sentence, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	rows, err := s.sentenceRepo.ListByOwner(dbctx.Context{Ctx: ctx}, rd.UserID, limit)
	if err != nil {
		return nil, dberr.Map("db-list-sentences", err)
	}
	return rows, nil
}

func (s *contentService) ListMyPatterns(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.Pattern, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	rows, err := s.patternRepo.ListByOwner(dbctx.Context{Ctx: ctx}, rd.UserID, limit)
	if err != nil {
		return nil, dberr.Map("db-list-patterns", err)
	}
	return rows, nil
}

func (s *contentService) SetAudience(ctx context.Context, rd *ctxutil.RequestData, contentType string, contentID uuid.UUID, verb string) (*types.RegistryItem, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	var action string
	switch verb {
	case AudienceVerbSetGlobal:
		action = types.ActionSetGlobal
	case AudienceVerbSetPersonal:
		action = types.ActionSetPersonal
	case AudienceVerbSetPreliminary:
		action = types.ActionSetPreliminary
	default:
		return nil, apierr.Invalid("invalid:audience-verb", fmt.Errorf("unknown audience verb %q", verb))
	}

	var out *types.RegistryItem
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		item, err := s.registrySvc.EnsureItemForUpdate(txc, contentType, contentID)
		if err != nil {
			return err
		}
		if item.OwnerUserID != rd.UserID && !(rd.IsRootAdmin && !rd.Impersonating) {
			return apierr.Forbidden("forbidden:not-owner", fmt.Errorf("actor does not own this content"))
		}
		if item.OperationalStatus == types.StatusUnderReview {
			return apierr.Conflict("conflict:under-review", fmt.Errorf("content is quarantined; restore it first"))
		}

		before := snapshotJSON(item)
		switch verb {
		case AudienceVerbSetGlobal:
			if item.Audience == types.AudienceGlobal {
				out = item
				return nil
			}
			prelim := types.GlobalStatePreliminary
			item.Audience = types.AudienceGlobal
			item.GlobalState = &prelim
		case AudienceVerbSetPersonal:
			if item.Audience == types.AudiencePersonal {
				out = item
				return nil
			}
			item.Audience = types.AudiencePersonal
			item.GlobalState = nil
		case AudienceVerbSetPreliminary:
			if item.Audience != types.AudienceGlobal || item.GlobalState == nil {
				return apierr.Conflict("conflict:not-global", fmt.Errorf("content is not in the global flow"))
			}
			if *item.GlobalState == types.GlobalStatePreliminary {
				out = item
				return nil
			}
			prelim := types.GlobalStatePreliminary
			item.GlobalState = &prelim
		}

		if err := s.registryRepo.Save(txc, item); err != nil {
			return dberr.Map("db-save-registry", err)
		}
		if err := appendModerationAction(txc, s.moderationRepo, rd, item, action, "", before, snapshotJSON(item)); err != nil {
			return dberr.Map("moderation-audit", err)
		}
		out = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
