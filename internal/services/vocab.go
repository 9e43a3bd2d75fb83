package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	contentrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/content"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

type VocabPinInput struct {
	Word    string `json:"word"`
	Reading string `json:"reading"`
	Gloss   string `json:"gloss"`
}

// VocabService manages personal dictionary pins. Pins never enter the
// registry; they are visible to their owner only.
type VocabService interface {
	Pin(ctx context.Context, rd *ctxutil.RequestData, in VocabPinInput) (*types.VocabPin, error)
	Unpin(ctx context.Context, rd *ctxutil.RequestData, word string) (*RevokeResult, error)
	List(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.VocabPin, error)
}

type vocabService struct {
	log     *logger.Logger
	pinRepo contentrepo.VocabPinRepo
}

func NewVocabService(log *logger.Logger, pinRepo contentrepo.VocabPinRepo) VocabService {
	return &vocabService{log: log.With("service", "VocabService"), pinRepo: pinRepo}
}

func (s *vocabService) Pin(ctx context.Context, rd *ctxutil.RequestData, in VocabPinInput) (*types.VocabPin, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	word := strings.TrimSpace(in.Word)
	if word == "" {
		return nil, apierr.Invalid("invalid:word", fmt.Errorf("word is required"))
	}
	pin := &types.VocabPin{
		UserID:  rd.UserID,
		Word:    word,
		Reading: in.Reading,
		Gloss:   in.Gloss,
	}
	if err := s.pinRepo.PinIgnoreConflict(dbctx.Context{Ctx: ctx}, pin); err != nil {
		return nil, dberr.Map("db-insert-pin", err)
	}
	return pin, nil
}

func (s *vocabService) Unpin(ctx context.Context, rd *ctxutil.RequestData, word string) (*RevokeResult, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	n, err := s.pinRepo.Unpin(dbctx.Context{Ctx: ctx}, rd.UserID, strings.TrimSpace(word))
	if err != nil {
		return nil, dberr.Map("db-delete-pin", err)
	}
	return &RevokeResult{Revoked: n}, nil
}

func (s *vocabService) List(ctx context.Context, rd *ctxutil.RequestData, limit int) ([]*types.VocabPin, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	pins, err := s.pinRepo.ListByUser(dbctx.Context{Ctx: ctx}, rd.UserID, limit)
	if err != nil {
		return nil, dberr.Map("db-list-pins", err)
	}
	return pins, nil
}
