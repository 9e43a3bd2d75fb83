package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// WhoamiView is the session self-description returned by whoami.
type WhoamiView struct {
	UserID          uuid.UUID            `json:"userId"`
	Role            string               `json:"role"`
	IsActive        bool                 `json:"isActive"`
	IsAdmin         bool                 `json:"isAdmin"`
	IsRootAdmin     bool                 `json:"isRootAdmin"`
	Impersonating   bool                 `json:"impersonating"`
	ActorUserID     *uuid.UUID           `json:"actorUserId,omitempty"`
	Entitlements    []string             `json:"entitlements"`
	Capabilities    ctxutil.Capabilities `json:"capabilities"`
	PrimaryHandle   string               `json:"primaryHandle,omitempty"`
	ProfileComplete bool                 `json:"profileComplete"`
}

type AccountService interface {
	Whoami(ctx context.Context, rd *ctxutil.RequestData) (*WhoamiView, error)
}

type accountService struct {
	log        *logger.Logger
	handleRepo userrepo.HandleRepo
	safetySvc  AdminSafetyService
}

func NewAccountService(log *logger.Logger, handleRepo userrepo.HandleRepo, safetySvc AdminSafetyService) AccountService {
	return &accountService{
		log:        log.With("service", "AccountService"),
		handleRepo: handleRepo,
		safetySvc:  safetySvc,
	}
}

func (s *accountService) Whoami(ctx context.Context, rd *ctxutil.RequestData) (*WhoamiView, error) {
	if rd == nil {
		return nil, apierr.Unauthorized(fmt.Errorf("no session"))
	}
	// Whoami is a hot path; let the safety monitor piggyback on it.
	s.safetySvc.Ensure(ctx)

	handles, err := s.handleRepo.GetPrimaryByUserIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, dberr.Map("whoami-handle", err)
	}
	view := &WhoamiView{
		UserID:        rd.UserID,
		Role:          rd.Role,
		IsActive:      rd.IsActive,
		IsAdmin:       rd.IsAdmin,
		IsRootAdmin:   rd.IsRootAdmin,
		Impersonating: rd.Impersonating,
		Entitlements:  rd.Entitlements,
		Capabilities:  rd.Capabilities,
	}
	if rd.Impersonating {
		actor := rd.ActorUserID
		view.ActorUserID = &actor
	}
	if len(handles) > 0 {
		view.PrimaryHandle = handles[0].Handle
		view.ProfileComplete = true
	}
	return view, nil
}
