package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// SmokeService issues a real token pair for a fixed user when the posted
// secret matches the configured bcrypt hash. Backend smoke tests only;
// disabled deployments answer 404 as if the endpoint did not exist.
type SmokeService interface {
	Enabled() bool
	IssueTokens(ctx context.Context, secret string) (*TokenPair, *types.User, error)
}

type smokeService struct {
	log        *logger.Logger
	userRepo   userrepo.UserRepo
	sessionSvc SessionService

	enabled    bool
	secretHash []byte
	userID     uuid.UUID
}

func NewSmokeService(log *logger.Logger, userRepo userrepo.UserRepo, sessionSvc SessionService, enabled bool, secretHash string, userID uuid.UUID) SmokeService {
	return &smokeService{
		log:        log.With("service", "SmokeService"),
		userRepo:   userRepo,
		sessionSvc: sessionSvc,
		enabled:    enabled && secretHash != "" && userID != uuid.Nil,
		secretHash: []byte(secretHash),
		userID:     userID,
	}
}

func (s *smokeService) Enabled() bool { return s.enabled }

func (s *smokeService) IssueTokens(ctx context.Context, secret string) (*TokenPair, *types.User, error) {
	if !s.enabled {
		return nil, nil, apierr.NotFound(fmt.Errorf("not found"))
	}
	if err := bcrypt.CompareHashAndPassword(s.secretHash, []byte(secret)); err != nil {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("smoke secret rejected"))
	}
	users, err := s.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{s.userID})
	if err != nil {
		return nil, nil, dberr.Map("smoke-load-user", err)
	}
	if len(users) == 0 || !users[0].IsActive {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("smoke user is missing or disabled"))
	}
	pair, err := s.sessionSvc.IssueTokens(users[0])
	if err != nil {
		return nil, nil, err
	}
	s.log.Warn("smoke token issued", "user_id", s.userID)
	return pair, users[0], nil
}
