package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

const (
	TokenIssuer   = "hakmun-api"
	TokenAudience = "hakmun-app"

	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"

	AccessTokenTTL        = 30 * time.Minute
	RefreshTokenTTL       = 30 * 24 * time.Hour
	ImpersonationTokenTTL = 10 * time.Minute
)

// SessionClaims is the signed token payload. Tokens are stateless; disabling
// a user takes effect on the next verified request, not retroactively.
type SessionClaims struct {
	Typ string `json:"typ"`
	Imp bool   `json:"imp,omitempty"`
	Act string `json:"act,omitempty"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

type SessionService interface {
	IssueTokens(user *types.User) (*TokenPair, error)
	// IssueImpersonationToken mints a short-lived access token whose subject
	// is the target and whose act claim names the root-admin actor. There is
	// no refresh variant.
	IssueImpersonationToken(target *types.User, actorUserID uuid.UUID) (string, error)
	// Refresh swaps a refresh token for a fresh pair. Impersonation tokens
	// cannot be refreshed.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, *types.User, error)
	// ExitImpersonation swaps an impersonation access token for a regular
	// pair belonging to the actor.
	ExitImpersonation(ctx context.Context, accessToken string) (*TokenPair, *types.User, error)
	// SetContextFromToken verifies an access token, loads the subject's live
	// state, and attaches RequestData (identity + entitlements) to ctx.
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type sessionService struct {
	log      *logger.Logger
	userRepo userrepo.UserRepo
	secret   []byte
}

func NewSessionService(log *logger.Logger, userRepo userrepo.UserRepo, secret string) (SessionService, error) {
	if secret == "" {
		return nil, fmt.Errorf("SESSION_JWT_SECRET is required")
	}
	return &sessionService{
		log:      log.With("service", "SessionService"),
		userRepo: userRepo,
		secret:   []byte(secret),
	}, nil
}

func (s *sessionService) sign(subject string, typ string, ttl time.Duration, imp bool, act string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Typ: typ,
		Imp: imp,
		Act: act,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *sessionService) IssueTokens(user *types.User) (*TokenPair, error) {
	access, err := s.sign(user.ID.String(), TokenTypeAccess, AccessTokenTTL, false, "")
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := s.sign(user.ID.String(), TokenTypeRefresh, RefreshTokenTTL, false, "")
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(AccessTokenTTL.Seconds()),
	}, nil
}

func (s *sessionService) IssueImpersonationToken(target *types.User, actorUserID uuid.UUID) (string, error) {
	return s.sign(target.ID.String(), TokenTypeAccess, ImpersonationTokenTTL, true, actorUserID.String())
}

func (s *sessionService) parse(tokenString string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithExpirationRequired(),
	)
	claims := &SessionClaims{}
	tok, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid session token: %w", err))
	}
	if tok == nil || !tok.Valid {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid session token"))
	}
	return claims, nil
}

func (s *sessionService) loadLiveUser(ctx context.Context, subject string) (*types.User, error) {
	userID, err := uuid.Parse(subject)
	if err != nil {
		return nil, apierr.Unauthorized(fmt.Errorf("invalid subject in token"))
	}
	users, err := s.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load session user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.Unauthorized(fmt.Errorf("unknown session user"))
	}
	u := users[0]
	if !u.IsActive {
		return nil, apierr.Forbidden("forbidden:disabled", fmt.Errorf("account is disabled"))
	}
	return u, nil
}

func (s *sessionService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return ctx, err
	}
	if claims.Typ != TokenTypeAccess {
		return ctx, apierr.Unauthorized(fmt.Errorf("token type %q is not accepted here", claims.Typ))
	}

	var actorUserID uuid.UUID
	if claims.Imp {
		if claims.Act == "" {
			return ctx, apierr.Unauthorized(fmt.Errorf("impersonation token missing act claim"))
		}
		actorUserID, err = uuid.Parse(claims.Act)
		if err != nil {
			return ctx, apierr.Unauthorized(fmt.Errorf("impersonation token has invalid act claim"))
		}
	}

	u, err := s.loadLiveUser(ctx, claims.Subject)
	if err != nil {
		return ctx, err
	}

	ents, caps := DeriveEntitlements(u, claims.Imp)
	rd := &ctxutil.RequestData{
		UserID:        u.ID,
		Role:          u.Role,
		IsActive:      u.IsActive,
		IsAdmin:       u.IsAdmin,
		IsRootAdmin:   u.IsRootAdmin,
		Impersonating: claims.Imp,
		ActorUserID:   actorUserID,
		Entitlements:  ents,
		Capabilities:  caps,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (s *sessionService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, *types.User, error) {
	claims, err := s.parse(refreshToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.Typ != TokenTypeRefresh {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("refresh requires a refresh token"))
	}
	if claims.Imp {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("impersonation sessions cannot be refreshed"))
	}
	u, err := s.loadLiveUser(ctx, claims.Subject)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.IssueTokens(u)
	if err != nil {
		return nil, nil, err
	}
	return pair, u, nil
}

func (s *sessionService) ExitImpersonation(ctx context.Context, accessToken string) (*TokenPair, *types.User, error) {
	claims, err := s.parse(accessToken)
	if err != nil {
		return nil, nil, err
	}
	if claims.Typ != TokenTypeAccess || !claims.Imp || claims.Act == "" {
		return nil, nil, apierr.Unauthorized(fmt.Errorf("exit requires an impersonation access token"))
	}
	actor, err := s.loadLiveUser(ctx, claims.Act)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.IssueTokens(actor)
	if err != nil {
		return nil, nil, err
	}
	return pair, actor, nil
}
