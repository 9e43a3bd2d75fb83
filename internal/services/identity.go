package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	authrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/auth"
	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	"github.com/hakmun-app/hakmun-backend/internal/data/txn"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apple"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// IdentityService resolves verified Apple identity tokens to canonical
// users, creating users and identity bindings on first sight.
type IdentityService interface {
	// ResolveAppleSignIn verifies idToken and returns the canonical user it
	// resolves to. created reports whether a brand-new user row was made.
	ResolveAppleSignIn(ctx context.Context, idToken string) (user *types.User, created bool, err error)
}

type identityService struct {
	log       *logger.Logger
	runner    txn.Runner
	verifier  apple.Verifier
	userRepo  userrepo.UserRepo
	identRepo authrepo.IdentityRepo
}

func NewIdentityService(
	log *logger.Logger,
	runner txn.Runner,
	verifier apple.Verifier,
	userRepo userrepo.UserRepo,
	identRepo authrepo.IdentityRepo,
) IdentityService {
	return &identityService{
		log:       log.With("service", "IdentityService"),
		runner:    runner,
		verifier:  verifier,
		userRepo:  userRepo,
		identRepo: identRepo,
	}
}

func (s *identityService) ResolveAppleSignIn(ctx context.Context, idToken string) (*types.User, bool, error) {
	ident, err := s.verifier.VerifyIdentityToken(ctx, idToken)
	if err != nil {
		return nil, false, apierr.Unauthorized(fmt.Errorf("apple identity token rejected: %w", err))
	}

	dbc := dbctx.Context{Ctx: ctx}

	// Exact fast path.
	exact, err := s.identRepo.GetExact(dbc, types.ProviderApple, ident.Subject, ident.Audience)
	if err != nil {
		return nil, false, dberr.Map("identity-fast-path", err)
	}
	if exact != nil {
		u, err := s.loadActiveUser(dbc, exact.UserID)
		if err != nil {
			return nil, false, err
		}
		s.touchLastSeen(exact.ID, u.ID)
		return u, false, nil
	}

	// Any-audience fast path. A binding for another client app already
	// names the user; bind this audience idempotently and move on.
	any, err := s.identRepo.GetAnyAudience(dbc, types.ProviderApple, ident.Subject)
	if err != nil {
		return nil, false, dberr.Map("identity-fast-path", err)
	}
	if any != nil {
		u, err := s.loadActiveUser(dbc, any.UserID)
		if err != nil {
			return nil, false, err
		}
		s.bindAudienceAsync(u.ID, ident)
		s.touchLastSeen(any.ID, u.ID)
		return u, false, nil
	}

	// Slow path: first sight of this subject, or a race we lost. The
	// advisory lock single-flights user creation per subject.
	var (
		resolved *types.User
		created  bool
	)
	err = s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		if err := txn.AdvisoryXactLock(txc, "apple:"+ident.Subject); err != nil {
			return dberr.Map("identity-lock", err)
		}

		// Re-check both paths under the lock.
		if row, err := s.identRepo.GetExact(txc, types.ProviderApple, ident.Subject, ident.Audience); err != nil {
			return dberr.Map("identity-recheck", err)
		} else if row != nil {
			u, err := s.loadActiveUser(txc, row.UserID)
			if err != nil {
				return err
			}
			resolved = u
			return nil
		}
		if row, err := s.identRepo.GetAnyAudience(txc, types.ProviderApple, ident.Subject); err != nil {
			return dberr.Map("identity-recheck", err)
		} else if row != nil {
			u, err := s.loadActiveUser(txc, row.UserID)
			if err != nil {
				return err
			}
			resolved = u
			if err := s.identRepo.CreateIgnoreConflict(txc, s.newBinding(u.ID, ident)); err != nil {
				return dberr.Map("identity-bind", err)
			}
			return nil
		}

		// Legacy bridge. The old column held emails for some rows and raw
		// subjects for others; prefer the email match.
		legacy, err := s.findLegacyUser(txc, ident)
		if err != nil {
			return err
		}
		if legacy != nil {
			resolved = legacy
		} else {
			u := &types.User{Role: types.RoleStudent, IsActive: true}
			rows, err := s.userRepo.Create(txc, []*types.User{u})
			if err != nil {
				return dberr.Map("identity-create-user", err)
			}
			resolved = rows[0]
			created = true
		}
		if !resolved.IsActive {
			return apierr.Forbidden("forbidden:disabled", fmt.Errorf("account is disabled"))
		}
		if err := s.identRepo.CreateIgnoreConflict(txc, s.newBinding(resolved.ID, ident)); err != nil {
			return dberr.Map("identity-bind", err)
		}
		return nil
	})
	if err != nil {
		return nil, false, dberr.Map("identity-slow-path", err)
	}

	s.touchLastSeen(uuid.Nil, resolved.ID)
	return resolved, created, nil
}

func (s *identityService) newBinding(userID uuid.UUID, ident *apple.Identity) *types.AuthIdentity {
	now := time.Now()
	return &types.AuthIdentity{
		UserID:     userID,
		Provider:   types.ProviderApple,
		Subject:    ident.Subject,
		Audience:   ident.Audience,
		LastSeenAt: &now,
	}
}

func (s *identityService) findLegacyUser(dbc dbctx.Context, ident *apple.Identity) (*types.User, error) {
	if ident.Email != "" {
		users, err := s.userRepo.GetByLegacyAppleIDs(dbc, []string{ident.Email})
		if err != nil {
			return nil, dberr.Map("identity-legacy-bridge", err)
		}
		if len(users) > 0 {
			return users[0], nil
		}
	}
	users, err := s.userRepo.GetByLegacyAppleIDs(dbc, []string{ident.Subject})
	if err != nil {
		return nil, dberr.Map("identity-legacy-bridge", err)
	}
	if len(users) > 0 {
		return users[0], nil
	}
	return nil, nil
}

func (s *identityService) loadActiveUser(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, dberr.Map("identity-load-user", err)
	}
	if len(users) == 0 {
		return nil, apierr.Unauthorized(fmt.Errorf("identity binding points at a missing user"))
	}
	if !users[0].IsActive {
		return nil, apierr.Forbidden("forbidden:disabled", fmt.Errorf("account is disabled"))
	}
	return users[0], nil
}

// bindAudienceAsync inserts the new (subject, audience) binding off the
// request path. Losing the race is fine; the insert ignores conflicts.
func (s *identityService) bindAudienceAsync(userID uuid.UUID, ident *apple.Identity) {
	binding := s.newBinding(userID, ident)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.identRepo.CreateIgnoreConflict(dbctx.Context{Ctx: ctx}, binding); err != nil {
			s.log.Warn("bind audience failed", "error", err, "user_id", userID)
		}
	}()
}

// touchLastSeen updates last_seen_at off the request path. Hot-row write,
// best effort only.
func (s *identityService) touchLastSeen(identityID, userID uuid.UUID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		dbc := dbctx.Context{Ctx: ctx}
		now := time.Now()
		if identityID != uuid.Nil {
			if err := s.identRepo.TouchLastSeen(dbc, identityID, now); err != nil {
				s.log.Debug("touch identity last_seen failed", "error", err)
			}
		}
		if err := s.userRepo.TouchLastSeen(dbc, userID, now); err != nil {
			s.log.Debug("touch user last_seen failed", "error", err)
		}
	}()
}
