package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// EnsureThrottle bounds how often opportunistic hot-path triggers actually
// run the monitor.
const EnsureThrottle = 30 * time.Second

// AdminSafetyService keeps the system from ending up with zero active root
// administrators. The pinned id list comes from configuration and is read on
// every pass so operators can adjust it at deploy time.
type AdminSafetyService interface {
	// Ensure runs a monitor pass unless one ran within EnsureThrottle.
	// Safe to call from hot request paths; never fails the caller.
	Ensure(ctx context.Context)
	// RunNow runs a monitor pass unconditionally.
	RunNow(ctx context.Context) error
	// IsPinned reports whether the user id is on the pinned list. Pinned
	// users cannot be deactivated through the admin API.
	IsPinned(userID uuid.UUID) bool
}

type adminSafetyService struct {
	log        *logger.Logger
	userRepo   userrepo.UserRepo
	pinned     []uuid.UUID
	production bool

	lastRun atomic.Int64 // unix nanos of the last completed pass
}

func NewAdminSafetyService(log *logger.Logger, userRepo userrepo.UserRepo, pinnedIDs []uuid.UUID, production bool) AdminSafetyService {
	return &adminSafetyService{
		log:        log.With("service", "AdminSafetyService"),
		userRepo:   userRepo,
		pinned:     pinnedIDs,
		production: production,
	}
}

func (s *adminSafetyService) IsPinned(userID uuid.UUID) bool {
	for _, id := range s.pinned {
		if id == userID {
			return true
		}
	}
	return false
}

func (s *adminSafetyService) Ensure(ctx context.Context) {
	last := s.lastRun.Load()
	now := time.Now().UnixNano()
	if now-last < int64(EnsureThrottle) {
		return
	}
	if !s.lastRun.CompareAndSwap(last, now) {
		// Another request claimed this window.
		return
	}
	if err := s.RunNow(ctx); err != nil {
		s.log.Error("admin safety pass failed", "error", err)
	}
}

func (s *adminSafetyService) RunNow(ctx context.Context) error {
	dbc := dbctx.Context{Ctx: ctx}

	count, err := s.userRepo.CountActiveRootAdmins(dbc)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if len(s.pinned) == 0 {
		if s.production {
			s.log.Error("CRITICAL: zero active root admins and no pinned ids configured")
		} else {
			s.log.Warn("zero active root admins and no pinned ids configured")
		}
		return nil
	}

	for _, id := range s.pinned {
		if err := s.userRepo.PromoteRootAdmin(dbc, id); err != nil {
			s.log.Error("promote pinned root admin failed", "error", err, "user_id", id)
			continue
		}
		s.log.Warn("promoted pinned root admin", "user_id", id)
	}

	count, err = s.userRepo.CountActiveRootAdmins(dbc)
	if err != nil {
		return err
	}
	if count == 0 && s.production {
		s.log.Error("CRITICAL: zero active root admins after promotion pass")
	}
	return nil
}
