package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/dberr"
	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	"github.com/hakmun-app/hakmun-backend/internal/data/txn"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
	"github.com/hakmun-app/hakmun-backend/internal/platform/logger"
)

// AdminUserView is the admin-facing read model: the user row plus the
// primary handle when one exists.
type AdminUserView struct {
	User          *types.User `json:"user"`
	PrimaryHandle string      `json:"primary_handle,omitempty"`
}

type AdminUserPatch struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"isActive"`
}

type AdminUsersService interface {
	// CreateUser makes a user with the given primary handle. Handle
	// uniqueness is case-insensitive; a duplicate answers 409.
	CreateUser(ctx context.Context, rd *ctxutil.RequestData, handle, role string) (*AdminUserView, error)
	// Search matches a UUID exactly or a handle substring case-insensitively.
	Search(ctx context.Context, rd *ctxutil.RequestData, query string, limit int) ([]*AdminUserView, error)
	// UpdateUser patches role and/or isActive. Deactivating a pinned root
	// admin is refused.
	UpdateUser(ctx context.Context, rd *ctxutil.RequestData, targetID uuid.UUID, patch AdminUserPatch) (*AdminUserView, error)
	// Impersonate issues a short-lived impersonation token for an active
	// target user.
	Impersonate(ctx context.Context, rd *ctxutil.RequestData, targetID uuid.UUID) (string, *types.User, error)
}

type adminUsersService struct {
	log        *logger.Logger
	runner     txn.Runner
	userRepo   userrepo.UserRepo
	handleRepo userrepo.HandleRepo
	sessionSvc SessionService
	safetySvc  AdminSafetyService
}

func NewAdminUsersService(
	log *logger.Logger,
	runner txn.Runner,
	userRepo userrepo.UserRepo,
	handleRepo userrepo.HandleRepo,
	sessionSvc SessionService,
	safetySvc AdminSafetyService,
) AdminUsersService {
	return &adminUsersService{
		log:        log.With("service", "AdminUsersService"),
		runner:     runner,
		userRepo:   userRepo,
		handleRepo: handleRepo,
		sessionSvc: sessionSvc,
		safetySvc:  safetySvc,
	}
}

func validRole(role string) bool {
	return role == types.RoleStudent || role == types.RoleTeacher
}

func (s *adminUsersService) CreateUser(ctx context.Context, rd *ctxutil.RequestData, handle, role string) (*AdminUserView, error) {
	if err := requireRootAdmin(rd); err != nil {
		return nil, err
	}
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return nil, apierr.Invalid("invalid:handle", fmt.Errorf("handle is required"))
	}
	if role == "" {
		role = types.RoleStudent
	}
	if !validRole(role) {
		return nil, apierr.Invalid("invalid:role", fmt.Errorf("unknown role %q", role))
	}

	var view *AdminUserView
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		u := &types.User{Role: role, IsActive: true}
		rows, err := s.userRepo.Create(txc, []*types.User{u})
		if err != nil {
			return dberr.Map("admin-create-user", err)
		}
		u = rows[0]
		h := &types.Handle{
			UserID:        u.ID,
			Handle:        handle,
			Kind:          types.HandleKindPrimary,
			PrimaryHandle: handle,
		}
		if _, err := s.handleRepo.Create(txc, []*types.Handle{h}); err != nil {
			if dberr.IsUniqueViolation(err) {
				return apierr.Conflict("conflict:handle-taken", fmt.Errorf("handle %q is taken", handle))
			}
			return dberr.Map("admin-create-handle", err)
		}
		view = &AdminUserView{User: u, PrimaryHandle: handle}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *adminUsersService) Search(ctx context.Context, rd *ctxutil.RequestData, query string, limit int) ([]*AdminUserView, error) {
	if err := requireRootAdmin(rd); err != nil {
		return nil, err
	}
	s.safetySvc.Ensure(ctx)

	dbc := dbctx.Context{Ctx: ctx}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*AdminUserView{}, nil
	}

	if id, err := uuid.Parse(query); err == nil {
		users, err := s.userRepo.GetByIDs(dbc, []uuid.UUID{id})
		if err != nil {
			return nil, dberr.Map("admin-search", err)
		}
		return s.toViews(dbc, users)
	}

	handles, err := s.handleRepo.SearchPrimary(dbc, query, limit)
	if err != nil {
		return nil, dberr.Map("admin-search", err)
	}
	ids := make([]uuid.UUID, 0, len(handles))
	byUser := make(map[uuid.UUID]string, len(handles))
	for _, h := range handles {
		ids = append(ids, h.UserID)
		byUser[h.UserID] = h.Handle
	}
	users, err := s.userRepo.GetByIDs(dbc, ids)
	if err != nil {
		return nil, dberr.Map("admin-search", err)
	}
	out := make([]*AdminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, &AdminUserView{User: u, PrimaryHandle: byUser[u.ID]})
	}
	return out, nil
}

func (s *adminUsersService) toViews(dbc dbctx.Context, users []*types.User) ([]*AdminUserView, error) {
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	handles, err := s.handleRepo.GetPrimaryByUserIDs(dbc, ids)
	if err != nil {
		return nil, dberr.Map("admin-search", err)
	}
	byUser := make(map[uuid.UUID]string, len(handles))
	for _, h := range handles {
		byUser[h.UserID] = h.Handle
	}
	out := make([]*AdminUserView, 0, len(users))
	for _, u := range users {
		out = append(out, &AdminUserView{User: u, PrimaryHandle: byUser[u.ID]})
	}
	return out, nil
}

func (s *adminUsersService) UpdateUser(ctx context.Context, rd *ctxutil.RequestData, targetID uuid.UUID, patch AdminUserPatch) (*AdminUserView, error) {
	if err := requireRootAdmin(rd); err != nil {
		return nil, err
	}
	if patch.Role == nil && patch.IsActive == nil {
		return nil, apierr.Invalid("invalid:empty-patch", fmt.Errorf("nothing to update"))
	}
	if patch.Role != nil && !validRole(*patch.Role) {
		return nil, apierr.Invalid("invalid:role", fmt.Errorf("unknown role %q", *patch.Role))
	}
	if patch.IsActive != nil && !*patch.IsActive && s.safetySvc.IsPinned(targetID) {
		return nil, apierr.Forbidden("forbidden:pinned-root-admin", fmt.Errorf("pinned root admins cannot be deactivated"))
	}

	var view *AdminUserView
	err := s.runner.InBoundedTx(ctx, func(txc dbctx.Context) error {
		users, err := s.userRepo.GetByIDs(txc, []uuid.UUID{targetID})
		if err != nil {
			return dberr.Map("admin-patch", err)
		}
		if len(users) == 0 {
			return apierr.NotFound(fmt.Errorf("no user with id %s", targetID))
		}
		fields := map[string]interface{}{}
		if patch.Role != nil {
			fields["role"] = *patch.Role
		}
		if patch.IsActive != nil {
			fields["is_active"] = *patch.IsActive
		}
		if err := s.userRepo.UpdateFields(txc, targetID, fields); err != nil {
			return dberr.Map("admin-patch", err)
		}
		users, err = s.userRepo.GetByIDs(txc, []uuid.UUID{targetID})
		if err != nil {
			return dberr.Map("admin-patch", err)
		}
		views, err := s.toViews(txc, users)
		if err != nil {
			return err
		}
		view = views[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

func (s *adminUsersService) Impersonate(ctx context.Context, rd *ctxutil.RequestData, targetID uuid.UUID) (string, *types.User, error) {
	if err := requireRootAdmin(rd); err != nil {
		return "", nil, err
	}
	if targetID == rd.UserID {
		return "", nil, apierr.Invalid("invalid:self-impersonation", fmt.Errorf("cannot impersonate yourself"))
	}
	users, err := s.userRepo.GetByIDs(dbctx.Context{Ctx: ctx}, []uuid.UUID{targetID})
	if err != nil {
		return "", nil, dberr.Map("admin-impersonate", err)
	}
	if len(users) == 0 {
		return "", nil, apierr.NotFound(fmt.Errorf("no user with id %s", targetID))
	}
	target := users[0]
	if !target.IsActive {
		return "", nil, apierr.Forbidden("forbidden:disabled", fmt.Errorf("target account is disabled"))
	}
	token, err := s.sessionSvc.IssueImpersonationToken(target, rd.UserID)
	if err != nil {
		return "", nil, err
	}
	s.log.Info("impersonation issued", "actor", rd.UserID, "target", targetID)
	return token, target, nil
}
