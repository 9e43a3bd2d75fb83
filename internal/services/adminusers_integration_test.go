package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/repos/testutil"
	userrepo "github.com/hakmun-app/hakmun-backend/internal/data/repos/user"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
)

func (d *deps) adminSvc(t *testing.T, pinned []uuid.UUID) AdminUsersService {
	t.Helper()
	sessionSvc, err := NewSessionService(d.log, d.users, "test-secret")
	if err != nil {
		t.Fatalf("session service: %v", err)
	}
	safetySvc := NewAdminSafetyService(d.log, d.users, pinned, false)
	return NewAdminUsersService(d.log, d.runner, d.users, d.handles, sessionSvc, safetySvc)
}

func TestAdminCreateUser_HandleConflict(t *testing.T) {
	d := newDeps(t)
	root := d.seedUser(t, types.RoleStudent, true)
	svc := d.adminSvc(t, nil)

	handle := "hangul_" + uuid.NewString()[:8]
	view, err := svc.CreateUser(context.Background(), rdFor(root, false), handle, types.RoleTeacher)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.User.Role != types.RoleTeacher || view.PrimaryHandle != handle {
		t.Fatalf("unexpected view: %+v", view)
	}

	_, err = svc.CreateUser(context.Background(), rdFor(root, false), handle, "")
	ae := apierr.From(err)
	if ae.Status != 409 || ae.Code != "conflict:handle-taken" {
		t.Fatalf("duplicate handle: got %v, want 409 conflict:handle-taken", err)
	}

	// The failed attempt must not leave a half-created user behind.
	views, err := svc.Search(context.Background(), rdFor(root, false), handle, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("users with handle = %d, want 1", len(views))
	}
}

func TestAdminUpdateUser_PinnedRootAdminStaysActive(t *testing.T) {
	d := newDeps(t)
	root := d.seedUser(t, types.RoleStudent, true)
	pinned := d.seedUser(t, types.RoleStudent, true)
	svc := d.adminSvc(t, []uuid.UUID{pinned.ID})

	off := false
	_, err := svc.UpdateUser(context.Background(), rdFor(root, false), pinned.ID, AdminUserPatch{IsActive: &off})
	ae := apierr.From(err)
	if ae.Status != 403 || ae.Code != "forbidden:pinned-root-admin" {
		t.Fatalf("got %v, want 403 forbidden:pinned-root-admin", err)
	}

	// Role changes on a pinned admin are still allowed.
	teacher := types.RoleTeacher
	view, err := svc.UpdateUser(context.Background(), rdFor(root, false), pinned.ID, AdminUserPatch{Role: &teacher})
	if err != nil {
		t.Fatalf("role patch: %v", err)
	}
	if view.User.Role != types.RoleTeacher {
		t.Fatalf("role = %q, want teacher", view.User.Role)
	}
}

func TestAdminUpdateUser_EmptyPatchRejected(t *testing.T) {
	d := newDeps(t)
	root := d.seedUser(t, types.RoleStudent, true)
	svc := d.adminSvc(t, nil)

	_, err := svc.UpdateUser(context.Background(), rdFor(root, false), root.ID, AdminUserPatch{})
	if ae := apierr.From(err); ae.Status != 400 {
		t.Fatalf("got %v, want 400", err)
	}
}

func TestAdminImpersonate_GuardRails(t *testing.T) {
	d := newDeps(t)
	root := d.seedUser(t, types.RoleStudent, true)
	target := d.seedUser(t, types.RoleStudent, false)
	disabled := d.seedUser(t, types.RoleStudent, false)
	svc := d.adminSvc(t, nil)

	off := false
	if _, err := svc.UpdateUser(context.Background(), rdFor(root, false), disabled.ID, AdminUserPatch{IsActive: &off}); err != nil {
		t.Fatalf("disable target: %v", err)
	}

	if _, _, err := svc.Impersonate(context.Background(), rdFor(root, false), root.ID); err == nil {
		t.Fatalf("self-impersonation must be rejected")
	}
	_, _, err := svc.Impersonate(context.Background(), rdFor(root, false), disabled.ID)
	if ae := apierr.From(err); ae.Code != "forbidden:disabled" {
		t.Fatalf("impersonate disabled: got %v, want forbidden:disabled", err)
	}
	_, _, err = svc.Impersonate(context.Background(), rdFor(target, false), root.ID)
	if ae := apierr.From(err); ae.Code != "forbidden:root-admin-only" {
		t.Fatalf("non-admin impersonate: got %v, want forbidden:root-admin-only", err)
	}

	token, got, err := svc.Impersonate(context.Background(), rdFor(root, false), target.ID)
	if err != nil {
		t.Fatalf("impersonate: %v", err)
	}
	if got.ID != target.ID || token == "" {
		t.Fatalf("unexpected impersonation result: %v / %+v", token, got)
	}
}

func TestAdminSafety_PromotesPinnedWhenNoRootAdmins(t *testing.T) {
	d := newDeps(t)
	// The shared database may hold root admins from other tests. Running
	// the monitor over a rollback transaction lets the test empty the
	// root-admin pool without touching anyone else's rows.
	tx := testutil.Tx(t, d.db)
	users := userrepo.NewUserRepo(tx, d.log)
	dbc := dbctx.Context{Ctx: context.Background()}

	err := tx.Model(&types.User{}).
		Where("is_root_admin = ? AND is_active = ?", true, true).
		Update("is_active", false).Error
	if err != nil {
		t.Fatalf("clear root admins: %v", err)
	}

	pinned := &types.User{Role: types.RoleStudent, IsActive: true}
	if _, err := users.Create(dbc, []*types.User{pinned}); err != nil {
		t.Fatalf("seed pinned user: %v", err)
	}

	safetySvc := NewAdminSafetyService(d.log, users, []uuid.UUID{pinned.ID}, false)
	if err := safetySvc.RunNow(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := users.GetByIDs(dbc, []uuid.UUID{pinned.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("reload pinned user: %v (%d rows)", err, len(got))
	}
	if !got[0].IsRootAdmin || !got[0].IsAdmin {
		t.Fatalf("pinned user was not promoted: %+v", got[0])
	}
	count, err := users.CountActiveRootAdmins(dbc)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count == 0 {
		t.Fatalf("expected at least one active root admin after the pass")
	}
}

func TestAdminSafety_SkipsPromotionWhileRootAdminActive(t *testing.T) {
	d := newDeps(t)
	tx := testutil.Tx(t, d.db)
	users := userrepo.NewUserRepo(tx, d.log)
	dbc := dbctx.Context{Ctx: context.Background()}

	root := &types.User{Role: types.RoleStudent, IsActive: true, IsAdmin: true, IsRootAdmin: true}
	pinned := &types.User{Role: types.RoleStudent, IsActive: true}
	if _, err := users.Create(dbc, []*types.User{root, pinned}); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	safetySvc := NewAdminSafetyService(d.log, users, []uuid.UUID{pinned.ID}, false)
	if err := safetySvc.RunNow(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	got, err := users.GetByIDs(dbc, []uuid.UUID{pinned.ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("reload pinned user: %v (%d rows)", err, len(got))
	}
	if got[0].IsRootAdmin || got[0].IsAdmin {
		t.Fatalf("monitor promoted while an active root admin exists: %+v", got[0])
	}
}
