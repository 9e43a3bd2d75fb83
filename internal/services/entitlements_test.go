package services

import (
	"testing"

	"github.com/google/uuid"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
)

func hasEnt(ents []string, want string) bool {
	for _, e := range ents {
		if e == want {
			return true
		}
	}
	return false
}

func TestDeriveEntitlements_NilOrInactiveGetsNothing(t *testing.T) {
	ents, caps := DeriveEntitlements(nil, false)
	if len(ents) != 0 || caps.CanUseApp {
		t.Fatalf("nil user should get no entitlements, got %v", ents)
	}

	u := &types.User{ID: uuid.New(), Role: types.RoleTeacher, IsActive: false, IsRootAdmin: true}
	ents, caps = DeriveEntitlements(u, false)
	if len(ents) != 0 {
		t.Fatalf("inactive user should get no entitlements, got %v", ents)
	}
	if caps != (ctxutil.Capabilities{}) {
		t.Fatalf("inactive user should get zero capabilities: %+v", caps)
	}
}

func TestDeriveEntitlements_ActiveStudent(t *testing.T) {
	u := &types.User{ID: uuid.New(), Role: types.RoleStudent, IsActive: true}
	ents, caps := DeriveEntitlements(u, false)
	if !hasEnt(ents, EntAppUse) {
		t.Fatalf("expected %s, got %v", EntAppUse, ents)
	}
	if hasEnt(ents, EntTeacherTools) || hasEnt(ents, EntAdminUsersRead) {
		t.Fatalf("student should not get teacher or admin entitlements: %v", ents)
	}
	if !caps.CanUseApp || caps.CanAdminUsers {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
}

func TestDeriveEntitlements_Teacher(t *testing.T) {
	u := &types.User{ID: uuid.New(), Role: types.RoleTeacher, IsActive: true}
	ents, caps := DeriveEntitlements(u, false)
	if !hasEnt(ents, EntTeacherTools) {
		t.Fatalf("expected %s, got %v", EntTeacherTools, ents)
	}
	if !caps.CanAccessTeacherTools {
		t.Fatalf("expected teacher capability: %+v", caps)
	}
}

func TestDeriveEntitlements_RootAdmin(t *testing.T) {
	u := &types.User{ID: uuid.New(), Role: types.RoleStudent, IsActive: true, IsAdmin: true, IsRootAdmin: true}
	ents, caps := DeriveEntitlements(u, false)
	for _, want := range []string{EntAppUse, EntAdminUsersRead, EntAdminUsersWrite, EntAdminImpersonate} {
		if !hasEnt(ents, want) {
			t.Fatalf("expected %s, got %v", want, ents)
		}
	}
	if !caps.CanAdminUsers || !caps.CanImpersonate || !caps.CanManageRoles || !caps.CanManageActivation {
		t.Fatalf("unexpected capabilities: %+v", caps)
	}
}

func TestDeriveEntitlements_ImpersonationSuppressesAdmin(t *testing.T) {
	u := &types.User{ID: uuid.New(), Role: types.RoleStudent, IsActive: true, IsRootAdmin: true}
	ents, caps := DeriveEntitlements(u, true)
	if hasEnt(ents, EntAdminUsersRead) || hasEnt(ents, EntAdminUsersWrite) || hasEnt(ents, EntAdminImpersonate) {
		t.Fatalf("impersonated session must not carry admin entitlements: %v", ents)
	}
	if !hasEnt(ents, EntSessionImpersonating) {
		t.Fatalf("expected %s, got %v", EntSessionImpersonating, ents)
	}
	if caps.CanAdminUsers || caps.CanImpersonate {
		t.Fatalf("impersonated session must not carry admin capabilities: %+v", caps)
	}
}
