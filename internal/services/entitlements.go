package services

import (
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/ctxutil"
)

// Entitlement strings demanded by write endpoints.
const (
	EntAppUse               = "app:use"
	EntTeacherTools         = "teacher:tools"
	EntAdminUsersRead       = "admin:users:read"
	EntAdminUsersWrite      = "admin:users:write"
	EntAdminImpersonate     = "admin:impersonate"
	EntSessionImpersonating = "session:impersonating"
)

// DeriveEntitlements maps live user state and the impersonation flag to the
// session's entitlements and capability set. Evaluation is fail-closed: an
// inactive user gets nothing, and an impersonated session never carries
// admin capabilities regardless of the target user's flags.
func DeriveEntitlements(u *types.User, impersonating bool) ([]string, ctxutil.Capabilities) {
	var caps ctxutil.Capabilities
	if u == nil || !u.IsActive {
		return []string{}, caps
	}

	ents := []string{EntAppUse}
	caps.CanUseApp = true

	if u.Role == types.RoleTeacher {
		ents = append(ents, EntTeacherTools)
		caps.CanAccessTeacherTools = true
	}

	if u.IsRootAdmin && !impersonating {
		ents = append(ents, EntAdminUsersRead, EntAdminUsersWrite, EntAdminImpersonate)
		caps.CanAdminUsers = true
		caps.CanImpersonate = true
		caps.CanManageRoles = true
		caps.CanManageActivation = true
	}

	if impersonating {
		ents = append(ents, EntSessionImpersonating)
	}

	return ents, caps
}
