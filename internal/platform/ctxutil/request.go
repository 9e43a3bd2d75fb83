package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// Capabilities is the server-derived capability set for the session user.
// All fields default to false; derivation is fail-closed.
type Capabilities struct {
	CanUseApp             bool `json:"canUseApp"`
	CanAccessTeacherTools bool `json:"canAccessTeacherTools"`
	CanAdminUsers         bool `json:"canAdminUsers"`
	CanImpersonate        bool `json:"canImpersonate"`
	CanManageRoles        bool `json:"canManageRoles"`
	CanManageActivation   bool `json:"canManageActivation"`
}

// RequestData is the authenticated identity attached to a request context by
// the auth middleware. Handlers and services read it, never write it.
type RequestData struct {
	UserID        uuid.UUID
	Role          string
	IsActive      bool
	IsAdmin       bool
	IsRootAdmin   bool
	Impersonating bool
	ActorUserID   uuid.UUID
	Entitlements  []string
	Capabilities  Capabilities
}

// HasEntitlement reports whether the session carries the named entitlement.
func (rd *RequestData) HasEntitlement(ent string) bool {
	if rd == nil {
		return false
	}
	for _, e := range rd.Entitlements {
		if e == ent {
			return true
		}
	}
	return false
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
