package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/repos/testutil"
	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
)

func newTestSessionService(t *testing.T) *sessionService {
	t.Helper()
	svc, err := NewSessionService(testutil.Logger(t), nil, "test-secret")
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	return svc.(*sessionService)
}

func TestNewSessionService_RequiresSecret(t *testing.T) {
	if _, err := NewSessionService(testutil.Logger(t), nil, ""); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

func TestIssueTokens_ClaimsShape(t *testing.T) {
	svc := newTestSessionService(t)
	u := &types.User{ID: uuid.New(), Role: types.RoleStudent, IsActive: true}

	pair, err := svc.IssueTokens(u)
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}
	if pair.ExpiresIn != int(AccessTokenTTL.Seconds()) {
		t.Fatalf("expiresIn = %d, want %d", pair.ExpiresIn, int(AccessTokenTTL.Seconds()))
	}

	access, err := svc.parse(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if access.Typ != TokenTypeAccess || access.Subject != u.ID.String() {
		t.Fatalf("unexpected access claims: typ=%q sub=%q", access.Typ, access.Subject)
	}
	if access.Imp || access.Act != "" {
		t.Fatalf("plain access token must not carry impersonation claims")
	}

	refresh, err := svc.parse(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if refresh.Typ != TokenTypeRefresh || refresh.Subject != u.ID.String() {
		t.Fatalf("unexpected refresh claims: typ=%q sub=%q", refresh.Typ, refresh.Subject)
	}
}

func TestIssueImpersonationToken_ClaimsShape(t *testing.T) {
	svc := newTestSessionService(t)
	target := &types.User{ID: uuid.New(), Role: types.RoleStudent, IsActive: true}
	actorID := uuid.New()

	tok, err := svc.IssueImpersonationToken(target, actorID)
	if err != nil {
		t.Fatalf("IssueImpersonationToken: %v", err)
	}
	claims, err := svc.parse(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Typ != TokenTypeAccess || !claims.Imp {
		t.Fatalf("unexpected claims: typ=%q imp=%v", claims.Typ, claims.Imp)
	}
	if claims.Subject != target.ID.String() || claims.Act != actorID.String() {
		t.Fatalf("subject/act mismatch: sub=%q act=%q", claims.Subject, claims.Act)
	}
}

func TestParse_RejectsTamperedToken(t *testing.T) {
	svc := newTestSessionService(t)
	u := &types.User{ID: uuid.New(), IsActive: true}
	pair, err := svc.IssueTokens(u)
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	other, err := NewSessionService(testutil.Logger(t), nil, "other-secret")
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}
	if _, err := other.(*sessionService).parse(pair.AccessToken); err == nil {
		t.Fatalf("token signed with a different secret must not verify")
	}
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc := newTestSessionService(t)
	u := &types.User{ID: uuid.New(), IsActive: true}
	pair, err := svc.IssueTokens(u)
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	ae := apierr.From(err)
	if ae == nil || ae.Status != 401 {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestRefresh_RejectsImpersonationToken(t *testing.T) {
	svc := newTestSessionService(t)
	target := &types.User{ID: uuid.New(), IsActive: true}
	tok, err := svc.IssueImpersonationToken(target, uuid.New())
	if err != nil {
		t.Fatalf("IssueImpersonationToken: %v", err)
	}

	if _, _, err := svc.Refresh(context.Background(), tok); err == nil {
		t.Fatalf("impersonation token must not refresh")
	}
}

func TestExitImpersonation_RequiresImpersonationToken(t *testing.T) {
	svc := newTestSessionService(t)
	u := &types.User{ID: uuid.New(), IsActive: true}
	pair, err := svc.IssueTokens(u)
	if err != nil {
		t.Fatalf("IssueTokens: %v", err)
	}

	if _, _, err := svc.ExitImpersonation(context.Background(), pair.AccessToken); err == nil {
		t.Fatalf("plain access token must not exit impersonation")
	}
}
