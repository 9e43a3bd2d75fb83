package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apple"
	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
)

// stubVerifier decodes "subject|audience|email" pseudo tokens so tests can
// drive the resolution flow without Apple.
type stubVerifier struct {
	identities map[string]*apple.Identity
}

func (v *stubVerifier) VerifyIdentityToken(ctx context.Context, idToken string) (*apple.Identity, error) {
	if ident, ok := v.identities[idToken]; ok {
		return ident, nil
	}
	return nil, context.Canceled
}

func newIdentityFixture(t *testing.T) (*deps, *stubVerifier, IdentityService) {
	t.Helper()
	d := newDeps(t)
	v := &stubVerifier{identities: map[string]*apple.Identity{}}
	svc := NewIdentityService(d.log, d.runner, v, d.users, d.identities)
	return d, v, svc
}

func TestResolveAppleSignIn_CreatesStudentOnFirstSignIn(t *testing.T) {
	_, v, svc := newIdentityFixture(t)
	subject := "apple-sub-" + uuid.NewString()
	v.identities["tok1"] = &apple.Identity{Subject: subject, Audience: "app.hakmun.ios"}

	u, created, err := svc.ResolveAppleSignIn(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if !created {
		t.Fatalf("expected created=true on first sign-in")
	}
	if u.Role != types.RoleStudent || !u.IsActive {
		t.Fatalf("new user should be an active student: %+v", u)
	}

	again, created, err := svc.ResolveAppleSignIn(context.Background(), "tok1")
	if err != nil {
		t.Fatalf("resolve again: %v", err)
	}
	if created {
		t.Fatalf("repeat sign-in must not create")
	}
	if again.ID != u.ID {
		t.Fatalf("repeat sign-in resolved %s, want %s", again.ID, u.ID)
	}
}

func TestResolveAppleSignIn_NewAudienceBindsToSameUser(t *testing.T) {
	_, v, svc := newIdentityFixture(t)
	subject := "apple-sub-" + uuid.NewString()
	v.identities["ios"] = &apple.Identity{Subject: subject, Audience: "app.hakmun.ios"}
	v.identities["mac"] = &apple.Identity{Subject: subject, Audience: "app.hakmun.mac"}

	u1, _, err := svc.ResolveAppleSignIn(context.Background(), "ios")
	if err != nil {
		t.Fatalf("resolve ios: %v", err)
	}
	u2, created, err := svc.ResolveAppleSignIn(context.Background(), "mac")
	if err != nil {
		t.Fatalf("resolve mac: %v", err)
	}
	if created {
		t.Fatalf("same subject under a new audience must not create a user")
	}
	if u1.ID != u2.ID {
		t.Fatalf("audiences resolved to different users: %s vs %s", u1.ID, u2.ID)
	}
}

func TestResolveAppleSignIn_BridgesLegacyUserBySubject(t *testing.T) {
	d, v, svc := newIdentityFixture(t)
	subject := "apple-sub-" + uuid.NewString()

	legacy := &types.User{Role: types.RoleTeacher, IsActive: true, AppleUserID: &subject}
	seeded, err := d.users.Create(dbctx.Context{Ctx: context.Background()}, []*types.User{legacy})
	if err != nil {
		t.Fatalf("seed legacy user: %v", err)
	}

	v.identities["tok"] = &apple.Identity{Subject: subject, Audience: "app.hakmun.ios"}
	u, created, err := svc.ResolveAppleSignIn(context.Background(), "tok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created {
		t.Fatalf("legacy bridge must not create a new user")
	}
	if u.ID != seeded[0].ID {
		t.Fatalf("resolved %s, want legacy user %s", u.ID, seeded[0].ID)
	}
}

func TestResolveAppleSignIn_BridgesLegacyUserByEmail(t *testing.T) {
	d, v, svc := newIdentityFixture(t)
	subject := "apple-sub-" + uuid.NewString()
	email := uuid.NewString() + "@example.com"

	legacy := &types.User{Role: types.RoleStudent, IsActive: true, AppleUserID: &email}
	seeded, err := d.users.Create(dbctx.Context{Ctx: context.Background()}, []*types.User{legacy})
	if err != nil {
		t.Fatalf("seed legacy user: %v", err)
	}

	v.identities["tok"] = &apple.Identity{Subject: subject, Audience: "app.hakmun.ios", Email: email, EmailVerified: true}
	u, created, err := svc.ResolveAppleSignIn(context.Background(), "tok")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if created || u.ID != seeded[0].ID {
		t.Fatalf("expected email bridge to legacy user %s, got %s (created=%v)", seeded[0].ID, u.ID, created)
	}

	// The binding persists, so the next sign-in takes the fast path.
	ident, err := d.identities.GetExact(dbctx.Context{Ctx: context.Background()}, "apple", subject, "app.hakmun.ios")
	if err != nil || ident == nil {
		t.Fatalf("expected a persisted binding, got %v, %v", ident, err)
	}
	if ident.UserID != seeded[0].ID {
		t.Fatalf("binding points at %s, want %s", ident.UserID, seeded[0].ID)
	}
}
