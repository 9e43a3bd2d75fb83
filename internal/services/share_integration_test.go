package services

import (
	"context"
	"testing"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
)

func TestShareWithUser_IdempotentAndRevocable(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	shareSvc := d.shareSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	grantee := d.seedUser(t, types.RoleStudent, false)
	sent := d.seedSentence(t, contentSvc, owner)

	for i := 0; i < 2; i++ {
		if _, err := shareSvc.ShareWithUser(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, grantee.ID); err != nil {
			t.Fatalf("share %d: %v", i, err)
		}
	}

	views, err := shareSvc.SharedWithMe(context.Background(), rdFor(grantee, false), 0)
	if err != nil {
		t.Fatalf("shared-with-me: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("grants = %d, want 1 (repeat shares are idempotent)", len(views))
	}

	res, err := shareSvc.RevokeUser(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, grantee.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if res.Revoked != 1 {
		t.Fatalf("revoked = %d, want 1", res.Revoked)
	}

	// Revoking again touches nothing and still succeeds.
	res, err = shareSvc.RevokeUser(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, grantee.ID)
	if err != nil {
		t.Fatalf("repeat revoke: %v", err)
	}
	if res.Revoked != 0 {
		t.Fatalf("repeat revoke touched %d rows, want 0", res.Revoked)
	}

	views, err = shareSvc.SharedWithMe(context.Background(), rdFor(grantee, false), 0)
	if err != nil {
		t.Fatalf("shared-with-me after revoke: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("grants = %d after revoke, want 0", len(views))
	}
}

func TestShareWithUser_OnlyOwnerTeacherOrRoot(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	shareSvc := d.shareSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	stranger := d.seedUser(t, types.RoleStudent, false)
	grantee := d.seedUser(t, types.RoleStudent, false)
	teacher := d.seedUser(t, types.RoleTeacher, false)
	sent := d.seedSentence(t, contentSvc, owner)

	_, err := shareSvc.ShareWithUser(context.Background(), rdFor(stranger, false), types.ContentTypeSentence, sent.ID, grantee.ID)
	if ae := apierr.From(err); ae.Status != 403 {
		t.Fatalf("stranger share: got %v, want 403", err)
	}

	if _, err := shareSvc.ShareWithUser(context.Background(), rdFor(teacher, false), types.ContentTypeSentence, sent.ID, grantee.ID); err != nil {
		t.Fatalf("teacher share: %v", err)
	}
}

func TestSharedWithMe_HidesQuarantinedContent(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	shareSvc := d.shareSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	grantee := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)
	sent := d.seedSentence(t, contentSvc, owner)

	if _, err := shareSvc.ShareWithUser(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, grantee.ID); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "check"); err != nil {
		t.Fatalf("needs-review: %v", err)
	}

	views, err := shareSvc.SharedWithMe(context.Background(), rdFor(grantee, false), 0)
	if err != nil {
		t.Fatalf("shared-with-me: %v", err)
	}
	if len(views) != 0 {
		t.Fatalf("quarantined content leaked into shared-with-me: %d views", len(views))
	}

	// Restore brings the grant back without resharing.
	if _, err := modSvc.Restore(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "fine"); err != nil {
		t.Fatalf("restore: %v", err)
	}
	views, err = shareSvc.SharedWithMe(context.Background(), rdFor(grantee, false), 0)
	if err != nil {
		t.Fatalf("shared-with-me after restore: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("views = %d after restore, want 1", len(views))
	}
}

func TestClassSharing_FailsClosedWithoutTables(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	shareSvc := d.shareSvc(t)

	teacher := d.seedUser(t, types.RoleTeacher, false)
	sent := d.seedSentence(t, contentSvc, teacher)

	if d.classes.HasClassTable() {
		t.Skip("class tables provisioned in this database")
	}

	_, err := shareSvc.ShareWithClass(context.Background(), rdFor(teacher, false), types.ContentTypeSentence, sent.ID, sent.OwnerUserID)
	if ae := apierr.From(err); ae.Status != 501 || ae.Code != "not_implemented:classes" {
		t.Fatalf("got %v, want 501 not_implemented:classes", err)
	}

	_, err = shareSvc.SharedWithClass(context.Background(), rdFor(teacher, false), sent.OwnerUserID, 0)
	if ae := apierr.From(err); ae.Status != 501 {
		t.Fatalf("got %v, want 501", err)
	}
}
