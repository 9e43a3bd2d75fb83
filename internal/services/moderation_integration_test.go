package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
)

func (d *deps) seedSentence(t *testing.T, svc ContentService, owner *types.User) *types.Sentence {
	t.Helper()
	sent, _, err := svc.CreateSentence(context.Background(), rdFor(owner, false), SentenceInput{
		Text:        "저는 한국어를 공부해요",
		Translation: "I study Korean",
	})
	if err != nil {
		t.Fatalf("create sentence: %v", err)
	}
	return sent
}

func TestNeedsReview_QuarantinesAndIsIdempotent(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)
	sent := d.seedSentence(t, contentSvc, owner)

	res, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "looks off")
	if err != nil {
		t.Fatalf("needs-review: %v", err)
	}
	if res.AlreadyUnderReview {
		t.Fatalf("first flag must not be a no-op")
	}
	if res.Item.OperationalStatus != types.StatusUnderReview {
		t.Fatalf("status = %q, want under_review", res.Item.OperationalStatus)
	}

	res, err = modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "again")
	if err != nil {
		t.Fatalf("repeat needs-review: %v", err)
	}
	if !res.AlreadyUnderReview {
		t.Fatalf("repeat flag must report already_under_review")
	}

	status, err := modSvc.ItemStatus(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID)
	if err != nil {
		t.Fatalf("item status: %v", err)
	}
	if status.OpenEntry == nil {
		t.Fatalf("expected one open queue entry")
	}
	if len(status.History) != 1 {
		t.Fatalf("audit rows = %d, want 1 (the no-op must not append)", len(status.History))
	}
}

func TestNeedsReview_OwnerMayFlagOthersMayNot(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	stranger := d.seedUser(t, types.RoleStudent, false)
	sent := d.seedSentence(t, contentSvc, owner)

	if _, err := modSvc.NeedsReview(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, "my mistake"); err != nil {
		t.Fatalf("owner flag: %v", err)
	}

	sent2 := d.seedSentence(t, contentSvc, owner)
	_, err := modSvc.NeedsReview(context.Background(), rdFor(stranger, false), types.ContentTypeSentence, sent2.ID, "drive-by")
	ae := apierr.From(err)
	if ae.Status != 403 {
		t.Fatalf("stranger flag: got %v, want 403", err)
	}
}

func TestRestore_ReturnsPriorSnapshot(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)
	sent := d.seedSentence(t, contentSvc, owner)

	// Promote to global preliminary before the flag, so restore has a
	// non-default snapshot to return to.
	if _, err := contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetGlobal); err != nil {
		t.Fatalf("set global: %v", err)
	}
	if _, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "check it"); err != nil {
		t.Fatalf("needs-review: %v", err)
	}

	res, err := modSvc.Restore(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "false alarm")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	item := res.Item
	if item.OperationalStatus != types.StatusActive {
		t.Fatalf("status = %q, want active", item.OperationalStatus)
	}
	if item.Audience != types.AudienceGlobal || item.GlobalState == nil || *item.GlobalState != types.GlobalStatePreliminary {
		t.Fatalf("restore did not return the prior global preliminary state: %+v", item)
	}

	// Restoring an active item is a no-op.
	res, err = modSvc.Restore(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "again")
	if err != nil {
		t.Fatalf("repeat restore: %v", err)
	}
	if !res.AlreadyActive {
		t.Fatalf("repeat restore must report already_active")
	}
}

func TestApprove_RequiresGlobalAndNotQuarantined(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)
	sent := d.seedSentence(t, contentSvc, owner)

	// Personal content cannot be approved.
	_, err := modSvc.Approve(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "")
	if ae := apierr.From(err); ae.Code != "conflict:not-global" {
		t.Fatalf("approve personal: got %v, want conflict:not-global", err)
	}

	if _, err := contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetGlobal); err != nil {
		t.Fatalf("set global: %v", err)
	}
	if _, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "check"); err != nil {
		t.Fatalf("needs-review: %v", err)
	}

	// Quarantined content must be restored before an approve lands.
	_, err = modSvc.Approve(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "")
	if ae := apierr.From(err); ae.Code != "conflict:under-review" {
		t.Fatalf("approve under review: got %v, want conflict:under-review", err)
	}

	if _, err := modSvc.Restore(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, ""); err != nil {
		t.Fatalf("restore: %v", err)
	}
	res, err := modSvc.Approve(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "good content")
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if res.Item.GlobalState == nil || *res.Item.GlobalState != types.GlobalStateApproved {
		t.Fatalf("global state = %v, want approved", res.Item.GlobalState)
	}

	res, err = modSvc.Approve(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "again")
	if err != nil {
		t.Fatalf("repeat approve: %v", err)
	}
	if !res.AlreadyApproved {
		t.Fatalf("repeat approve must report already_approved")
	}
}

func TestReject_OnlyRootAdmin(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)
	sent := d.seedSentence(t, contentSvc, owner)

	if _, err := contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetGlobal); err != nil {
		t.Fatalf("set global: %v", err)
	}

	_, err := modSvc.Reject(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, "")
	if ae := apierr.From(err); ae.Code != "forbidden:root-admin-only" {
		t.Fatalf("owner reject: got %v, want forbidden:root-admin-only", err)
	}

	// A root admin loses moderation powers while impersonating.
	_, err = modSvc.Reject(context.Background(), rdFor(root, true), types.ContentTypeSentence, sent.ID, "")
	if ae := apierr.From(err); ae.Code != "forbidden:root-admin-only" {
		t.Fatalf("impersonating reject: got %v, want forbidden:root-admin-only", err)
	}

	res, err := modSvc.Reject(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "not suitable")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if res.Item.GlobalState == nil || *res.Item.GlobalState != types.GlobalStateRejected {
		t.Fatalf("global state = %v, want rejected", res.Item.GlobalState)
	}
}

func TestKeepUnderReview_RequiresOpenQuarantine(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)
	sent := d.seedSentence(t, contentSvc, owner)

	_, err := modSvc.KeepUnderReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "")
	if ae := apierr.From(err); ae.Code != "conflict:not-under-review" {
		t.Fatalf("keep active item: got %v, want conflict:not-under-review", err)
	}

	if _, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "check"); err != nil {
		t.Fatalf("needs-review: %v", err)
	}
	res, err := modSvc.KeepUnderReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "still checking")
	if err != nil {
		t.Fatalf("keep under review: %v", err)
	}
	if res.Item.OperationalStatus != types.StatusUnderReview {
		t.Fatalf("status = %q, want under_review", res.Item.OperationalStatus)
	}

	status, err := modSvc.ItemStatus(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID)
	if err != nil {
		t.Fatalf("item status: %v", err)
	}
	if len(status.History) != 2 {
		t.Fatalf("audit rows = %d, want 2 (flag + keep)", len(status.History))
	}
}

func TestNeedsReview_HourlyRateLimit(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)

	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)

	for i := 0; i < NeedsReviewHourlyLimit; i++ {
		sent := d.seedSentence(t, contentSvc, owner)
		if _, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "sweep"); err != nil {
			t.Fatalf("flag %d: %v", i, err)
		}
	}

	sent := d.seedSentence(t, contentSvc, owner)
	_, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "one too many")
	ae := apierr.From(err)
	if ae.Status != 429 || ae.Code != "rate_limited:needs-review" {
		t.Fatalf("got %v, want 429 rate_limited:needs-review", err)
	}
}

func TestNeedsReview_UnknownContentIs404(t *testing.T) {
	d := newDeps(t)
	modSvc := d.moderationSvc(t)
	root := d.seedUser(t, types.RoleStudent, true)

	_, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, uuid.New(), "")
	if ae := apierr.From(err); ae.Status != 404 {
		t.Fatalf("got %v, want 404", err)
	}
}
