package services

import (
	"context"
	"testing"

	types "github.com/hakmun-app/hakmun-backend/internal/domain"
	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
)

func TestCreateSentence_RegistersPersonalActiveRow(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	owner := d.seedUser(t, types.RoleStudent, false)

	sent, item, err := contentSvc.CreateSentence(context.Background(), rdFor(owner, false), SentenceInput{Text: "안녕하세요"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sent.OwnerUserID != owner.ID {
		t.Fatalf("sentence owner = %s, want %s", sent.OwnerUserID, owner.ID)
	}
	if item.Audience != types.AudiencePersonal || item.OperationalStatus != types.StatusActive || item.GlobalState != nil {
		t.Fatalf("new registry row must be personal/active: %+v", item)
	}
	if item.ContentType != types.ContentTypeSentence || item.ContentID != sent.ID {
		t.Fatalf("registry row does not point at the sentence: %+v", item)
	}
}

func TestCreateSentence_RequiresText(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	owner := d.seedUser(t, types.RoleStudent, false)

	_, _, err := contentSvc.CreateSentence(context.Background(), rdFor(owner, false), SentenceInput{})
	if ae := apierr.From(err); ae.Status != 400 {
		t.Fatalf("got %v, want 400", err)
	}
}

func TestSetAudience_GlobalRoundTrip(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	owner := d.seedUser(t, types.RoleStudent, false)
	sent := d.seedSentence(t, contentSvc, owner)

	item, err := contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetGlobal)
	if err != nil {
		t.Fatalf("set global: %v", err)
	}
	if item.Audience != types.AudienceGlobal || item.GlobalState == nil || *item.GlobalState != types.GlobalStatePreliminary {
		t.Fatalf("set_global should land in global preliminary: %+v", item)
	}

	// Repeat is a no-op.
	again, err := contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetGlobal)
	if err != nil {
		t.Fatalf("repeat set global: %v", err)
	}
	if again.Audience != types.AudienceGlobal {
		t.Fatalf("repeat set_global changed the row: %+v", again)
	}

	item, err = contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetPersonal)
	if err != nil {
		t.Fatalf("set personal: %v", err)
	}
	if item.Audience != types.AudiencePersonal || item.GlobalState != nil {
		t.Fatalf("set_personal should clear the global state: %+v", item)
	}

	// set_preliminary only applies to global content.
	_, err = contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetPreliminary)
	if ae := apierr.From(err); ae.Code != "conflict:not-global" {
		t.Fatalf("got %v, want conflict:not-global", err)
	}
}

func TestSetAudience_BlockedWhileUnderReview(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)
	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)
	sent := d.seedSentence(t, contentSvc, owner)

	if _, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, sent.ID, "check"); err != nil {
		t.Fatalf("needs-review: %v", err)
	}
	_, err := contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetGlobal)
	if ae := apierr.From(err); ae.Code != "conflict:under-review" {
		t.Fatalf("got %v, want conflict:under-review", err)
	}
}

func TestSetAudience_OwnerOnly(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	owner := d.seedUser(t, types.RoleStudent, false)
	stranger := d.seedUser(t, types.RoleStudent, false)
	sent := d.seedSentence(t, contentSvc, owner)

	_, err := contentSvc.SetAudience(context.Background(), rdFor(stranger, false), types.ContentTypeSentence, sent.ID, AudienceVerbSetGlobal)
	if ae := apierr.From(err); ae.Status != 403 {
		t.Fatalf("got %v, want 403", err)
	}
}

func TestLibrary_GlobalShowsApprovedAndMineHidesQuarantine(t *testing.T) {
	d := newDeps(t)
	contentSvc := d.contentSvc(t)
	modSvc := d.moderationSvc(t)
	librarySvc := NewLibraryService(d.log, d.registry, d.readings, d.sentences, d.patterns)

	owner := d.seedUser(t, types.RoleStudent, false)
	root := d.seedUser(t, types.RoleStudent, true)

	approved := d.seedSentence(t, contentSvc, owner)
	flagged := d.seedSentence(t, contentSvc, owner)

	if _, err := contentSvc.SetAudience(context.Background(), rdFor(owner, false), types.ContentTypeSentence, approved.ID, AudienceVerbSetGlobal); err != nil {
		t.Fatalf("set global: %v", err)
	}
	if _, err := modSvc.Approve(context.Background(), rdFor(root, false), types.ContentTypeSentence, approved.ID, "good"); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := modSvc.NeedsReview(context.Background(), rdFor(root, false), types.ContentTypeSentence, flagged.ID, "check"); err != nil {
		t.Fatalf("needs-review: %v", err)
	}

	global, err := librarySvc.Global(context.Background(), 0)
	if err != nil {
		t.Fatalf("global: %v", err)
	}
	foundApproved := false
	for _, e := range global {
		if e.Item.ContentID == approved.ID {
			foundApproved = true
			if _, ok := e.Content.(*types.Sentence); !ok {
				t.Fatalf("global entry not hydrated with the sentence: %T", e.Content)
			}
		}
		if e.Item.ContentID == flagged.ID {
			t.Fatalf("quarantined content leaked into the global library")
		}
	}
	if !foundApproved {
		t.Fatalf("approved content missing from the global library")
	}

	mine, err := librarySvc.MyContent(context.Background(), rdFor(owner, false), 0)
	if err != nil {
		t.Fatalf("my content: %v", err)
	}
	if len(mine) != 1 || mine[0].Item.ContentID != approved.ID {
		t.Fatalf("my content should hold only the unquarantined item, got %d entries", len(mine))
	}
}

func TestVocabPins_IdempotentPinAndUnpin(t *testing.T) {
	d := newDeps(t)
	vocabSvc := NewVocabService(d.log, d.pins)
	u := d.seedUser(t, types.RoleStudent, false)

	for i := 0; i < 2; i++ {
		if _, err := vocabSvc.Pin(context.Background(), rdFor(u, false), VocabPinInput{Word: "사랑", Gloss: "love"}); err != nil {
			t.Fatalf("pin %d: %v", i, err)
		}
	}
	pins, err := vocabSvc.List(context.Background(), rdFor(u, false), 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pins) != 1 {
		t.Fatalf("pins = %d, want 1", len(pins))
	}

	res, err := vocabSvc.Unpin(context.Background(), rdFor(u, false), "사랑")
	if err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if res.Revoked != 1 {
		t.Fatalf("unpinned = %d, want 1", res.Revoked)
	}

	_, err = vocabSvc.Pin(context.Background(), rdFor(u, false), VocabPinInput{Word: "   "})
	if ae := apierr.From(err); ae.Status != 400 {
		t.Fatalf("blank word: got %v, want 400", err)
	}
}
