package services

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
)

func TestObjectKey_Layout(t *testing.T) {
	owner := uuid.New()
	asset := uuid.New()

	got := ObjectKey(owner, asset, "audio/mpeg")
	want := fmt.Sprintf("users/%s/assets/%s.mp3", owner, asset)
	if got != want {
		t.Fatalf("ObjectKey = %q, want %q", got, want)
	}
}

func TestValidateUpload_RejectsUnknownMime(t *testing.T) {
	err := ValidateUpload("application/pdf", 100)
	ae := apierr.From(err)
	if ae.Status != 415 || ae.Code != "unsupported:media-type" {
		t.Fatalf("got %d %q, want 415 unsupported:media-type", ae.Status, ae.Code)
	}
}

func TestValidateUpload_RejectsEmptyBody(t *testing.T) {
	if err := ValidateUpload("image/png", 0); err == nil {
		t.Fatalf("zero-byte upload must be rejected")
	}
}

func TestValidateUpload_SizeCaps(t *testing.T) {
	cases := []struct {
		mime string
		size int64
		ok   bool
	}{
		{"image/jpeg", MaxImageBytes, true},
		{"image/jpeg", MaxImageBytes + 1, false},
		{"image/webp", 1, true},
		{"audio/mpeg", MaxAudioBytes, true},
		{"audio/wav", MaxAudioBytes + 1, false},
		{"audio/mp4", MaxImageBytes + 1, true}, // audio cap, not image cap
	}
	for _, tc := range cases {
		err := ValidateUpload(tc.mime, tc.size)
		if tc.ok && err != nil {
			t.Fatalf("%s %d bytes: unexpected error %v", tc.mime, tc.size, err)
		}
		if !tc.ok {
			ae := apierr.From(err)
			if ae == nil || ae.Status != 413 || ae.Code != "too_large:media" {
				t.Fatalf("%s %d bytes: got %v, want 413 too_large:media", tc.mime, tc.size, err)
			}
		}
	}
}
