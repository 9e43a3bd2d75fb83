package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hakmun-app/hakmun-backend/internal/data/repos/testutil"
)

func TestAdminSafety_IsPinned(t *testing.T) {
	pinned := uuid.New()
	svc := NewAdminSafetyService(testutil.Logger(t), nil, []uuid.UUID{pinned}, false)

	if !svc.IsPinned(pinned) {
		t.Fatalf("expected pinned id to report true")
	}
	if svc.IsPinned(uuid.New()) {
		t.Fatalf("unpinned id must report false")
	}
}

func TestAdminSafety_EnsureThrottles(t *testing.T) {
	svc := NewAdminSafetyService(testutil.Logger(t), nil, nil, false).(*adminSafetyService)

	// Pre-claim the window so Ensure returns before touching the repo (the
	// nil repo would panic otherwise).
	svc.lastRun.Store(time.Now().UnixNano())
	svc.Ensure(context.Background())
}
