package txn

import (
	"testing"

	"github.com/hakmun-app/hakmun-backend/internal/platform/dbctx"
)

func TestLockKey_StableAndDistinct(t *testing.T) {
	a := LockKey("apple:subject-1")
	if a != LockKey("apple:subject-1") {
		t.Fatalf("LockKey must be deterministic")
	}
	if a == LockKey("apple:subject-2") {
		t.Fatalf("distinct keys should not collide on adjacent inputs")
	}
}

func TestAdvisoryXactLock_RequiresTransaction(t *testing.T) {
	if err := AdvisoryXactLock(dbctx.Context{}, "k"); err == nil {
		t.Fatalf("advisory lock outside a transaction must fail")
	}
}
