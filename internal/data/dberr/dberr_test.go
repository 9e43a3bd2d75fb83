package dberr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
)

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(gorm.ErrDuplicatedKey) {
		t.Fatalf("gorm duplicate sentinel must classify as unique violation")
	}
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	if !IsUniqueViolation(wrapped) {
		t.Fatalf("wrapped SQLSTATE 23505 must classify as unique violation")
	}
	if IsUniqueViolation(errors.New("boom")) {
		t.Fatalf("arbitrary errors must not classify as unique violation")
	}
}

func TestMap_TimeoutsBecomeLabelled503(t *testing.T) {
	cases := []error{
		context.DeadlineExceeded,
		&pgconn.PgError{Code: "57014"},
		&pgconn.PgError{Code: "55P03"},
	}
	for _, cause := range cases {
		err := Map("db-insert-asset", cause)
		ae := apierr.From(err)
		if ae.Status != 503 || ae.Code != "timeout:db-insert-asset" {
			t.Fatalf("Map(%v) = %v, want 503 timeout:db-insert-asset", cause, err)
		}
	}
}

func TestMap_PassesOtherErrorsThrough(t *testing.T) {
	cause := errors.New("boom")
	if got := Map("stage", cause); !errors.Is(got, cause) {
		t.Fatalf("Map must pass non-timeout errors through, got %v", got)
	}
	if Map("stage", nil) != nil {
		t.Fatalf("Map(nil) must be nil")
	}
}
