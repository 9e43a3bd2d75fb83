package dberr

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/hakmun-app/hakmun-backend/internal/platform/apierr"
)

// Postgres SQLSTATE codes the core cares about.
const (
	codeUniqueViolation  = "23505"
	codeLockNotAvailable = "55P03"
	codeQueryCanceled    = "57014"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsUniqueViolation reports whether err is a unique-constraint violation.
func IsUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || pgCode(err) == codeUniqueViolation
}

// IsNotFound reports whether err is gorm's missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// IsTimeout reports whether err is a statement timeout, a lock timeout, or a
// context deadline hit while a statement was in flight.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	switch pgCode(err) {
	case codeLockNotAvailable, codeQueryCanceled:
		return true
	}
	return false
}

// Map classifies a database error for the named stage. Timeouts become a
// labelled 503; everything else passes through for the caller to wrap.
func Map(stage string, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeout(err) {
		return apierr.Timeout(stage)
	}
	return err
}
