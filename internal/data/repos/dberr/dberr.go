package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound indicates the addressed row does not exist.
	ErrNotFound = errors.New("db not found")
	// ErrConflict indicates a uniqueness or concurrency conflict.
	ErrConflict = errors.New("db conflict")
	// ErrRetryable indicates a transient failure worth retrying.
	ErrRetryable = errors.New("db retryable")
)

// Classify maps driver and gorm failures onto the package sentinels so
// callers can branch with errors.Is instead of sniffing strings themselves.
// Unclassified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(ErrNotFound, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errors.Join(ErrRetryable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return errors.Join(ErrConflict, err) // unique_violation
		case "40001", "40P01", "55P03":
			return errors.Join(ErrRetryable, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return errors.Join(ErrConflict, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "temporar"):
		return errors.Join(ErrRetryable, err)
	}
	return err
}

func IsNotFound(err error) bool {
	return errors.Is(Classify(err), ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(Classify(err), ErrConflict)
}

func IsRetryable(err error) bool {
	return errors.Is(Classify(err), ErrRetryable)
}
