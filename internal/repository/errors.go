package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound is returned when a looked-up row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrContention marks transient lock, deadlock or serialization failures
	// that are worth retrying.
	ErrContention = errors.New("database contention")
	// ErrConflict marks a unique constraint violation.
	ErrConflict = errors.New("conflict")
)

// SQLSTATE codes.
const (
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// classifyErr attaches ErrNotFound, ErrContention or ErrConflict to err when
// it matches; the original error stays in the chain.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrContention) || errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected:
			return fmt.Errorf("%w: %w", ErrContention, err)
		case codeUniqueViolation:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}

	message := strings.ToLower(err.Error())
	if strings.Contains(message, "locked") || strings.Contains(message, "busy") {
		return fmt.Errorf("%w: %w", ErrContention, err)
	}
	return err
}

// IsContention reports whether err is a transient contention failure.
func IsContention(err error) bool {
	return errors.Is(classifyErr(err), ErrContention)
}
