package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassifyErr(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"lock timeout", &pgconn.PgError{Code: codeLockNotAvailable}, ErrContention},
		{"serialization", fmt.Errorf("failed to commit: %w", &pgconn.PgError{Code: codeSerializationFailure}), ErrContention},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, ErrContention},
		{"locked message", errors.New("database table is locked"), ErrContention},
		{"busy message", errors.New("server BUSY, try again"), ErrContention},
		{"unique", &pgconn.PgError{Code: codeUniqueViolation}, ErrConflict},
		{"no rows", pgx.ErrNoRows, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyErr(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err, "original error must stay in the chain")
		})
	}
}

func TestClassifyErrLeavesOtherErrorsAlone(t *testing.T) {
	plain := errors.New("syntax error at or near SELECT")

	assert.Nil(t, classifyErr(nil))
	assert.Same(t, plain, classifyErr(plain))
	assert.False(t, IsContention(plain))
	assert.True(t, IsContention(&pgconn.PgError{Code: codeDeadlockDetected}))
}
