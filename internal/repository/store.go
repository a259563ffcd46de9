package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/willozwi/AppCaccia/internal/db"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgStore struct {
	pool *pgxpool.Pool
}

// NewStore wires a store backed by pgxpool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

// NewRepositories binds every repository to q.
func NewRepositories(q DBTX) Repositories {
	return Repositories{
		Hunters: NewHunterRepository(q),
		Sheets:  NewPermitSheetRepository(q),
		Audit:   NewAuditLogRepository(q),
	}
}

func (s *pgStore) Repositories() Repositories {
	return NewRepositories(s.pool)
}

func (s *pgStore) WithinTx(ctx context.Context, fn func(Repositories) error) error {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(NewRepositories(tx))
	})
	return classifyErr(err)
}
