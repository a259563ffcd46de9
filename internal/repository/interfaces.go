package repository

import (
	"context"

	"github.com/willozwi/AppCaccia/internal/domain"
)

// HunterRepository defines the interface for hunter operations
type HunterRepository interface {
	// FindByName returns active hunters whose names match exactly, ignoring case.
	FindByName(ctx context.Context, surname, givenName string) ([]domain.Hunter, error)
	ListActive(ctx context.Context) ([]domain.Hunter, error)
	// Upsert inserts the hunter or, when the registry id is taken, touches and
	// returns the stored row. created reports whether a row was inserted.
	Upsert(ctx context.Context, hunter domain.Hunter) (stored domain.Hunter, created bool, err error)
}

// PermitSheetRepository defines the interface for permit sheet operations
type PermitSheetRepository interface {
	Exists(ctx context.Context, year int, sheetNumber string) (bool, error)
	Create(ctx context.Context, sheet domain.PermitSheet) (domain.PermitSheet, error)
	// GetForUpdate locks the sheet row until the surrounding transaction ends.
	GetForUpdate(ctx context.Context, sheetNumber string) (domain.PermitSheet, error)
	UpdateStatus(ctx context.Context, sheet domain.PermitSheet) (domain.PermitSheet, error)
	Stats(ctx context.Context, year int) (domain.SheetStats, error)
}

// AuditLogRepository defines the interface for audit log operations
type AuditLogRepository interface {
	Record(ctx context.Context, entry domain.AuditEntry) error
	List(ctx context.Context, limit int) ([]domain.AuditEntry, error)
}

// Repositories groups the repositories bound to one connection or transaction.
type Repositories struct {
	Hunters HunterRepository
	Sheets  PermitSheetRepository
	Audit   AuditLogRepository
}

// Store hands out repositories, either on the pool or inside a transaction.
type Store interface {
	Repositories() Repositories
	// WithinTx runs fn in a transaction, committing when it returns nil and
	// rolling back otherwise. Errors are classified with ErrContention etc.
	WithinTx(ctx context.Context, fn func(Repositories) error) error
}
