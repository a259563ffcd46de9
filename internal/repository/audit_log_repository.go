package repository

import (
	"context"
	"fmt"

	"github.com/willozwi/AppCaccia/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type auditLogRepository struct {
	q DBTX
}

// NewAuditLogRepository wires an audit log repository on a pool or transaction.
func NewAuditLogRepository(q DBTX) AuditLogRepository {
	return &auditLogRepository{q: q}
}

func (r *auditLogRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	if r.q == nil {
		return fmt.Errorf("audit log repository not initialized")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	_, err := r.q.Exec(
		ctx,
		`INSERT INTO audit_log (id, actor, action, entity, entity_id, detail)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID,
		entry.Actor,
		entry.Action,
		entry.Entity,
		entry.EntityID,
		entry.Detail,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit entry: %w", classifyErr(err))
	}

	return nil
}

func (r *auditLogRepository) List(ctx context.Context, limit int) ([]domain.AuditEntry, error) {
	if r.q == nil {
		return nil, fmt.Errorf("audit log repository not initialized")
	}

	if limit <= 0 {
		limit = 200
	}

	rows, err := r.q.Query(
		ctx,
		`SELECT id, actor, action, entity, entity_id, detail, created_at
		 FROM audit_log
		 ORDER BY created_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", classifyErr(err))
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var (
			entry     domain.AuditEntry
			entityID  pgtype.UUID
			createdAt pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.Actor,
			&entry.Action,
			&entry.Entity,
			&entityID,
			&entry.Detail,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", scanErr)
		}

		if entityID.Valid {
			id := uuid.UUID(entityID.Bytes)
			entry.EntityID = &id
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", rowsErr)
	}

	return entries, nil
}
