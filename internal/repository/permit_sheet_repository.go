package repository

import (
	"context"
	"fmt"

	"github.com/willozwi/AppCaccia/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const permitSheetColumns = `id, sheet_number, year, hunter_id, sheet_type, status, delivered, returned,
	delivered_at, delivered_by, issued_at, issued_to, returned_at, returned_by, notes, source_file,
	created_at, updated_at`

type permitSheetRepository struct {
	q DBTX
}

// NewPermitSheetRepository wires a permit sheet repository on a pool or transaction.
func NewPermitSheetRepository(q DBTX) PermitSheetRepository {
	return &permitSheetRepository{q: q}
}

func (r *permitSheetRepository) Exists(ctx context.Context, year int, sheetNumber string) (bool, error) {
	var exists bool
	err := r.q.QueryRow(
		ctx,
		`SELECT EXISTS (SELECT 1 FROM permit_sheets WHERE year = $1 AND sheet_number = $2)`,
		year,
		sheetNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check permit sheet %s: %w", sheetNumber, classifyErr(err))
	}
	return exists, nil
}

func (r *permitSheetRepository) Create(ctx context.Context, sheet domain.PermitSheet) (domain.PermitSheet, error) {
	if sheet.ID == uuid.Nil {
		sheet.ID = uuid.New()
	}
	if sheet.Type == "" {
		sheet.Type = domain.DefaultSheetType
	}

	row := r.q.QueryRow(
		ctx,
		`INSERT INTO permit_sheets (id, sheet_number, year, hunter_id, sheet_type, status, delivered, returned,
		                            delivered_at, delivered_by, issued_at, issued_to, returned_at, returned_by,
		                            notes, source_file, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		 RETURNING `+permitSheetColumns,
		sheet.ID,
		sheet.SheetNumber,
		sheet.Year,
		sheet.HunterID,
		sheet.Type,
		string(sheet.Status),
		sheet.Delivered,
		sheet.Returned,
		sheet.DeliveredAt,
		nullText(sheet.DeliveredBy),
		sheet.IssuedAt,
		nullText(sheet.IssuedTo),
		sheet.ReturnedAt,
		nullText(sheet.ReturnedBy),
		sheet.Notes,
		sheet.SourceFile,
	)

	created, err := scanPermitSheet(row)
	if err != nil {
		return domain.PermitSheet{}, fmt.Errorf("failed to create permit sheet %s: %w", sheet.SheetNumber, classifyErr(err))
	}
	return created, nil
}

func (r *permitSheetRepository) GetForUpdate(ctx context.Context, sheetNumber string) (domain.PermitSheet, error) {
	row := r.q.QueryRow(
		ctx,
		`SELECT `+permitSheetColumns+` FROM permit_sheets WHERE sheet_number = $1 FOR UPDATE`,
		sheetNumber,
	)
	sheet, err := scanPermitSheet(row)
	if err != nil {
		return domain.PermitSheet{}, fmt.Errorf("failed to lock permit sheet %s: %w", sheetNumber, classifyErr(err))
	}
	return sheet, nil
}

func (r *permitSheetRepository) UpdateStatus(ctx context.Context, sheet domain.PermitSheet) (domain.PermitSheet, error) {
	row := r.q.QueryRow(
		ctx,
		`UPDATE permit_sheets
		 SET status = $2,
		     delivered = $3,
		     returned = $4,
		     delivered_at = $5,
		     delivered_by = $6,
		     returned_at = $7,
		     returned_by = $8,
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+permitSheetColumns,
		sheet.ID,
		string(sheet.Status),
		sheet.Delivered,
		sheet.Returned,
		sheet.DeliveredAt,
		nullText(sheet.DeliveredBy),
		sheet.ReturnedAt,
		nullText(sheet.ReturnedBy),
	)

	updated, err := scanPermitSheet(row)
	if err != nil {
		return domain.PermitSheet{}, fmt.Errorf("failed to update permit sheet %s: %w", sheet.SheetNumber, classifyErr(err))
	}
	return updated, nil
}

func (r *permitSheetRepository) Stats(ctx context.Context, year int) (domain.SheetStats, error) {
	stats := domain.SheetStats{Year: year}

	rows, err := r.q.Query(
		ctx,
		`SELECT status, COUNT(*) FROM permit_sheets WHERE year = $1 GROUP BY status`,
		year,
	)
	if err != nil {
		return stats, fmt.Errorf("failed to compute permit sheet stats: %w", classifyErr(err))
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, fmt.Errorf("failed to scan permit sheet stats: %w", err)
		}
		stats.AddN(domain.SheetStatus(status), count)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("failed to iterate permit sheet stats: %w", classifyErr(err))
	}
	return stats, nil
}

func scanPermitSheet(row pgx.Row) (domain.PermitSheet, error) {
	var (
		sheet       domain.PermitSheet
		hunterID    pgtype.UUID
		status      string
		deliveredAt pgtype.Timestamptz
		deliveredBy pgtype.Text
		issuedAt    pgtype.Timestamptz
		issuedTo    pgtype.Text
		returnedAt  pgtype.Timestamptz
		returnedBy  pgtype.Text
		sourceFile  pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)

	if err := row.Scan(
		&sheet.ID,
		&sheet.SheetNumber,
		&sheet.Year,
		&hunterID,
		&sheet.Type,
		&status,
		&sheet.Delivered,
		&sheet.Returned,
		&deliveredAt,
		&deliveredBy,
		&issuedAt,
		&issuedTo,
		&returnedAt,
		&returnedBy,
		&sheet.Notes,
		&sourceFile,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.PermitSheet{}, err
	}

	sheet.Status = domain.SheetStatus(status)
	if hunterID.Valid {
		id := uuid.UUID(hunterID.Bytes)
		sheet.HunterID = &id
	}
	sheet.DeliveredAt = timePtr(deliveredAt)
	sheet.DeliveredBy = deliveredBy.String
	sheet.IssuedAt = timePtr(issuedAt)
	sheet.IssuedTo = issuedTo.String
	sheet.ReturnedAt = timePtr(returnedAt)
	sheet.ReturnedBy = returnedBy.String
	sheet.SourceFile = textPtr(sourceFile)
	if createdAt.Valid {
		sheet.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		sheet.UpdatedAt = updatedAt.Time
	}
	return sheet, nil
}

func nullText(value string) pgtype.Text {
	return pgtype.Text{String: value, Valid: value != ""}
}
