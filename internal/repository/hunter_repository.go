package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/willozwi/AppCaccia/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const hunterColumns = `id, registry_id, surname, given_name, tax_code, birth_date, municipality,
	phone, email, active, notes, created_at, updated_at`

type hunterRepository struct {
	q DBTX
}

// NewHunterRepository wires a hunter repository on a pool or transaction.
func NewHunterRepository(q DBTX) HunterRepository {
	return &hunterRepository{q: q}
}

func (r *hunterRepository) FindByName(ctx context.Context, surname, givenName string) ([]domain.Hunter, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT `+hunterColumns+`
		 FROM hunters
		 WHERE active
		   AND UPPER(surname) = UPPER($1)
		   AND LOWER(given_name) = LOWER($2)
		 ORDER BY created_at, id`,
		surname,
		givenName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to find hunters by name: %w", classifyErr(err))
	}
	return collectHunters(rows)
}

func (r *hunterRepository) ListActive(ctx context.Context) ([]domain.Hunter, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT `+hunterColumns+`
		 FROM hunters
		 WHERE active
		 ORDER BY surname, given_name, created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list active hunters: %w", classifyErr(err))
	}
	return collectHunters(rows)
}

func (r *hunterRepository) Upsert(ctx context.Context, hunter domain.Hunter) (domain.Hunter, bool, error) {
	if hunter.ID == uuid.Nil {
		hunter.ID = uuid.New()
	}

	row := r.q.QueryRow(
		ctx,
		`INSERT INTO hunters (id, registry_id, surname, given_name, tax_code, birth_date, municipality,
		                      phone, email, active, notes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		 ON CONFLICT (registry_id) DO UPDATE SET updated_at = NOW()
		 RETURNING `+hunterColumns+`, (xmax = 0) AS created`,
		hunter.ID,
		hunter.RegistryID,
		hunter.Surname,
		hunter.GivenName,
		hunter.TaxCode,
		dateParam(hunter.BirthDate),
		hunter.Municipality,
		hunter.Phone,
		hunter.Email,
		hunter.Active,
		hunter.Notes,
	)

	var created bool
	stored, err := scanHunter(row, &created)
	if err != nil {
		return domain.Hunter{}, false, fmt.Errorf("failed to upsert hunter %s: %w", hunter.RegistryID, classifyErr(err))
	}
	return stored, created, nil
}

func collectHunters(rows pgx.Rows) ([]domain.Hunter, error) {
	defer rows.Close()

	hunters := []domain.Hunter{}
	for rows.Next() {
		hunter, err := scanHunter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hunter: %w", err)
		}
		hunters = append(hunters, hunter)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate hunters: %w", classifyErr(err))
	}
	return hunters, nil
}

// scanHunter reads hunterColumns followed by any extra destinations.
func scanHunter(row pgx.Row, extra ...any) (domain.Hunter, error) {
	var (
		hunter       domain.Hunter
		taxCode      pgtype.Text
		birthDate    pgtype.Date
		municipality pgtype.Text
		phone        pgtype.Text
		email        pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
	)

	dest := []any{
		&hunter.ID,
		&hunter.RegistryID,
		&hunter.Surname,
		&hunter.GivenName,
		&taxCode,
		&birthDate,
		&municipality,
		&phone,
		&email,
		&hunter.Active,
		&hunter.Notes,
		&createdAt,
		&updatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return domain.Hunter{}, err
	}

	hunter.TaxCode = textPtr(taxCode)
	hunter.Municipality = textPtr(municipality)
	hunter.Phone = textPtr(phone)
	hunter.Email = textPtr(email)
	if birthDate.Valid {
		value := birthDate.Time
		hunter.BirthDate = &value
	}
	if createdAt.Valid {
		hunter.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		hunter.UpdatedAt = updatedAt.Time
	}
	return hunter, nil
}

func textPtr(value pgtype.Text) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func timePtr(value pgtype.Timestamptz) *time.Time {
	if !value.Valid {
		return nil
	}
	ts := value.Time
	return &ts
}

func dateParam(value *time.Time) pgtype.Date {
	if value == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: *value, Valid: true}
}
