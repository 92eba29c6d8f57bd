package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/donation-pipeline/internal/db"
)

type PgRepository struct {
	q db.Querier
}

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

const requestColumns = `id, hospital_id, blood_group, component_type, units_needed, urgency, status,
	fulfilled_by, fulfilled_at, notes, created_at, updated_at`

func scanRequest(row pgx.Row) (*BloodRequest, error) {
	var r BloodRequest
	err := row.Scan(
		&r.ID, &r.HospitalID, &r.BloodGroup, &r.ComponentType, &r.UnitsNeeded, &r.Urgency, &r.Status,
		&r.FulfilledBy, &r.FulfilledAt, &r.Notes, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (p *PgRepository) Create(ctx context.Context, r BloodRequest) (*BloodRequest, error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	row := p.q.QueryRow(ctx, `
		INSERT INTO blood_requests (id, hospital_id, blood_group, component_type, units_needed, urgency, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'open', $7, now(), now())
		RETURNING `+requestColumns,
		r.ID, r.HospitalID, r.BloodGroup, r.ComponentType, r.UnitsNeeded, r.Urgency, r.Notes)

	created, err := scanRequest(row)
	if err != nil {
		return nil, fmt.Errorf("insert blood request: %w", err)
	}
	return created, nil
}

func (p *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*BloodRequest, error) {
	row := p.q.QueryRow(ctx, `SELECT `+requestColumns+` FROM blood_requests WHERE id = $1`, id)
	return scanRequest(row)
}

func (p *PgRepository) ListByHospital(ctx context.Context, hospitalID uuid.UUID, status Status) ([]BloodRequest, error) {
	rows, err := p.q.Query(ctx, `
		SELECT `+requestColumns+`
		FROM blood_requests
		WHERE hospital_id = $1
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, hospitalID, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BloodRequest
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

func (p *PgRepository) Fulfill(ctx context.Context, id, donationID uuid.UUID) (*BloodRequest, error) {
	row := p.q.QueryRow(ctx, `
		UPDATE blood_requests
		SET status = 'fulfilled',
		    fulfilled_by = $2,
		    fulfilled_at = now(),
		    updated_at = now()
		WHERE id = $1
		  AND status = 'open'
		RETURNING `+requestColumns, id, donationID)
	return scanRequest(row)
}

func (p *PgRepository) Reopen(ctx context.Context, id, donationID uuid.UUID) (*BloodRequest, error) {
	row := p.q.QueryRow(ctx, `
		UPDATE blood_requests
		SET status = 'open',
		    fulfilled_by = NULL,
		    fulfilled_at = NULL,
		    updated_at = now()
		WHERE id = $1
		  AND (status = 'open' OR (status = 'fulfilled' AND fulfilled_by = $2))
		RETURNING `+requestColumns, id, donationID)
	return scanRequest(row)
}

func (p *PgRepository) Cancel(ctx context.Context, id uuid.UUID) (*BloodRequest, error) {
	row := p.q.QueryRow(ctx, `
		UPDATE blood_requests
		SET status = 'cancelled',
		    updated_at = now()
		WHERE id = $1
		  AND status = 'open'
		RETURNING `+requestColumns, id)
	return scanRequest(row)
}
