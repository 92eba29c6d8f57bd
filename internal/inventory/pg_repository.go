package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const unitColumns = `id, organization_id, donation_id, blood_bag_id, blood_group, component_type,
	units, volume_ml, collected_at, expires_at, status, created_at, updated_at`

func scanUnit(row pgx.Row) (*Unit, error) {
	var u Unit
	err := row.Scan(
		&u.ID, &u.OrganizationID, &u.DonationID, &u.BloodBagID, &u.BloodGroup, &u.ComponentType,
		&u.Units, &u.VolumeMl, &u.CollectedAt, &u.ExpiresAt, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnitNotFound
		}
		return nil, err
	}
	return &u, nil
}

func collectUnits(rows pgx.Rows) ([]Unit, error) {
	defer rows.Close()

	var out []Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *PgRepository) Create(ctx context.Context, u Unit) (*Unit, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO inventory_units (id, organization_id, donation_id, blood_bag_id, blood_group, component_type,
		                             units, volume_ml, collected_at, expires_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 'available', now(), now())
		RETURNING `+unitColumns,
		u.ID, u.OrganizationID, u.DonationID, u.BloodBagID, u.BloodGroup, u.ComponentType,
		u.Units, u.VolumeMl, u.CollectedAt, u.ExpiresAt)

	created, err := scanUnit(row)
	if err != nil {
		if _, ok := db.UniqueViolation(err); ok {
			return nil, ErrUnitExists
		}
		return nil, fmt.Errorf("insert inventory unit: %w", err)
	}
	return created, nil
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]Unit, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+unitColumns+`
		FROM inventory_units
		WHERE organization_id = $1
		  AND ($2 = '' OR status = $2)
		  AND ($3 = '' OR blood_group = $3)
		ORDER BY expires_at ASC
	`, f.OrganizationID, string(f.Status), f.BloodGroup)
	if err != nil {
		return nil, err
	}
	return collectUnits(rows)
}

func (r *PgRepository) Stock(ctx context.Context, orgID uuid.UUID) ([]GroupStock, error) {
	rows, err := r.q.Query(ctx, `
		SELECT blood_group, component_type, COALESCE(SUM(units), 0)
		FROM inventory_units
		WHERE organization_id = $1
		  AND status = 'available'
		GROUP BY blood_group, component_type
		ORDER BY blood_group, component_type
	`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GroupStock
	for rows.Next() {
		var s GroupStock
		if err := rows.Scan(&s.BloodGroup, &s.ComponentType, &s.Units); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgRepository) ExpireAvailable(ctx context.Context, now time.Time) ([]Unit, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE inventory_units
		SET status = 'expired',
		    updated_at = now()
		WHERE status = 'available'
		  AND expires_at < $1
		RETURNING `+unitColumns, now)
	if err != nil {
		return nil, err
	}
	return collectUnits(rows)
}
