package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/hackgods/donation-pipeline/internal/db"
)

type PgRepository struct {
	q db.Querier
}

// NewPgRepository works over a pool or an open transaction.
func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

const appointmentColumns = `
	a.id, a.donor_id, a.organization_id, a.date_time, a.status, a.request_id, a.notes,
	a.created_at, a.updated_at,
	d.name, d.blood_group, COALESCE(d.phone, ''), COALESCE(d.email, '')`

// Helpers

func scanDonor(row pgx.Row) (*Donor, error) {
	var d Donor
	err := row.Scan(&d.ID, &d.Name, &d.Email, &d.Phone, &d.BloodGroup, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDonorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanOrganization(row pgx.Row) (*Organization, error) {
	var o Organization
	err := row.Scan(&o.ID, &o.Name, &o.Kind, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrganizationNotFound
		}
		return nil, err
	}
	return &o, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID,
		&a.DonorID,
		&a.OrganizationID,
		&a.DateTime,
		&a.Status,
		&a.RequestID,
		&a.Notes,
		&a.CreatedAt,
		&a.UpdatedAt,
		&a.DonorName,
		&a.BloodGroup,
		&a.Phone,
		&a.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

// Interface methods

func (r *PgRepository) GetDonorByID(ctx context.Context, id uuid.UUID) (*Donor, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, name, email, phone, blood_group, created_at, updated_at
		FROM donors
		WHERE id = $1
	`, id)
	return scanDonor(row)
}

func (r *PgRepository) GetOrganizationByID(ctx context.Context, id uuid.UUID) (*Organization, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, name, kind, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`, id)
	return scanOrganization(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		JOIN donors d ON d.id = a.donor_id
		WHERE a.id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) ListAppointments(ctx context.Context, f Filter) ([]Appointment, error) {
	var (
		where []string
		args  []any
	)
	if f.OrganizationID != nil {
		args = append(args, *f.OrganizationID)
		where = append(where, fmt.Sprintf("a.organization_id = $%d", len(args)))
	}
	if f.DonorID != nil {
		args = append(args, *f.DonorID)
		where = append(where, fmt.Sprintf("a.donor_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}

	query := `SELECT ` + appointmentColumns + `
		FROM appointments a
		JOIN donors d ON d.id = a.donor_id`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.date_time ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) CountUpcomingForDonor(ctx context.Context, donorID uuid.UUID) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `
		SELECT count(*) FROM appointments
		WHERE donor_id = $1 AND status = 'UPCOMING'
	`, donorID).Scan(&n)
	return n, err
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.q.QueryRow(ctx, `
		WITH a AS (
			INSERT INTO appointments (id, donor_id, organization_id, date_time, status, request_id, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, 'UPCOMING', $5, $6, now(), now())
			RETURNING *
		)
		SELECT `+appointmentColumns+`
		FROM a
		JOIN donors d ON d.id = a.donor_id
	`, a.ID, a.DonorID, a.OrganizationID, a.DateTime, a.RequestID, a.Notes)

	created, err := scanAppointment(row)
	if err != nil {
		if constraint, ok := db.ForeignKeyViolation(err); ok {
			switch constraint {
			case "appointments_request_id_fkey":
				return nil, ErrRequestNotFound
			case "appointments_organization_id_fkey":
				return nil, ErrOrganizationNotFound
			case "appointments_donor_id_fkey":
				return nil, ErrDonorNotFound
			}
		}
		return nil, fmt.Errorf("insert appointment: %w", err)
	}
	return created, nil
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.q.QueryRow(ctx, `
		WITH a AS (
			UPDATE appointments
			SET status = $2,
			    updated_at = now()
			WHERE id = $1
			  AND status = $3
			RETURNING *
		)
		SELECT `+appointmentColumns+`
		FROM a
		JOIN donors d ON d.id = a.donor_id
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) MarkStatus(ctx context.Context, id uuid.UUID, from []Status, to Status) (bool, error) {
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = ANY($3)
	`, id, to, allowed)
	if err != nil {
		return false, fmt.Errorf("mark appointment %s %s: %w", id, to, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgRepository) HasDonation(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM donations WHERE appointment_id = $1)
	`, id).Scan(&exists)
	return exists, err
}
