package camp

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

const participantColumns = `
	p.id, p.camp_id, p.donor_id, p.name, p.blood_group, p.phone, p.status, p.registered_at,
	c.organization_id, c.starts_at`

func scanCamp(row pgx.Row) (*Camp, error) {
	var c Camp
	err := row.Scan(&c.ID, &c.OrganizationID, &c.Name, &c.Location, &c.StartsAt, &c.EndsAt, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCampNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanParticipant(row pgx.Row) (*Participant, error) {
	var p Participant
	err := row.Scan(
		&p.ID, &p.CampID, &p.DonorID, &p.Name, &p.BloodGroup, &p.Phone, &p.Status, &p.RegisteredAt,
		&p.OrganizationID, &p.CampStartsAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func collectParticipants(rows pgx.Rows) ([]Participant, error) {
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgRepository) CreateCamp(ctx context.Context, c Camp) (*Camp, error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	row := r.q.QueryRow(ctx, `
		INSERT INTO camps (id, organization_id, name, location, starts_at, ends_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, organization_id, name, location, starts_at, ends_at, created_at
	`, c.ID, c.OrganizationID, c.Name, c.Location, c.StartsAt, c.EndsAt)

	created, err := scanCamp(row)
	if err != nil {
		return nil, fmt.Errorf("insert camp: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetCampByID(ctx context.Context, id uuid.UUID) (*Camp, error) {
	row := r.q.QueryRow(ctx, `
		SELECT id, organization_id, name, location, starts_at, ends_at, created_at
		FROM camps
		WHERE id = $1
	`, id)
	return scanCamp(row)
}

func (r *PgRepository) CreateParticipant(ctx context.Context, p Participant) (*Participant, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	row := r.q.QueryRow(ctx, `
		WITH p AS (
			INSERT INTO camp_participants (id, camp_id, donor_id, name, blood_group, phone, status, registered_at)
			VALUES ($1, $2, $3, $4, $5, $6, 'registered', now())
			RETURNING *
		)
		SELECT `+participantColumns+`
		FROM p
		JOIN camps c ON c.id = p.camp_id
	`, p.ID, p.CampID, p.DonorID, p.Name, p.BloodGroup, p.Phone)

	created, err := scanParticipant(row)
	if err != nil {
		if _, ok := db.ForeignKeyViolation(err); ok {
			return nil, ErrCampNotFound
		}
		return nil, fmt.Errorf("insert participant: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetParticipantByID(ctx context.Context, id uuid.UUID) (*Participant, error) {
	row := r.q.QueryRow(ctx, `
		SELECT `+participantColumns+`
		FROM camp_participants p
		JOIN camps c ON c.id = p.camp_id
		WHERE p.id = $1
	`, id)
	return scanParticipant(row)
}

func (r *PgRepository) ListParticipantsByCamp(ctx context.Context, campID uuid.UUID) ([]Participant, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+participantColumns+`
		FROM camp_participants p
		JOIN camps c ON c.id = p.camp_id
		WHERE p.camp_id = $1
		ORDER BY p.registered_at ASC
	`, campID)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func (r *PgRepository) ListRegisteredByOrganization(ctx context.Context, orgID uuid.UUID) ([]Participant, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+participantColumns+`
		FROM camp_participants p
		JOIN camps c ON c.id = p.camp_id
		WHERE c.organization_id = $1
		  AND p.status = 'registered'
		ORDER BY c.starts_at ASC, p.registered_at ASC
	`, orgID)
	if err != nil {
		return nil, err
	}
	return collectParticipants(rows)
}

func (r *PgRepository) MarkParticipant(ctx context.Context, id uuid.UUID, from []ParticipantStatus, to ParticipantStatus) (bool, error) {
	allowed := make([]string, len(from))
	for i, st := range from {
		allowed[i] = string(st)
	}

	tag, err := r.q.Exec(ctx, `
		UPDATE camp_participants SET status = $2 WHERE id = $1 AND status = ANY($3)
	`, id, to, allowed)
	if err != nil {
		return false, fmt.Errorf("mark participant %s %s: %w", id, to, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *PgRepository) HasDonation(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM donations WHERE camp_participant_id = $1)
	`, id).Scan(&exists)
	return exists, err
}
