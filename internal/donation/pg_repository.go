package donation

import (
	"context"
	"encoding/json"
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

func NewPgRepository(q db.Querier) *PgRepository {
	return &PgRepository{q: q}
}

const donationColumns = `id, organization_id, donor_id, donor_name, blood_group, phone, email,
	appointment_id, camp_participant_id, request_id, stage, notes,
	history, screening, collection, lab_tests, version, created_at, updated_at`

// Helpers

func scanDonation(row pgx.Row) (*Donation, error) {
	var (
		d                                       Donation
		history, screening, collection, labData []byte
	)
	err := row.Scan(
		&d.ID, &d.OrganizationID, &d.DonorID, &d.DonorName, &d.BloodGroup, &d.Phone, &d.Email,
		&d.AppointmentID, &d.CampParticipantID, &d.RequestID, &d.Stage, &d.Notes,
		&history, &screening, &collection, &labData, &d.Version, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDonationNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(history, &d.History); err != nil {
		return nil, fmt.Errorf("decode history of %s: %w", d.ID, err)
	}
	if err := unmarshalOptional(screening, &d.Screening); err != nil {
		return nil, fmt.Errorf("decode screening of %s: %w", d.ID, err)
	}
	if err := unmarshalOptional(collection, &d.Collection); err != nil {
		return nil, fmt.Errorf("decode collection of %s: %w", d.ID, err)
	}
	if err := unmarshalOptional(labData, &d.LabTests); err != nil {
		return nil, fmt.Errorf("decode lab tests of %s: %w", d.ID, err)
	}

	return &d, nil
}

func unmarshalOptional[T any](data []byte, dst **T) error {
	if len(data) == 0 {
		*dst = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

// marshalOptional returns nil for a nil document so the column stays NULL.
func marshalOptional[T any](v *T) (any, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}

type documents struct {
	history, screening, collection, labTests any
}

func encodeDocuments(d Donation) (documents, error) {
	var (
		docs documents
		err  error
	)
	history := d.History
	if history == nil {
		history = []HistoryEntry{}
	}
	if docs.history, err = json.Marshal(history); err != nil {
		return docs, err
	}
	if docs.screening, err = marshalOptional(d.Screening); err != nil {
		return docs, err
	}
	if docs.collection, err = marshalOptional(d.Collection); err != nil {
		return docs, err
	}
	if docs.labTests, err = marshalOptional(d.LabTests); err != nil {
		return docs, err
	}
	return docs, nil
}

func mapWriteError(err error) error {
	constraint, ok := db.UniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case "donations_appointment_id_key", "donations_camp_participant_id_key":
		return ErrDonationExists
	case "donations_blood_bag_id_key":
		return ErrDuplicateBagID
	}
	return err
}

// Interface methods

func (r *PgRepository) Create(ctx context.Context, d Donation) (*Donation, error) {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	docs, err := encodeDocuments(d)
	if err != nil {
		return nil, fmt.Errorf("encode donation: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		INSERT INTO donations (id, organization_id, donor_id, donor_name, blood_group, phone, email,
		                       appointment_id, camp_participant_id, request_id, stage, notes,
		                       history, screening, collection, lab_tests, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, 1, now(), now())
		RETURNING `+donationColumns,
		d.ID, d.OrganizationID, d.DonorID, d.DonorName, d.BloodGroup, d.Phone, d.Email,
		d.AppointmentID, d.CampParticipantID, d.RequestID, d.Stage, d.Notes,
		docs.history, docs.screening, docs.collection, docs.labTests)

	created, err := scanDonation(row)
	if err != nil {
		if mapped := mapWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("insert donation: %w", err)
	}
	return created, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Donation, error) {
	row := r.q.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE id = $1`, id)
	return scanDonation(row)
}

func (r *PgRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Donation, error) {
	row := r.q.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE appointment_id = $1`, appointmentID)
	return scanDonation(row)
}

func (r *PgRepository) GetByCampParticipantID(ctx context.Context, participantID uuid.UUID) (*Donation, error) {
	row := r.q.QueryRow(ctx, `SELECT `+donationColumns+` FROM donations WHERE camp_participant_id = $1`, participantID)
	return scanDonation(row)
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]Donation, error) {
	var (
		where []string
		args  []any
	)
	if f.OrganizationID != nil {
		args = append(args, *f.OrganizationID)
		where = append(where, fmt.Sprintf("organization_id = $%d", len(args)))
	}
	if f.DonorID != nil {
		args = append(args, *f.DonorID)
		where = append(where, fmt.Sprintf("donor_id = $%d", len(args)))
	}
	if f.Stage != "" {
		args = append(args, f.Stage)
		where = append(where, fmt.Sprintf("stage = $%d", len(args)))
	}

	query := `SELECT ` + donationColumns + ` FROM donations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at ASC"
	if f.Limit > 0 {
		args = append(args, f.Limit, f.Offset)
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Donation
	for rows.Next() {
		d, err := scanDonation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (r *PgRepository) Update(ctx context.Context, d Donation) (*Donation, error) {
	docs, err := encodeDocuments(d)
	if err != nil {
		return nil, fmt.Errorf("encode donation: %w", err)
	}

	row := r.q.QueryRow(ctx, `
		UPDATE donations
		SET stage = $3,
		    notes = $4,
		    history = $5,
		    screening = $6,
		    collection = $7,
		    lab_tests = $8,
		    blood_group = $9,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1
		  AND version = $2
		RETURNING `+donationColumns,
		d.ID, d.Version, d.Stage, d.Notes, docs.history, docs.screening, docs.collection, docs.labTests, d.BloodGroup)

	updated, err := scanDonation(row)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, ErrDonationNotFound) {
		if mapped := mapWriteError(err); mapped != err {
			return nil, mapped
		}
		return nil, fmt.Errorf("update donation %s: %w", d.ID, err)
	}

	// No row matched: either the donation is gone or the version moved on.
	if _, getErr := r.GetByID(ctx, d.ID); getErr != nil {
		return nil, getErr
	}
	return nil, ErrVersionConflict
}
