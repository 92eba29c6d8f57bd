package main

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/donation-pipeline/internal/auth"
	"github.com/hackgods/donation-pipeline/internal/blood"
	"github.com/hackgods/donation-pipeline/internal/config"
	"github.com/hackgods/donation-pipeline/internal/db"
	"github.com/hackgods/donation-pipeline/internal/logging"
)

// DevPassword is shared by every seeded account.
const DevPassword = "donate-dev-123"

const (
	hospitalCount  = 5
	bloodBankCount = 3
	donorCount     = 2000
	batchSize      = 500
)

type seeder struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
	now    time.Time

	hospitals  []uuid.UUID
	bloodBanks []uuid.UUID
	donors     []uuid.UUID
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.Bootstrap("seed")
		boot.Fatal().Err(err).Msg("config load error")
	}
	logger := logging.New(cfg.Env, "seed")
	logger.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, cfg.Postgres("seed"))
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	s := &seeder{pool: pool, logger: logger, now: time.Now().UTC()}
	if err := s.run(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}

	logger.Info().Str("password", DevPassword).Msg("seed complete")
}

func (s *seeder) run(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"organizations", s.seedOrganizations},
		{"donors", s.seedDonors},
		{"accounts", s.seedAccounts},
		{"appointments", s.seedAppointmentsAndRequests},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("seed %s: %w", step.name, err)
		}
	}
	return nil
}

func (s *seeder) seedOrganizations(ctx context.Context) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for i := 0; i < hospitalCount; i++ {
			id := uuid.New()
			name := fmt.Sprintf("%s %s Hospital", gofakeit.City(), gofakeit.LastName())
			if _, err := tx.Exec(ctx,
				`INSERT INTO organizations (id, name, kind) VALUES ($1, $2, 'hospital')`, id, name); err != nil {
				return err
			}
			s.hospitals = append(s.hospitals, id)
		}
		for i := 0; i < bloodBankCount; i++ {
			id := uuid.New()
			name := fmt.Sprintf("%s Blood Bank", gofakeit.City())
			if _, err := tx.Exec(ctx,
				`INSERT INTO organizations (id, name, kind) VALUES ($1, $2, 'bloodbank')`, id, name); err != nil {
				return err
			}
			s.bloodBanks = append(s.bloodBanks, id)
		}
		s.logger.Info().Int("hospitals", hospitalCount).Int("blood_banks", bloodBankCount).Msg("organizations seeded")
		return nil
	})
}

func (s *seeder) seedDonors(ctx context.Context) error {
	for offset := 0; offset < donorCount; offset += batchSize {
		end := min(offset+batchSize, donorCount)

		batch := &pgx.Batch{}
		for i := offset; i < end; i++ {
			id := uuid.New()
			group := blood.Groups[gofakeit.Number(0, len(blood.Groups)-1)]
			batch.Queue(`
				INSERT INTO donors (id, name, email, phone, blood_group)
				VALUES ($1, $2, $3, $4, $5)
			`, id, gofakeit.Name(), gofakeit.Email(), gofakeit.Phone(), string(group))
			s.donors = append(s.donors, id)
		}

		if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		s.logger.Info().Msgf("donors seeded: %d/%d", end, donorCount)
	}
	return nil
}

func (s *seeder) seedAccounts(ctx context.Context) error {
	hash, err := auth.HashPassword(DevPassword)
	if err != nil {
		return err
	}

	accounts := []struct {
		email string
		role  auth.Role
		org   *uuid.UUID
		donor *uuid.UUID
	}{
		{"admin@donate.local", auth.RoleAdmin, &s.bloodBanks[0], nil},
		{"bank@donate.local", auth.RoleBloodBank, &s.bloodBanks[0], nil},
		{"hospital@donate.local", auth.RoleHospital, &s.hospitals[0], nil},
		{"donor@donate.local", auth.RoleDonor, nil, &s.donors[0]},
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, a := range accounts {
			if _, err := tx.Exec(ctx, `
				INSERT INTO accounts (id, email, password_hash, role, organization_id, donor_id)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (email) DO NOTHING
			`, uuid.New(), a.email, hash, string(a.role), a.org, a.donor); err != nil {
				return err
			}
			s.logger.Info().Str("email", a.email).Str("role", string(a.role)).Msg("account seeded")
		}
		return nil
	})
}

// seedAppointmentsAndRequests books today's appointments at every blood
// bank, spread two hours either side of now, and links roughly one in
// five to an open hospital request for the donor's group.
func (s *seeder) seedAppointmentsAndRequests(ctx context.Context) error {
	const perBank = 40
	components := []blood.Component{blood.WholeBlood, blood.RedCells, blood.Platelets, blood.Plasma}
	urgencies := []string{"normal", "urgent", "critical"}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		donorIdx := 0
		linked := 0
		for _, bank := range s.bloodBanks {
			for i := 0; i < perBank && donorIdx < len(s.donors); i++ {
				donorID := s.donors[donorIdx]
				donorIdx++

				at := s.now.Add(time.Duration(gofakeit.Number(-120, 120)) * time.Minute).Truncate(5 * time.Minute)

				var requestID *uuid.UUID
				if gofakeit.Number(1, 5) == 1 {
					var group string
					if err := tx.QueryRow(ctx, `SELECT blood_group FROM donors WHERE id = $1`, donorID).Scan(&group); err != nil {
						return err
					}
					id := uuid.New()
					if _, err := tx.Exec(ctx, `
						INSERT INTO blood_requests (id, hospital_id, blood_group, component_type, units_needed, urgency, notes)
						VALUES ($1, $2, $3, $4, $5, $6, $7)
					`, id,
						s.hospitals[gofakeit.Number(0, len(s.hospitals)-1)],
						group,
						string(components[gofakeit.Number(0, len(components)-1)]),
						gofakeit.Number(1, 4),
						urgencies[gofakeit.Number(0, len(urgencies)-1)],
						"Requested for patient "+gofakeit.Name(),
					); err != nil {
						return err
					}
					requestID = &id
					linked++
				}

				if _, err := tx.Exec(ctx, `
					INSERT INTO appointments (id, donor_id, organization_id, date_time, status, request_id)
					VALUES ($1, $2, $3, $4, 'UPCOMING', $5)
				`, uuid.New(), donorID, bank, at, requestID); err != nil {
					return err
				}
			}
		}
		s.logger.Info().Int("appointments", donorIdx).Int("linked_requests", linked).Msg("appointments seeded")
		return nil
	})
}
