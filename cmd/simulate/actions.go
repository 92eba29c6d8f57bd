package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/hackgods/donation-pipeline/internal/blood"
	"github.com/hackgods/donation-pipeline/internal/donation"
)

func classify(status int, err error, want int) outcome {
	switch {
	case err != nil:
		return outcomeError
	case status == want:
		return outcomeSuccess
	case status == http.StatusConflict:
		return outcomeConflict
	default:
		return outcomeError
	}
}

func (s *Simulator) readBoard(ctx context.Context) (*donation.Board, bool) {
	var board donation.Board

	start := time.Now()
	status, err := s.client.Do(ctx, http.MethodGet, "/api/admin/pipeline", nil, &board)
	if ctx.Err() != nil {
		return nil, false
	}
	o := classify(status, err, http.StatusOK)
	s.metrics.Board.Record(time.Since(start), o)
	if o != outcomeSuccess {
		s.logger.Debug().Err(err).Int("status", status).Msg("board read failed")
		return nil, false
	}
	return &board, true
}

// actionable lists the cards a worker can push one step further.
func actionable(b *donation.Board) []donation.Card {
	var out []donation.Card
	for _, col := range b.Columns {
		if col.Stage == donation.StageReadyStorage {
			continue
		}
		out = append(out, col.Cards...)
	}
	return out
}

func (s *Simulator) step(ctx context.Context, f *gofakeit.Faker, c donation.Card) {
	if c.DonationID == nil {
		s.create(ctx, c)
		return
	}

	path := fmt.Sprintf("/api/admin/donations/%s", c.DonationID)
	switch c.Stage {
	case donation.StageNewDonors:
		s.call(ctx, &s.metrics.Advance, http.MethodPatch, path+"/stage", map[string]any{
			"stage":   donation.StageScreening,
			"version": c.Version,
		})
	case donation.StageScreening:
		s.call(ctx, &s.metrics.Screening, http.MethodPut, path+"/screening", s.screening(f, c.Version))
	case donation.StageInProgress:
		s.call(ctx, &s.metrics.Collection, http.MethodPut, path+"/collection", collection(f, c.Version))
	case donation.StageCompleted:
		s.call(ctx, &s.metrics.LabTests, http.MethodPut, path+"/lab-tests", s.labTests(f, c.Version))
	}
}

func (s *Simulator) create(ctx context.Context, c donation.Card) {
	body := map[string]any{}
	switch {
	case c.AppointmentID != nil:
		body["appointmentId"] = c.AppointmentID.String()
	case c.CampParticipantID != nil:
		body["campParticipantId"] = c.CampParticipantID.String()
	default:
		return
	}
	s.call(ctx, &s.metrics.Create, http.MethodPost, "/api/admin/donations", body)
}

func (s *Simulator) call(ctx context.Context, om *OperationMetrics, method, path string, body any) {
	want := http.StatusOK
	if method == http.MethodPost {
		want = http.StatusCreated
	}

	start := time.Now()
	status, err := s.client.Do(ctx, method, path, body, nil)
	if ctx.Err() != nil {
		return
	}
	o := classify(status, err, want)
	om.Record(time.Since(start), o)
	if o == outcomeError {
		s.logger.Debug().Err(err).Int("status", status).Str("method", method).Str("path", path).Msg("request failed")
	}
}

func (s *Simulator) screening(f *gofakeit.Faker, version int) map[string]any {
	status := donation.ScreeningApproved
	if f.Float64() < s.config.DeferRatio {
		status = donation.ScreeningDeferred
	}
	return map[string]any{
		"hemoglobin": f.Float64Range(12.0, 17.5),
		"bloodPressure": donation.BloodPressure{
			Systolic:  f.Number(105, 140),
			Diastolic: f.Number(65, 90),
		},
		"weight":          f.Float64Range(50, 110),
		"temperature":     f.Float64Range(36.1, 37.4),
		"screeningStatus": status,
		"version":         version,
	}
}

func collection(f *gofakeit.Faker, version int) map[string]any {
	start := time.Now().Add(-time.Duration(f.Number(8, 15)) * time.Minute)
	return map[string]any{
		"bloodBagIdGenerated": fmt.Sprintf("BAG-%s", f.UUID()),
		"volumeCollected":     f.Number(400, 480),
		"unitsCollected":      1,
		"componentType":       blood.WholeBlood,
		"startTime":           start,
		"endTime":             time.Now(),
		"location":            fmt.Sprintf("Bay %d", f.Number(1, 8)),
		"version":             version,
	}
}

func (s *Simulator) labTests(f *gofakeit.Faker, version int) map[string]any {
	result := func() donation.TestResult {
		if f.Float64() < s.config.PositiveRatio/5 {
			return donation.Positive
		}
		return donation.Negative
	}
	return map[string]any{
		"hiv":        result(),
		"hepatitisB": result(),
		"hepatitisC": result(),
		"syphilis":   result(),
		"malaria":    result(),
		"version":    version,
	}
}
