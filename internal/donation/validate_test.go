package donation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScreening() Screening {
	return Screening{
		Hemoglobin:      13.5,
		BloodPressure:   BloodPressure{Systolic: 120, Diastolic: 80},
		Weight:          70,
		Temperature:     36.8,
		ScreeningStatus: ScreeningApproved,
	}
}

func TestValidateScreening(t *testing.T) {
	require.NoError(t, validateScreening(validScreening()))

	tests := []struct {
		field  string
		mutate func(*Screening)
	}{
		{"screeningStatus", func(s *Screening) { s.ScreeningStatus = "maybe" }},
		{"hemoglobin", func(s *Screening) { s.Hemoglobin = 4.9 }},
		{"hemoglobin", func(s *Screening) { s.Hemoglobin = 25.1 }},
		{"bloodPressure.systolic", func(s *Screening) { s.BloodPressure.Systolic = 301 }},
		{"bloodPressure.diastolic", func(s *Screening) { s.BloodPressure.Diastolic = 20 }},
		{"bloodPressure", func(s *Screening) { s.BloodPressure = BloodPressure{Systolic: 90, Diastolic: 90} }},
		{"weight", func(s *Screening) { s.Weight = 0 }},
		{"temperature", func(s *Screening) { s.Temperature = 46 }},
	}

	for _, tt := range tests {
		s := validScreening()
		tt.mutate(&s)

		err := validateScreening(s)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, tt.field, verr.Field)
	}
}

func TestNormalizeCollection(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	base := Collection{
		BloodBagIDGenerated: "  BAG-0001 ",
		VolumeCollected:     450,
		StartTime:           start,
		EndTime:             start.Add(12 * time.Minute),
	}

	c, err := normalizeCollection(base)
	require.NoError(t, err)
	assert.Equal(t, "BAG-0001", c.BloodBagIDGenerated)
	assert.Equal(t, 1, c.UnitsCollected)
	assert.Equal(t, "whole-blood", c.ComponentType)

	tests := []struct {
		field  string
		mutate func(*Collection)
	}{
		{"bloodBagIdGenerated", func(c *Collection) { c.BloodBagIDGenerated = " " }},
		{"volumeCollected", func(c *Collection) { c.VolumeCollected = 199 }},
		{"volumeCollected", func(c *Collection) { c.VolumeCollected = 501 }},
		{"unitsCollected", func(c *Collection) { c.UnitsCollected = -1 }},
		{"componentType", func(c *Collection) { c.ComponentType = "serum" }},
		{"startTime", func(c *Collection) { c.StartTime = time.Time{} }},
		{"endTime", func(c *Collection) { c.EndTime = c.StartTime }},
	}

	for _, tt := range tests {
		c := base
		tt.mutate(&c)

		_, err := normalizeCollection(c)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, tt.field, verr.Field)
	}
}

func TestValidateLabTests(t *testing.T) {
	clean := LabTests{HIV: Negative, HepatitisB: Negative, HepatitisC: Negative, Syphilis: Negative, Malaria: Negative}
	require.NoError(t, validateLabTests(clean))

	withGroup := clean
	withGroup.ConfirmedBloodGroup = "AB-"
	require.NoError(t, validateLabTests(withGroup))

	missing := clean
	missing.Syphilis = ""
	var verr *ValidationError
	require.ErrorAs(t, validateLabTests(missing), &verr)
	assert.Equal(t, "syphilis", verr.Field)

	badGroup := clean
	badGroup.ConfirmedBloodGroup = "C+"
	require.ErrorAs(t, validateLabTests(badGroup), &verr)
	assert.Equal(t, "confirmedBloodGroup", verr.Field)
}
