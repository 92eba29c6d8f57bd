package donation

import (
	"fmt"
	"strings"

	"github.com/hackgods/donation-pipeline/internal/blood"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func validateScreening(s Screening) error {
	switch s.ScreeningStatus {
	case ScreeningApproved, ScreeningRejected, ScreeningDeferred:
	default:
		return invalid("screeningStatus", "must be approved, rejected or deferred")
	}
	if s.Hemoglobin < 5 || s.Hemoglobin > 25 {
		return invalid("hemoglobin", "must be between 5 and 25 g/dL")
	}
	bp := s.BloodPressure
	if bp.Systolic < 50 || bp.Systolic > 300 {
		return invalid("bloodPressure.systolic", "must be between 50 and 300")
	}
	if bp.Diastolic < 30 || bp.Diastolic > 200 {
		return invalid("bloodPressure.diastolic", "must be between 30 and 200")
	}
	if bp.Systolic <= bp.Diastolic {
		return invalid("bloodPressure", "systolic must be higher than diastolic")
	}
	if s.Weight < 1 || s.Weight > 500 {
		return invalid("weight", "must be between 1 and 500 kg")
	}
	if s.Temperature < 30 || s.Temperature > 45 {
		return invalid("temperature", "must be between 30 and 45 C")
	}
	return nil
}

// normalizeCollection validates c and fills defaults for units and
// component type.
func normalizeCollection(c Collection) (Collection, error) {
	c.BloodBagIDGenerated = strings.TrimSpace(c.BloodBagIDGenerated)
	if c.BloodBagIDGenerated == "" {
		return c, invalid("bloodBagIdGenerated", "is required")
	}
	if c.VolumeCollected < 200 || c.VolumeCollected > 500 {
		return c, invalid("volumeCollected", "must be between 200 and 500 ml")
	}
	if c.UnitsCollected == 0 {
		c.UnitsCollected = 1
	}
	if c.UnitsCollected < 1 {
		return c, invalid("unitsCollected", "must be at least 1")
	}
	component, err := blood.ParseComponent(c.ComponentType)
	if err != nil {
		return c, invalid("componentType", "%v", err)
	}
	c.ComponentType = string(component)
	if c.StartTime.IsZero() || c.EndTime.IsZero() {
		return c, invalid("startTime", "start and end times are required")
	}
	if !c.EndTime.After(c.StartTime) {
		return c, invalid("endTime", "must be after startTime")
	}
	return c, nil
}

func validateLabTests(l LabTests) error {
	fields := []struct {
		name string
		val  TestResult
	}{
		{"hiv", l.HIV},
		{"hepatitisB", l.HepatitisB},
		{"hepatitisC", l.HepatitisC},
		{"syphilis", l.Syphilis},
		{"malaria", l.Malaria},
	}
	for _, f := range fields {
		if f.val != Negative && f.val != Positive {
			return invalid(f.name, "must be Negative or Positive")
		}
	}
	if l.ConfirmedBloodGroup != "" {
		if _, err := blood.ParseGroup(l.ConfirmedBloodGroup); err != nil {
			return invalid("confirmedBloodGroup", "%v", err)
		}
	}
	return nil
}
