package donation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateManualTransition(t *testing.T) {
	approved := &Screening{ScreeningStatus: ScreeningApproved}
	deferred := &Screening{ScreeningStatus: ScreeningDeferred}
	collected := &Collection{BloodBagIDGenerated: "BAG-1"}

	tests := []struct {
		name    string
		d       Donation
		to      Stage
		wantErr bool
	}{
		{"same stage is a no-op", Donation{Stage: StageInProgress}, StageInProgress, false},
		{"same terminal stage is a no-op", Donation{Stage: StageRejected}, StageRejected, false},
		{"new donors to screening", Donation{Stage: StageNewDonors}, StageScreening, false},
		{"screening to in progress with approval", Donation{Stage: StageScreening, Screening: approved}, StageInProgress, false},
		{"screening to in progress without screening", Donation{Stage: StageScreening}, StageInProgress, true},
		{"screening to in progress when deferred", Donation{Stage: StageScreening, Screening: deferred}, StageInProgress, true},
		{"in progress to completed with collection", Donation{Stage: StageInProgress, Collection: collected}, StageCompleted, false},
		{"in progress to completed without collection", Donation{Stage: StageInProgress}, StageCompleted, true},
		{"skip ahead", Donation{Stage: StageNewDonors}, StageCompleted, true},
		{"move backwards", Donation{Stage: StageScreening}, StageNewDonors, true},
		{"manual ready storage", Donation{Stage: StageCompleted}, StageReadyStorage, true},
		{"manual rejection", Donation{Stage: StageCompleted}, StageRejected, true},
		{"out of terminal", Donation{Stage: StageReadyStorage}, StageCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateManualTransition(tt.d, tt.to)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIllegalTransition)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNextAfterScreening(t *testing.T) {
	next, err := NextAfterScreening(StageScreening, ScreeningApproved)
	assert.NoError(t, err)
	assert.Equal(t, StageInProgress, next)

	for _, status := range []ScreeningStatus{ScreeningRejected, ScreeningDeferred} {
		next, err := NextAfterScreening(StageScreening, status)
		assert.NoError(t, err)
		assert.Equal(t, StageScreening, next, status)
	}

	_, err = NextAfterScreening(StageNewDonors, ScreeningApproved)
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestNextAfterCollection(t *testing.T) {
	next, err := NextAfterCollection(StageInProgress)
	assert.NoError(t, err)
	assert.Equal(t, StageCompleted, next)

	_, err = NextAfterCollection(StageScreening)
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestNextAfterLabTests(t *testing.T) {
	next, err := NextAfterLabTests(StageCompleted, true)
	assert.NoError(t, err)
	assert.Equal(t, StageReadyStorage, next)

	next, err = NextAfterLabTests(StageCompleted, false)
	assert.NoError(t, err)
	assert.Equal(t, StageRejected, next)

	_, err = NextAfterLabTests(StageReadyStorage, true)
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestAllTestsPassed(t *testing.T) {
	clean := LabTests{HIV: Negative, HepatitisB: Negative, HepatitisC: Negative, Syphilis: Negative, Malaria: Negative}
	assert.True(t, AllTestsPassed(clean))

	for _, mutate := range []func(*LabTests){
		func(l *LabTests) { l.HIV = Positive },
		func(l *LabTests) { l.HepatitisB = Positive },
		func(l *LabTests) { l.HepatitisC = Positive },
		func(l *LabTests) { l.Syphilis = Positive },
		func(l *LabTests) { l.Malaria = Positive },
		func(l *LabTests) { l.Malaria = "" },
	} {
		l := clean
		mutate(&l)
		assert.False(t, AllTestsPassed(l))
	}
}

func TestParseStage(t *testing.T) {
	st, err := ParseStage("ready-storage")
	assert.NoError(t, err)
	assert.Equal(t, StageReadyStorage, st)

	_, err = ParseStage("storage")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, "stage", verr.Field)
}
