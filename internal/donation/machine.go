package donation

import (
	"errors"
	"fmt"
)

var (
	ErrIllegalTransition = errors.New("illegal stage transition")
	ErrInvalidStage      = errors.New("donation is not in the stage this record belongs to")
)

// ValidateManualTransition checks a staff-requested move (drag-and-drop or
// button) against the pipeline. Moving to the current stage is a no-op and
// always allowed. Terminal outcomes are only reachable through lab results.
func ValidateManualTransition(d Donation, to Stage) error {
	if d.Stage == to {
		return nil
	}
	if d.Stage.Terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrIllegalTransition, d.Stage)
	}

	switch {
	case d.Stage == StageNewDonors && to == StageScreening:
		return nil
	case d.Stage == StageScreening && to == StageInProgress:
		if d.Screening == nil || d.Screening.ScreeningStatus != ScreeningApproved {
			return fmt.Errorf("%w: screening must be approved before collection", ErrIllegalTransition)
		}
		return nil
	case d.Stage == StageInProgress && to == StageCompleted:
		if d.Collection == nil {
			return fmt.Errorf("%w: collection must be recorded before completion", ErrIllegalTransition)
		}
		return nil
	}

	return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, d.Stage, to)
}

// NextAfterScreening is the stage a donation moves to once a screening
// decision is saved. Only approval advances.
func NextAfterScreening(current Stage, status ScreeningStatus) (Stage, error) {
	if current != StageScreening {
		return "", fmt.Errorf("%w: screening requires %s, donation is %s", ErrInvalidStage, StageScreening, current)
	}
	if status == ScreeningApproved {
		return StageInProgress, nil
	}
	return StageScreening, nil
}

func NextAfterCollection(current Stage) (Stage, error) {
	if current != StageInProgress {
		return "", fmt.Errorf("%w: collection requires %s, donation is %s", ErrInvalidStage, StageInProgress, current)
	}
	return StageCompleted, nil
}

func NextAfterLabTests(current Stage, passed bool) (Stage, error) {
	if current != StageCompleted {
		return "", fmt.Errorf("%w: lab tests require %s, donation is %s", ErrInvalidStage, StageCompleted, current)
	}
	if passed {
		return StageReadyStorage, nil
	}
	return StageRejected, nil
}

// AllTestsPassed is true iff every test in the panel is Negative.
func AllTestsPassed(l LabTests) bool {
	for _, r := range l.results() {
		if r != Negative {
			return false
		}
	}
	return true
}
