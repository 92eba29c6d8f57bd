package donation

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Stage string

const (
	StageNewDonors    Stage = "new-donors"
	StageScreening    Stage = "screening"
	StageInProgress   Stage = "in-progress"
	StageCompleted    Stage = "completed"
	StageReadyStorage Stage = "ready-storage"
	StageRejected     Stage = "rejected"
)

// Columns are the pipeline stages in board order. StageRejected is an
// outcome, not a column.
var Columns = []Stage{StageNewDonors, StageScreening, StageInProgress, StageCompleted, StageReadyStorage}

var columnTitles = map[Stage]string{
	StageNewDonors:    "NEW DONORS",
	StageScreening:    "SCREENING",
	StageInProgress:   "IN PROGRESS",
	StageCompleted:    "COMPLETED",
	StageReadyStorage: "READY FOR STORAGE",
}

func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageNewDonors, StageScreening, StageInProgress, StageCompleted, StageReadyStorage, StageRejected:
		return st, nil
	}
	return "", &ValidationError{Field: "stage", Message: fmt.Sprintf("unknown stage %q", s)}
}

// Terminal stages accept no further transitions.
func (s Stage) Terminal() bool {
	return s == StageReadyStorage || s == StageRejected
}

type ScreeningStatus string

const (
	ScreeningApproved ScreeningStatus = "approved"
	ScreeningRejected ScreeningStatus = "rejected"
	ScreeningDeferred ScreeningStatus = "deferred"
)

type TestResult string

const (
	Negative TestResult = "Negative"
	Positive TestResult = "Positive"
)

type BloodPressure struct {
	Systolic  int `json:"systolic"`
	Diastolic int `json:"diastolic"`
}

type Screening struct {
	Hemoglobin      float64         `json:"hemoglobin"`
	BloodPressure   BloodPressure   `json:"bloodPressure"`
	Weight          float64         `json:"weight"`
	Temperature     float64         `json:"temperature"`
	MedicalHistory  string          `json:"medicalHistory,omitempty"`
	ScreeningStatus ScreeningStatus `json:"screeningStatus"`
	ScreenedAt      time.Time       `json:"screenedAt"`
	ScreenedBy      string          `json:"screenedBy,omitempty"`
}

type Collection struct {
	BloodBagIDGenerated string    `json:"bloodBagIdGenerated"`
	VolumeCollected     int       `json:"volumeCollected"`
	UnitsCollected      int       `json:"unitsCollected"`
	ComponentType       string    `json:"componentType"`
	StartTime           time.Time `json:"startTime"`
	EndTime             time.Time `json:"endTime"`
	Location            string    `json:"location,omitempty"`
	Notes               string    `json:"notes,omitempty"`
	CollectedBy         string    `json:"collectedBy,omitempty"`
}

type LabTests struct {
	HIV                 TestResult `json:"hiv"`
	HepatitisB          TestResult `json:"hepatitisB"`
	HepatitisC          TestResult `json:"hepatitisC"`
	Syphilis            TestResult `json:"syphilis"`
	Malaria             TestResult `json:"malaria"`
	AllTestsPassed      bool       `json:"allTestsPassed"`
	ConfirmedBloodGroup string     `json:"confirmedBloodGroup,omitempty"`
	BloodGroupMismatch  bool       `json:"bloodGroupMismatch"`
	TestedAt            time.Time  `json:"testedAt"`
	TestedBy            string     `json:"testedBy,omitempty"`
	Notes               string     `json:"notes,omitempty"`
}

// results lists the panel in a fixed order.
func (l LabTests) results() []TestResult {
	return []TestResult{l.HIV, l.HepatitisB, l.HepatitisC, l.Syphilis, l.Malaria}
}

const (
	ActionCreated            = "created"
	ActionStageChanged       = "stage_changed"
	ActionScreeningRecorded  = "screening_recorded"
	ActionCollectionRecorded = "collection_recorded"
	ActionLabTestsRecorded   = "lab_tests_recorded"
)

type HistoryEntry struct {
	Action      string    `json:"action"`
	Stage       Stage     `json:"stage,omitempty"`
	PerformedAt time.Time `json:"performedAt"`
	PerformedBy string    `json:"performedBy,omitempty"`
	Notes       string    `json:"notes,omitempty"`
}

type Donation struct {
	ID                uuid.UUID      `json:"id"`
	OrganizationID    uuid.UUID      `json:"organizationId"`
	DonorID           *uuid.UUID     `json:"donorId,omitempty"`
	DonorName         string         `json:"donorName"`
	BloodGroup        string         `json:"bloodGroup"`
	Phone             string         `json:"phone,omitempty"`
	Email             string         `json:"email,omitempty"`
	AppointmentID     *uuid.UUID     `json:"appointmentId,omitempty"`
	CampParticipantID *uuid.UUID     `json:"campParticipantId,omitempty"`
	RequestID         *uuid.UUID     `json:"requestId,omitempty"`
	Stage             Stage          `json:"stage"`
	Notes             string         `json:"notes,omitempty"`
	History           []HistoryEntry `json:"history"`
	Screening         *Screening     `json:"screening,omitempty"`
	Collection        *Collection    `json:"collection,omitempty"`
	LabTests          *LabTests      `json:"labTests,omitempty"`
	Version           int            `json:"version"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
}

func (d *Donation) record(action, by, notes string, at time.Time) {
	d.History = append(d.History, HistoryEntry{
		Action:      action,
		Stage:       d.Stage,
		PerformedAt: at,
		PerformedBy: by,
		Notes:       notes,
	})
}

type Filter struct {
	OrganizationID *uuid.UUID
	DonorID        *uuid.UUID
	Stage          Stage
	Limit          int // 0 means no limit
	Offset         int
}
