package models

import "time"

// AttendanceOutcome represents the recorded presence result for a learner
// at a specific occurrence.
type AttendanceOutcome string

const (
	AttendanceOutcomePresent AttendanceOutcome = "present"
	AttendanceOutcomeAbsent  AttendanceOutcome = "absent"
	AttendanceOutcomeLate    AttendanceOutcome = "late"
)

// Valid returns true when the outcome is a supported value.
func (o AttendanceOutcome) Valid() bool {
	switch o {
	case AttendanceOutcomePresent, AttendanceOutcomeAbsent, AttendanceOutcomeLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord stores one presence outcome per (enrollment, occurrence)
// pair. Later writes overwrite, they never append.
type AttendanceRecord struct {
	ID           string            `db:"id" json:"id"`
	EnrollmentID string            `db:"enrollment_id" json:"enrollment_id"`
	OccurrenceID string            `db:"occurrence_id" json:"occurrence_id"`
	Outcome      AttendanceOutcome `db:"outcome" json:"outcome"`
	RecordedAt   time.Time         `db:"recorded_at" json:"recorded_at"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

// AttendanceSummary aggregates outcome counts for an enrollment.
type AttendanceSummary struct {
	Present int     `db:"present" json:"present"`
	Late    int     `db:"late" json:"late"`
	Absent  int     `db:"absent" json:"absent"`
	Total   int     `db:"total" json:"total"`
	Percent float64 `json:"percent"`
}

// RosterRow captures one learner's recorded outcome for an occurrence,
// used by roster exports.
type RosterRow struct {
	EnrollmentID string            `db:"enrollment_id" json:"enrollment_id"`
	LearnerID    string            `db:"learner_id" json:"learner_id"`
	Outcome      AttendanceOutcome `db:"outcome" json:"outcome"`
	RecordedAt   time.Time         `db:"recorded_at" json:"recorded_at"`
}
